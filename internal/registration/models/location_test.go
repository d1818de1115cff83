package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestIsValidLocation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"https host", "https://deadcoff.ee", true},
		{"http with www", "http://www.example.org", true},
		{"path query fragment", "https://repository.example.nl/items/42?view=full#top", true},
		{"port", "https://example.nl:8443/record", true},
		{"empty", "", false},
		{"free text", "INVALID", false},
		{"ftp scheme", "ftp://example.org/file", false},
		{"mailto", "mailto:info@example.org", false},
		{"missing host", "https://", false},
		{"single label host", "https://localhost", false},
		{"single slash", "https:/example.org", false},
		{"upper case scheme", "HTTPS://example.org", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidLocation(tt.input))
		})
	}
}

func TestIsValidLocation_GeneratedURLs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		uri := rapid.StringMatching(`https?://(www\.)?[a-z0-9-]{1,20}\.[a-z]{2,6}(/[a-zA-Z0-9._~-]{0,12}){0,4}`).Draw(t, "uri")
		if !IsValidLocation(uri) {
			t.Fatalf("expected %q to be valid", uri)
		}
	})
}

func TestSortForResolution(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 0, 0, 1, 0, time.UTC)
	t2 := t1.Add(time.Second)

	l1 := &Location{URI: "https://one.nl", IsFailover: false, LastModified: t1}
	l2 := &Location{URI: "https://two.nl", IsFailover: true, LastModified: t2}
	l3 := &Location{URI: "https://three.nl", IsFailover: true, LastModified: t1}

	locations := []*Location{l2, l1, l3}
	SortForResolution(locations)

	res := &Resolution{Identifier: "urn:nbn:nl:ui:42-X", Locations: locations}
	assert.Equal(t, []string{"https://one.nl", "https://three.nl", "https://two.nl"}, res.URIs())
}

func TestSortForResolution_PrimaryAlwaysFirst(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		locations := make([]*Location, n)
		for i := range locations {
			locations[i] = &Location{
				URI:          "https://example.nl",
				IsFailover:   rapid.Bool().Draw(t, "failover"),
				LastModified: base.Add(time.Duration(rapid.IntRange(0, 5).Draw(t, "offset")) * time.Second),
			}
		}

		SortForResolution(locations)

		seenFailover := false
		for i, loc := range locations {
			if loc.IsFailover {
				seenFailover = true
			} else if seenFailover {
				t.Fatalf("primary location at %d follows a failover location", i)
			}
			if i > 0 && locations[i-1].IsFailover == loc.IsFailover && loc.LastModified.Before(locations[i-1].LastModified) {
				t.Fatalf("location %d is older than its predecessor within the same group", i)
			}
		}
	})
}
