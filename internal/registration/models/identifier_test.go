package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"with subauthority", "urn:nbn:nl:ui:42-DEADC0FFEE", true},
		{"without subauthority", "urn:nbn:nl:42-1234", true},
		{"upper case", "URN:NBN:NL:UI:42-DEADC0FFEE", true},
		{"mixed case", "Urn:Nbn:nL:Ui:13-x", true},
		{"fragment is accepted as-is", "urn:nbn:nl:ui:42-DEADC0FFEE#aap", true},
		{"empty", "", false},
		{"free text", "invalid", false},
		{"wrong country", "urn:nbn:XX:ui:42-DEADC0FFEE", false},
		{"three letter subauthority", "urn:nbn:nl:uii:42-x", false},
		{"one digit number", "urn:nbn:nl:ui:4-x", false},
		{"three digit number", "urn:nbn:nl:ui:423-x", false},
		{"missing suffix", "urn:nbn:nl:ui:42-", false},
		{"missing dash", "urn:nbn:nl:ui:42x", false},
		{"leading whitespace", " urn:nbn:nl:ui:42-x", false},
		{"bare namespace", "urn:nbn:", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidIdentifier(tt.input))
		})
	}
}

func TestIsValidIdentifier_GeneratedIdentifiers(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := rapid.StringMatching(`[uU][rR][nN]:[nN][bB][nN]:[nN][lL](:[a-zA-Z]{2})?:[0-9]{2}-[A-Za-z0-9._~-]{1,32}`).Draw(t, "identifier")
		if !IsValidIdentifier(id) {
			t.Fatalf("expected %q to be valid", id)
		}
	})
}

func TestUnfragment(t *testing.T) {
	assert.Equal(t, "urn:nbn:nl:ui:42-ABC", Unfragment("urn:nbn:nl:ui:42-ABC#frag"))
	assert.Equal(t, "urn:nbn:nl:ui:42-ABC", Unfragment("urn:nbn:nl:ui:42-ABC#a#b"))
	assert.Equal(t, "urn:nbn:nl:ui:42-ABC", Unfragment("urn:nbn:nl:ui:42-ABC"))
	assert.Equal(t, "", Unfragment("#only"))
}

func TestUnfragment_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := rapid.StringMatching(`urn:nbn:nl:[a-z]{2}:[0-9]{2}-[A-Za-z0-9]{1,16}`).Draw(t, "base")
		fragment := rapid.String().Draw(t, "fragment")

		stripped := Unfragment(base + "#" + fragment)
		if stripped != base {
			t.Fatalf("Unfragment(%q) = %q, want %q", base+"#"+fragment, stripped, base)
		}
		if strings.Contains(stripped, "#") {
			t.Fatalf("unfragmented identifier still contains '#': %q", stripped)
		}
		if Unfragment(stripped) != stripped {
			t.Fatalf("Unfragment is not idempotent for %q", stripped)
		}
	})
}
