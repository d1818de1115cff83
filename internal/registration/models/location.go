package models

import (
	"regexp"
	"sort"
	"time"

	"github.com/seecr/gmh-registration-service/pkg/domain"
)

// locationPattern is a permissive http(s) URL grammar: scheme, optional www.,
// host labels, a TLD of at most six characters, then optional path, query and
// fragment characters. It is not a full RFC 3986 parser.
var locationPattern = regexp.MustCompile(
	`^https?://(www\.)?[-a-zA-Z0-9@:%._+~#=]{1,256}\.[a-zA-Z0-9()]{1,6}\b([-a-zA-Z0-9()@:%_+.~#?&/=]*)`,
)

// IsValidLocation reports whether s is an acceptable location URI.
func IsValidLocation(s string) bool {
	return locationPattern.MatchString(s)
}

// Location is one retrieval URI registered for an identifier.
//
// Invariants:
//   - Each location belongs to exactly one identifier
//   - RegistrantID is the registrant that created this row
//   - IsFailover is set when the owner registered it as an LTP custodian
//   - Rows sharing (identifier, RegistrantID, IsFailover) are replaced together
type Location struct {
	URI          string              `json:"uri"`
	IsFailover   bool                `json:"failover"`
	RegistrantID domain.RegistrantID `json:"-"`
	LastModified time.Time           `json:"-"`
}

// Resolution is the ordered set of locations an identifier resolves to.
type Resolution struct {
	Identifier string
	Locations  []*Location
}

// URIs returns the location URIs in resolution order.
func (r *Resolution) URIs() []string {
	uris := make([]string, 0, len(r.Locations))
	for _, loc := range r.Locations {
		uris = append(uris, loc.URI)
	}
	return uris
}

// SortForResolution orders locations primary first, then failover, each group
// oldest first by LastModified. The sort is stable so equal timestamps keep
// insertion order.
func SortForResolution(locations []*Location) {
	sort.SliceStable(locations, func(i, j int) bool {
		a, b := locations[i], locations[j]
		if a.IsFailover != b.IsFailover {
			return !a.IsFailover
		}
		return a.LastModified.Before(b.LastModified)
	})
}
