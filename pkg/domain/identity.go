// Package domain holds identity types shared across bounded contexts.
package domain

import (
	"strconv"

	dErrors "github.com/seecr/gmh-registration-service/pkg/domain-errors"
	pstrings "github.com/seecr/gmh-registration-service/pkg/platform/strings"
)

// RegistrantID is the stable internal key of a registrant organization.
type RegistrantID int64

func (id RegistrantID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// IsZero reports whether the ID is unset. Stores never assign zero.
func (id RegistrantID) IsZero() bool {
	return id == 0
}

// ParseRegistrantID parses a decimal registrant ID.
func ParseRegistrantID(s string) (RegistrantID, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "registrant id is required")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "registrant id must be a positive integer")
	}
	return RegistrantID(n), nil
}

// Identity is the resolved caller behind a bearer token.
//
// Invariants:
//   - RegistrantID never changes for a registrant
//   - Prefix is the namespace the registrant owns, e.g. "urn:nbn:nl:ui:42-"
//   - IsLTP marks long-term-preservation custodians, who may write failover
//     locations outside their own prefix
type Identity struct {
	RegistrantID RegistrantID `json:"registrant_id"`
	GroupID      string       `json:"group_id"`
	Prefix       string       `json:"prefix"`
	IsLTP        bool         `json:"is_ltp"`
}

// OwnsPrefixOf reports whether identifier falls inside the identity's namespace.
// Comparison is case-insensitive. An empty prefix owns nothing.
func (i *Identity) OwnsPrefixOf(identifier string) bool {
	if i == nil || i.Prefix == "" {
		return false
	}
	return pstrings.HasPrefixFold(identifier, i.Prefix)
}
