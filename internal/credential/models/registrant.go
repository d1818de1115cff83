package models

import (
	"strings"

	"github.com/seecr/gmh-registration-service/pkg/domain"
	dErrors "github.com/seecr/gmh-registration-service/pkg/domain-errors"
)

// Registrant is an organization entitled to a URN:NBN namespace.
//
// Invariants:
//   - GroupID is non-empty and unique across registrants
//   - Prefix is non-empty; it is matched case-insensitively against identifiers
//   - IsLTP marks a long-term-preservation custodian that writes failover locations
type Registrant struct {
	ID      domain.RegistrantID `json:"registrant_id"`
	GroupID string              `json:"group_id"`
	Prefix  string              `json:"prefix"`
	IsLTP   bool                `json:"is_ltp"`
}

// NewRegistrant validates and constructs a registrant that has not been
// persisted yet.
func NewRegistrant(groupID, prefix string, isLTP bool) (*Registrant, error) {
	groupID = strings.TrimSpace(groupID)
	prefix = strings.TrimSpace(prefix)
	if groupID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "group id is required")
	}
	if prefix == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "prefix is required")
	}
	return &Registrant{GroupID: groupID, Prefix: prefix, IsLTP: isLTP}, nil
}

// Identity projects the registrant onto the identity the registry core
// authorizes against.
func (r *Registrant) Identity() *domain.Identity {
	return &domain.Identity{
		RegistrantID: r.ID,
		GroupID:      r.GroupID,
		Prefix:       r.Prefix,
		IsLTP:        r.IsLTP,
	}
}

// Credential is the single login of a registrant.
type Credential struct {
	ID           int64
	RegistrantID domain.RegistrantID
	Username     string
	PasswordHash string
	Token        string
}

// HasToken reports whether a bearer token has been issued.
func (c *Credential) HasToken() bool {
	return c.Token != ""
}
