// Package policy decides whether a resolved registrant identity may read or
// write the locations of an identifier.
//
// The two gates are deliberately asymmetric:
//   - write: prefix match, or the caller is an LTP custodian
//   - read: prefix match, or the caller already owns a failover location on
//     this exact identifier
//
// An LTP custodian can therefore write anywhere but only read identifiers it
// has previously written a failover location for.
package policy

import (
	"context"
	"fmt"

	dErrors "github.com/seecr/gmh-registration-service/pkg/domain-errors"
	"github.com/seecr/gmh-registration-service/pkg/domain"
)

// Reason explains a denial.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonUnauthenticated     Reason = "unauthenticated"
	ReasonReadPrefixMismatch  Reason = "read_prefix_mismatch"
	ReasonWritePrefixMismatch Reason = "write_prefix_mismatch"
)

// Caller-facing messages for each denial reason.
const (
	MessageUnauthenticated     = "Authentication information is missing or invalid"
	MessageReadPrefixMismatch  = "URN:NBN-prefix is not registered to this user"
	MessageWritePrefixMismatch = "URN:NBN identifier is valid, but does not match the prefix of the authenticated user"
)

// Decision is the outcome of a gate: Allowed, or denied with a Reason.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision with reason.
func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Err converts a denial into a domain error. Allowed decisions return nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonUnauthenticated:
		return dErrors.New(dErrors.CodeUnauthorized, MessageUnauthenticated)
	case ReasonReadPrefixMismatch:
		return dErrors.New(dErrors.CodeForbidden, MessageReadPrefixMismatch)
	case ReasonWritePrefixMismatch:
		return dErrors.New(dErrors.CodeForbidden, MessageWritePrefixMismatch)
	default:
		return dErrors.New(dErrors.CodeForbidden, "forbidden")
	}
}

// FailoverChecker answers the targeted existence query behind the read gate.
type FailoverChecker interface {
	HasFailoverLocationOwnedBy(ctx context.Context, identifier string, registrantID domain.RegistrantID) (bool, error)
}

// CanRead applies the read gate. The identifier is used verbatim.
// The store is consulted only when the prefix does not match.
func CanRead(ctx context.Context, identity *domain.Identity, identifier string, checker FailoverChecker) (Decision, error) {
	if identity == nil {
		return Deny(ReasonUnauthenticated), nil
	}
	if identity.OwnsPrefixOf(identifier) {
		return Allow(), nil
	}
	owns, err := checker.HasFailoverLocationOwnedBy(ctx, identifier, identity.RegistrantID)
	if err != nil {
		return Decision{}, fmt.Errorf("check failover ownership: %w", err)
	}
	if owns {
		return Allow(), nil
	}
	return Deny(ReasonReadPrefixMismatch), nil
}

// CanWrite applies the write gate. LTP status alone is sufficient; no prior
// relationship with the identifier is required.
func CanWrite(identity *domain.Identity, identifier string) Decision {
	if identity == nil {
		return Deny(ReasonUnauthenticated)
	}
	if identity.OwnsPrefixOf(identifier) || identity.IsLTP {
		return Allow()
	}
	return Deny(ReasonWritePrefixMismatch)
}
