// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets values; services and handlers read them:
//
//	identity := requestcontext.Identity(ctx)
//	requestID := requestcontext.RequestID(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithIdentity(ctx, &domain.Identity{...})
package requestcontext

import (
	"context"

	"github.com/seecr/gmh-registration-service/pkg/domain"
)

type (
	identityKey  struct{}
	requestIDKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyIdentity  = identityKey{}
	ContextKeyRequestID = requestIDKey{}
)

// Identity returns the authenticated registrant identity, or nil when the
// request was not authenticated.
func Identity(ctx context.Context) *domain.Identity {
	if identity, ok := ctx.Value(ContextKeyIdentity).(*domain.Identity); ok {
		return identity
	}
	return nil
}

// WithIdentity injects the authenticated registrant identity.
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, identity)
}

// RequestID retrieves the request correlation ID.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID injects the request correlation ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}
