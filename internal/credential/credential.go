// Package credential owns registrants, their logins and bearer tokens, and
// resolves tokens to the identity the registry authorizes against.
package credential

import (
	"log/slog"

	"github.com/seecr/gmh-registration-service/internal/credential/handler"
	"github.com/seecr/gmh-registration-service/internal/credential/service"
)

// Service exposes credential management and caller resolution.
type Service = service.Service

// Handler wires the token endpoint to the credential service.
type Handler = handler.Handler

// NewService constructs the credential service over store.
func NewService(store service.Store, opts ...service.Option) *Service {
	return service.New(store, opts...)
}

// NewHandler constructs the HTTP handler for POST /token.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
