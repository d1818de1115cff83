// Package registration wires the identifier/location registry: grammar,
// authorization policy, engine, stores and HTTP handler.
package registration

import (
	"log/slog"

	"github.com/seecr/gmh-registration-service/internal/registration/handler"
	"github.com/seecr/gmh-registration-service/internal/registration/service"
)

// Service exposes the registration engine.
type Service = service.Service

// Handler wires HTTP endpoints to the registration engine.
type Handler = handler.Handler

// NewService constructs the registration engine over repo.
func NewService(repo service.Repository, opts ...service.Option) *Service {
	return service.New(repo, opts...)
}

// NewHandler constructs the HTTP handler for the identifier and location routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
