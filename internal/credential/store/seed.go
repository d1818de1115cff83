package store

import (
	"context"
	"fmt"

	"github.com/seecr/gmh-registration-service/internal/credential/models"
	"github.com/seecr/gmh-registration-service/internal/credential/secrets"
)

// Bootstrap describes the registrant seeded into an in-memory store so a
// development server can be used without a database.
type Bootstrap struct {
	GroupID  string
	Prefix   string
	IsLTP    bool
	Username string
	Password string
}

// SeedBootstrapRegistrant creates the bootstrap registrant and its login.
func SeedBootstrapRegistrant(ctx context.Context, s *InMemory, b Bootstrap) (*models.Registrant, error) {
	registrant, err := models.NewRegistrant(b.GroupID, b.Prefix, b.IsLTP)
	if err != nil {
		return nil, fmt.Errorf("bootstrap registrant: %w", err)
	}
	if err := s.CreateRegistrant(ctx, registrant); err != nil {
		return nil, fmt.Errorf("create bootstrap registrant: %w", err)
	}
	hash, err := secrets.HashPassword(b.Password)
	if err != nil {
		return nil, fmt.Errorf("hash bootstrap password: %w", err)
	}
	if err := s.SetCredential(ctx, registrant.ID, b.Username, hash); err != nil {
		return nil, fmt.Errorf("set bootstrap credential: %w", err)
	}
	return registrant, nil
}
