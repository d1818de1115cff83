package service

import (
	"context"

	"github.com/seecr/gmh-registration-service/internal/registration/models"
	"github.com/seecr/gmh-registration-service/pkg/domain"
)

// Store is the persistence surface the registration engine needs. Every
// method is a single fixed query against the registry; callers pass the
// identifier in the form it should be matched in.
type Store interface {
	HasAnyLocation(ctx context.Context, identifier string) (bool, error)
	HasFailoverLocationOwnedBy(ctx context.Context, identifier string, registrantID domain.RegistrantID) (bool, error)
	ListLocations(ctx context.Context, identifier string, includeFailover bool) ([]*models.Location, error)
	InsertLocations(ctx context.Context, identifier string, uris []string, registrantID domain.RegistrantID, isFailover bool) error
	DeleteLocationsOwnedBy(ctx context.Context, identifier string, registrantID domain.RegistrantID, isFailover bool) error
	FindIdentifiersByLocation(ctx context.Context, uri string) ([]string, error)
}

// StoreTx provides a transactional boundary for read-modify-write sequences
// on one identifier. Implementations serialize concurrent transactions on the
// same identifier and discard every write made by fn when it returns an error.
type StoreTx interface {
	RunInTx(ctx context.Context, identifier string, fn func(store Store) error) error
}

// Repository is a Store that can also open transactions. Both the Postgres
// and in-memory stores satisfy it.
type Repository interface {
	Store
	StoreTx
}
