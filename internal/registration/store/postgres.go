package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/seecr/gmh-registration-service/internal/registration/models"
	"github.com/seecr/gmh-registration-service/internal/registration/service"
	"github.com/seecr/gmh-registration-service/pkg/domain"
	"github.com/seecr/gmh-registration-service/pkg/platform/tx"
)

// Named queries. Every store operation maps to exactly one of these; there is
// no dynamic query construction.
const (
	queryLockIdentifier = `
		INSERT INTO identifier (identifier_value)
		VALUES ($1)
		ON CONFLICT (identifier_value) DO UPDATE SET
			identifier_value = EXCLUDED.identifier_value
		RETURNING identifier_id
	`

	queryHasAnyLocation = `
		SELECT EXISTS (
			SELECT 1
			FROM location l
			JOIN identifier i ON i.identifier_id = l.identifier_id
			WHERE i.identifier_value = $1
		)
	`

	queryHasFailoverOwnedBy = `
		SELECT EXISTS (
			SELECT 1
			FROM location l
			JOIN identifier i ON i.identifier_id = l.identifier_id
			WHERE i.identifier_value = $1
			  AND l.registrant_id = $2
			  AND l.is_failover
		)
	`

	queryListLocations = `
		SELECT l.location_url, l.is_failover, l.registrant_id, l.last_modified
		FROM location l
		JOIN identifier i ON i.identifier_id = l.identifier_id
		WHERE i.identifier_value = $1
		  AND ($2 OR NOT l.is_failover)
		ORDER BY l.is_failover, l.last_modified, l.location_id
	`

	queryInsertLocations = `
		WITH ident AS (
			INSERT INTO identifier (identifier_value)
			VALUES ($1)
			ON CONFLICT (identifier_value) DO UPDATE SET
				identifier_value = EXCLUDED.identifier_value
			RETURNING identifier_id
		)
		INSERT INTO location (identifier_id, location_url, registrant_id, is_failover, last_modified)
		SELECT ident.identifier_id, u.url, $3, $4, now()
		FROM ident, unnest($2::text[]) WITH ORDINALITY AS u(url, ord)
		ORDER BY u.ord
		ON CONFLICT (identifier_id, location_url, registrant_id, is_failover) DO NOTHING
	`

	queryDeleteOwnedBy = `
		DELETE FROM location l
		USING identifier i
		WHERE l.identifier_id = i.identifier_id
		  AND i.identifier_value = $1
		  AND l.registrant_id = $2
		  AND l.is_failover = $3
	`

	queryFindIdentifiersByLocation = `
		SELECT DISTINCT i.identifier_value
		FROM identifier i
		JOIN location l ON l.identifier_id = i.identifier_id
		WHERE l.location_url = $1
		ORDER BY i.identifier_value
	`
)

var _ service.Repository = (*PostgresStore)(nil)

// PostgresStore persists identifiers and locations in PostgreSQL.
// This store is pure I/O; authorization and merge rules belong in the service.
type PostgresStore struct {
	db      *sql.DB
	bound   *sql.Tx
	timeout time.Duration
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithStatementTimeout bounds transactions started without a deadline.
func WithStatementTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		s.timeout = d
	}
}

// NewPostgres constructs a PostgreSQL-backed registry store.
func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, timeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PostgresStore) querier(ctx context.Context) tx.Querier {
	if s.bound != nil {
		return s.bound
	}
	return tx.Executor(ctx, s.db)
}

// RunInTx opens a transaction, takes the row lock on identifier (creating
// the identifier row if needed) and runs fn with a store bound to that
// transaction. Concurrent transactions on the same identifier queue on the
// row lock until the holder commits or rolls back.
func (s *PostgresStore) RunInTx(ctx context.Context, identifier string, fn func(store service.Store) error) error {
	if _, ok := ctx.Deadline(); !ok && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return tx.Run(ctx, s.db, func(txCtx context.Context) error {
		sqlTx, _ := tx.From(txCtx)
		var identifierID int64
		if err := sqlTx.QueryRowContext(txCtx, queryLockIdentifier, identifier).Scan(&identifierID); err != nil {
			return fmt.Errorf("lock identifier: %w", err)
		}
		return fn(&PostgresStore{db: s.db, bound: sqlTx})
	})
}

func (s *PostgresStore) HasAnyLocation(ctx context.Context, identifier string) (bool, error) {
	var exists bool
	if err := s.querier(ctx).QueryRowContext(ctx, queryHasAnyLocation, identifier).Scan(&exists); err != nil {
		return false, fmt.Errorf("has any location: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) HasFailoverLocationOwnedBy(ctx context.Context, identifier string, registrantID domain.RegistrantID) (bool, error) {
	var exists bool
	err := s.querier(ctx).QueryRowContext(ctx, queryHasFailoverOwnedBy, identifier, int64(registrantID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has failover location owned by: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListLocations(ctx context.Context, identifier string, includeFailover bool) ([]*models.Location, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, queryListLocations, identifier, includeFailover)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return locations, nil
}

func (s *PostgresStore) InsertLocations(ctx context.Context, identifier string, uris []string, registrantID domain.RegistrantID, isFailover bool) error {
	_, err := s.querier(ctx).ExecContext(ctx, queryInsertLocations,
		identifier,
		pq.Array(uris),
		int64(registrantID),
		isFailover,
	)
	if err != nil {
		return fmt.Errorf("insert locations: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteLocationsOwnedBy(ctx context.Context, identifier string, registrantID domain.RegistrantID, isFailover bool) error {
	_, err := s.querier(ctx).ExecContext(ctx, queryDeleteOwnedBy, identifier, int64(registrantID), isFailover)
	if err != nil {
		return fmt.Errorf("delete locations owned by: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindIdentifiersByLocation(ctx context.Context, uri string) ([]string, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, queryFindIdentifiersByLocation, uri)
	if err != nil {
		return nil, fmt.Errorf("find identifiers by location: %w", err)
	}
	defer rows.Close()

	var identifiers []string
	for rows.Next() {
		var identifier string
		if err := rows.Scan(&identifier); err != nil {
			return nil, fmt.Errorf("scan identifier: %w", err)
		}
		identifiers = append(identifiers, identifier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identifiers: %w", err)
	}
	return identifiers, nil
}

// Ping checks database connectivity for the health endpoint.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type locationRowScanner interface {
	Scan(dest ...any) error
}

// scanLocation decodes one location row. is_failover is a BOOLEAN column and
// decodes straight into bool.
func scanLocation(row locationRowScanner) (*models.Location, error) {
	var loc models.Location
	var registrantID int64
	if err := row.Scan(&loc.URI, &loc.IsFailover, &registrantID, &loc.LastModified); err != nil {
		return nil, err
	}
	loc.RegistrantID = domain.RegistrantID(registrantID)
	return &loc, nil
}
