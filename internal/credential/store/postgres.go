package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/seecr/gmh-registration-service/internal/credential/models"
	"github.com/seecr/gmh-registration-service/internal/credential/service"
	"github.com/seecr/gmh-registration-service/internal/platform/database"
	"github.com/seecr/gmh-registration-service/pkg/domain"
	"github.com/seecr/gmh-registration-service/pkg/platform/sentinel"
)

var _ service.Store = (*PostgresStore)(nil)

// PostgresStore persists registrants and credentials in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed credential store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateRegistrant(ctx context.Context, registrant *models.Registrant) error {
	query := `
		INSERT INTO registrant (registrant_groupid, prefix, is_ltp)
		VALUES ($1, $2, $3)
		RETURNING registrant_id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query, registrant.GroupID, registrant.Prefix, registrant.IsLTP).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create registrant: %w", err)
	}
	registrant.ID = domain.RegistrantID(id)
	return nil
}

func (s *PostgresStore) FindRegistrantByGroupID(ctx context.Context, groupID string) (*models.Registrant, error) {
	query := `
		SELECT registrant_id, registrant_groupid, prefix, is_ltp
		FROM registrant
		WHERE registrant_groupid = $1
	`
	var r models.Registrant
	var id int64
	err := s.db.QueryRowContext(ctx, query, groupID).Scan(&id, &r.GroupID, &r.Prefix, &r.IsLTP)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find registrant by group id: %w", err)
	}
	r.ID = domain.RegistrantID(id)
	return &r, nil
}

func (s *PostgresStore) FindIdentityByToken(ctx context.Context, token string) (*domain.Identity, error) {
	query := `
		SELECT r.registrant_id, r.registrant_groupid, r.prefix, r.is_ltp
		FROM registrant r
		JOIN credentials c ON c.registrant_id = r.registrant_id
		WHERE c.token = $1
	`
	var identity domain.Identity
	var id int64
	err := s.db.QueryRowContext(ctx, query, token).Scan(&id, &identity.GroupID, &identity.Prefix, &identity.IsLTP)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identity by token: %w", err)
	}
	identity.RegistrantID = domain.RegistrantID(id)
	return &identity, nil
}

func (s *PostgresStore) FindCredentialByUsername(ctx context.Context, username string) (*models.Credential, error) {
	query := `
		SELECT credentials_id, registrant_id, username, password, token
		FROM credentials
		WHERE username = $1
	`
	var c models.Credential
	var registrantID int64
	var token sql.NullString
	err := s.db.QueryRowContext(ctx, query, username).Scan(&c.ID, &registrantID, &c.Username, &c.PasswordHash, &token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential by username: %w", err)
	}
	c.RegistrantID = domain.RegistrantID(registrantID)
	c.Token = token.String
	return &c, nil
}

func (s *PostgresStore) SetCredential(ctx context.Context, registrantID domain.RegistrantID, username, passwordHash string) error {
	query := `
		INSERT INTO credentials (registrant_id, username, password)
		VALUES ($1, $2, $3)
		ON CONFLICT (registrant_id) DO UPDATE SET
			username = EXCLUDED.username,
			password = EXCLUDED.password
	`
	_, err := s.db.ExecContext(ctx, query, int64(registrantID), username, passwordHash)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("set credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetToken(ctx context.Context, credentialID int64, token string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE credentials SET token = $1 WHERE credentials_id = $2`, token, credentialID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("set token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set token rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
