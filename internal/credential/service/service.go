package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/seecr/gmh-registration-service/internal/credential/models"
	"github.com/seecr/gmh-registration-service/internal/credential/secrets"
	"github.com/seecr/gmh-registration-service/pkg/domain"
	dErrors "github.com/seecr/gmh-registration-service/pkg/domain-errors"
	"github.com/seecr/gmh-registration-service/pkg/platform/sentinel"
	"github.com/seecr/gmh-registration-service/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/store-mocks.go -package=mocks Store

// Store persists registrants and their credentials.
type Store interface {
	CreateRegistrant(ctx context.Context, registrant *models.Registrant) error
	FindRegistrantByGroupID(ctx context.Context, groupID string) (*models.Registrant, error)
	FindIdentityByToken(ctx context.Context, token string) (*domain.Identity, error)
	FindCredentialByUsername(ctx context.Context, username string) (*models.Credential, error)
	SetCredential(ctx context.Context, registrantID domain.RegistrantID, username, passwordHash string) error
	SetToken(ctx context.Context, credentialID int64, token string) error
}

// Lockout throttles repeated failed logins.
type Lockout interface {
	Check(ctx context.Context, username string) error
	RecordFailure(ctx context.Context, username string) error
	Clear(ctx context.Context, username string) error
}

// Service resolves bearer tokens to registrant identities and manages the
// credentials behind them.
type Service struct {
	store   Store
	lockout Lockout
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithLockout enables failed-login throttling on IssueToken.
func WithLockout(l Lockout) Option {
	return func(s *Service) {
		s.lockout = l
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ResolveIdentity maps a bearer token to the registrant identity. Unknown
// or empty tokens yield sentinel.ErrNotFound.
func (s *Service) ResolveIdentity(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, sentinel.ErrNotFound
	}
	identity, err := s.store.FindIdentityByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve identity")
	}
	return identity, nil
}

// IssueToken verifies username and password and stores a fresh bearer
// token on the credential, replacing any previous one.
func (s *Service) IssueToken(ctx context.Context, username, password string) (string, error) {
	if s.lockout != nil {
		if err := s.lockout.Check(ctx, username); err != nil {
			if dErrors.HasCode(err, dErrors.CodeTooManyRequests) {
				return "", dErrors.New(dErrors.CodeTooManyRequests, models.MessageTooManyAttempts)
			}
			return "", s.internal(ctx, "lockout check failed", err)
		}
	}

	credential, err := s.store.FindCredentialByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", s.invalidCredentials(ctx, username)
		}
		return "", s.internal(ctx, "failed to load credential", err)
	}
	if err := secrets.VerifyPassword(password, credential.PasswordHash); err != nil {
		if errors.Is(err, secrets.ErrMismatch) {
			return "", s.invalidCredentials(ctx, username)
		}
		return "", s.internal(ctx, "failed to verify password", err)
	}

	token, err := secrets.GenerateToken()
	if err != nil {
		return "", s.internal(ctx, "failed to generate token", err)
	}
	if err := s.store.SetToken(ctx, credential.ID, token); err != nil {
		return "", s.internal(ctx, "failed to store token", err)
	}
	if s.lockout != nil {
		if err := s.lockout.Clear(ctx, username); err != nil {
			s.logger.WarnContext(ctx, "failed to clear lockout after login",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
	}

	s.logger.InfoContext(ctx, "token issued",
		"request_id", requestcontext.RequestID(ctx),
		"username", username,
		"registrant_id", credential.RegistrantID.String(),
	)
	return token, nil
}

// AddRegistrant provisions a registrant for a namespace prefix.
func (s *Service) AddRegistrant(ctx context.Context, groupID, prefix string, isLTP bool) (*models.Registrant, error) {
	registrant, err := models.NewRegistrant(groupID, prefix, isLTP)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	if err := s.store.CreateRegistrant(ctx, registrant); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "group id must be unique")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create registrant")
	}
	s.logger.InfoContext(ctx, "registrant added",
		"group_id", registrant.GroupID,
		"prefix", registrant.Prefix,
		"is_ltp", registrant.IsLTP,
	)
	return registrant, nil
}

// SetPassword sets the login of the registrant with groupID, creating the
// credential on first use. Changing the password keeps the issued token.
func (s *Service) SetPassword(ctx context.Context, groupID, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return dErrors.New(dErrors.CodeValidation, "username is required")
	}
	registrant, err := s.store.FindRegistrantByGroupID(ctx, groupID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "registrant not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registrant")
	}
	hash, err := secrets.HashPassword(password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	if err := s.store.SetCredential(ctx, registrant.ID, username, hash); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return dErrors.New(dErrors.CodeConflict, "username is already used by another registrant")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credential")
	}
	s.logger.InfoContext(ctx, "password set",
		"group_id", registrant.GroupID,
		"username", username,
	)
	return nil
}

func (s *Service) invalidCredentials(ctx context.Context, username string) error {
	if s.lockout != nil {
		if err := s.lockout.RecordFailure(ctx, username); err != nil {
			s.logger.WarnContext(ctx, "failed to record login failure",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
	}
	return dErrors.New(dErrors.CodeForbidden, models.MessageInvalidCredentials)
}

func (s *Service) internal(ctx context.Context, msg string, err error) error {
	s.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, models.MessageInternal)
}
