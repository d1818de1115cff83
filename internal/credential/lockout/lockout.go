// Package lockout throttles token issuance after repeated failed logins for
// the same username.
package lockout

import (
	"context"
	"log/slog"
	"strings"
	"time"

	dErrors "github.com/seecr/gmh-registration-service/pkg/domain-errors"
	"github.com/seecr/gmh-registration-service/pkg/requestcontext"
)

// Store counts failures per key within a fixed window. The window starts at
// the first failure and the counter disappears when it ends.
type Store interface {
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	Failures(ctx context.Context, key string) (int, error)
	Clear(ctx context.Context, key string) error
}

// Config holds the lockout thresholds.
type Config struct {
	AttemptsPerWindow int
	Window            time.Duration
}

// DefaultConfig allows five failures per fifteen minutes.
func DefaultConfig() Config {
	return Config{AttemptsPerWindow: 5, Window: 15 * time.Minute}
}

// Service applies the lockout rule on top of a Store.
type Service struct {
	store  Store
	config Config
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, config: DefaultConfig(), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check fails with CodeTooManyRequests once the username has used up its
// attempts for the current window.
func (s *Service) Check(ctx context.Context, username string) error {
	failures, err := s.store.Failures(ctx, key(username))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read login failures")
	}
	if s.config.AttemptsPerWindow > 0 && failures >= s.config.AttemptsPerWindow {
		s.logger.WarnContext(ctx, "token request rejected by lockout",
			"request_id", requestcontext.RequestID(ctx),
			"username", username,
			"failures", failures,
		)
		return dErrors.New(dErrors.CodeTooManyRequests, "too many failed login attempts")
	}
	return nil
}

// RecordFailure counts one failed login.
func (s *Service) RecordFailure(ctx context.Context, username string) error {
	failures, err := s.store.RecordFailure(ctx, key(username), s.config.Window)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login failure")
	}
	if failures == s.config.AttemptsPerWindow {
		s.logger.WarnContext(ctx, "username locked out",
			"request_id", requestcontext.RequestID(ctx),
			"username", username,
			"window", s.config.Window.String(),
		)
	}
	return nil
}

// Clear resets the counter after a successful login.
func (s *Service) Clear(ctx context.Context, username string) error {
	if err := s.store.Clear(ctx, key(username)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear login failures")
	}
	return nil
}

func key(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
