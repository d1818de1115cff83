package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/seecr/gmh-registration-service/internal/registration/metrics"
	"github.com/seecr/gmh-registration-service/internal/registration/models"
	"github.com/seecr/gmh-registration-service/internal/registration/policy"
	"github.com/seecr/gmh-registration-service/pkg/domain"
	dErrors "github.com/seecr/gmh-registration-service/pkg/domain-errors"
	"github.com/seecr/gmh-registration-service/pkg/platform/sentinel"
	pkgstrings "github.com/seecr/gmh-registration-service/pkg/platform/strings"
	"github.com/seecr/gmh-registration-service/pkg/requestcontext"
)

// Caller-facing messages.
const (
	MessageInvalidWriteInput  = "Invalid URN:NBN identifier pattern or location uri(s) supplied"
	MessageInvalidIdentifier  = "Invalid URN:NBN identifier pattern supplied"
	MessageConflict           = "Conflict, resource already exists"
	MessageIdentifierNotFound = "Supplied URN:NBN identifier not found"
	MessageLocationNotFound   = "Object (location) not found"
	MessageInternal           = "Internal server error"
)

const tracerName = "github.com/seecr/gmh-registration-service/internal/registration"

// Service is the registration engine. It holds no locks of its own; every
// read-modify-write sequence runs inside the repository's transaction.
type Service struct {
	repo    Repository
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service backed by repo.
func New(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// Register creates the first location set for an identifier. It fails with
// a conflict when any location, from any owner, already exists.
func (s *Service) Register(ctx context.Context, identity *domain.Identity, identifier string, uris []string) error {
	start := time.Now()
	defer s.observe("register", start)
	ctx, span := s.startSpan(ctx, "registration.Register", identifier)
	defer span.End()

	normalized, uris, err := s.authorizeWrite(ctx, identity, identifier, uris)
	if err != nil {
		return s.fail(ctx, span, "register", err)
	}

	err = s.repo.RunInTx(ctx, normalized, func(store Store) error {
		exists, err := store.HasAnyLocation(ctx, normalized)
		if err != nil {
			return err
		}
		if exists {
			return dErrors.New(dErrors.CodeConflict, MessageConflict)
		}
		return store.InsertLocations(ctx, normalized, uris, identity.RegistrantID, identity.IsLTP)
	})
	if err != nil {
		return s.fail(ctx, span, "register", s.translate(err))
	}

	s.logger.InfoContext(ctx, "identifier registered",
		"request_id", requestcontext.RequestID(ctx),
		"identifier", normalized,
		"group_id", identity.GroupID,
		"locations", len(uris),
		"failover", identity.IsLTP,
	)
	s.recordWrite("register", models.OutcomeCreated, len(uris))
	return nil
}

// Upsert replaces the caller's own location set for an identifier, creating
// the identifier when it has no locations yet. Locations owned by other
// registrants, or owned by the caller in the other primary/failover role,
// are left untouched.
func (s *Service) Upsert(ctx context.Context, identity *domain.Identity, identifier string, uris []string) (models.Outcome, error) {
	start := time.Now()
	defer s.observe("upsert", start)
	ctx, span := s.startSpan(ctx, "registration.Upsert", identifier)
	defer span.End()

	normalized, uris, err := s.authorizeWrite(ctx, identity, identifier, uris)
	if err != nil {
		return 0, s.fail(ctx, span, "upsert", err)
	}

	var outcome models.Outcome
	err = s.repo.RunInTx(ctx, normalized, func(store Store) error {
		exists, err := store.HasAnyLocation(ctx, normalized)
		if err != nil {
			return err
		}
		outcome = models.OutcomeCreated
		if exists {
			outcome = models.OutcomeUpdated
			if err := store.DeleteLocationsOwnedBy(ctx, normalized, identity.RegistrantID, identity.IsLTP); err != nil {
				return err
			}
		}
		return store.InsertLocations(ctx, normalized, uris, identity.RegistrantID, identity.IsLTP)
	})
	if err != nil {
		return 0, s.fail(ctx, span, "upsert", s.translate(err))
	}

	s.logger.InfoContext(ctx, "identifier locations upserted",
		"request_id", requestcontext.RequestID(ctx),
		"identifier", normalized,
		"group_id", identity.GroupID,
		"outcome", outcome.String(),
		"locations", len(uris),
		"failover", identity.IsLTP,
	)
	s.recordWrite("upsert", outcome, len(uris))
	return outcome, nil
}

// Resolve returns the ordered locations of an identifier. The identifier is
// matched verbatim and echoed back as given.
func (s *Service) Resolve(ctx context.Context, identity *domain.Identity, identifier string, includeFailover bool) (*models.Resolution, error) {
	start := time.Now()
	defer s.observe("resolve", start)
	ctx, span := s.startSpan(ctx, "registration.Resolve", identifier)
	defer span.End()
	span.SetAttributes(attribute.Bool("gmh.include_failover", includeFailover))

	if !models.IsValidIdentifier(identifier) {
		return nil, s.fail(ctx, span, "resolve", dErrors.New(dErrors.CodeInvalidInput, MessageInvalidIdentifier))
	}

	decision, err := policy.CanRead(ctx, identity, identifier, s.repo)
	if err != nil {
		return nil, s.fail(ctx, span, "resolve", s.translate(err))
	}
	if !decision.Allowed {
		s.recordDenial(decision.Reason)
		return nil, s.fail(ctx, span, "resolve", decision.Err())
	}

	locations, err := s.repo.ListLocations(ctx, identifier, includeFailover)
	if err != nil {
		return nil, s.fail(ctx, span, "resolve", s.translate(err))
	}
	if len(locations) == 0 {
		return nil, s.fail(ctx, span, "resolve", dErrors.New(dErrors.CodeNotFound, MessageIdentifierNotFound))
	}
	models.SortForResolution(locations)

	return &models.Resolution{Identifier: identifier, Locations: locations}, nil
}

// ReverseLookup returns every identifier that has a location equal to uri.
// No authorization beyond authentication applies.
func (s *Service) ReverseLookup(ctx context.Context, uri string) ([]string, error) {
	start := time.Now()
	defer s.observe("reverse_lookup", start)
	ctx, span := s.tracer.Start(ctx, "registration.ReverseLookup")
	defer span.End()

	if strings.TrimSpace(uri) == "" {
		return nil, s.fail(ctx, span, "reverse_lookup", dErrors.New(dErrors.CodeNotFound, MessageLocationNotFound))
	}
	identifiers, err := s.repo.FindIdentifiersByLocation(ctx, uri)
	if err != nil {
		return nil, s.fail(ctx, span, "reverse_lookup", s.translate(err))
	}
	if len(identifiers) == 0 {
		return nil, s.fail(ctx, span, "reverse_lookup", dErrors.New(dErrors.CodeNotFound, MessageLocationNotFound))
	}
	return identifiers, nil
}

// authorizeWrite validates identifier and uris as one unit, then applies the
// write gate. It returns the normalized identifier and the deduplicated uris.
func (s *Service) authorizeWrite(ctx context.Context, identity *domain.Identity, identifier string, uris []string) (string, []string, error) {
	if !validWriteInput(identifier, uris) {
		return "", nil, dErrors.New(dErrors.CodeInvalidInput, MessageInvalidWriteInput)
	}
	decision := policy.CanWrite(identity, identifier)
	if !decision.Allowed {
		s.recordDenial(decision.Reason)
		return "", nil, decision.Err()
	}
	return models.Unfragment(identifier), pkgstrings.Dedupe(uris), nil
}

func validWriteInput(identifier string, uris []string) bool {
	if !models.IsValidIdentifier(identifier) || len(uris) == 0 {
		return false
	}
	for _, uri := range uris {
		if !models.IsValidLocation(uri) {
			return false
		}
	}
	return true
}

// translate maps store failures to domain errors. Domain errors raised
// inside a transaction pass through unchanged.
func (s *Service) translate(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request timed out")
	}
	if errors.Is(err, sentinel.ErrConflict) || errors.Is(err, sentinel.ErrAlreadyUsed) {
		return dErrors.Wrap(err, dErrors.CodeConflict, MessageConflict)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, MessageInternal)
}

// fail records err on the span and logs internal failures, which carry
// storage details that must stay server-side.
func (s *Service) fail(ctx context.Context, span trace.Span, operation string, err error) error {
	code := dErrors.CodeOf(err)
	span.SetStatus(codes.Error, string(code))
	if code == dErrors.CodeInternal || code == dErrors.CodeTimeout {
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "registration operation failed",
			"request_id", requestcontext.RequestID(ctx),
			"operation", operation,
			"error", err.Error(),
		)
	}
	return err
}

func (s *Service) startSpan(ctx context.Context, name, identifier string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("gmh.identifier", identifier)))
}

func (s *Service) recordWrite(operation string, outcome models.Outcome, locations int) {
	if s.metrics != nil {
		s.metrics.IncrementWrite(operation, outcome.String(), locations)
	}
}

func (s *Service) recordDenial(reason policy.Reason) {
	if s.metrics != nil {
		s.metrics.IncrementDenial(string(reason))
	}
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, start)
	}
}
