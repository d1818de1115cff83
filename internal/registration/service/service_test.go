package service_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/seecr/gmh-registration-service/internal/registration/metrics"
	"github.com/seecr/gmh-registration-service/internal/registration/models"
	"github.com/seecr/gmh-registration-service/internal/registration/policy"
	"github.com/seecr/gmh-registration-service/internal/registration/service"
	"github.com/seecr/gmh-registration-service/internal/registration/store"
	"github.com/seecr/gmh-registration-service/pkg/domain"
	dErrors "github.com/seecr/gmh-registration-service/pkg/domain-errors"
)

// =============================================================================
// Registration Engine Test Suite
// =============================================================================
// Runs against the in-memory store with a controllable clock so that
// last_modified ordering can be asserted exactly.

const (
	identifierX = "urn:nbn:nl:ui:42-X"
	locL1       = "https://example.org/L1"
	locL2       = "https://example.org/L2"
	locL3       = "https://example.org/L3"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type RegistrationServiceSuite struct {
	suite.Suite
	clock   *fakeClock
	store   *store.InMemory
	service *service.Service

	regular  *domain.Identity
	regular2 *domain.Identity
	ltp      *domain.Identity
}

func TestRegistrationServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistrationServiceSuite))
}

func (s *RegistrationServiceSuite) SetupTest() {
	s.clock = &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s.store = store.NewInMemory(store.WithClock(s.clock.Now))
	s.service = service.New(s.store)

	s.regular = &domain.Identity{RegistrantID: 1, GroupID: "ui-42", Prefix: "urn:nbn:nl:ui:42-"}
	s.regular2 = &domain.Identity{RegistrantID: 3, GroupID: "ui-42-bis", Prefix: "urn:nbn:nl:ui:42-"}
	s.ltp = &domain.Identity{RegistrantID: 2, GroupID: "ltp", Prefix: "urn:nbn:nl:ui:99-", IsLTP: true}
}

func (s *RegistrationServiceSuite) tick(d time.Duration) {
	s.clock.Set(s.clock.Now().Add(d))
}

func (s *RegistrationServiceSuite) resolveURIs(identity *domain.Identity, identifier string) []string {
	res, err := s.service.Resolve(context.Background(), identity, identifier, true)
	s.Require().NoError(err)
	return res.URIs()
}

// =============================================================================
// Register Tests
// =============================================================================

func (s *RegistrationServiceSuite) TestRegister() {
	ctx := context.Background()

	s.Run("create then conflict keeps original locations", func() {
		s.SetupTest()
		s.Require().NoError(s.service.Register(ctx, s.regular, identifierX, []string{locL1}))

		err := s.service.Register(ctx, s.regular, identifierX, []string{locL2})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(service.MessageConflict, err.Error())

		s.Equal([]string{locL1}, s.resolveURIs(s.regular, identifierX))
	})

	s.Run("conflict applies to a different caller", func() {
		s.SetupTest()
		s.Require().NoError(s.service.Register(ctx, s.regular, identifierX, []string{locL1}))

		err := s.service.Register(ctx, s.regular2, identifierX, []string{locL2})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("prefix mismatch is forbidden for regular registrant", func() {
		s.SetupTest()
		err := s.service.Register(ctx, s.regular, "urn:nbn:nl:ui:43-X", []string{locL1})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(policy.MessageWritePrefixMismatch, err.Error())
	})

	s.Run("LTP bypasses prefix match and writes failover", func() {
		s.SetupTest()
		s.Require().NoError(s.service.Register(ctx, s.ltp, "urn:nbn:nl:ui:43-X", []string{locL1}))

		locs, err := s.store.ListLocations(ctx, "urn:nbn:nl:ui:43-X", true)
		s.Require().NoError(err)
		s.Require().Len(locs, 1)
		s.True(locs[0].IsFailover)
		s.Equal(s.ltp.RegistrantID, locs[0].RegistrantID)
	})

	s.Run("one invalid location rejects the whole request", func() {
		s.SetupTest()
		err := s.service.Register(ctx, s.regular, identifierX, []string{locL1, "ftp://example.org/x"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Equal(service.MessageInvalidWriteInput, err.Error())

		exists, err := s.store.HasAnyLocation(ctx, identifierX)
		s.Require().NoError(err)
		s.False(exists)
	})

	s.Run("invalid identifier is rejected before authorization", func() {
		s.SetupTest()
		err := s.service.Register(ctx, s.regular, "urn:isbn:123", []string{locL1})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("empty location list is invalid", func() {
		s.SetupTest()
		err := s.service.Register(ctx, s.regular, identifierX, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("duplicate uris are collapsed", func() {
		s.SetupTest()
		s.Require().NoError(s.service.Register(ctx, s.regular, identifierX, []string{locL1, locL2, locL1}))
		s.Equal([]string{locL1, locL2}, s.resolveURIs(s.regular, identifierX))
	})

	s.Run("missing identity is unauthenticated", func() {
		s.SetupTest()
		err := s.service.Register(ctx, nil, identifierX, []string{locL1})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

// TestConcurrentRegister verifies exactly one of many racing registrations
// for the same identifier succeeds.
func (s *RegistrationServiceSuite) TestConcurrentRegister() {
	ctx := context.Background()
	const goroutines = 32

	var wg sync.WaitGroup
	var created, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.service.Register(ctx, s.regular, identifierX, []string{locL1})
			switch {
			case err == nil:
				created.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
	s.Equal([]string{locL1}, s.resolveURIs(s.regular, identifierX))
}

// =============================================================================
// Upsert Tests
// =============================================================================

func (s *RegistrationServiceSuite) TestUpsert() {
	ctx := context.Background()

	s.Run("first upsert creates", func() {
		s.SetupTest()
		outcome, err := s.service.Upsert(ctx, s.regular, identifierX, []string{locL1})
		s.Require().NoError(err)
		s.Equal(models.OutcomeCreated, outcome)
	})

	s.Run("second upsert replaces own set", func() {
		s.SetupTest()
		_, err := s.service.Upsert(ctx, s.regular, identifierX, []string{locL1})
		s.Require().NoError(err)

		outcome, err := s.service.Upsert(ctx, s.regular, identifierX, []string{locL2})
		s.Require().NoError(err)
		s.Equal(models.OutcomeUpdated, outcome)
		s.Equal([]string{locL2}, s.resolveURIs(s.regular, identifierX))
	})

	s.Run("tenant isolation between primary and failover owners", func() {
		s.SetupTest()
		s.Require().NoError(s.service.Register(ctx, s.regular, identifierX, []string{locL1}))

		s.tick(time.Second)
		outcome, err := s.service.Upsert(ctx, s.ltp, identifierX, []string{locL2})
		s.Require().NoError(err)
		s.Equal(models.OutcomeUpdated, outcome)

		res, err := s.service.Resolve(ctx, s.regular, identifierX, true)
		s.Require().NoError(err)
		s.Require().Len(res.Locations, 2)
		s.Equal(locL1, res.Locations[0].URI)
		s.False(res.Locations[0].IsFailover)
		s.Equal(locL2, res.Locations[1].URI)
		s.True(res.Locations[1].IsFailover)

		s.tick(time.Second)
		_, err = s.service.Upsert(ctx, s.ltp, identifierX, []string{locL3})
		s.Require().NoError(err)

		res, err = s.service.Resolve(ctx, s.regular, identifierX, true)
		s.Require().NoError(err)
		s.Require().Len(res.Locations, 2)
		s.Equal(locL1, res.Locations[0].URI)
		s.False(res.Locations[0].IsFailover)
		s.Equal(locL3, res.Locations[1].URI)
		s.True(res.Locations[1].IsFailover)
	})

	s.Run("other registrant on the same prefix keeps its rows", func() {
		s.SetupTest()
		s.Require().NoError(s.service.Register(ctx, s.regular, identifierX, []string{locL1}))
		_, err := s.service.Upsert(ctx, s.regular2, identifierX, []string{locL2})
		s.Require().NoError(err)

		s.ElementsMatch([]string{locL1, locL2}, s.resolveURIs(s.regular, identifierX))
	})

	s.Run("fragment is stripped on write", func() {
		s.SetupTest()
		_, err := s.service.Upsert(ctx, s.regular, "urn:nbn:nl:ui:42-ABC#frag", []string{locL1})
		s.Require().NoError(err)

		identifiers, err := s.service.ReverseLookup(ctx, locL1)
		s.Require().NoError(err)
		s.Equal([]string{"urn:nbn:nl:ui:42-ABC"}, identifiers)
	})

	s.Run("fragmented identifier is matched verbatim on read", func() {
		s.SetupTest()
		_, err := s.service.Upsert(ctx, s.regular, "urn:nbn:nl:ui:42-ABC#frag", []string{locL1})
		s.Require().NoError(err)

		_, err = s.service.Resolve(ctx, s.regular, "urn:nbn:nl:ui:42-ABC#frag", true)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		res, err := s.service.Resolve(ctx, s.regular, "urn:nbn:nl:ui:42-ABC", true)
		s.Require().NoError(err)
		s.Equal("urn:nbn:nl:ui:42-ABC", res.Identifier)
	})

	s.Run("validation and gate match register", func() {
		s.SetupTest()
		_, err := s.service.Upsert(ctx, s.regular, identifierX, []string{"not a url"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = s.service.Upsert(ctx, s.regular, "urn:nbn:nl:ui:43-X", []string{locL1})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

// =============================================================================
// Resolve Tests
// =============================================================================

func (s *RegistrationServiceSuite) TestResolve() {
	ctx := context.Background()

	s.Run("ordering is primary first then oldest failover", func() {
		s.SetupTest()
		t1 := s.clock.Now()
		t2 := t1.Add(time.Hour)

		s.Require().NoError(s.service.Register(ctx, s.regular, identifierX, []string{locL1}))
		s.clock.Set(t2)
		_, err := s.service.Upsert(ctx, s.ltp, identifierX, []string{locL2})
		s.Require().NoError(err)
		// A second LTP registrant writes L3 stamped at t1.
		ltp2 := &domain.Identity{RegistrantID: 4, GroupID: "ltp2", Prefix: "urn:nbn:nl:ui:98-", IsLTP: true}
		s.clock.Set(t1)
		_, err = s.service.Upsert(ctx, ltp2, identifierX, []string{locL3})
		s.Require().NoError(err)

		s.Equal([]string{locL1, locL3, locL2}, s.resolveURIs(s.regular, identifierX))
	})

	s.Run("repeated reads are identical", func() {
		s.SetupTest()
		s.Require().NoError(s.service.Register(ctx, s.regular, identifierX, []string{locL1, locL2}))
		_, err := s.service.Upsert(ctx, s.ltp, identifierX, []string{locL3})
		s.Require().NoError(err)

		first, err := s.service.Resolve(ctx, s.regular, identifierX, true)
		s.Require().NoError(err)
		for i := 0; i < 5; i++ {
			again, err := s.service.Resolve(ctx, s.regular, identifierX, true)
			s.Require().NoError(err)
			s.Equal(first, again)
		}
	})

	s.Run("failover rows can be excluded", func() {
		s.SetupTest()
		s.Require().NoError(s.service.Register(ctx, s.regular, identifierX, []string{locL1}))
		_, err := s.service.Upsert(ctx, s.ltp, identifierX, []string{locL2})
		s.Require().NoError(err)

		res, err := s.service.Resolve(ctx, s.regular, identifierX, false)
		s.Require().NoError(err)
		s.Equal([]string{locL1}, res.URIs())
	})

	s.Run("only failover rows and excluded is not found", func() {
		s.SetupTest()
		s.Require().NoError(s.service.Register(ctx, s.ltp, identifierX, []string{locL1}))

		_, err := s.service.Resolve(ctx, s.regular, identifierX, false)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("LTP needs a prior failover location to read out of prefix", func() {
		s.SetupTest()
		s.Require().NoError(s.service.Register(ctx, s.regular, identifierX, []string{locL1}))

		_, err := s.service.Resolve(ctx, s.ltp, identifierX, true)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(policy.MessageReadPrefixMismatch, err.Error())

		_, err = s.service.Upsert(ctx, s.ltp, identifierX, []string{locL2})
		s.Require().NoError(err)

		res, err := s.service.Resolve(ctx, s.ltp, identifierX, true)
		s.Require().NoError(err)
		s.Equal([]string{locL1, locL2}, res.URIs())
	})

	s.Run("unknown identifier is not found", func() {
		s.SetupTest()
		_, err := s.service.Resolve(ctx, s.regular, "urn:nbn:nl:ui:42-missing", true)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal(service.MessageIdentifierNotFound, err.Error())
	})

	s.Run("invalid identifier syntax", func() {
		s.SetupTest()
		_, err := s.service.Resolve(ctx, s.regular, "urn:nbn:de:42-X", true)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Equal(service.MessageInvalidIdentifier, err.Error())
	})
}

// =============================================================================
// Reverse Lookup Tests
// =============================================================================

func (s *RegistrationServiceSuite) TestReverseLookup() {
	ctx := context.Background()

	s.Run("returns every identifier with the exact uri", func() {
		s.SetupTest()
		s.Require().NoError(s.service.Register(ctx, s.regular, "urn:nbn:nl:ui:42-A", []string{locL1}))
		s.Require().NoError(s.service.Register(ctx, s.regular, "urn:nbn:nl:ui:42-B", []string{locL1, locL2}))

		identifiers, err := s.service.ReverseLookup(ctx, locL1)
		s.Require().NoError(err)
		s.Equal([]string{"urn:nbn:nl:ui:42-A", "urn:nbn:nl:ui:42-B"}, identifiers)
	})

	s.Run("no match is not found", func() {
		s.SetupTest()
		_, err := s.service.ReverseLookup(ctx, "https://nowhere.example.org")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal(service.MessageLocationNotFound, err.Error())
	})

	s.Run("blank uri is not found", func() {
		s.SetupTest()
		_, err := s.service.ReverseLookup(ctx, "  ")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Failure Handling Tests
// =============================================================================

type failingRepo struct {
	*store.InMemory
	err error
}

func (f *failingRepo) FindIdentifiersByLocation(context.Context, string) ([]string, error) {
	return nil, f.err
}

func (f *failingRepo) RunInTx(context.Context, string, func(service.Store) error) error {
	return f.err
}

func (s *RegistrationServiceSuite) TestStoreFailuresAreInternal() {
	ctx := context.Background()
	repo := &failingRepo{InMemory: store.NewInMemory(), err: errors.New("pq: connection refused")}
	svc := service.New(repo)

	err := svc.Register(ctx, s.regular, identifierX, []string{locL1})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeInternal))

	_, err = svc.ReverseLookup(ctx, locL1)
	s.True(dErrors.Is(err, dErrors.CodeInternal))
	var de *dErrors.Error
	s.Require().ErrorAs(err, &de)
	s.Equal(service.MessageInternal, de.Message)
}

func (s *RegistrationServiceSuite) TestInternalFailuresAreLoggedOnce() {
	ctx := context.Background()
	var logs bytes.Buffer
	repo := &failingRepo{InMemory: store.NewInMemory(), err: errors.New("pq: connection refused")}
	svc := service.New(repo, service.WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))

	_, err := svc.ReverseLookup(ctx, locL1)
	s.Require().True(dErrors.Is(err, dErrors.CodeInternal))
	s.Equal(1, strings.Count(logs.String(), "registration operation failed"))
	s.Contains(logs.String(), "pq: connection refused")
	s.Contains(logs.String(), `"operation":"reverse_lookup"`)

	logs.Reset()
	_, err = service.New(s.store, service.WithLogger(slog.New(slog.NewJSONHandler(&logs, nil)))).
		ReverseLookup(ctx, "https://nowhere.example.org/")
	s.Require().True(dErrors.Is(err, dErrors.CodeNotFound))
	s.Empty(logs.String(), "expected outcomes are not logged as failures")
}

func (s *RegistrationServiceSuite) TestMetricsAreRecorded() {
	ctx := context.Background()
	m := metrics.New(prometheus.NewRegistry())
	svc := service.New(s.store, service.WithMetrics(m))

	s.Require().NoError(svc.Register(ctx, s.regular, identifierX, []string{locL1, locL2}))
	_ = svc.Register(ctx, s.regular, "urn:nbn:nl:ui:43-X", []string{locL1})

	s.Equal(1.0, promtestutil.ToFloat64(m.WriteOutcomes.WithLabelValues("register", "created")))
	s.Equal(2.0, promtestutil.ToFloat64(m.LocationsWritten))
	s.Equal(1.0, promtestutil.ToFloat64(m.Denials.WithLabelValues(string(policy.ReasonWritePrefixMismatch))))
}
