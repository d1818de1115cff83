package httptransport

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/seecr/gmh-registration-service/internal/credential"
	credentialservice "github.com/seecr/gmh-registration-service/internal/credential/service"
	credentialstore "github.com/seecr/gmh-registration-service/internal/credential/store"
	"github.com/seecr/gmh-registration-service/internal/platform/metrics"
	"github.com/seecr/gmh-registration-service/internal/registration"
	registrationmetrics "github.com/seecr/gmh-registration-service/internal/registration/metrics"
	registrationservice "github.com/seecr/gmh-registration-service/internal/registration/service"
	registrationstore "github.com/seecr/gmh-registration-service/internal/registration/store"
	"github.com/seecr/gmh-registration-service/pkg/testutil"
)

// =============================================================================
// Router Test Suite
// =============================================================================
// Wires the real services over in-memory stores and drives them through the
// HTTP surface, including token issuance and bearer authentication.

type RouterSuite struct {
	suite.Suite
	router  http.Handler
	healthy error
	token   string
	logs    *bytes.Buffer
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	ctx := context.Background()
	s.logs = &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(s.logs, nil))
	reg := prometheus.NewRegistry()
	s.healthy = nil

	credentials := credential.NewService(credentialstore.NewInMemory(), credentialservice.WithLogger(logger))
	_, err := credentials.AddRegistrant(ctx, "ui-42", "urn:nbn:nl:ui:42-", false)
	s.Require().NoError(err)
	s.Require().NoError(credentials.SetPassword(ctx, "ui-42", "alice", "s3cret"))

	registry := registration.NewService(registrationstore.NewInMemory(),
		registrationservice.WithLogger(logger),
		registrationservice.WithMetrics(registrationmetrics.New(reg)),
	)

	s.router = NewRouter(Dependencies{
		Logger:       logger,
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		Resolver:     credentials,
		Credential:   credential.NewHandler(credentials, logger),
		Registration: registration.NewHandler(registry, logger),
		HealthChecks: map[string]HealthCheck{
			"store": func(context.Context) error { return s.healthy },
		},
	})

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/token",
		map[string]string{"username": "alice", "password": "s3cret"}))
	s.Require().Equal(http.StatusOK, rr.Code)
	s.token = rr.Body.String()
}

func (s *RouterSuite) authorized(req *http.Request) *http.Request {
	return testutil.WithBearer(req, s.token)
}

func (s *RouterSuite) TestRegistryRoutesRequireBearerToken() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/nbn", map[string]any{
		"identifier": "urn:nbn:nl:ui:42-X",
		"locations":  []string{"https://example.org/1"},
	})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	s.Equal("Bearer", rr.Header().Get("WWW-Authenticate"))
	s.NotEmpty(rr.Header().Get("X-Request-ID"))
}

func (s *RouterSuite) TestRegisterResolveAndReverseLookup() {
	req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost, "/nbn", map[string]any{
		"identifier": "urn:nbn:nl:ui:42-X",
		"locations":  []string{"https://example.org/1", "https://example.org/2"},
	}))
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertText(s.T(), rr, http.StatusCreated, "Successful operation (created new)")

	rr = testutil.DoRequest(s.router, s.authorized(testutil.NewRequest(s.T(), http.MethodGet, "/nbn/urn:nbn:nl:ui:42-X")))
	testutil.AssertStatusOK(s.T(), rr)
	body := testutil.UnmarshalResponse[struct {
		Identifier string   `json:"identifier"`
		Locations  []string `json:"locations"`
	}](s.T(), rr)
	s.Equal("urn:nbn:nl:ui:42-X", body.Identifier)
	s.Equal([]string{"https://example.org/1", "https://example.org/2"}, body.Locations)

	rr = testutil.DoRequest(s.router, s.authorized(testutil.NewRequest(s.T(), http.MethodGet, "/location/https://example.org/2")))
	testutil.AssertStatusOK(s.T(), rr)
	s.Equal([]string{"urn:nbn:nl:ui:42-X"}, *testutil.UnmarshalResponse[[]string](s.T(), rr))

	s.Run("token from another login no longer works", func() {
		old := s.token
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/token",
			map[string]string{"username": "alice", "password": "s3cret"}))
		s.Require().Equal(http.StatusOK, rr.Code)

		req := testutil.WithBearer(testutil.NewRequest(s.T(), http.MethodGet, "/nbn/urn:nbn:nl:ui:42-X"), old)
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusUnauthorized)
	})
}

func (s *RouterSuite) TestReverseLookupOfEscapedLocation() {
	req := s.authorized(testutil.NewJSONRequest(s.T(), http.MethodPost, "/nbn", map[string]any{
		"identifier": "urn:nbn:nl:ui:42-X",
		"locations":  []string{"https://a.nl/a%20b"},
	}))
	testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusCreated)

	rr := testutil.DoRequest(s.router, s.authorized(testutil.NewRequest(s.T(), http.MethodGet, "/location/https://a.nl/a%2520b")))
	testutil.AssertStatusOK(s.T(), rr)
	s.Equal([]string{"urn:nbn:nl:ui:42-X"}, *testutil.UnmarshalResponse[[]string](s.T(), rr))

	rr = testutil.DoRequest(s.router, s.authorized(testutil.NewRequest(s.T(), http.MethodGet, "/location/https://a.nl/a%20b")))
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
}

func (s *RouterSuite) TestOpsRoutesArePublic() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/v1/openapi.yaml"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Equal("text/yaml", rr.Header().Get("Content-Type"))
	s.Contains(rr.Body.String(), "openapi: 3.0.3")

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/health"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "status", "ok")

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(s.T(), rr)
	s.Contains(rr.Body.String(), "gmh_http_requests_total")
}

func (s *RouterSuite) TestHealthReportsFailingDependency() {
	s.healthy = errors.New("connection refused")

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/health"))

	testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
	body := testutil.UnmarshalResponse[healthResponse](s.T(), rr)
	s.Equal("unavailable", body.Status)
	s.Equal("unavailable", body.Checks["store"])
	s.NotContains(rr.Body.String(), "connection refused")
	s.Contains(s.logs.String(), "connection refused")
}
