// Package httptransport assembles the HTTP surface: middleware, the public
// token and ops routes, and the bearer-protected registry routes.
package httptransport

import (
	"context"
	_ "embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seecr/gmh-registration-service/internal/platform/metrics"
	"github.com/seecr/gmh-registration-service/pkg/platform/httputil"
	"github.com/seecr/gmh-registration-service/pkg/platform/middleware/auth"
	"github.com/seecr/gmh-registration-service/pkg/platform/middleware/metadata"
	"github.com/seecr/gmh-registration-service/pkg/platform/middleware/request"
	"github.com/seecr/gmh-registration-service/pkg/requestcontext"
)

//go:embed openapi.yaml
var openAPISpec []byte

const healthTimeout = 2 * time.Second

// RouteRegistrar is implemented by the context handlers.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Dependencies are the collaborators NewRouter wires together.
type Dependencies struct {
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	Resolver     auth.IdentityResolver
	Credential   RouteRegistrar
	Registration RouteRegistrar
	HealthChecks map[string]HealthCheck
}

// NewRouter builds the chi router. /token, /health, /metrics and the OpenAPI
// document are public; every registry route requires a bearer token.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Recovery(deps.Logger))
	r.Use(request.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.Group(func(r chi.Router) {
		deps.Credential.Register(r)
		r.Get("/api/v1/openapi.yaml", handleOpenAPI)
		r.Get("/health", handleHealth(deps.Logger, deps.HealthChecks))
		if deps.Gatherer != nil {
			r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(deps.Resolver, deps.Logger))
		deps.Registration.Register(r)
	})

	return r
}

func handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	w.Header().Set("Access-Control-Allow-Origin", "https://editor.swagger.io")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPISpec)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// handleHealth reports which checks failed by name only. The check errors
// carry hosts and driver messages, so they are logged instead.
func handleHealth(logger *slog.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		failed := make(map[string]string)
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"request_id", requestcontext.RequestID(ctx),
					"check", name,
					"error", err.Error(),
				)
				failed[name] = "unavailable"
			}
		}
		if len(failed) > 0 {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Checks: failed})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
