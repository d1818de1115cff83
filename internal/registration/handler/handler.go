package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seecr/gmh-registration-service/internal/registration/models"
	"github.com/seecr/gmh-registration-service/pkg/domain"
	dErrors "github.com/seecr/gmh-registration-service/pkg/domain-errors"
	"github.com/seecr/gmh-registration-service/pkg/platform/httputil"
	"github.com/seecr/gmh-registration-service/pkg/requestcontext"
)

// Service defines the registration engine operations the handler needs.
type Service interface {
	Register(ctx context.Context, identity *domain.Identity, identifier string, uris []string) error
	Upsert(ctx context.Context, identity *domain.Identity, identifier string, uris []string) (models.Outcome, error)
	Resolve(ctx context.Context, identity *domain.Identity, identifier string, includeFailover bool) (*models.Resolution, error)
	ReverseLookup(ctx context.Context, uri string) ([]string, error)
}

// Handler serves the identifier and location endpoints. It expects an
// authentication middleware to have placed the caller identity in the
// request context.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a registration Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the registration routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/nbn", h.handleRegister)
	r.Put("/nbn/{identifier}", h.handleUpsert)
	r.Get("/nbn/{identifier}", h.handleResolve)
	r.Get("/nbn/{identifier}/locations", h.handleResolveLocations)
	r.Get("/location/*", h.handleReverseLookup)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Register(ctx, identity, req.Identifier, req.Locations); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteText(w, http.StatusCreated, MessageCreated)
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpsertRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.service.Upsert(ctx, identity, pathParam(r, "identifier"), *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if outcome == models.OutcomeUpdated {
		httputil.WriteText(w, http.StatusOK, MessageUpdated)
		return
	}
	httputil.WriteText(w, http.StatusCreated, MessageCreated)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resolve(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResolutionResponse(res))
}

func (h *Handler) handleResolveLocations(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resolve(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res.URIs())
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (*models.Resolution, bool) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return nil, false
	}

	includeFailover := true
	if raw := r.URL.Query().Get("include_failover"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Bad request"))
			return nil, false
		}
		includeFailover = parsed
	}

	res, err := h.service.Resolve(ctx, identity, pathParam(r, "identifier"), includeFailover)
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	return res, true
}

func (h *Handler) handleReverseLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.requireIdentity(w, r); !ok {
		return
	}

	uri := pathParam(r, "*")
	if r.URL.RawQuery != "" {
		uri += "?" + r.URL.RawQuery
	}

	identifiers, err := h.service.ReverseLookup(ctx, uri)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, identifiers)
}

// requireIdentity guards against routes mounted without the auth middleware.
func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) (*domain.Identity, bool) {
	identity := requestcontext.Identity(r.Context())
	if identity == nil {
		h.logger.ErrorContext(r.Context(), "identity missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return nil, false
	}
	return identity, true
}

// pathParam returns the route parameter decoded exactly once. chi matches on
// r.URL.RawPath when it is set and on the already decoded r.URL.Path
// otherwise, so only the former needs unescaping.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return raw
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
