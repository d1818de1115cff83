package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seecr/gmh-registration-service/internal/credential/models"
	dErrors "github.com/seecr/gmh-registration-service/pkg/domain-errors"
	"github.com/seecr/gmh-registration-service/pkg/platform/httputil"
	"github.com/seecr/gmh-registration-service/pkg/platform/middleware/metadata"
	"github.com/seecr/gmh-registration-service/pkg/requestcontext"
)

// Service defines the credential operations the handler needs.
type Service interface {
	IssueToken(ctx context.Context, username, password string) (string, error)
}

// Handler serves token issuance. The route is public.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a credential Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the credential routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/token", h.handleIssueToken)
}

// handleIssueToken exchanges a username and password for a fresh bearer
// token, returned as plain text.
func (h *Handler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.TokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	token, err := h.service.IssueToken(ctx, req.Username, req.Password)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeForbidden) {
			h.logger.InfoContext(ctx, "token request denied",
				"request_id", requestID,
				"username", req.Username,
				"client_ip", metadata.ClientIP(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteText(w, http.StatusOK, token)
}
