package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/seecr/gmh-registration-service/pkg/domain"
	dErrors "github.com/seecr/gmh-registration-service/pkg/domain-errors"
	"github.com/seecr/gmh-registration-service/pkg/platform/httputil"
	"github.com/seecr/gmh-registration-service/pkg/platform/sentinel"
	"github.com/seecr/gmh-registration-service/pkg/requestcontext"
)

// MessageUnauthenticated is returned for a missing, malformed or unknown
// bearer token.
const MessageUnauthenticated = "Authentication information is missing or invalid"

// IdentityResolver maps a bearer token to the registrant behind it. Unknown
// tokens yield sentinel.ErrNotFound.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*domain.Identity, error)
}

// RequireAuth rejects requests without a valid bearer token and places the
// resolved identity in the request context.
func RequireAuth(resolver IdentityResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w)
				return
			}

			identity, err := resolver.ResolveIdentity(ctx, token)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					logger.WarnContext(ctx, "unauthorized access - invalid token",
						"request_id", requestID,
					)
					writeUnauthorized(w)
					return
				}
				logger.ErrorContext(ctx, "failed to resolve bearer token",
					"request_id", requestID,
					"error", err.Error(),
				)
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "Internal server error"))
				return
			}

			logger.InfoContext(ctx, "requests",
				"request_id", requestID,
				"group_id", identity.GroupID,
				"path", r.URL.Path,
			)
			next.ServeHTTP(w, r.WithContext(requestcontext.WithIdentity(ctx, identity)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, MessageUnauthenticated))
}
