package testutil

import (
	"net/http"

	"github.com/seecr/gmh-registration-service/pkg/domain"
	"github.com/seecr/gmh-registration-service/pkg/requestcontext"
)

// WithIdentity returns req carrying identity as if the auth middleware had
// resolved it.
func WithIdentity(req *http.Request, identity *domain.Identity) *http.Request {
	return req.WithContext(requestcontext.WithIdentity(req.Context(), identity))
}

// InjectIdentity is middleware that authenticates every request as identity.
func InjectIdentity(identity *domain.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, WithIdentity(r, identity))
		})
	}
}
