package auth

import (
	"net/http"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// RequireLogin rejects requests without backend credentials and binds them to
// the request context for the gateway client.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds, ok := shared.SessionFromContext(r.Context()).Credentials()
		if !ok || !creds.Valid(time.Now()) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.WithCredentials(r.Context(), creds)))
	})
}
