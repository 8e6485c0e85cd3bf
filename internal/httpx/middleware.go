package httpx

import (
	"net/http"
	"slices"
	"strings"

	"github.com/ariefcatur/go-bookstore.git/internal/auth"
)

type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// RequireRole authenticates the bearer token and, when roles are given,
// admits only those roles.
func RequireRole(tokens TokenVerifier, roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				writeJSON(w, http.StatusUnauthorized, message{Message: "no token"})
				return
			}
			id, err := tokens.Verify(token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, message{Message: "token invalid or expired"})
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, id.Role) {
				writeJSON(w, http.StatusForbidden, message{Message: "forbidden"})
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

func bearer(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}
