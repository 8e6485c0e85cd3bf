package httpx

import (
	"net/http"
	"testing"
	"time"

	"github.com/ariefcatur/go-bookstore.git/internal/auth"
	"github.com/stretchr/testify/assert"
)

func guarded(roles ...auth.Role) (http.Handler, *auth.Identity) {
	var got auth.Identity
	h := RequireRole(testTokens, roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = identity(r)
		w.WriteHeader(http.StatusNoContent)
	}))
	return h, &got
}

func TestRequireRoleMissingToken(t *testing.T) {
	h, _ := guarded(auth.RoleUser)
	for _, authz := range []string{"", "Token abc", "Bearer   "} {
		rec := call{method: http.MethodGet, path: "/", authz: authz}.do(t, h)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, authz)
		assert.Equal(t, "no token", messageOf(t, rec))
	}
}

func TestRequireRoleInvalidToken(t *testing.T) {
	h, _ := guarded(auth.RoleUser)
	rec := call{method: http.MethodGet, path: "/", authz: "Bearer not.a.jwt"}.do(t, h)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token invalid or expired", messageOf(t, rec))

	other := auth.NewTokens("other-secret", time.Hour)
	tok, _ := other.Issue(auth.Identity{ID: "u1", Role: auth.RoleUser})
	rec = call{method: http.MethodGet, path: "/", authz: "Bearer " + tok}.do(t, h)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleWrongRole(t *testing.T) {
	h, _ := guarded(auth.RoleAdmin)
	rec := call{method: http.MethodGet, path: "/", authz: bearerFor(t, auth.RoleSeller, "s1")}.do(t, h)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", messageOf(t, rec))
}

func TestRequireRolePassesIdentity(t *testing.T) {
	h, got := guarded(auth.RoleUser, auth.RoleSeller)
	rec := call{method: http.MethodGet, path: "/", authz: bearerFor(t, auth.RoleSeller, "s1")}.do(t, h)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, auth.Identity{ID: "s1", Name: "Tester", Role: auth.RoleSeller}, *got)

	open, _ := guarded()
	rec = call{method: http.MethodGet, path: "/", authz: bearerFor(t, auth.RoleUser, "u1")}.do(t, open)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
