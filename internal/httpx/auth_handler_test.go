package httpx

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/ariefcatur/go-bookstore.git/internal/accounts"
	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator struct{ got accounts.Credentials }

func (s *stubAuthenticator) Signup(_ context.Context, c accounts.Credentials) (accounts.AuthResult, error) {
	s.got = c
	return accounts.AuthResult{Token: "t", Role: "user", User: accounts.Summary{ID: "u1", Email: c.Email}}, nil
}

func (s *stubAuthenticator) Login(_ context.Context, c accounts.Credentials) (accounts.AuthResult, error) {
	if c.Password != "right" {
		return accounts.AuthResult{}, apperr.Unauthorized("invalid credentials")
	}
	return accounts.AuthResult{Token: "t", Role: "seller"}, nil
}

func TestSignupAndLogin(t *testing.T) {
	stub := &stubAuthenticator{}
	h := mount((&AuthHandler{Accounts: stub, Log: quietLog()}).Register)

	rec := call{method: http.MethodPost, path: "/api/auth/signup",
		body: strings.NewReader(`{"name":"Ann","email":"ann@x.io","password":"pw","role":"user"}`)}.do(t, h)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Ann", stub.got.Name)
	res := decode[accounts.AuthResult](t, rec)
	assert.Equal(t, "t", res.Token)
	assert.Equal(t, "ann@x.io", res.User.Email)

	rec = call{method: http.MethodPost, path: "/api/auth/login",
		body: strings.NewReader(`{"email":"ann@x.io","password":"wrong","role":"seller"}`)}.do(t, h)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", messageOf(t, rec))

	rec = call{method: http.MethodPost, path: "/api/auth/login",
		body: strings.NewReader(`{"email":"ann@x.io","password":"right","role":"seller"}`)}.do(t, h)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "seller", decode[accounts.AuthResult](t, rec).Role)
}

func TestLoginRequiresFields(t *testing.T) {
	h := mount((&AuthHandler{Accounts: &stubAuthenticator{}, Log: quietLog()}).Register)
	rec := call{method: http.MethodPost, path: "/api/auth/login",
		body: strings.NewReader(`{"email":"ann@x.io","password":"pw"}`)}.do(t, h)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "role is required", messageOf(t, rec))
}
