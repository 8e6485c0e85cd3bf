package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-bookstore.git/internal/accounts"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type Authenticator interface {
	Signup(ctx context.Context, c accounts.Credentials) (accounts.AuthResult, error)
	Login(ctx context.Context, c accounts.Credentials) (accounts.AuthResult, error)
}

type AuthHandler struct {
	Accounts Authenticator
	Log      logrus.FieldLogger
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/signup", h.signup)
	r.Post("/auth/login", h.login)
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req accounts.Credentials
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Accounts.Signup(ctx, req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req accounts.Credentials
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Accounts.Login(ctx, req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
