package httpx

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
)

func TestHealthz(t *testing.T) {
	r := NewRouter(quietLog())
	rec := call{method: http.MethodGet, path: "/healthz"}.do(t, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouterRecoversPanics(t *testing.T) {
	r := NewRouter(quietLog())
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := call{method: http.MethodGet, path: "/boom"}.do(t, r)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouterSetsRequestID(t *testing.T) {
	r := NewRouter(quietLog())
	var seen string
	r.Get("/id", func(w http.ResponseWriter, req *http.Request) {
		seen = middleware.GetReqID(req.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	rec := call{method: http.MethodGet, path: "/id"}.do(t, r)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, seen)
}
