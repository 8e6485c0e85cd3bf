package httpx

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ariefcatur/go-bookstore.git/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testTokens = auth.NewTokens("test-secret", time.Hour)

func bearerFor(t *testing.T, role auth.Role, id string) string {
	t.Helper()
	tok, err := testTokens.Issue(auth.Identity{ID: id, Name: "Tester", Role: role})
	require.NoError(t, err)
	return "Bearer " + tok
}

func quietLog() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func mount(register func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", register)
	return r
}

type call struct {
	method, path, authz string
	body                io.Reader
	contentType         string
	header              map[string]string
}

func (c call) do(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(c.method, c.path, c.body)
	if c.authz != "" {
		req.Header.Set("Authorization", c.authz)
	}
	if c.contentType != "" {
		req.Header.Set("Content-Type", c.contentType)
	} else if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[message](t, rec).Message
}
