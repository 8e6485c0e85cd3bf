package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ariefcatur/go-bookstore.git/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{apperr.Validation("quantity must be >= %d", 1), http.StatusBadRequest, "quantity must be >= 1"},
		{apperr.Unauthorized("invalid credentials"), http.StatusUnauthorized, "invalid credentials"},
		{apperr.Forbidden("not your book"), http.StatusForbidden, "not your book"},
		{apperr.NotFound("order not found"), http.StatusNotFound, "order not found"},
		{apperr.Conflict("email already registered"), http.StatusConflict, "email already registered"},
		{apperr.Internal("failed to place order", errors.New("conn reset")), http.StatusInternalServerError, "failed to place order"},
		{errors.New("raw driver error"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		writeError(rec, req, quietLog(), tc.err)
		assert.Equal(t, tc.code, rec.Code, tc.msg)
		assert.Equal(t, tc.msg, messageOf(t, rec))
		assert.NotContains(t, rec.Body.String(), "conn reset")
	}
}

type signupDTO struct {
	Email string `json:"email" validate:"required,email"`
	Qty   int    `json:"qty" validate:"min=1"`
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	var v signupDTO
	err := decodeJSON(req, &v, false)
	require.Error(t, err)
	assert.Equal(t, "invalid json", apperr.Message(err))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"qty":2}`))
	err = decodeJSON(req, &v, false)
	assert.Equal(t, "email is required", apperr.Message(err))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","qty":2}`))
	err = decodeJSON(req, &v, false)
	assert.Equal(t, "email must be a valid email", apperr.Message(err))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.io","qty":0}`))
	err = decodeJSON(req, &v, false)
	assert.Equal(t, "qty must be >= 1", apperr.Message(err))
}

func TestDecodeJSONOptionalBody(t *testing.T) {
	var q quantityReq
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	require.NoError(t, decodeJSON(req, &q, true))
	assert.Nil(t, q.Quantity)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	err := decodeJSON(req, &q, false)
	assert.Equal(t, "invalid json", apperr.Message(err))
}

func TestCheckID(t *testing.T) {
	assert.NoError(t, checkID("9b2f3c1e-3d7a-4c55-8f0e-1a2b3c4d5e6f", "book"))
	err := checkID("42", "book")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "book not found", apperr.Message(err))
}
