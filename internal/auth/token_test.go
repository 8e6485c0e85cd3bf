package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedTokens(at time.Time) *Tokens {
	tk := NewTokens("s3cret", time.Hour)
	tk.Now = func() time.Time { return at }
	return tk
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	tk := fixedTokens(time.Now())
	raw, err := tk.Issue(Identity{ID: "u-1", Name: "Asha", Role: RoleUser})
	require.NoError(t, err)

	id, err := tk.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, Identity{ID: "u-1", Name: "Asha", Role: RoleUser}, id)
}

func TestVerifyExpired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	raw, err := fixedTokens(issuedAt).Issue(Identity{ID: "u-1", Role: RoleUser})
	require.NoError(t, err)

	_, err = fixedTokens(time.Now()).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	raw, err := fixedTokens(time.Now()).Issue(Identity{ID: "u-1", Role: RoleSeller})
	require.NoError(t, err)

	other := NewTokens("other", time.Hour)
	_, err = other.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	tk := fixedTokens(time.Now())
	claims := Claims{
		ID:   "u-1",
		Role: "ROOT",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tk.Secret)
	require.NoError(t, err)

	_, err = tk.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsNoneAlg(t *testing.T) {
	tk := fixedTokens(time.Now())
	claims := Claims{ID: "u-1", Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tk.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Seller ")
	assert.True(t, ok)
	assert.Equal(t, RoleSeller, r)
	assert.Equal(t, "seller", r.Key())

	_, ok = ParseRole("guest")
	assert.False(t, ok)
}

func TestContextIdentity(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{ID: "a-1", Role: RoleAdmin})
	id, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "a-1", id.ID)
}

func TestPasswordHashing(t *testing.T) {
	h, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", h)
	assert.True(t, CheckPassword(h, "hunter22"))
	assert.False(t, CheckPassword(h, "hunter23"))
}
