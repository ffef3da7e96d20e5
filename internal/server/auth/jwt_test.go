package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/expensetracker/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(secret string) *TokenService {
	return NewTokenService([]byte(secret), "expense-tracker", "expense-tracker-clients", time.Hour)
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	s := newTestTokenService("super-secret")

	tok, err := s.Issue("user-123", "a@b.com", "User")
	require.NoError(t, err)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "User", claims.Role)
	assert.Equal(t, "expense-tracker", claims.Issuer)
	assert.Contains(t, claims.Audience, "expense-tracker-clients")
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	s := newTestTokenService("secret")
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	tok, err := s.Issue("u1", "u1@x.com", "User")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Verify(tok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnauthenticated))
	assert.Contains(t, err.Error(), "expired")
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := newTestTokenService("right-secret").Issue("u2", "u2@x.com", "User")
	require.NoError(t, err)

	_, err = newTestTokenService("wrong-secret").Verify(tok)
	assert.True(t, errors.Is(err, common.ErrUnauthenticated))
}

func TestVerify_TamperedSignature(t *testing.T) {
	t.Parallel()

	s := newTestTokenService("k")
	tok, err := s.Issue("u3", "u3@x.com", "User")
	require.NoError(t, err)

	b := []byte(tok)
	i := len(b) - 5
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	_, err = s.Verify(string(b))
	assert.True(t, errors.Is(err, common.ErrUnauthenticated))
}

func TestVerify_WrongIssuerOrAudience(t *testing.T) {
	t.Parallel()

	other := NewTokenService([]byte("k"), "someone-else", "expense-tracker-clients", time.Hour)
	tok, err := other.Issue("u4", "u4@x.com", "User")
	require.NoError(t, err)
	_, err = newTestTokenService("k").Verify(tok)
	assert.True(t, errors.Is(err, common.ErrUnauthenticated))

	other = NewTokenService([]byte("k"), "expense-tracker", "another-audience", time.Hour)
	tok, err = other.Issue("u4", "u4@x.com", "User")
	require.NoError(t, err)
	_, err = newTestTokenService("k").Verify(tok)
	assert.True(t, errors.Is(err, common.ErrUnauthenticated))
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "expense-tracker",
			Audience:  jwt.ClaimStrings{"expense-tracker-clients"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: "u5",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = newTestTokenService("k").Verify(tok)
	assert.True(t, errors.Is(err, common.ErrUnauthenticated))
}

func TestVerify_MissingExpiry(t *testing.T) {
	t.Parallel()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   "expense-tracker",
			Audience: jwt.ClaimStrings{"expense-tracker-clients"},
		},
		UserID: "u6",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = newTestTokenService("k").Verify(tok)
	assert.True(t, errors.Is(err, common.ErrUnauthenticated))
}

func TestVerify_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := newTestTokenService("k").Verify("not.a.jwt")
	assert.True(t, errors.Is(err, common.ErrUnauthenticated))
}
