package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(now time.Time) *jwtService {
	svc := NewJWTService(Config{Secret: "test-secret", Issuer: "care-api"}).(*jwtService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService(time.Now())

	token, err := svc.GenerateAccessToken(Subject{ID: 42, Email: "nurse@example.com", Role: "nurse"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "nurse", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.Type)
	assert.Equal(t, 15*time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	svc := newTestService(time.Now())

	refresh, err := svc.GenerateRefreshToken(Subject{ID: 1, Email: "a@b.c", Role: "patient"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	claims, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestExpiredToken(t *testing.T) {
	issued := time.Now().Add(-time.Hour)
	token, err := newTestService(issued).GenerateAccessToken(Subject{ID: 1})
	require.NoError(t, err)

	_, err = newTestService(time.Now()).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenSignedWithOtherSecret(t *testing.T) {
	other := NewJWTService(Config{Secret: "other"})
	token, err := other.GenerateAccessToken(Subject{ID: 1})
	require.NoError(t, err)

	_, err = newTestService(time.Now()).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
