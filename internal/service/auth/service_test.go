package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unihealth/care-api/internal/model"
	"github.com/unihealth/care-api/internal/repository/memory"
	"github.com/unihealth/care-api/pkg/auth"
	apperrors "github.com/unihealth/care-api/pkg/errors"
	"github.com/unihealth/care-api/pkg/security"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	jwtSvc := auth.NewJWTService(auth.Config{Secret: "test-secret", Issuer: "care-test"})
	return NewService(store.Users(), jwtSvc, security.NewBcryptHasher(4), nil), store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &model.RegisterRequest{Email: "Ana@Example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, model.RolePatient, resp.User.Role)
	assert.Equal(t, int64((15 * time.Minute).Seconds()), resp.ExpiresIn)

	login, err := svc.Login(ctx, "ana@example.com", "password1")
	require.NoError(t, err)
	require.NotNil(t, login.User.LastLoginAt)

	actor, err := svc.Authenticate(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, actor.ID)
	assert.Equal(t, model.RolePatient, actor.Role)
}

func TestRegisterRejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{Email: "n@example.com", Password: "password1", Role: "nurse"})
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	_, err = svc.Register(ctx, &model.RegisterRequest{Email: "u@example.com", Password: "password1", Role: "user"})
	assert.NoError(t, err)

	_, err = svc.Register(ctx, &model.RegisterRequest{Email: "u@example.com", Password: "password2"})
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	_, err = svc.Register(ctx, &model.RegisterRequest{Email: "s@example.com", Password: "short"})
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestLoginFailures(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &model.RegisterRequest{Email: "p@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "p@example.com", "wrong-password")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	_, err = svc.Login(ctx, "nobody@example.com", "password1")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	_, err = store.Users().SetActive(ctx, resp.User.ID, false)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "p@example.com", "password1")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	_, err = svc.Authenticate(ctx, resp.AccessToken)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestRefresh(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &model.RegisterRequest{Email: "r@example.com", Password: "password1"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Empty(t, refreshed.RefreshToken)

	_, err = svc.Refresh(ctx, resp.AccessToken)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}
