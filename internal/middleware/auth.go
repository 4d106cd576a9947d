package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unihealth/care-api/internal/handler"
	"github.com/unihealth/care-api/internal/model"
	apperrors "github.com/unihealth/care-api/pkg/errors"
)

// Authenticator resolves an access token to the acting user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Actor, error)
}

type AuthMiddleware struct {
	authService Authenticator
}

func NewAuthMiddleware(authService Authenticator) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Authenticate verifies the bearer token and stores the actor in the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return m.authenticate(false)
}

// AuthenticateQuery also accepts ?token=, for clients such as browsers
// opening a WebSocket that cannot set headers.
func (m *AuthMiddleware) AuthenticateQuery() gin.HandlerFunc {
	return m.authenticate(true)
}

func (m *AuthMiddleware) authenticate(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil && allowQuery && c.Query("token") != "" {
			token, err = c.Query("token"), nil
		}
		if err != nil {
			handler.Error(c, err)
			return
		}

		actor, err := m.authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			handler.Error(c, err)
			return
		}

		handler.SetActor(c, actor)
		c.Next()
	}
}

// RequirePermission rejects actors whose role lacks perm.
func (m *AuthMiddleware) RequirePermission(perm model.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := handler.MustActor(c)
		if !ok {
			return
		}
		if !actor.Can(perm) {
			handler.Error(c, apperrors.Forbidden(""))
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperrors.Unauthorized(nil)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.Unauthorized(nil)
	}
	return strings.TrimSpace(parts[1]), nil
}
