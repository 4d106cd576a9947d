package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/unihealth/care-api/internal/handler"
)

// Recovery turns a panic into a 500 and logs it with the request logger.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			event := zerolog.Ctx(c.Request.Context()).Error().
				Str("panic", fmt.Sprint(rec)).
				Bytes("stack", debug.Stack()).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("client_ip", c.ClientIP())
			if actor, ok := handler.ActorFrom(c); ok {
				event = event.Int64("actor_id", actor.ID)
			}
			event.Msg("request panic recovered")

			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusInternalServerError, handler.NewErrorResponse("internal server error"))
				return
			}
			c.Abort()
		}()
		c.Next()
	}
}
