package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/unihealth/care-api/internal/handler"
	apperrors "github.com/unihealth/care-api/pkg/errors"
)

// ErrorHandler logs errors attached with c.Error and writes a response for
// any handler that attached one without writing.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			event := log.Warn()
			if statusOf(e) >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Err(e.Err).
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Str("client_ip", c.ClientIP()).
				Msg("Request error")
		}

		if c.Writer.Written() {
			return
		}
		lastErr := c.Errors.Last()
		status := statusOf(lastErr)
		message := lastErr.Error()
		if status >= http.StatusInternalServerError {
			message = "internal server error"
		}
		c.JSON(status, handler.NewErrorResponse(message))
	}
}

func statusOf(e *gin.Error) int {
	if e.IsType(gin.ErrorTypeBind) {
		return http.StatusBadRequest
	}
	return apperrors.HTTPStatus(e.Err)
}
