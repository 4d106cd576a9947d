package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unihealth/care-api/internal/handler"
)

type SizeLimitConfig struct {
	MaxBodySize int64
	// Paths with their own limits, e.g. the attachment upload.
	Overrides map[string]int64
}

func DefaultSizeLimitConfig() SizeLimitConfig {
	return SizeLimitConfig{
		MaxBodySize: 1 << 20,
	}
}

// SizeLimit rejects declared oversize bodies and caps the readable body.
func SizeLimit(config SizeLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := config.MaxBodySize
		if override, ok := config.Overrides[c.FullPath()]; ok {
			limit = override
		}
		if limit <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}

		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, handler.NewErrorResponse("request body too large"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
