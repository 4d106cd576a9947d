package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unihealth/care-api/internal/service/audit"
)

// AuditClient records the caller's address and user agent on the request
// context so audit entries written by services can include them.
func AuditClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := audit.WithClient(c.Request.Context(), audit.Client{
			IP:        ClientIP(c),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ClientIP returns the first X-Forwarded-For entry, else the remote address.
func ClientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}
