package middleware

import (
	"net"

	"github.com/gin-gonic/gin"
)

// AuditMiddleware resolves the client IP once per request so handlers and
// the audit trail all read the same value.
func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("client_ip", clientIP(c))
		c.Next()
	}
}

// clientIP trusts the X-Real-Ip header set by the nginx front, falling
// back to the connection's remote address.
func clientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Real-Ip"); ip != "" && net.ParseIP(ip) != nil {
		return ip
	}
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}

// GetIPFromContext retrieves the resolved IP from the gin context.
func GetIPFromContext(c *gin.Context) string {
	if ip, exists := c.Get("client_ip"); exists {
		if ipStr, ok := ip.(string); ok {
			return ipStr
		}
	}
	return clientIP(c)
}
