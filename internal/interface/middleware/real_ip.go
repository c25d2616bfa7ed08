package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// proxyHeaders are consulted in order; only the left-most entry of a list counts.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"}

// RealIP stores the client IP under "real_ip" for the rate limiter, the
// auth handlers (password-change notices) and logging.
// Proxy headers are ignored unless trustProxy is set; gin's own
// ClientIP would otherwise honour them for any peer.
func RealIP(trustProxy bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.RemoteIP()
		if trustProxy {
			for _, h := range proxyHeaders {
				if v := headerIP(c.GetHeader(h)); v != "" {
					ip = v
					break
				}
			}
		}
		c.Set("real_ip", ip)
		c.Next()
	}
}

func headerIP(v string) string {
	if v == "" {
		return ""
	}
	first, _, _ := strings.Cut(v, ",")
	if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
		return ip.String()
	}
	return ""
}
