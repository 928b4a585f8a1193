package middleware

import (
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/thegridhub/backend/internal/interfaces/http/dto"
)

// SwaggerConfig holds configuration for the API documentation endpoint
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool     // Run the admin session middleware before serving
	AllowedIPs  []string // Addresses or CIDR prefixes; empty allows all
}

// SwaggerProtection guards /swagger. A disabled endpoint answers 404, a
// client outside AllowedIPs 403, and with RequireAuth the admin session
// middleware decides the rest.
func SwaggerProtection(cfg SwaggerConfig, adminAuth gin.HandlerFunc) gin.HandlerFunc {
	var prefixes []netip.Prefix
	for _, entry := range cfg.AllowedIPs {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			if p, err := netip.ParsePrefix(entry); err == nil {
				prefixes = append(prefixes, p.Masked())
			}
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			abortWithError(c, dto.ErrCodeNotFound, "API documentation is not available")
			return
		}

		if len(cfg.AllowedIPs) > 0 && !ipAllowed(c.ClientIP(), prefixes) {
			abortWithError(c, dto.ErrCodeForbidden, "Access to API documentation is restricted")
			return
		}

		if cfg.RequireAuth && adminAuth != nil {
			adminAuth(c)
			if c.IsAborted() {
				return
			}
		}

		c.Next()
	}
}

func ipAllowed(clientIP string, prefixes []netip.Prefix) bool {
	addr, err := netip.ParseAddr(clientIP)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
