package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	appidentity "github.com/thegridhub/backend/internal/application/identity"
	"github.com/thegridhub/backend/internal/domain/identity"
	"github.com/thegridhub/backend/internal/domain/shared"
	"github.com/thegridhub/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// AdminPrincipalKey holds the authenticated operator in gin.Context
const AdminPrincipalKey = "admin_principal"

// AdminAuthenticator resolves a session token to an operator
type AdminAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*appidentity.AdminPrincipal, error)
}

// AdminSessionConfig holds configuration for the admin session middleware
type AdminSessionConfig struct {
	Authenticator AdminAuthenticator
	CookieName    string
	Logger        *zap.Logger
}

// AdminSession authenticates internal console requests from the session cookie.
// A bearer token is accepted as well so scripts can call the console API.
func AdminSession(cfg AdminSessionConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		token, err := c.Cookie(cfg.CookieName)
		if err != nil || token == "" {
			token, _ = bearerToken(c)
		}

		principal, err := cfg.Authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, shared.ErrNotAuthenticated) {
				abortWithError(c, dto.ErrCodeUnauthenticated, "Admin session required")
				return
			}
			log.Error("Admin session lookup failed", zap.Error(err))
			abortWithError(c, dto.ErrCodeInternal, "An unexpected error occurred")
			return
		}

		c.Set(AdminPrincipalKey, principal)
		c.Next()
	}
}

// RequireAdminRole rejects operators whose role does not satisfy required.
// It must run after AdminSession.
func RequireAdminRole(required identity.AdminRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetAdminPrincipal(c)
		if principal == nil {
			abortWithError(c, dto.ErrCodeUnauthenticated, "Admin session required")
			return
		}
		if !principal.HasRole(required) {
			abortWithError(c, dto.ErrCodeForbidden, "Role "+string(required)+" or higher is required")
			return
		}
		c.Next()
	}
}

// GetAdminPrincipal returns the operator set by AdminSession
func GetAdminPrincipal(c *gin.Context) *appidentity.AdminPrincipal {
	if v, exists := c.Get(AdminPrincipalKey); exists {
		if p, ok := v.(*appidentity.AdminPrincipal); ok {
			return p
		}
	}
	return nil
}
