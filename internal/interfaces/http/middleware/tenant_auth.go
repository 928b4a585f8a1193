package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thegridhub/backend/internal/infrastructure/auth"
	"github.com/thegridhub/backend/internal/infrastructure/logger"
	"github.com/thegridhub/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Tenant auth context keys
const (
	JWTClaimsKey  = "jwt_claims"
	TenantIDKey   = "tenant_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TenantAuthConfig holds configuration for the tenant bearer token middleware
type TenantAuthConfig struct {
	JWTService *auth.JWTService
	Logger     *zap.Logger
}

// TenantAuth authenticates product API calls with the tenant bearer token.
// On success the tenant id is available through GetTenantID.
func TenantAuth(cfg TenantAuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortWithError(c, dto.ErrCodeUnauthenticated, "Authentication required")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			log.Debug("Tenant token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			code, message := tokenErrorCode(err)
			abortWithError(c, code, message)
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(TenantIDKey, claims.TenantID)

		ctx, _ := logger.WithTenantID(c.Request.Context(), logger.FromContext(c.Request.Context()), claims.TenantID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func tokenErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return dto.ErrCodeTokenInvalid, "Token is not yet valid"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		return dto.ErrCodeTokenInvalid, "Token has been revoked"
	default:
		return dto.ErrCodeTokenInvalid, "Invalid token"
	}
}

// GetJWTClaims retrieves tenant token claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, exists := c.Get(JWTClaimsKey); exists {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetTenantID returns the authenticated tenant id
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	claims := GetJWTClaims(c)
	if claims == nil {
		return uuid.Nil, false
	}
	id, err := claims.TenantUUID()
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
