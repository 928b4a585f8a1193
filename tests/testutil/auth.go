package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/thegridhub/backend/internal/infrastructure/auth"
	"github.com/thegridhub/backend/internal/infrastructure/config"
)

// TestJWTConfig is the tenant token configuration used by tests
func TestJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                "test-jwt-secret-0123456789abcdefghij",
		Issuer:                "thegridhub",
		AccessTokenExpiration: time.Hour,
	}
}

// TenantToken signs a bearer token for tenantID with TestJWTConfig
func TenantToken(t *testing.T, tenantID uuid.UUID) string {
	t.Helper()

	token, _, err := auth.NewJWTService(TestJWTConfig()).GenerateAccessToken(tenantID, "owner@example.com")
	require.NoError(t, err)
	return token
}
