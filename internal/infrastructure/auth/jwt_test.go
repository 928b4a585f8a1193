package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thegridhub/backend/internal/infrastructure/config"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                testSecret,
		Issuer:                "thegridhub",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func TestValidateAccessToken_RoundTrip(t *testing.T) {
	svc := newTestJWTService()
	tenantID := uuid.New()

	token, expiresAt, err := svc.GenerateAccessToken(tenantID, "ada@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Second)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	id, err := claims.TenantUUID()
	require.NoError(t, err)
	assert.Equal(t, tenantID, id)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestValidateAccessToken_SubjectFallback(t *testing.T) {
	svc := newTestJWTService()
	tenantID := uuid.New()

	token, err := signHS256(&Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "thegridhub",
		Subject:   tenantID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}, []byte(testSecret))
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, tenantID.String(), claims.TenantID)
}

func TestValidateAccessToken_Errors(t *testing.T) {
	svc := newTestJWTService()
	tenantID := uuid.New().String()

	sign := func(c *Claims, secret string) string {
		token, err := signHS256(c, []byte(secret))
		require.NoError(t, err)
		return token
	}
	registered := func(issuer string, exp, nbf time.Time) jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(exp),
			NotBefore: jwt.NewNumericDate(nbf),
		}
	}
	now := time.Now()

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"garbage", "not.a.jwt", ErrInvalidToken},
		{"wrong secret", sign(&Claims{RegisteredClaims: registered("thegridhub", now.Add(time.Minute), now), TenantID: tenantID}, "another-secret-another-secret-123"), ErrInvalidToken},
		{"expired", sign(&Claims{RegisteredClaims: registered("thegridhub", now.Add(-time.Minute), now.Add(-time.Hour)), TenantID: tenantID}, testSecret), ErrExpiredToken},
		{"not yet valid", sign(&Claims{RegisteredClaims: registered("thegridhub", now.Add(time.Hour), now.Add(30*time.Minute)), TenantID: tenantID}, testSecret), ErrTokenNotYetValid},
		{"wrong issuer", sign(&Claims{RegisteredClaims: registered("someone-else", now.Add(time.Minute), now), TenantID: tenantID}, testSecret), ErrInvalidToken},
		{"missing tenant", sign(&Claims{RegisteredClaims: registered("thegridhub", now.Add(time.Minute), now)}, testSecret), ErrMissingTenantID},
		{"malformed tenant", sign(&Claims{RegisteredClaims: registered("thegridhub", now.Add(time.Minute), now), TenantID: "tenant-1"}, testSecret), ErrInvalidClaims},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateAccessToken_RejectsNoneAlgorithm(t *testing.T) {
	svc := newTestJWTService()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{TenantID: uuid.New().String()})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
