package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thegridhub/backend/internal/domain/identity"
	"github.com/thegridhub/backend/internal/infrastructure/config"
)

func newTestSigner(blacklist TokenBlacklist) *SessionSigner {
	return NewSessionSigner(config.AdminConfig{
		SessionSecret: "admin-session-secret-32-characters",
		SessionTTL:    8 * time.Hour,
	}, blacklist)
}

func newOperator(t *testing.T) *identity.AdminUser {
	t.Helper()
	user, err := identity.NewAdminUser("ops@thegridhub.com", "correct horse battery", identity.AdminRoleOperator)
	require.NoError(t, err)
	return user
}

func TestSessionSigner_IssueAndVerify(t *testing.T) {
	signer := newTestSigner(nil)
	user := newOperator(t)

	session, err := signer.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(8*time.Hour), session.ExpiresAt, time.Second)

	claims, err := signer.Verify(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, identity.AdminRoleOperator, claims.Role)
	assert.Equal(t, "ops@thegridhub.com", claims.Email)

	id, err := claims.AdminUUID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestSessionSigner_RejectsTenantToken(t *testing.T) {
	signer := NewSessionSigner(config.AdminConfig{SessionSecret: testSecret, SessionTTL: time.Hour}, nil)
	jwtSvc := NewJWTService(config.JWTConfig{Secret: testSecret, AccessTokenExpiration: time.Hour})

	token, _, err := jwtSvc.GenerateAccessToken(newOperator(t).ID, "x@example.com")
	require.NoError(t, err)

	_, err = signer.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestSessionSigner_RejectsForgedRole(t *testing.T) {
	signer := newTestSigner(nil)
	user := newOperator(t)
	user.Role = identity.AdminRole("root")

	session, err := signer.Issue(user)
	require.NoError(t, err)

	_, err = signer.Verify(context.Background(), session.Token)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestSessionSigner_RejectsOtherSecret(t *testing.T) {
	session, err := newTestSigner(nil).Issue(newOperator(t))
	require.NoError(t, err)

	other := NewSessionSigner(config.AdminConfig{SessionSecret: "a-completely-different-secret-value", SessionTTL: time.Hour}, nil)
	_, err = other.Verify(context.Background(), session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionSigner_Revoke(t *testing.T) {
	ctx := context.Background()
	signer := newTestSigner(NewInMemoryTokenBlacklist())

	session, err := signer.Issue(newOperator(t))
	require.NoError(t, err)

	claims, err := signer.Verify(ctx, session.Token)
	require.NoError(t, err)
	require.NoError(t, signer.Revoke(ctx, claims))

	_, err = signer.Verify(ctx, session.Token)
	assert.ErrorIs(t, err, ErrTokenBlacklisted)
}

func TestSessionSigner_RevokeWithoutBlacklist(t *testing.T) {
	signer := newTestSigner(nil)

	session, err := signer.Issue(newOperator(t))
	require.NoError(t, err)

	assert.NoError(t, signer.Revoke(context.Background(), session.Claims))
}
