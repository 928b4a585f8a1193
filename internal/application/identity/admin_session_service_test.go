package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thegridhub/backend/internal/domain/identity"
	"github.com/thegridhub/backend/internal/domain/shared"
	"github.com/thegridhub/backend/internal/infrastructure/auth"
	"github.com/thegridhub/backend/internal/infrastructure/config"
)

const operatorPassword = "correct horse battery"

type mockAdminUserRepository struct {
	mock.Mock
}

func (m *mockAdminUserRepository) FindByEmail(ctx context.Context, email string) (*identity.AdminUser, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AdminUser), args.Error(1)
}

func (m *mockAdminUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.AdminUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AdminUser), args.Error(1)
}

func (m *mockAdminUserRepository) Save(ctx context.Context, user *identity.AdminUser) error {
	return m.Called(ctx, user).Error(0)
}

func newTestSessionService(t *testing.T) (*AdminSessionService, *mockAdminUserRepository, *identity.AdminUser) {
	t.Helper()

	user, err := identity.NewAdminUser("ops@thegridhub.com", operatorPassword, identity.AdminRoleOperator)
	require.NoError(t, err)

	repo := new(mockAdminUserRepository)
	signer := auth.NewSessionSigner(config.AdminConfig{
		SessionSecret: "admin-session-secret-32-characters",
		SessionTTL:    time.Hour,
	}, auth.NewInMemoryTokenBlacklist())

	return NewAdminSessionService(repo, signer, nil), repo, user
}

func TestAdminSessionService_Login(t *testing.T) {
	ctx := context.Background()
	svc, repo, user := newTestSessionService(t)

	repo.On("FindByEmail", ctx, "ops@thegridhub.com").Return(user, nil)
	repo.On("Save", ctx, user).Return(nil)

	result, err := svc.Login(ctx, AdminLoginInput{Email: "ops@thegridhub.com", Password: operatorPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, identity.AdminRoleOperator, result.Role)
	assert.NotNil(t, user.LastLoginAt)
	repo.AssertExpectations(t)
}

func TestAdminSessionService_LoginSaveFailureStillSucceeds(t *testing.T) {
	ctx := context.Background()
	svc, repo, user := newTestSessionService(t)

	repo.On("FindByEmail", ctx, "ops@thegridhub.com").Return(user, nil)
	repo.On("Save", ctx, user).Return(errors.New("db down"))

	_, err := svc.Login(ctx, AdminLoginInput{Email: "ops@thegridhub.com", Password: operatorPassword})
	assert.NoError(t, err)
}

func TestAdminSessionService_LoginRejected(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		svc, repo, _ := newTestSessionService(t)
		repo.On("FindByEmail", ctx, "nobody@thegridhub.com").Return(nil, shared.ErrNotFound)

		_, err := svc.Login(ctx, AdminLoginInput{Email: "nobody@thegridhub.com", Password: operatorPassword})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, repo, user := newTestSessionService(t)
		repo.On("FindByEmail", ctx, user.Email).Return(user, nil)

		_, err := svc.Login(ctx, AdminLoginInput{Email: user.Email, Password: "not the password"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("deactivated", func(t *testing.T) {
		svc, repo, user := newTestSessionService(t)
		user.Deactivate()
		repo.On("FindByEmail", ctx, user.Email).Return(user, nil)

		_, err := svc.Login(ctx, AdminLoginInput{Email: user.Email, Password: operatorPassword})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("datastore error", func(t *testing.T) {
		svc, repo, user := newTestSessionService(t)
		repo.On("FindByEmail", ctx, user.Email).Return(nil, errors.New("connection refused"))

		_, err := svc.Login(ctx, AdminLoginInput{Email: user.Email, Password: operatorPassword})
		assert.EqualError(t, err, "connection refused")
	})
}

func TestAdminSessionService_AuthenticateAndLogout(t *testing.T) {
	ctx := context.Background()
	svc, repo, user := newTestSessionService(t)

	repo.On("FindByEmail", ctx, user.Email).Return(user, nil)
	repo.On("Save", ctx, user).Return(nil)
	repo.On("FindByID", ctx, user.ID).Return(user, nil)

	result, err := svc.Login(ctx, AdminLoginInput{Email: user.Email, Password: operatorPassword})
	require.NoError(t, err)

	principal, err := svc.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	assert.True(t, principal.HasRole(identity.AdminRoleViewer))
	assert.True(t, principal.HasRole(identity.AdminRoleOperator))
	assert.False(t, principal.HasRole(identity.AdminRoleSuperAdmin))

	require.NoError(t, svc.Logout(ctx, result.Token))

	_, err = svc.Authenticate(ctx, result.Token)
	assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
}

func TestAdminSessionService_AuthenticateRejects(t *testing.T) {
	ctx := context.Background()

	t.Run("empty token", func(t *testing.T) {
		svc, _, _ := newTestSessionService(t)
		_, err := svc.Authenticate(ctx, "")
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc, _, _ := newTestSessionService(t)
		_, err := svc.Authenticate(ctx, "abc.def.ghi")
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
	})

	t.Run("operator deactivated after login", func(t *testing.T) {
		svc, repo, user := newTestSessionService(t)
		repo.On("FindByEmail", ctx, user.Email).Return(user, nil)
		repo.On("Save", ctx, user).Return(nil)

		result, err := svc.Login(ctx, AdminLoginInput{Email: user.Email, Password: operatorPassword})
		require.NoError(t, err)

		user.Deactivate()
		repo.On("FindByID", ctx, user.ID).Return(user, nil)

		_, err = svc.Authenticate(ctx, result.Token)
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
	})
}

func TestAdminSessionService_LogoutInvalidToken(t *testing.T) {
	svc, _, _ := newTestSessionService(t)
	assert.NoError(t, svc.Logout(context.Background(), "not-a-token"))
}
