package identity

import (
	"context"
	"errors"
	"time"

	"github.com/thegridhub/backend/internal/domain/identity"
	"github.com/thegridhub/backend/internal/domain/shared"
	"github.com/thegridhub/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned for unknown emails, wrong passwords and deactivated operators alike
var ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")

// AdminLoginInput contains operator credentials
type AdminLoginInput struct {
	Email    string
	Password string
	IP       string
}

// AdminLoginResult is a signed console session
type AdminLoginResult struct {
	Token     string
	ExpiresAt time.Time
	AdminID   string
	Email     string
	Role      identity.AdminRole
}

// AdminPrincipal is the authenticated operator behind a request
type AdminPrincipal struct {
	Claims *auth.SessionClaims
	User   *identity.AdminUser
}

// HasRole reports whether the operator's role satisfies required
func (p *AdminPrincipal) HasRole(required identity.AdminRole) bool {
	return p.User.Role.Satisfies(required)
}

// AdminSessionService logs operators into the internal console
type AdminSessionService struct {
	users  identity.AdminUserRepository
	signer *auth.SessionSigner
	logger *zap.Logger
	now    func() time.Time
}

// NewAdminSessionService creates a new AdminSessionService
func NewAdminSessionService(
	users identity.AdminUserRepository,
	signer *auth.SessionSigner,
	logger *zap.Logger,
) *AdminSessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminSessionService{
		users:  users,
		signer: signer,
		logger: logger,
		now:    time.Now,
	}
}

// Login verifies credentials and issues a session token
func (s *AdminSessionService) Login(ctx context.Context, input AdminLoginInput) (*AdminLoginResult, error) {
	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Admin login for unknown email", zap.String("ip", input.IP))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Active {
		s.logger.Warn("Admin login for deactivated operator",
			zap.String("admin_id", user.ID.String()),
			zap.String("ip", input.IP))
		return nil, ErrInvalidCredentials
	}
	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid admin password",
			zap.String("admin_id", user.ID.String()),
			zap.String("ip", input.IP))
		return nil, ErrInvalidCredentials
	}

	session, err := s.signer.Issue(user)
	if err != nil {
		s.logger.Error("Failed to sign admin session", zap.Error(err))
		return nil, err
	}

	user.RecordLogin(s.now())
	if err := s.users.Save(ctx, user); err != nil {
		// the session is valid regardless
		s.logger.Error("Failed to record admin login", zap.Error(err))
	}

	s.logger.Info("Admin logged in",
		zap.String("admin_id", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.String("ip", input.IP))

	return &AdminLoginResult{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		AdminID:   user.ID.String(),
		Email:     user.Email,
		Role:      user.Role,
	}, nil
}

// Authenticate resolves a session token to an active operator
func (s *AdminSessionService) Authenticate(ctx context.Context, token string) (*AdminPrincipal, error) {
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	claims, err := s.signer.Verify(ctx, token)
	if err != nil {
		s.logger.Debug("Admin session rejected", zap.Error(err))
		return nil, shared.ErrNotAuthenticated
	}

	adminID, _ := claims.AdminUUID()
	user, err := s.users.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotAuthenticated
		}
		return nil, err
	}
	if !user.Active {
		return nil, shared.ErrNotAuthenticated
	}

	// role changes take effect without re-login
	return &AdminPrincipal{Claims: claims, User: user}, nil
}

// Logout revokes the session. An already invalid token is not an error.
func (s *AdminSessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.signer.Verify(ctx, token)
	if err != nil {
		return nil
	}
	if err := s.signer.Revoke(ctx, claims); err != nil {
		s.logger.Error("Failed to revoke admin session", zap.Error(err))
		return err
	}
	s.logger.Info("Admin logged out", zap.String("admin_id", claims.AdminID))
	return nil
}
