package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thegridhub/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

// AdminRole is the role carried in an internal console session
type AdminRole string

const (
	AdminRoleViewer     AdminRole = "viewer"
	AdminRoleOperator   AdminRole = "operator"
	AdminRoleSuperAdmin AdminRole = "superadmin"
)

// IsValid returns true if the role is known
func (r AdminRole) IsValid() bool {
	switch r {
	case AdminRoleViewer, AdminRoleOperator, AdminRoleSuperAdmin:
		return true
	}
	return false
}

// rank orders roles from least to most privileged
func (r AdminRole) rank() int {
	switch r {
	case AdminRoleViewer:
		return 1
	case AdminRoleOperator:
		return 2
	case AdminRoleSuperAdmin:
		return 3
	}
	return 0
}

// Satisfies reports whether r grants at least the privileges of required
func (r AdminRole) Satisfies(required AdminRole) bool {
	return r.IsValid() && r.rank() >= required.rank()
}

// AdminUser is an operator of the internal admin console
type AdminUser struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         AdminRole
	Active       bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAdminUser creates an active operator with a hashed password
func NewAdminUser(email, password string, role AdminRole) (*AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown admin role")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &AdminUser{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// VerifyPassword checks the password against the stored hash
func (u *AdminUser) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// RecordLogin stamps the last successful login
func (u *AdminUser) RecordLogin(now time.Time) {
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// Deactivate blocks future logins
func (u *AdminUser) Deactivate() {
	u.Active = false
	u.UpdatedAt = time.Now()
}

func validatePassword(password string) error {
	if len(password) < 12 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 12 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}
