package identity

import (
	"context"

	"github.com/google/uuid"
)

// TenantRepository defines the interface for tenant persistence
type TenantRepository interface {
	// FindByID finds a tenant by its ID, or shared.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// Save creates or updates a tenant
	Save(ctx context.Context, tenant *Tenant) error
}

// AdminUserRepository defines the interface for internal console operators
type AdminUserRepository interface {
	// FindByEmail finds an operator by email, or shared.ErrNotFound
	FindByEmail(ctx context.Context, email string) (*AdminUser, error)

	// FindByID finds an operator by ID, or shared.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*AdminUser, error)

	// Save creates or updates an operator
	Save(ctx context.Context, user *AdminUser) error
}
