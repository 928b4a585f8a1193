package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/thegridhub/backend/internal/domain/identity"
	"github.com/thegridhub/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// TenantModel is the GORM model for tenants
type TenantModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email            string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name             string    `gorm:"type:varchar(200)"`
	Plan             string    `gorm:"type:varchar(20);not null;default:'FREE'"`
	StripeCustomerID string    `gorm:"type:varchar(100)"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for the model
func (TenantModel) TableName() string {
	return "tenants"
}

// ToEntity converts the model to a domain entity
func (m *TenantModel) ToEntity() *identity.Tenant {
	return &identity.Tenant{
		ID:               m.ID,
		Email:            m.Email,
		Name:             m.Name,
		Plan:             m.Plan,
		StripeCustomerID: m.StripeCustomerID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// TenantModelFromEntity creates a model from a domain entity
func TenantModelFromEntity(t *identity.Tenant) *TenantModel {
	return &TenantModel{
		ID:               t.ID,
		Email:            t.Email,
		Name:             t.Name,
		Plan:             t.Plan,
		StripeCustomerID: t.StripeCustomerID,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// GormTenantRepository implements identity.TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	var model TenantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// Save creates or updates a tenant
func (r *GormTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	return r.db.WithContext(ctx).Save(TenantModelFromEntity(tenant)).Error
}

// Ensure GormTenantRepository implements TenantRepository
var _ identity.TenantRepository = (*GormTenantRepository)(nil)
