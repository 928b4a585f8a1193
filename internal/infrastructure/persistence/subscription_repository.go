package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/thegridhub/backend/internal/domain/billing"
	"github.com/thegridhub/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionModel is the GORM model for subscription records
type SubscriptionModel struct {
	TenantID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Status               string    `gorm:"type:varchar(30);not null"`
	PriceID              *string   `gorm:"type:varchar(100)"`
	CurrentPeriodEnd     *time.Time
	CancelAtPeriodEnd    bool      `gorm:"not null;default:false"`
	StripeCustomerID     string    `gorm:"type:varchar(100);index"`
	StripeSubscriptionID string    `gorm:"type:varchar(100);index"`
	LastEventID          string    `gorm:"type:varchar(255)"`
	UpdatedAt            time.Time `gorm:"not null"`
}

// TableName returns the table name for the model
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// ToEntity converts the model to a domain entity
func (m *SubscriptionModel) ToEntity() *billing.SubscriptionRecord {
	return &billing.SubscriptionRecord{
		TenantID:             m.TenantID,
		Status:               billing.SubscriptionStatus(m.Status),
		PriceID:              m.PriceID,
		CurrentPeriodEnd:     m.CurrentPeriodEnd,
		CancelAtPeriodEnd:    m.CancelAtPeriodEnd,
		StripeCustomerID:     m.StripeCustomerID,
		StripeSubscriptionID: m.StripeSubscriptionID,
		LastEventID:          m.LastEventID,
		UpdatedAt:            m.UpdatedAt,
	}
}

// upsertColumns are replaced when a record for the tenant exists
var upsertColumns = []string{
	"status",
	"price_id",
	"current_period_end",
	"cancel_at_period_end",
	"stripe_customer_id",
	"stripe_subscription_id",
	"last_event_id",
	"updated_at",
}

// GormSubscriptionRepository implements billing.SubscriptionRepository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// Upsert inserts or replaces the record of record.TenantID in one statement
func (r *GormSubscriptionRepository) Upsert(ctx context.Context, record *billing.SubscriptionRecord) error {
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	model := &SubscriptionModel{
		TenantID:             record.TenantID,
		Status:               string(record.Status),
		PriceID:              record.PriceID,
		CurrentPeriodEnd:     record.CurrentPeriodEnd,
		CancelAtPeriodEnd:    record.CancelAtPeriodEnd,
		StripeCustomerID:     record.StripeCustomerID,
		StripeSubscriptionID: record.StripeSubscriptionID,
		LastEventID:          record.LastEventID,
		UpdatedAt:            updatedAt,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).
		Create(model).Error
}

// FindByTenantID retrieves the record of a tenant
func (r *GormSubscriptionRepository) FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*billing.SubscriptionRecord, error) {
	var model SubscriptionModel
	if err := r.db.WithContext(ctx).First(&model, "tenant_id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// Ensure GormSubscriptionRepository implements SubscriptionRepository
var _ billing.SubscriptionRepository = (*GormSubscriptionRepository)(nil)
