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

// WebhookEventModel is the GORM model for the webhook idempotency log
type WebhookEventModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventID     string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Type        string    `gorm:"type:varchar(100);not null;index"`
	Payload     string    `gorm:"type:jsonb;not null"`
	Status      string    `gorm:"type:varchar(20);not null;index"`
	Error       string    `gorm:"type:text"`
	Attempts    int       `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
	ProcessedAt *time.Time
}

// TableName returns the table name for the model
func (WebhookEventModel) TableName() string {
	return "webhook_events"
}

// ToEntity converts the model to a domain entity
func (m *WebhookEventModel) ToEntity() *billing.WebhookEvent {
	return &billing.WebhookEvent{
		ID:          m.ID,
		EventID:     m.EventID,
		Type:        m.Type,
		Payload:     []byte(m.Payload),
		Status:      billing.WebhookEventStatus(m.Status),
		Error:       m.Error,
		Attempts:    m.Attempts,
		CreatedAt:   m.CreatedAt,
		ProcessedAt: m.ProcessedAt,
	}
}

// WebhookEventModelFromEntity creates a model from a domain entity
func WebhookEventModelFromEntity(e *billing.WebhookEvent) *WebhookEventModel {
	return &WebhookEventModel{
		ID:          e.ID,
		EventID:     e.EventID,
		Type:        e.Type,
		Payload:     string(e.Payload),
		Status:      string(e.Status),
		Error:       e.Error,
		Attempts:    e.Attempts,
		CreatedAt:   e.CreatedAt,
		ProcessedAt: e.ProcessedAt,
	}
}

// GormWebhookEventRepository implements billing.WebhookEventRepository using GORM
type GormWebhookEventRepository struct {
	db *gorm.DB
}

// NewGormWebhookEventRepository creates a new GormWebhookEventRepository
func NewGormWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

// InsertIfAbsent inserts the event with ON CONFLICT (event_id) DO NOTHING.
// The unique index decides which of concurrent deliveries wins.
func (r *GormWebhookEventRepository) InsertIfAbsent(ctx context.Context, event *billing.WebhookEvent) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(WebhookEventModelFromEntity(event))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FindByEventID retrieves an event by provider event id
func (r *GormWebhookEventRepository) FindByEventID(ctx context.Context, eventID string) (*billing.WebhookEvent, error) {
	var model WebhookEventModel
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// UpdateOutcome writes the processing outcome columns of an existing event
func (r *GormWebhookEventRepository) UpdateOutcome(ctx context.Context, event *billing.WebhookEvent) error {
	result := r.db.WithContext(ctx).
		Model(&WebhookEventModel{}).
		Where("event_id = ?", event.EventID).
		Updates(map[string]any{
			"status":       string(event.Status),
			"error":        event.Error,
			"attempts":     event.Attempts,
			"processed_at": event.ProcessedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns events matching the filter, newest first
func (r *GormWebhookEventRepository) List(ctx context.Context, filter billing.WebhookEventFilter) ([]*billing.WebhookEvent, int64, error) {
	query := r.db.WithContext(ctx).Model(&WebhookEventModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []WebhookEventModel
	err := query.
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	events := make([]*billing.WebhookEvent, len(models))
	for i := range models {
		events[i] = models[i].ToEntity()
	}
	return events, total, nil
}

// DeleteOlderThan removes events created before the cutoff
func (r *GormWebhookEventRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&WebhookEventModel{})
	return result.RowsAffected, result.Error
}

// Ensure GormWebhookEventRepository implements WebhookEventRepository
var _ billing.WebhookEventRepository = (*GormWebhookEventRepository)(nil)
