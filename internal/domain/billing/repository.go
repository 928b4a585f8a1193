package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thegridhub/backend/internal/domain/shared"
)

// UsageCounter answers the per-tenant count queries behind a UsageSnapshot
type UsageCounter interface {
	// CountProjects counts projects owned by the tenant
	CountProjects(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// CountTeamMembers counts team members across the tenant's teams
	CountTeamMembers(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// CountAISuggestionsSince counts AI suggestions requested at or after since
	CountAISuggestionsSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error)

	// SumStorageBytes sums the size of all files uploaded by the tenant
	SumStorageBytes(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// WebhookEventRepository persists the webhook idempotency log
type WebhookEventRepository interface {
	// InsertIfAbsent inserts the event unless a row with the same EventID exists.
	// Returns false without error when the row already existed.
	InsertIfAbsent(ctx context.Context, event *WebhookEvent) (bool, error)

	// FindByEventID retrieves an event by provider event id, or shared.ErrNotFound
	FindByEventID(ctx context.Context, eventID string) (*WebhookEvent, error)

	// UpdateOutcome persists status, error, attempts and processed_at of an existing event
	UpdateOutcome(ctx context.Context, event *WebhookEvent) error

	// List returns events matching the filter, newest first, with the total count
	List(ctx context.Context, filter WebhookEventFilter) ([]*WebhookEvent, int64, error)

	// DeleteOlderThan removes events created before the cutoff (for data retention)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// WebhookEventFilter defines filtering options for webhook event listings
type WebhookEventFilter struct {
	shared.Filter
	Status WebhookEventStatus // Filter by status (empty = all)
	Type   string             // Filter by provider event type (empty = all)
}

// SubscriptionRepository persists subscription records
type SubscriptionRepository interface {
	// Upsert inserts or replaces the record for record.TenantID
	Upsert(ctx context.Context, record *SubscriptionRecord) error

	// FindByTenantID retrieves the record of a tenant, or shared.ErrNotFound
	FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*SubscriptionRecord, error)
}

// SubscriptionPublisher notifies other services that a subscription record changed
type SubscriptionPublisher interface {
	PublishSubscriptionChanged(ctx context.Context, change SubscriptionChanged) error
	Close() error
}
