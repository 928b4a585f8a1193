package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/thegridhub/backend/internal/domain/shared"
)

// SubscriptionStatus mirrors the provider's subscription status values
type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
)

// IsEntitled reports whether the status grants paid features
func (s SubscriptionStatus) IsEntitled() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// SubscriptionRecord is the last known subscription state of a tenant.
// Writes are last-write-wins in delivery order; no event ordering check is applied.
type SubscriptionRecord struct {
	TenantID             uuid.UUID
	Status               SubscriptionStatus
	PriceID              *string
	CurrentPeriodEnd     *time.Time
	CancelAtPeriodEnd    bool
	StripeCustomerID     string
	StripeSubscriptionID string
	LastEventID          string
	UpdatedAt            time.Time
}

// NewSubscriptionRecord creates a record for a tenant
func NewSubscriptionRecord(tenantID uuid.UUID, status SubscriptionStatus) (*SubscriptionRecord, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if status == "" {
		return nil, shared.NewDomainError("INVALID_STATUS", "Subscription status cannot be empty")
	}
	return &SubscriptionRecord{
		TenantID: tenantID,
		Status:   status,
	}, nil
}

// WithPrice sets the price, ignoring empty ids
func (r *SubscriptionRecord) WithPrice(priceID string) *SubscriptionRecord {
	if priceID == "" {
		r.PriceID = nil
		return r
	}
	r.PriceID = &priceID
	return r
}

// WithPeriodEnd sets the current period end from unix seconds, ignoring zero
func (r *SubscriptionRecord) WithPeriodEnd(unix int64) *SubscriptionRecord {
	if unix <= 0 {
		r.CurrentPeriodEnd = nil
		return r
	}
	t := time.Unix(unix, 0).UTC()
	r.CurrentPeriodEnd = &t
	return r
}

// Canceled builds the record written when a subscription is deleted:
// status canceled, price and period cleared.
func Canceled(tenantID uuid.UUID) (*SubscriptionRecord, error) {
	r, err := NewSubscriptionRecord(tenantID, SubscriptionStatusCanceled)
	if err != nil {
		return nil, err
	}
	r.PriceID = nil
	r.CurrentPeriodEnd = nil
	r.CancelAtPeriodEnd = false
	return r, nil
}

// SubscriptionChanged is published after a subscription record is written
type SubscriptionChanged struct {
	TenantID          uuid.UUID          `json:"tenant_id"`
	Status            SubscriptionStatus `json:"status"`
	PriceID           *string            `json:"price_id,omitempty"`
	CurrentPeriodEnd  *time.Time         `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool               `json:"cancel_at_period_end"`
	EventID           string             `json:"event_id"`
	EventType         string             `json:"event_type"`
	OccurredAt        time.Time          `json:"occurred_at"`
}

// NewSubscriptionChanged builds the notification for a written record
func NewSubscriptionChanged(r *SubscriptionRecord, eventType string, now time.Time) SubscriptionChanged {
	return SubscriptionChanged{
		TenantID:          r.TenantID,
		Status:            r.Status,
		PriceID:           r.PriceID,
		CurrentPeriodEnd:  r.CurrentPeriodEnd,
		CancelAtPeriodEnd: r.CancelAtPeriodEnd,
		EventID:           r.LastEventID,
		EventType:         eventType,
		OccurredAt:        now,
	}
}
