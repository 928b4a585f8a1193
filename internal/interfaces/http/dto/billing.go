package dto

import (
	"math"
	"time"

	"github.com/thegridhub/backend/internal/domain/billing"
)

// CheckLimitRequest is the body of POST /api/v1/subscription/check-limit.
// The file size is accepted as either fileSize or file_size, in bytes. JSON
// numbers with a fractional part are accepted.
type CheckLimitRequest struct {
	Action        string   `json:"action" binding:"required,max=64"`
	FileSize      *float64 `json:"fileSize" binding:"omitempty,gte=0"`
	FileSizeSnake *float64 `json:"file_size" binding:"omitempty,gte=0"`
}

// Size returns the declared upload size in whole bytes, 0 when absent.
// Fractional sizes round up so a partial byte still counts against storage.
func (r CheckLimitRequest) Size() int64 {
	var size float64
	switch {
	case r.FileSize != nil:
		size = *r.FileSize
	case r.FileSizeSnake != nil:
		size = *r.FileSizeSnake
	}

	size = math.Ceil(size)
	if size >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(size)
}

// WebhookEventListRequest holds query parameters for the admin webhook listing
type WebhookEventListRequest struct {
	ListRequest
	Status string `form:"status" binding:"omitempty,oneof=pending processed failed"`
	Type   string `form:"type" binding:"omitempty,max=128"`
}

// WebhookEventResponse is the admin view of a recorded webhook event.
// The raw payload is not exposed.
type WebhookEventResponse struct {
	EventID     string     `json:"event_id"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Attempts    int        `json:"attempts"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// NewWebhookEventResponse maps a domain event to its admin view
func NewWebhookEventResponse(e *billing.WebhookEvent) WebhookEventResponse {
	return WebhookEventResponse{
		EventID:     e.EventID,
		Type:        e.Type,
		Status:      string(e.Status),
		Error:       e.Error,
		Attempts:    e.Attempts,
		CreatedAt:   e.CreatedAt,
		ProcessedAt: e.ProcessedAt,
	}
}

// RetryWebhookRequest is the body of POST /internal/admin/webhooks/retry
type RetryWebhookRequest struct {
	EventID string `json:"event_id" binding:"required,max=255"`
}

// PurgeWebhooksRequest is the body of POST /internal/admin/webhooks/purge.
// RetentionDays falls back to the configured retention.
type PurgeWebhooksRequest struct {
	RetentionDays *int `json:"retention_days" binding:"omitempty,min=1,max=3650"`
}

// PurgeWebhooksResponse reports how many events were removed
type PurgeWebhooksResponse struct {
	Deleted       int64 `json:"deleted"`
	RetentionDays int   `json:"retention_days"`
}

// StripeWebhookResponse is the flat body returned to the payment provider
type StripeWebhookResponse struct {
	Received  bool   `json:"received"`
	EventID   string `json:"event_id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Message   string `json:"message,omitempty"`
}
