package billing

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/thegridhub/backend/internal/domain/shared"
)

// WebhookEventStatus is the processing state of a recorded webhook event
type WebhookEventStatus string

const (
	// WebhookEventStatusPending is held between the idempotent insert and the end of the
	// first dispatch. A row left pending by a crash is recovered by retry.
	WebhookEventStatusPending   WebhookEventStatus = "pending"
	WebhookEventStatusProcessed WebhookEventStatus = "processed"
	WebhookEventStatusFailed    WebhookEventStatus = "failed"
)

// IsValid returns true if the status is known
func (s WebhookEventStatus) IsValid() bool {
	switch s {
	case WebhookEventStatusPending, WebhookEventStatusProcessed, WebhookEventStatusFailed:
		return true
	}
	return false
}

// maxErrorLength bounds the stored dispatch error message
const maxErrorLength = 2000

// WebhookEvent is the idempotency log row for one provider event.
// EventID is globally unique; a second delivery of the same EventID never re-applies side effects.
type WebhookEvent struct {
	ID          uuid.UUID
	EventID     string
	Type        string
	Payload     []byte
	Status      WebhookEventStatus
	Error       string
	Attempts    int
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewWebhookEvent creates a pending event row for a verified payload
func NewWebhookEvent(eventID, eventType string, payload []byte, now time.Time) (*WebhookEvent, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, shared.NewDomainError("INVALID_EVENT_ID", "Event ID cannot be empty")
	}
	if strings.TrimSpace(eventType) == "" {
		return nil, shared.NewDomainError("INVALID_EVENT_TYPE", "Event type cannot be empty")
	}

	return &WebhookEvent{
		ID:        uuid.New(),
		EventID:   eventID,
		Type:      eventType,
		Payload:   payload,
		Status:    WebhookEventStatusPending,
		CreatedAt: now,
	}, nil
}

// EventType returns the typed event type
func (e *WebhookEvent) EventType() EventType {
	return ParseEventType(e.Type)
}

// MarkProcessed records a successful dispatch and clears any previous error
func (e *WebhookEvent) MarkProcessed(now time.Time) {
	e.Status = WebhookEventStatusProcessed
	e.Error = ""
	e.Attempts++
	e.ProcessedAt = &now
}

// MarkFailed records a failed dispatch
func (e *WebhookEvent) MarkFailed(now time.Time, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	e.Status = WebhookEventStatusFailed
	e.Error = truncateUTF8(msg, maxErrorLength)
	e.Attempts++
	e.ProcessedAt = &now
}

// IsProcessed returns true if the event reached the terminal state
func (e *WebhookEvent) IsProcessed() bool {
	return e.Status == WebhookEventStatusProcessed
}

// IsFailed returns true if the last dispatch failed
func (e *WebhookEvent) IsFailed() bool {
	return e.Status == WebhookEventStatusFailed
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return strings.ToValidUTF8(s[:n], "")
}
