package billing

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWebhookEvent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("creates pending event", func(t *testing.T) {
		e, err := NewWebhookEvent("evt_1", "customer.subscription.updated", []byte(`{}`), now)
		require.NoError(t, err)
		assert.Equal(t, "evt_1", e.EventID)
		assert.Equal(t, WebhookEventStatusPending, e.Status)
		assert.Equal(t, EventTypeSubscriptionUpdated, e.EventType())
		assert.Equal(t, now, e.CreatedAt)
		assert.Nil(t, e.ProcessedAt)
		assert.Zero(t, e.Attempts)
	})

	t.Run("fails with empty event id", func(t *testing.T) {
		e, err := NewWebhookEvent(" ", "invoice.paid", nil, now)
		assert.Nil(t, e)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Event ID cannot be empty")
	})

	t.Run("fails with empty type", func(t *testing.T) {
		_, err := NewWebhookEvent("evt_1", "", nil, now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Event type cannot be empty")
	})
}

func TestWebhookEvent_Transitions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e, err := NewWebhookEvent("evt_1", "checkout.session.completed", nil, now)
	require.NoError(t, err)

	e.MarkFailed(now.Add(time.Second), errors.New("db down"))
	assert.True(t, e.IsFailed())
	assert.Equal(t, "db down", e.Error)
	assert.Equal(t, 1, e.Attempts)
	require.NotNil(t, e.ProcessedAt)

	later := now.Add(time.Minute)
	e.MarkProcessed(later)
	assert.True(t, e.IsProcessed())
	assert.Empty(t, e.Error)
	assert.Equal(t, 2, e.Attempts)
	assert.Equal(t, later, *e.ProcessedAt)
}

func TestWebhookEvent_MarkFailedTruncates(t *testing.T) {
	e := &WebhookEvent{}
	e.MarkFailed(time.Now(), errors.New(strings.Repeat("x", maxErrorLength+50)))
	assert.Len(t, e.Error, maxErrorLength)

	e.MarkFailed(time.Now(), nil)
	assert.Equal(t, "unknown error", e.Error)
}

func TestWebhookEvent_MarkFailedKeepsValidUTF8(t *testing.T) {
	// "é" is two bytes, so the byte limit falls inside a rune
	msg := "x" + strings.Repeat("é", maxErrorLength)
	e := &WebhookEvent{}
	e.MarkFailed(time.Now(), errors.New(msg))

	assert.True(t, utf8.ValidString(e.Error))
	assert.Len(t, e.Error, maxErrorLength-1)
	assert.True(t, strings.HasSuffix(e.Error, "é"))

	// "€" is three bytes
	e.MarkFailed(time.Now(), errors.New(strings.Repeat("€", maxErrorLength)))
	assert.True(t, utf8.ValidString(e.Error))
	assert.LessOrEqual(t, len(e.Error), maxErrorLength)
	assert.Equal(t, maxErrorLength/3, utf8.RuneCountInString(e.Error))
}

func TestParseEventType(t *testing.T) {
	assert.Equal(t, EventTypeCheckoutSessionCompleted, ParseEventType("checkout.session.completed"))
	assert.Equal(t, EventTypeSubscriptionCreated, ParseEventType("customer.subscription.created"))
	assert.Equal(t, EventTypeSubscriptionUpdated, ParseEventType("customer.subscription.updated"))
	assert.Equal(t, EventTypeSubscriptionDeleted, ParseEventType("customer.subscription.deleted"))
	assert.Equal(t, EventTypeUnrecognized, ParseEventType("invoice.paid"))

	assert.True(t, EventTypeSubscriptionDeleted.HasHandler())
	assert.False(t, EventTypeUnrecognized.HasHandler())
	assert.Equal(t, "unrecognized", EventTypeUnrecognized.String())
}

func TestWebhookEventStatus_IsValid(t *testing.T) {
	assert.True(t, WebhookEventStatusPending.IsValid())
	assert.True(t, WebhookEventStatusProcessed.IsValid())
	assert.True(t, WebhookEventStatusFailed.IsValid())
	assert.False(t, WebhookEventStatus("done").IsValid())
}
