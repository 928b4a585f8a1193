package event

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thegridhub/backend/internal/domain/billing"
	"github.com/thegridhub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

type recordingWriter struct {
	mu       sync.Mutex
	failures int
	calls    int
	messages []kafka.Message
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.calls <= w.failures {
		return errors.New("leader not available")
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func testChange() billing.SubscriptionChanged {
	price := "price_pro_monthly"
	return billing.SubscriptionChanged{
		TenantID:   uuid.MustParse("8c0f6c1e-54d5-4a4a-9d4c-3f1a3e0d9b11"),
		Status:     billing.SubscriptionStatusActive,
		PriceID:    &price,
		EventID:    "evt_1",
		EventType:  "customer.subscription.updated",
		OccurredAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestKafkaSubscriptionPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaSubscriptionPublisher(w, config.KafkaConfig{Topic: "billing.subscription-changed", MaxRetries: 3}, zap.NewNop())

	require.NoError(t, p.PublishSubscriptionChanged(context.Background(), testChange()))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "8c0f6c1e-54d5-4a4a-9d4c-3f1a3e0d9b11", string(msg.Key))
	assert.Equal(t, kafka.Header{Key: "event_type", Value: []byte("customer.subscription.updated")}, msg.Headers[0])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "active", decoded["status"])
	assert.Equal(t, "price_pro_monthly", decoded["price_id"])
}

func TestKafkaSubscriptionPublisher_RetriesTransientFailures(t *testing.T) {
	w := &recordingWriter{failures: 2}
	p := newKafkaSubscriptionPublisher(w, config.KafkaConfig{Topic: "t", MaxRetries: 3}, zap.NewNop())

	require.NoError(t, p.PublishSubscriptionChanged(context.Background(), testChange()))
	assert.Equal(t, 3, w.calls)
	assert.Len(t, w.messages, 1)
}

func TestKafkaSubscriptionPublisher_GivesUp(t *testing.T) {
	w := &recordingWriter{failures: 100}
	p := newKafkaSubscriptionPublisher(w, config.KafkaConfig{Topic: "t", MaxRetries: 1}, zap.NewNop())

	err := p.PublishSubscriptionChanged(context.Background(), testChange())
	assert.ErrorContains(t, err, "leader not available")
	assert.Equal(t, 2, w.calls)
}

func TestKafkaSubscriptionPublisher_Close(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaSubscriptionPublisher(w, config.KafkaConfig{Topic: "t"}, zap.NewNop())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaSubscriptionPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaSubscriptionPublisher(config.KafkaConfig{Topic: "t"}, zap.NewNop())
	assert.Error(t, err)
}

func TestLogSubscriptionPublisher(t *testing.T) {
	p := NewLogSubscriptionPublisher(zap.NewNop())
	assert.NoError(t, p.PublishSubscriptionChanged(context.Background(), testChange()))
	assert.NoError(t, p.Close())
}
