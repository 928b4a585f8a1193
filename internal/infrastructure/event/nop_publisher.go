package event

import (
	"context"

	"github.com/thegridhub/backend/internal/domain/billing"
	"go.uber.org/zap"
)

// LogSubscriptionPublisher is used when Kafka is disabled. It only logs the change.
type LogSubscriptionPublisher struct {
	logger *zap.Logger
}

// NewLogSubscriptionPublisher creates a new LogSubscriptionPublisher
func NewLogSubscriptionPublisher(logger *zap.Logger) *LogSubscriptionPublisher {
	return &LogSubscriptionPublisher{logger: logger}
}

// PublishSubscriptionChanged logs the change at debug level
func (p *LogSubscriptionPublisher) PublishSubscriptionChanged(_ context.Context, change billing.SubscriptionChanged) error {
	p.logger.Debug("Subscription changed",
		zap.String("tenant_id", change.TenantID.String()),
		zap.String("status", string(change.Status)),
		zap.String("event_id", change.EventID))
	return nil
}

// Close is a no-op
func (p *LogSubscriptionPublisher) Close() error { return nil }

var _ billing.SubscriptionPublisher = (*LogSubscriptionPublisher)(nil)
