package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"github.com/thegridhub/backend/internal/domain/billing"
	"github.com/thegridhub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// messageWriter is the subset of *kafka.Writer used by the publisher
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSubscriptionPublisher publishes subscription changes keyed by tenant so that
// all changes for one tenant land on the same partition in order
type KafkaSubscriptionPublisher struct {
	writer       messageWriter
	topic        string
	writeTimeout time.Duration
	maxRetries   uint64
	logger       *zap.Logger
}

// NewKafkaSubscriptionPublisher creates a publisher for the configured brokers
func NewKafkaSubscriptionPublisher(cfg config.KafkaConfig, logger *zap.Logger) (*KafkaSubscriptionPublisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New("kafka brokers are not configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is not configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Kafka publisher initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic))

	return newKafkaSubscriptionPublisher(writer, cfg, logger), nil
}

func newKafkaSubscriptionPublisher(w messageWriter, cfg config.KafkaConfig, logger *zap.Logger) *KafkaSubscriptionPublisher {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &KafkaSubscriptionPublisher{
		writer:       w,
		topic:        cfg.Topic,
		writeTimeout: timeout,
		maxRetries:   cfg.MaxRetries,
		logger:       logger,
	}
}

// PublishSubscriptionChanged writes one message, retrying transient failures with backoff
func (p *KafkaSubscriptionPublisher) PublishSubscriptionChanged(ctx context.Context, change billing.SubscriptionChanged) error {
	value, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("kafka: failed to marshal message: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(change.TenantID.String()),
		Value: value,
		Time:  change.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(change.EventType)},
			{Key: "event_id", Value: []byte(change.EventID)},
		},
	}

	attempt := 0
	op := func() error {
		attempt++
		writeCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
		defer cancel()

		err := p.writer.WriteMessages(writeCtx, msg)
		if err != nil {
			p.logger.Warn("Kafka write failed",
				zap.String("topic", p.topic),
				zap.String("tenant_id", change.TenantID.String()),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), p.maxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return fmt.Errorf("kafka: failed to write message: %w", err)
	}

	p.logger.Debug("Published subscription change",
		zap.String("topic", p.topic),
		zap.String("tenant_id", change.TenantID.String()),
		zap.String("status", string(change.Status)))
	return nil
}

// Close flushes pending writes and closes the writer
func (p *KafkaSubscriptionPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("kafka: failed to close writer: %w", err)
	}
	return nil
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}

var _ billing.SubscriptionPublisher = (*KafkaSubscriptionPublisher)(nil)
