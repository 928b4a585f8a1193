package billing

import (
	"context"
	"time"

	"github.com/thegridhub/backend/internal/domain/billing"
)

// WebhookOutcome classifies how a webhook delivery ended
type WebhookOutcome string

const (
	WebhookOutcomeProcessed WebhookOutcome = "processed"
	WebhookOutcomeFailed    WebhookOutcome = "failed"
	WebhookOutcomeDuplicate WebhookOutcome = "duplicate"
	WebhookOutcomeRejected  WebhookOutcome = "rejected"
)

// LimiterMetrics records limit decisions
type LimiterMetrics interface {
	RecordLimitCheck(ctx context.Context, action billing.Action, allowed bool)
}

// IngestorMetrics records webhook ingestion outcomes
type IngestorMetrics interface {
	RecordWebhookOutcome(ctx context.Context, eventType string, outcome WebhookOutcome)
	RecordDispatchDuration(ctx context.Context, eventType string, d time.Duration)
	RecordPurged(ctx context.Context, n int64)
}

type nopMetrics struct{}

func (nopMetrics) RecordLimitCheck(context.Context, billing.Action, bool) {}

func (nopMetrics) RecordWebhookOutcome(context.Context, string, WebhookOutcome) {}

func (nopMetrics) RecordDispatchDuration(context.Context, string, time.Duration) {}

func (nopMetrics) RecordPurged(context.Context, int64) {}
