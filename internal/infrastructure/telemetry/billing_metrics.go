package telemetry

import (
	"context"
	"errors"
	"time"

	appbilling "github.com/thegridhub/backend/internal/application/billing"
	"github.com/thegridhub/backend/internal/domain/billing"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter is nil")

// BillingMetrics records limit decisions and webhook outcomes
type BillingMetrics struct {
	limitChecks      *Counter
	webhookEvents    *Counter
	dispatchDuration *Histogram
	purged           *Counter
}

// NewBillingMetrics registers the billing instruments on meter
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &BillingMetrics{}
	var err error

	if m.limitChecks, err = NewCounter(meter, "gridhub.limit_checks", "Plan limit checks by action and result", "{checks}"); err != nil {
		return nil, err
	}
	if m.webhookEvents, err = NewCounter(meter, "gridhub.webhook_events", "Webhook deliveries by type and outcome", "{events}"); err != nil {
		return nil, err
	}
	if m.dispatchDuration, err = NewHistogram(meter, "gridhub.webhook_dispatch.duration", "Webhook handler duration", "s", DispatchDurationBuckets...); err != nil {
		return nil, err
	}
	if m.purged, err = NewCounter(meter, "gridhub.webhook_events.purged", "Webhook events removed by retention purge", "{events}"); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordLimitCheck implements appbilling.LimiterMetrics
func (m *BillingMetrics) RecordLimitCheck(ctx context.Context, action billing.Action, allowed bool) {
	m.limitChecks.Inc(ctx, AttrAction.String(action.String()), AttrAllowed.Bool(allowed))
}

// RecordWebhookOutcome implements appbilling.IngestorMetrics
func (m *BillingMetrics) RecordWebhookOutcome(ctx context.Context, eventType string, outcome appbilling.WebhookOutcome) {
	m.webhookEvents.Inc(ctx, AttrEventType.String(eventType), AttrOutcome.String(string(outcome)))
}

// RecordDispatchDuration implements appbilling.IngestorMetrics
func (m *BillingMetrics) RecordDispatchDuration(ctx context.Context, eventType string, d time.Duration) {
	m.dispatchDuration.RecordDuration(ctx, d, AttrEventType.String(eventType))
}

// RecordPurged implements appbilling.IngestorMetrics
func (m *BillingMetrics) RecordPurged(ctx context.Context, n int64) {
	m.purged.Add(ctx, n)
}

var (
	_ appbilling.LimiterMetrics  = (*BillingMetrics)(nil)
	_ appbilling.IngestorMetrics = (*BillingMetrics)(nil)
)
