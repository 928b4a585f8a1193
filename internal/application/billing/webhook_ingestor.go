package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"github.com/thegridhub/backend/internal/domain/billing"
	"github.com/thegridhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Webhook ingestion errors
var (
	ErrInvalidSignature     = shared.NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed")
	ErrMalformedPayload     = shared.NewDomainError("MALFORMED_PAYLOAD", "Webhook payload is not a valid event")
	ErrUnsupportedEventType = shared.NewDomainError("UNSUPPORTED_EVENT_TYPE", "Stored event type has no retry handler")
)

// tenantMetadataKeys are the metadata keys checked, in order, for the owning tenant
var tenantMetadataKeys = []string{"tenant_id", "user_id", "userId"}

// SubscriptionFetcher loads a subscription from the payment provider when an event only
// carries its id
type SubscriptionFetcher interface {
	FetchSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
}

// WebhookResult contains the result of ingesting or retrying a webhook
type WebhookResult struct {
	EventID   string                     `json:"event_id"`
	EventType string                     `json:"event_type"`
	Status    billing.WebhookEventStatus `json:"status,omitempty"`
	Processed bool                       `json:"processed"`
	Duplicate bool                       `json:"duplicate"`
	Message   string                     `json:"message,omitempty"`
}

// WebhookIngestor verifies, records and dispatches payment provider webhooks.
// The event_id unique constraint is the only concurrency guard: of two simultaneous
// deliveries exactly one inserts and dispatches, the other is reported as a duplicate.
type WebhookIngestor struct {
	secret         string
	tolerance      time.Duration
	events         billing.WebhookEventRepository
	subscriptions  billing.SubscriptionRepository
	fetcher        SubscriptionFetcher
	publisher      billing.SubscriptionPublisher
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	metrics        IngestorMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// WebhookIngestorConfig contains configuration for WebhookIngestor
type WebhookIngestorConfig struct {
	WebhookSecret  string
	Tolerance      time.Duration // Signature timestamp tolerance (default: webhook.DefaultTolerance)
	Events         billing.WebhookEventRepository
	Subscriptions  billing.SubscriptionRepository
	Fetcher        SubscriptionFetcher           // Optional
	Publisher      billing.SubscriptionPublisher // Optional
	Idempotency    shared.IdempotencyStore       // Optional fast path
	IdempotencyTTL time.Duration
	Metrics        IngestorMetrics
	Logger         *zap.Logger
	Clock          func() time.Time
}

// NewWebhookIngestor creates a new WebhookIngestor
func NewWebhookIngestor(cfg WebhookIngestorConfig) *WebhookIngestor {
	s := &WebhookIngestor{
		secret:         cfg.WebhookSecret,
		tolerance:      cfg.Tolerance,
		events:         cfg.Events,
		subscriptions:  cfg.Subscriptions,
		fetcher:        cfg.Fetcher,
		publisher:      cfg.Publisher,
		idempotency:    cfg.Idempotency,
		idempotencyTTL: cfg.IdempotencyTTL,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		now:            cfg.Clock,
	}
	if s.tolerance <= 0 {
		s.tolerance = webhook.DefaultTolerance
	}
	if s.idempotencyTTL <= 0 {
		s.idempotencyTTL = shared.DefaultIdempotencyConfig().TTL
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Ingest verifies a webhook delivery, records it once and dispatches it.
//
// Errors: ErrInvalidSignature and ErrMalformedPayload leave no trace. A failure to write the
// event row is returned as a plain error so the provider redelivers. A dispatch failure is
// not an error: the row is kept as failed and the result reports Processed=false.
func (s *WebhookIngestor) Ingest(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := s.verify(payload, signature)
	if err != nil {
		s.metrics.RecordWebhookOutcome(ctx, "", WebhookOutcomeRejected)
		return nil, err
	}

	eventType := string(event.Type)
	log := s.logger.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", eventType))

	if s.seen(ctx, event.ID) {
		log.Debug("Webhook event already recorded (cache)")
		s.metrics.RecordWebhookOutcome(ctx, eventType, WebhookOutcomeDuplicate)
		return duplicateResult(event.ID, eventType), nil
	}

	row, err := billing.NewWebhookEvent(event.ID, eventType, payload, s.now())
	if err != nil {
		return nil, ErrMalformedPayload
	}

	inserted, err := s.events.InsertIfAbsent(ctx, row)
	if err != nil {
		log.Error("Failed to record webhook event", zap.Error(err))
		return nil, fmt.Errorf("failed to record webhook event: %w", err)
	}
	if !inserted {
		log.Info("Duplicate webhook delivery ignored")
		s.remember(ctx, event.ID)
		s.metrics.RecordWebhookOutcome(ctx, eventType, WebhookOutcomeDuplicate)
		return duplicateResult(event.ID, eventType), nil
	}

	log.Info("Processing webhook event")

	dispatchErr := s.timedDispatch(ctx, event)
	if dispatchErr != nil {
		log.Error("Webhook dispatch failed", zap.Error(dispatchErr))
		row.MarkFailed(s.now(), dispatchErr)
	} else {
		row.MarkProcessed(s.now())
	}

	if err := s.events.UpdateOutcome(ctx, row); err != nil {
		log.Error("Failed to save webhook outcome", zap.Error(err))
		return nil, fmt.Errorf("failed to save webhook outcome: %w", err)
	}
	s.remember(ctx, event.ID)

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: eventType,
		Status:    row.Status,
		Processed: dispatchErr == nil,
	}
	if dispatchErr != nil {
		s.metrics.RecordWebhookOutcome(ctx, eventType, WebhookOutcomeFailed)
		result.Message = "Event recorded; processing failed and is pending retry"
		return result, nil
	}

	s.metrics.RecordWebhookOutcome(ctx, eventType, WebhookOutcomeProcessed)
	if !billing.ParseEventType(eventType).HasHandler() {
		result.Message = "Event type not handled"
	} else {
		result.Message = "Webhook processed successfully"
	}
	return result, nil
}

// Retry re-dispatches a recorded event from its stored payload and marks it processed.
// The subscription upsert is keyed by tenant, so re-applying an earlier partial attempt
// leaves a single record.
func (s *WebhookIngestor) Retry(ctx context.Context, eventID string) (*WebhookResult, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "event_id is required")
	}

	row, err := s.events.FindByEventID(ctx, eventID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Webhook event %s not found", eventID))
		}
		return nil, fmt.Errorf("failed to load webhook event: %w", err)
	}

	if !row.EventType().HasHandler() {
		return nil, ErrUnsupportedEventType
	}

	var event stripe.Event
	if err := json.Unmarshal(row.Payload, &event); err != nil {
		return nil, ErrMalformedPayload
	}

	log := s.logger.With(
		zap.String("event_id", row.EventID),
		zap.String("event_type", row.Type),
		zap.String("previous_status", string(row.Status)))
	log.Info("Retrying webhook event")

	dispatchErr := s.timedDispatch(ctx, event)
	if dispatchErr != nil {
		row.MarkFailed(s.now(), dispatchErr)
	} else {
		row.MarkProcessed(s.now())
	}

	if err := s.events.UpdateOutcome(ctx, row); err != nil {
		log.Error("Failed to save webhook outcome", zap.Error(err))
		return nil, fmt.Errorf("failed to save webhook outcome: %w", err)
	}

	result := &WebhookResult{
		EventID:   row.EventID,
		EventType: row.Type,
		Status:    row.Status,
		Processed: dispatchErr == nil,
	}

	if dispatchErr != nil {
		log.Error("Webhook retry failed", zap.Error(dispatchErr))
		s.metrics.RecordWebhookOutcome(ctx, row.Type, WebhookOutcomeFailed)
		result.Message = dispatchErr.Error()
		return result, shared.NewDomainError("DISPATCH_FAILED", fmt.Sprintf("Retry failed: %s", dispatchErr.Error()))
	}

	s.metrics.RecordWebhookOutcome(ctx, row.Type, WebhookOutcomeProcessed)
	result.Message = "Webhook reprocessed successfully"
	return result, nil
}

// List returns recorded webhook events, newest first
func (s *WebhookIngestor) List(ctx context.Context, filter billing.WebhookEventFilter) ([]*billing.WebhookEvent, int64, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown status %q", filter.Status))
	}
	events, total, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list webhook events: %w", err)
	}
	return events, total, nil
}

// Purge deletes events recorded more than retention ago
func (s *WebhookIngestor) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, shared.NewDomainError("INVALID_INPUT", "Retention must be positive")
	}

	cutoff := s.now().Add(-retention)
	n, err := s.events.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge webhook events: %w", err)
	}

	s.metrics.RecordPurged(ctx, n)
	s.logger.Info("Purged webhook events",
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", n))
	return n, nil
}

func (s *WebhookIngestor) verify(payload []byte, signature string) (stripe.Event, error) {
	if strings.TrimSpace(signature) == "" {
		return stripe.Event{}, ErrInvalidSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.secret, webhook.ConstructEventOptions{
		Tolerance:                s.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			s.logger.Warn("Failed to verify webhook signature", zap.Error(err))
			return stripe.Event{}, ErrInvalidSignature
		}
		s.logger.Warn("Failed to parse webhook payload", zap.Error(err))
		return stripe.Event{}, ErrMalformedPayload
	}

	if event.ID == "" || event.Type == "" {
		return stripe.Event{}, ErrMalformedPayload
	}
	return event, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrTooOld)
}

func (s *WebhookIngestor) seen(ctx context.Context, eventID string) bool {
	if s.idempotency == nil {
		return false
	}
	ok, err := s.idempotency.IsProcessed(ctx, eventID)
	if err != nil {
		s.logger.Warn("Idempotency lookup failed, falling back to database",
			zap.String("event_id", eventID),
			zap.Error(err))
		return false
	}
	return ok
}

func (s *WebhookIngestor) remember(ctx context.Context, eventID string) {
	if s.idempotency == nil {
		return
	}
	if _, err := s.idempotency.MarkProcessed(ctx, eventID, s.idempotencyTTL); err != nil {
		s.logger.Warn("Failed to cache processed event id",
			zap.String("event_id", eventID),
			zap.Error(err))
	}
}

func duplicateResult(eventID, eventType string) *WebhookResult {
	return &WebhookResult{
		EventID:   eventID,
		EventType: eventType,
		Processed: true,
		Duplicate: true,
		Message:   "Event already received",
	}
}

func (s *WebhookIngestor) timedDispatch(ctx context.Context, event stripe.Event) error {
	start := time.Now()
	err := s.dispatch(ctx, event)
	s.metrics.RecordDispatchDuration(ctx, string(event.Type), time.Since(start))
	return err
}

// dispatch applies the subscription transition for an event type
func (s *WebhookIngestor) dispatch(ctx context.Context, event stripe.Event) error {
	switch billing.ParseEventType(string(event.Type)) {
	case billing.EventTypeCheckoutSessionCompleted:
		return s.handleCheckoutSessionCompleted(ctx, event)
	case billing.EventTypeSubscriptionCreated, billing.EventTypeSubscriptionUpdated:
		return s.handleSubscriptionChanged(ctx, event)
	case billing.EventTypeSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event)
	case billing.EventTypeUnrecognized:
		s.logger.Debug("Unhandled webhook event type",
			zap.String("event_type", string(event.Type)))
		return nil
	}
	return fmt.Errorf("no dispatch arm for event type %s", event.Type)
}

// handleCheckoutSessionCompleted handles checkout.session.completed events
func (s *WebhookIngestor) handleCheckoutSessionCompleted(ctx context.Context, event stripe.Event) error {
	raw, err := eventObject(event)
	if err != nil {
		return err
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}

	if session.Subscription == nil || session.Subscription.ID == "" {
		s.logger.Info("Checkout session has no subscription, nothing to record",
			zap.String("session_id", session.ID))
		return nil
	}

	tenantID, err := tenantFromMetadata(session.Metadata, session.ClientReferenceID)
	if err != nil {
		return err
	}

	sub := session.Subscription
	if sub.Status == "" {
		if s.fetcher == nil {
			return fmt.Errorf("subscription %s is not expanded and no fetcher is configured", sub.ID)
		}
		sub, err = s.fetcher.FetchSubscription(ctx, sub.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch subscription %s: %w", session.Subscription.ID, err)
		}
	}

	record, err := recordFromSubscription(tenantID, sub)
	if err != nil {
		return err
	}
	if record.StripeCustomerID == "" && session.Customer != nil {
		record.StripeCustomerID = session.Customer.ID
	}

	return s.writeSubscription(ctx, record, event)
}

// handleSubscriptionChanged handles customer.subscription.created and .updated events
func (s *WebhookIngestor) handleSubscriptionChanged(ctx context.Context, event stripe.Event) error {
	sub, err := subscriptionFromEvent(event)
	if err != nil {
		return err
	}

	tenantID, err := tenantFromMetadata(sub.Metadata)
	if err != nil {
		return err
	}

	record, err := recordFromSubscription(tenantID, sub)
	if err != nil {
		return err
	}
	return s.writeSubscription(ctx, record, event)
}

// handleSubscriptionDeleted handles customer.subscription.deleted events
func (s *WebhookIngestor) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	sub, err := subscriptionFromEvent(event)
	if err != nil {
		return err
	}

	tenantID, err := tenantFromMetadata(sub.Metadata)
	if err != nil {
		return err
	}

	record, err := billing.Canceled(tenantID)
	if err != nil {
		return err
	}
	record.StripeSubscriptionID = sub.ID
	if sub.Customer != nil {
		record.StripeCustomerID = sub.Customer.ID
	}

	return s.writeSubscription(ctx, record, event)
}

func (s *WebhookIngestor) writeSubscription(ctx context.Context, record *billing.SubscriptionRecord, event stripe.Event) error {
	record.LastEventID = event.ID
	record.UpdatedAt = s.now()

	if err := s.subscriptions.Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	s.logger.Info("Subscription record updated",
		zap.String("tenant_id", record.TenantID.String()),
		zap.String("status", string(record.Status)),
		zap.String("event_id", event.ID))

	if s.publisher == nil {
		return nil
	}
	change := billing.NewSubscriptionChanged(record, string(event.Type), s.now())
	if err := s.publisher.PublishSubscriptionChanged(ctx, change); err != nil {
		s.logger.Warn("Failed to publish subscription change",
			zap.String("tenant_id", record.TenantID.String()),
			zap.Error(err))
	}
	return nil
}

func eventObject(event stripe.Event) (json.RawMessage, error) {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, fmt.Errorf("event %s has no data object", event.ID)
	}
	return event.Data.Raw, nil
}

func subscriptionFromEvent(event stripe.Event) (*stripe.Subscription, error) {
	raw, err := eventObject(event)
	if err != nil {
		return nil, err
	}
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("failed to unmarshal subscription: %w", err)
	}
	return &sub, nil
}

func recordFromSubscription(tenantID uuid.UUID, sub *stripe.Subscription) (*billing.SubscriptionRecord, error) {
	record, err := billing.NewSubscriptionRecord(tenantID, billing.SubscriptionStatus(sub.Status))
	if err != nil {
		return nil, err
	}

	priceID := ""
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID = sub.Items.Data[0].Price.ID
	}
	record.WithPrice(priceID).WithPeriodEnd(sub.CurrentPeriodEnd)
	record.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	record.StripeSubscriptionID = sub.ID
	if sub.Customer != nil {
		record.StripeCustomerID = sub.Customer.ID
	}
	return record, nil
}

// tenantFromMetadata reads the owning tenant from provider metadata, then from fallbacks
func tenantFromMetadata(metadata map[string]string, fallbacks ...string) (uuid.UUID, error) {
	candidates := make([]string, 0, len(tenantMetadataKeys)+len(fallbacks))
	for _, k := range tenantMetadataKeys {
		candidates = append(candidates, metadata[k])
	}
	candidates = append(candidates, fallbacks...)

	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		id, err := uuid.Parse(c)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid tenant id %q in metadata: %w", c, err)
		}
		return id, nil
	}
	return uuid.Nil, errors.New("tenant id missing from event metadata")
}
