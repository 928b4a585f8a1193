package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v81"
	"github.com/thegridhub/backend/internal/domain/billing"
	"github.com/thegridhub/backend/internal/domain/identity"
)

// mockTenantRepository is a mock implementation of identity.TenantRepository
type mockTenantRepository struct {
	mock.Mock
}

func (m *mockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *mockTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

// mockUsageCounter is a mock implementation of billing.UsageCounter
type mockUsageCounter struct {
	mock.Mock
}

func (m *mockUsageCounter) CountProjects(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUsageCounter) CountTeamMembers(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUsageCounter) CountAISuggestionsSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUsageCounter) SumStorageBytes(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

// mockWebhookEventRepository is a mock implementation of billing.WebhookEventRepository
type mockWebhookEventRepository struct {
	mock.Mock
}

func (m *mockWebhookEventRepository) InsertIfAbsent(ctx context.Context, event *billing.WebhookEvent) (bool, error) {
	args := m.Called(ctx, event)
	return args.Bool(0), args.Error(1)
}

func (m *mockWebhookEventRepository) FindByEventID(ctx context.Context, eventID string) (*billing.WebhookEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.WebhookEvent), args.Error(1)
}

func (m *mockWebhookEventRepository) UpdateOutcome(ctx context.Context, event *billing.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockWebhookEventRepository) List(ctx context.Context, filter billing.WebhookEventFilter) ([]*billing.WebhookEvent, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*billing.WebhookEvent), args.Get(1).(int64), args.Error(2)
}

func (m *mockWebhookEventRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// mockSubscriptionRepository is a mock implementation of billing.SubscriptionRepository
type mockSubscriptionRepository struct {
	mock.Mock
}

func (m *mockSubscriptionRepository) Upsert(ctx context.Context, record *billing.SubscriptionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockSubscriptionRepository) FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*billing.SubscriptionRecord, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.SubscriptionRecord), args.Error(1)
}

// mockSubscriptionFetcher is a mock implementation of SubscriptionFetcher
type mockSubscriptionFetcher struct {
	mock.Mock
}

func (m *mockSubscriptionFetcher) FetchSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.Subscription), args.Error(1)
}

// mockPublisher is a mock implementation of billing.SubscriptionPublisher
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishSubscriptionChanged(ctx context.Context, change billing.SubscriptionChanged) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return nil
}

// memoryIdempotency is a map-backed shared.IdempotencyStore
type memoryIdempotency struct {
	seen map[string]bool
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{seen: map[string]bool{}}
}

func (s *memoryIdempotency) MarkProcessed(_ context.Context, eventID string, _ time.Duration) (bool, error) {
	if s.seen[eventID] {
		return false, nil
	}
	s.seen[eventID] = true
	return true, nil
}

func (s *memoryIdempotency) IsProcessed(_ context.Context, eventID string) (bool, error) {
	return s.seen[eventID], nil
}

func (s *memoryIdempotency) Close() error { return nil }
