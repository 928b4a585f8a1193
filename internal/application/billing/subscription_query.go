package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thegridhub/backend/internal/domain/billing"
	"github.com/thegridhub/backend/internal/domain/shared"
)

// SubscriptionView is the read model of a tenant's subscription
type SubscriptionView struct {
	TenantID          uuid.UUID                  `json:"tenantId"`
	Status            billing.SubscriptionStatus `json:"status"`
	PriceID           *string                    `json:"priceId"`
	CurrentPeriodEnd  *string                    `json:"currentPeriodEnd"`
	CancelAtPeriodEnd bool                       `json:"cancelAtPeriodEnd"`
	Entitled          bool                       `json:"entitled"`
	UpdatedAt         string                     `json:"updatedAt"`
}

// SubscriptionQueryService reads subscription records
type SubscriptionQueryService struct {
	subscriptions billing.SubscriptionRepository
}

// NewSubscriptionQueryService creates a new SubscriptionQueryService
func NewSubscriptionQueryService(subscriptions billing.SubscriptionRepository) *SubscriptionQueryService {
	return &SubscriptionQueryService{subscriptions: subscriptions}
}

// Get returns the subscription of a tenant. Tenants that never subscribed get NOT_FOUND.
func (s *SubscriptionQueryService) Get(ctx context.Context, tenantID uuid.UUID) (*SubscriptionView, error) {
	if tenantID == uuid.Nil {
		return nil, shared.ErrNotAuthenticated
	}

	record, err := s.subscriptions.FindByTenantID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "No subscription recorded for tenant")
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	return toSubscriptionView(record), nil
}

func toSubscriptionView(r *billing.SubscriptionRecord) *SubscriptionView {
	v := &SubscriptionView{
		TenantID:          r.TenantID,
		Status:            r.Status,
		PriceID:           r.PriceID,
		CancelAtPeriodEnd: r.CancelAtPeriodEnd,
		Entitled:          r.Status.IsEntitled(),
		UpdatedAt:         r.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if r.CurrentPeriodEnd != nil {
		end := r.CurrentPeriodEnd.UTC().Format(time.RFC3339)
		v.CurrentPeriodEnd = &end
	}
	return v
}
