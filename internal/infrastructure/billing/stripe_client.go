package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/thegridhub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StripeSubscriptionFetcher loads subscriptions from the Stripe API. The ingestor uses it when a
// checkout session references a subscription by ID only.
type StripeSubscriptionFetcher struct {
	api    *client.API
	logger *zap.Logger
}

// NewStripeSubscriptionFetcher creates a fetcher. backends may be nil to use the live API.
func NewStripeSubscriptionFetcher(cfg config.StripeConfig, backends *stripe.Backends, logger *zap.Logger) (*StripeSubscriptionFetcher, error) {
	if err := validateSecretKey(cfg.SecretKey); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StripeSubscriptionFetcher{
		api:    client.New(cfg.SecretKey, backends),
		logger: logger,
	}, nil
}

// FetchSubscription retrieves a subscription with its items
func (f *StripeSubscriptionFetcher) FetchSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	if subscriptionID == "" {
		return nil, fmt.Errorf("stripe: subscription id is required")
	}

	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := f.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		f.logger.Error("Failed to get Stripe subscription",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to get subscription: %w", err)
	}

	f.logger.Debug("Fetched Stripe subscription",
		zap.String("subscription_id", sub.ID),
		zap.String("status", string(sub.Status)))
	return sub, nil
}

func validateSecretKey(key string) error {
	if key == "" {
		return fmt.Errorf("stripe: secret key is required")
	}
	if !strings.HasPrefix(key, "sk_test_") && !strings.HasPrefix(key, "sk_live_") && !strings.HasPrefix(key, "rk_") {
		return fmt.Errorf("stripe: secret key has an unexpected format")
	}
	return nil
}
