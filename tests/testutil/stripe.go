package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

// TestWebhookSecret is the signing secret used by webhook tests
const TestWebhookSecret = "whsec_test_secret"

// StripeEventPayload builds the JSON body of a provider event wrapping object
func StripeEventPayload(t *testing.T, id, eventType string, object map[string]any) []byte {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"api_version": stripe.APIVersion,
		"created":     time.Now().Unix(),
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)
	return raw
}

// SignStripePayload returns a valid Stripe-Signature header for payload
func SignStripePayload(payload []byte, secret string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

// SubscriptionObject builds a subscription owned by tenantID
func SubscriptionObject(tenantID uuid.UUID, id, status, priceID string, periodEnd time.Time) map[string]any {
	return map[string]any{
		"id":                   id,
		"object":               "subscription",
		"status":               status,
		"customer":             "cus_" + tenantID.String()[:8],
		"cancel_at_period_end": false,
		"current_period_end":   periodEnd.Unix(),
		"metadata":             map[string]string{"tenant_id": tenantID.String()},
		"items": map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"id": "si_" + id, "object": "subscription_item", "price": map[string]any{"id": priceID, "object": "price"}},
			},
		},
	}
}

// CheckoutSessionObject builds a completed checkout session carrying an expanded subscription
func CheckoutSessionObject(tenantID uuid.UUID, subscription map[string]any) map[string]any {
	return map[string]any{
		"id":                  "cs_" + tenantID.String()[:8],
		"object":              "checkout.session",
		"mode":                "subscription",
		"client_reference_id": tenantID.String(),
		"customer":            subscription["customer"],
		"subscription":        subscription,
	}
}
