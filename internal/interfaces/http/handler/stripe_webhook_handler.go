package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	appbilling "github.com/thegridhub/backend/internal/application/billing"
	"github.com/thegridhub/backend/internal/infrastructure/logger"
	"github.com/thegridhub/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// DefaultMaxWebhookPayloadSize is the largest accepted webhook body (64KB)
const DefaultMaxWebhookPayloadSize = 65536

// WebhookReceiver ingests a signed provider delivery
type WebhookReceiver interface {
	Ingest(ctx context.Context, payload []byte, signature string) (*appbilling.WebhookResult, error)
}

// StripeWebhookHandler handles POST /webhooks/stripe.
// The endpoint is called by Stripe and authenticated only by the signature.
type StripeWebhookHandler struct {
	receiver   WebhookReceiver
	maxPayload int64
}

// NewStripeWebhookHandler creates a new StripeWebhookHandler. maxPayload <= 0 uses the default.
func NewStripeWebhookHandler(receiver WebhookReceiver, maxPayload int64) *StripeWebhookHandler {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxWebhookPayloadSize
	}
	return &StripeWebhookHandler{receiver: receiver, maxPayload: maxPayload}
}

// HandleStripeWebhook verifies, records and dispatches one delivery.
//
// Status codes tell Stripe whether to redeliver: 400 for bodies that will never verify,
// 500 when the event could not be recorded, 200 otherwise (including failed dispatches,
// which are kept for an operator retry).
//
// @ID           receiveStripeWebhook
//
//	@Summary		Receive a Stripe webhook
//	@Description	Verify the Stripe-Signature header, record the event once and dispatch it
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header		string						true	"Stripe signature header"
//	@Param			payload				body		object						true	"Stripe event"
//	@Success		200					{object}	dto.StripeWebhookResponse
//	@Failure		400					{object}	dto.StripeWebhookResponse
//	@Failure		413					{object}	dto.StripeWebhookResponse
//	@Failure		500					{object}	dto.StripeWebhookResponse
//	@Router			/webhooks/stripe [post]
func (h *StripeWebhookHandler) HandleStripeWebhook(c *gin.Context) {
	// the raw body is needed for signature verification
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxPayload+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.StripeWebhookResponse{Message: "Failed to read request body"})
		return
	}
	if int64(len(payload)) > h.maxPayload {
		c.JSON(http.StatusRequestEntityTooLarge, dto.StripeWebhookResponse{Message: "Payload too large"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, dto.StripeWebhookResponse{Message: "Missing Stripe-Signature header"})
		return
	}

	result, err := h.receiver.Ingest(c.Request.Context(), payload, signature)
	switch {
	case errors.Is(err, appbilling.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, dto.StripeWebhookResponse{Message: "Webhook signature verification failed"})
		return
	case errors.Is(err, appbilling.ErrMalformedPayload):
		c.JSON(http.StatusBadRequest, dto.StripeWebhookResponse{Message: "Webhook payload is not a valid event"})
		return
	case err != nil:
		logger.GetGinLogger(c).Error("Webhook could not be recorded", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.StripeWebhookResponse{Message: "Webhook could not be recorded"})
		return
	}

	c.JSON(http.StatusOK, dto.StripeWebhookResponse{
		Received:  true,
		EventID:   result.EventID,
		EventType: result.EventType,
		Message:   result.Message,
	})
}
