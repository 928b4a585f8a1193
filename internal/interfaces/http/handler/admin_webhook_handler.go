package handler

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	appbilling "github.com/thegridhub/backend/internal/application/billing"
	"github.com/thegridhub/backend/internal/domain/billing"
	"github.com/thegridhub/backend/internal/domain/shared"
	"github.com/thegridhub/backend/internal/infrastructure/logger"
	"github.com/thegridhub/backend/internal/interfaces/http/dto"
	"github.com/thegridhub/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

const day = 24 * time.Hour

// WebhookAdmin is the operator surface of the webhook event log
type WebhookAdmin interface {
	List(ctx context.Context, filter billing.WebhookEventFilter) ([]*billing.WebhookEvent, int64, error)
	Retry(ctx context.Context, eventID string) (*appbilling.WebhookResult, error)
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

// AdminWebhookHandler serves the internal webhook console
type AdminWebhookHandler struct {
	BaseHandler
	webhooks         WebhookAdmin
	defaultRetention time.Duration
}

// NewAdminWebhookHandler creates a new AdminWebhookHandler
func NewAdminWebhookHandler(webhooks WebhookAdmin, defaultRetention time.Duration) *AdminWebhookHandler {
	return &AdminWebhookHandler{webhooks: webhooks, defaultRetention: defaultRetention}
}

// List godoc
// @ID           listWebhookEvents
//
//	@Summary		List webhook events
//	@Description	Page through recorded webhook events, newest first
//	@Tags			admin
//	@Produce		json
//	@Param			page		query		int		false	"Page number"	minimum(1)
//	@Param			page_size	query		int		false	"Page size"		minimum(1)	maximum(100)
//	@Param			status		query		string	false	"Event status"	Enums(pending, processed, failed)
//	@Param			type		query		string	false	"Event type, e.g. customer.subscription.updated"
//	@Success		200			{object}	dto.Response{data=[]dto.WebhookEventResponse}
//	@Failure		400			{object}	dto.Response
//	@Failure		401			{object}	dto.Response
//	@Failure		403			{object}	dto.Response
//	@Security		AdminSession
//	@Router			/internal/admin/webhooks [get]
func (h *AdminWebhookHandler) List(c *gin.Context) {
	req := dto.WebhookEventListRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := billing.WebhookEventFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  "created_at",
			OrderDir: "desc",
		},
		Status: billing.WebhookEventStatus(req.Status),
		Type:   req.Type,
	}

	events, total, err := h.webhooks.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]dto.WebhookEventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, dto.NewWebhookEventResponse(e))
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.Limit())
}

// Retry godoc
// @ID           retryWebhookEvent
//
//	@Summary		Retry a webhook event
//	@Description	Dispatch a recorded event again from its stored payload
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.RetryWebhookRequest	true	"Event to retry"
//	@Success		200		{object}	dto.Response{data=appbilling.WebhookResult}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Security		AdminSession
//	@Router			/internal/admin/webhooks/retry [post]
func (h *AdminWebhookHandler) Retry(c *gin.Context) {
	var req dto.RetryWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	h.audit(c, "Webhook retry requested", zap.String("event_id", req.EventID))

	result, err := h.webhooks.Retry(c.Request.Context(), req.EventID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Purge godoc
// @ID           purgeWebhookEvents
//
//	@Summary		Purge old webhook events
//	@Description	Delete processed events older than the retention window
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.PurgeWebhooksRequest	false	"Retention override"
//	@Success		200		{object}	dto.Response{data=dto.PurgeWebhooksResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		403		{object}	dto.Response
//	@Security		AdminSession
//	@Router			/internal/admin/webhooks/purge [post]
func (h *AdminWebhookHandler) Purge(c *gin.Context) {
	var req dto.PurgeWebhooksRequest
	// an empty body means the configured retention
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.HandleValidationError(c, err)
		return
	}

	retention := h.defaultRetention
	if req.RetentionDays != nil {
		retention = time.Duration(*req.RetentionDays) * day
	}

	h.audit(c, "Webhook purge requested", zap.Duration("retention", retention))

	deleted, err := h.webhooks.Purge(c.Request.Context(), retention)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.PurgeWebhooksResponse{
		Deleted:       deleted,
		RetentionDays: int(retention / day),
	})
}

func (h *AdminWebhookHandler) audit(c *gin.Context, msg string, fields ...zap.Field) {
	if p := middleware.GetAdminPrincipal(c); p != nil {
		fields = append(fields,
			zap.String("admin_id", p.User.ID.String()),
			zap.String("admin_email", p.User.Email))
	}
	logger.GetGinLogger(c).Info(msg, fields...)
}
