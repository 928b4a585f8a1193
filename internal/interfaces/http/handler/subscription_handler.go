package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appbilling "github.com/thegridhub/backend/internal/application/billing"
	"github.com/thegridhub/backend/internal/domain/billing"
	"github.com/thegridhub/backend/internal/interfaces/http/dto"
	"github.com/thegridhub/backend/internal/interfaces/http/middleware"
)

// LimitChecker decides plan limits for a tenant
type LimitChecker interface {
	CheckLimit(ctx context.Context, input appbilling.CheckLimitInput) (*billing.LimitDecision, error)
	UsageSummary(ctx context.Context, tenantID uuid.UUID) (*appbilling.UsageSummary, error)
}

// SubscriptionReader reads a tenant's subscription record
type SubscriptionReader interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*appbilling.SubscriptionView, error)
}

// SubscriptionHandler serves the tenant-facing subscription API
type SubscriptionHandler struct {
	BaseHandler
	limiter       LimitChecker
	subscriptions SubscriptionReader
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(limiter LimitChecker, subscriptions SubscriptionReader) *SubscriptionHandler {
	return &SubscriptionHandler{
		limiter:       limiter,
		subscriptions: subscriptions,
	}
}

// CheckLimit godoc
// @ID           checkSubscriptionLimit
//
//	@Summary		Check a plan limit
//	@Description	Decide whether the tenant may perform an action under its plan.
//	@Description	A denial is a 200 with allowed=false; the caller decides how to surface the upgrade.
//	@Tags			subscription
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CheckLimitRequest							true	"Action to check"
//	@Success		200		{object}	dto.Response{data=billing.LimitDecision}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/v1/subscription/check-limit [post]
func (h *SubscriptionHandler) CheckLimit(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		h.Unauthenticated(c)
		return
	}

	var req dto.CheckLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	decision, err := h.limiter.CheckLimit(c.Request.Context(), appbilling.CheckLimitInput{
		TenantID:      tenantID,
		Action:        req.Action,
		FileSizeBytes: req.Size(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, decision)
}

// GetUsage godoc
// @ID           getSubscriptionUsage
//
//	@Summary		Get plan usage
//	@Description	Return the tenant's plan, its limits and current usage
//	@Tags			subscription
//	@Produce		json
//	@Success		200	{object}	dto.Response{data=appbilling.UsageSummary}
//	@Failure		401	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		500	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/v1/subscription/usage [get]
func (h *SubscriptionHandler) GetUsage(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		h.Unauthenticated(c)
		return
	}

	summary, err := h.limiter.UsageSummary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// GetSubscription godoc
// @ID           getSubscription
//
//	@Summary		Get the tenant subscription
//	@Description	Return the tenant's subscription record as last reported by Stripe
//	@Tags			subscription
//	@Produce		json
//	@Success		200	{object}	dto.Response{data=appbilling.SubscriptionView}
//	@Failure		401	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		500	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/v1/subscription [get]
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		h.Unauthenticated(c)
		return
	}

	view, err := h.subscriptions.Get(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}
