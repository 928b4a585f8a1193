package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thegridhub/backend/internal/interfaces/http/dto"
)

// ReadinessCheck is one dependency probed by /health/ready
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	checks    []ReadinessCheck
	timeout   time.Duration
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(version string, checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{
		checks:    checks,
		timeout:   2 * time.Second,
		version:   version,
		startTime: time.Now(),
	}
}

// Live godoc
// @ID           getHealth
//
//	@Summary		Liveness check
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": h.version,
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready godoc
// @ID           getHealthReady
//
//	@Summary		Readiness check
//	@Description	Any failing dependency makes the service unready
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	dto.Response
//	@Failure		503	{object}	dto.Response
//	@Router			/health/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	ready := true
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			results[check.Name] = "unavailable"
			ready = false
			continue
		}
		results[check.Name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, dto.Response{
			Success: false,
			Data:    gin.H{"status": "not_ready", "checks": results},
			Error:   &dto.ErrorInfo{Code: "ERR_NOT_READY", Message: "One or more dependencies are unavailable"},
		})
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ready", "checks": results}))
}
