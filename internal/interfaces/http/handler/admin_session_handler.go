package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	appidentity "github.com/thegridhub/backend/internal/application/identity"
	"github.com/thegridhub/backend/internal/interfaces/http/dto"
	"github.com/thegridhub/backend/internal/interfaces/http/middleware"
)

// adminCookiePath scopes the session cookie to the console API
const adminCookiePath = "/internal/admin"

// AdminSessionManager logs operators in and out
type AdminSessionManager interface {
	Login(ctx context.Context, input appidentity.AdminLoginInput) (*appidentity.AdminLoginResult, error)
	Logout(ctx context.Context, token string) error
}

// AdminCookieConfig describes the session cookie
type AdminCookieConfig struct {
	Name   string
	Domain string
	Secure bool
	// MaxAge caps the cookie lifetime; usually the session signer TTL
	MaxAge time.Duration
}

// AdminSessionHandler handles operator login and logout
type AdminSessionHandler struct {
	BaseHandler
	sessions AdminSessionManager
	cookie   AdminCookieConfig
	now      func() time.Time
}

// NewAdminSessionHandler creates a new AdminSessionHandler
func NewAdminSessionHandler(sessions AdminSessionManager, cookie AdminCookieConfig) *AdminSessionHandler {
	return &AdminSessionHandler{sessions: sessions, cookie: cookie, now: time.Now}
}

// Login godoc
// @ID           createAdminSession
//
//	@Summary		Sign in as an admin
//	@Description	Verify admin credentials and set the session cookie. Attempts are rate limited per client IP.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.AdminLoginRequest	true	"Admin credentials"
//	@Success		200		{object}	dto.Response{data=dto.AdminSessionResponse}
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Failure		429		{object}	dto.Response
//	@Router			/internal/admin/session [post]
func (h *AdminSessionHandler) Login(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.sessions.Login(c.Request.Context(), appidentity.AdminLoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setCookie(c, result.Token, h.cookieMaxAge(result.ExpiresAt))

	h.Success(c, dto.AdminSessionResponse{
		AdminID:   result.AdminID,
		Email:     result.Email,
		Role:      string(result.Role),
		ExpiresAt: result.ExpiresAt,
	})
}

// Logout godoc
// @ID           deleteAdminSession
//
//	@Summary		Sign out
//	@Description	Revoke the current admin session and clear the cookie
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	dto.Response
//	@Router			/internal/admin/session [delete]
func (h *AdminSessionHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(h.cookie.Name)
	if err := h.sessions.Logout(c.Request.Context(), token); err != nil {
		h.HandleError(c, err)
		return
	}

	h.setCookie(c, "", -1)
	h.Success(c, gin.H{"logged_out": true})
}

// cookieMaxAge returns the seconds until the session expires, never more than MaxAge
func (h *AdminSessionHandler) cookieMaxAge(expiresAt time.Time) int {
	lifetime := expiresAt.Sub(h.now())
	if h.cookie.MaxAge > 0 && (expiresAt.IsZero() || lifetime > h.cookie.MaxAge) {
		lifetime = h.cookie.MaxAge
	}
	return int(lifetime.Seconds())
}

func (h *AdminSessionHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookie.Name, value, maxAge, adminCookiePath, h.cookie.Domain, h.cookie.Secure, true)
}
