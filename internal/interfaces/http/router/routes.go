package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "github.com/thegridhub/backend/docs"
	"github.com/thegridhub/backend/internal/domain/identity"
	"github.com/thegridhub/backend/internal/infrastructure/logger"
	"github.com/thegridhub/backend/internal/interfaces/http/handler"
	"github.com/thegridhub/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers served by the billing service
type Handlers struct {
	Subscription  *handler.SubscriptionHandler
	StripeWebhook *handler.StripeWebhookHandler
	AdminSession  *handler.AdminSessionHandler
	AdminWebhook  *handler.AdminWebhookHandler
	Health        *handler.HealthHandler
}

// EngineConfig configures the gin engine and its middleware chain
type EngineConfig struct {
	Logger         *zap.Logger
	Tracing        middleware.TracingConfig
	CORS           middleware.CORSConfig
	HSTS           bool
	MaxBodySize    int64
	TrustedProxies []string
	TenantAuth     gin.HandlerFunc // Authenticates /api/v1/subscription
	AdminAuth      gin.HandlerFunc // Authenticates /internal/admin/webhooks and, when required, /swagger
	Metrics        gin.HandlerFunc // Optional HTTP metrics middleware
	LoginLimit     gin.HandlerFunc // Optional rate limit on POST /internal/admin/session
	Swagger        middleware.SwaggerConfig
}

// NewEngine builds the engine with the global middleware chain and every route
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		logger.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.Tracing(cfg.Tracing),
		middleware.SpanEnricher(),
	)
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics)
	}
	engine.Use(
		logger.GinMiddleware(cfg.Logger),
		middleware.Secure(cfg.HSTS),
		middleware.CORSWithConfig(cfg.CORS),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger, cfg.AdminAuth),
		ginSwagger.WrapHandler(swaggerFiles.Handler))

	r := NewRouter(engine)

	login := []gin.HandlerFunc{h.AdminSession.Login}
	if cfg.LoginLimit != nil {
		login = append([]gin.HandlerFunc{cfg.LoginLimit}, login...)
	}

	health := NewDomainGroup("health", "/health").
		GET("", h.Health.Live).
		GET("/ready", h.Health.Ready)

	webhooks := NewDomainGroup("webhooks", "/webhooks").
		POST("/stripe", h.StripeWebhook.HandleStripeWebhook)

	admin := NewDomainGroup("admin", "/internal/admin").
		POST("/session", login...).
		DELETE("/session", h.AdminSession.Logout)
	admin.Group("admin-webhooks", "/webhooks").
		Use(cfg.AdminAuth).
		GET("", middleware.RequireAdminRole(identity.AdminRoleViewer), h.AdminWebhook.List).
		POST("/retry", middleware.RequireAdminRole(identity.AdminRoleOperator), h.AdminWebhook.Retry).
		POST("/purge", middleware.RequireAdminRole(identity.AdminRoleOperator), h.AdminWebhook.Purge)

	subscription := NewDomainGroup("subscription", "/subscription").
		Use(cfg.TenantAuth).
		GET("", h.Subscription.GetSubscription).
		GET("/usage", h.Subscription.GetUsage).
		POST("/check-limit", h.Subscription.CheckLimit)

	r.RegisterRoot(health).
		RegisterRoot(webhooks).
		RegisterRoot(admin).
		Register(subscription).
		Setup()

	return engine, nil
}
