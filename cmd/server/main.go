package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	appbilling "github.com/thegridhub/backend/internal/application/billing"
	appidentity "github.com/thegridhub/backend/internal/application/identity"
	"github.com/thegridhub/backend/internal/domain/billing"
	"github.com/thegridhub/backend/internal/infrastructure/auth"
	infrabilling "github.com/thegridhub/backend/internal/infrastructure/billing"
	"github.com/thegridhub/backend/internal/infrastructure/cache"
	"github.com/thegridhub/backend/internal/infrastructure/config"
	"github.com/thegridhub/backend/internal/infrastructure/event"
	"github.com/thegridhub/backend/internal/infrastructure/logger"
	"github.com/thegridhub/backend/internal/infrastructure/persistence"
	"github.com/thegridhub/backend/internal/infrastructure/scheduler"
	"github.com/thegridhub/backend/internal/infrastructure/telemetry"
	"github.com/thegridhub/backend/internal/interfaces/http/handler"
	"github.com/thegridhub/backend/internal/interfaces/http/middleware"
	"github.com/thegridhub/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			TheGridHub Billing API
//	@version		1.0
//	@description	Plan limit checks for tenants, Stripe webhook ingestion and webhook event administration

//	@host		localhost:8080
//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Tenant bearer token authentication. Format: "Bearer {token}"

//	@securityDefinitions.apikey	AdminSession
//	@in							cookie
//	@name						gridhub_admin_session
//	@description				Admin session cookie issued by POST /internal/admin/session

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// The log bridge must exist before the logger so every entry can be exported
	logProvider, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, zap.NewNop())
	if err != nil {
		panic("Failed to initialize log exporter: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Tee:    []zapcore.Core{logProvider.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))},
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
		if err := logProvider.Shutdown(context.Background()); err != nil {
			log.Error("Logger provider shutdown failed", zap.Error(err))
		}
	}()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting TheGridHub billing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Tracer provider shutdown failed", zap.Error(err))
		}
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Meter provider shutdown failed", zap.Error(err))
		}
	}()

	metrics, err := telemetry.NewBillingMetrics(meterProvider.Meter("github.com/thegridhub/backend/billing"))
	if err != nil {
		return err
	}

	// Database
	db, err := persistence.NewDatabase(ctx, cfg.Database, persistence.Options{
		GormLogger: logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Database.SlowQueryThresh),
		Logger:     log,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Database.SlowQueryThresh,
		}, log)
		if err := plugin.Register(db.DB); err != nil {
			return err
		}
	}

	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfig{
		Enabled:            cfg.Telemetry.DBMetricsEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThresh,
		PoolStatsInterval:  telemetry.DefaultDBMetricsConfig().PoolStatsInterval,
	}, log)
	if err != nil {
		return err
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
		defer dbMetrics.Stop()
	}

	// Redis is optional; without it the idempotency fast path and session blacklist are per process
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			_ = redisClient.Close()
		}()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	idempotency := cache.NewIdempotencyStore(redisClient, log)
	defer func() {
		_ = idempotency.Close()
	}()

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}

	// An empty plans file keeps the built-in FREE/PRO catalog
	plans, err := infrabilling.LoadPlanCatalog(cfg.Billing.PlansFile)
	if err != nil {
		return err
	}

	// Payment provider and publisher
	var fetcher appbilling.SubscriptionFetcher
	if cfg.Stripe.FetchSubscription {
		stripeFetcher, err := infrabilling.NewStripeSubscriptionFetcher(cfg.Stripe, nil, log)
		if err != nil {
			return err
		}
		fetcher = stripeFetcher
	}

	publisher, err := newPublisher(cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("Error closing publisher", zap.Error(err))
		}
	}()

	// Repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	webhookEventRepo := persistence.NewGormWebhookEventRepository(db.DB)
	adminUserRepo := persistence.NewGormAdminUserRepository(db.DB)
	usageCounter := persistence.NewGormUsageCounter(db.DB)

	// Application services
	limiter := appbilling.NewUsageLimiter(appbilling.UsageLimiterConfig{
		Plans:   plans,
		Tenants: tenantRepo,
		Usage:   usageCounter,
		Metrics: metrics,
		Logger:  log,
	})
	ingestor := appbilling.NewWebhookIngestor(appbilling.WebhookIngestorConfig{
		WebhookSecret:  cfg.Stripe.WebhookSecret,
		Tolerance:      cfg.Stripe.WebhookTolerance,
		Events:         webhookEventRepo,
		Subscriptions:  subscriptionRepo,
		Fetcher:        fetcher,
		Publisher:      publisher,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.Webhook.IdempotencyTTL,
		Metrics:        metrics,
		Logger:         log,
	})
	subscriptions := appbilling.NewSubscriptionQueryService(subscriptionRepo)
	jwtService := auth.NewJWTService(cfg.JWT)
	signer := auth.NewSessionSigner(cfg.Admin, blacklist)
	adminSessions := appidentity.NewAdminSessionService(adminUserRepo, signer, log)

	purgeScheduler, err := scheduler.NewWebhookPurgeScheduler(ingestor, scheduler.WebhookPurgeSchedulerConfig{
		Enabled:   cfg.Webhook.PurgeEnabled,
		Interval:  cfg.Webhook.PurgeInterval,
		Retention: cfg.Webhook.Retention,
	}, log)
	if err != nil {
		return err
	}
	purgeScheduler.Start(ctx)

	// HTTP
	checks := []handler.ReadinessCheck{{Name: "database", Check: db.Ping}}
	if redisClient != nil {
		checks = append(checks, handler.ReadinessCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	engine, err := router.NewEngine(router.EngineConfig{
		Logger: log,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		CORS:           cors,
		HSTS:           cfg.App.IsProduction(),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		TenantAuth: middleware.TenantAuth(middleware.TenantAuthConfig{
			JWTService: jwtService,
			Logger:     log,
		}),
		AdminAuth: middleware.AdminSession(middleware.AdminSessionConfig{
			Authenticator: adminSessions,
			CookieName:    cfg.Admin.CookieName,
			Logger:        log,
		}),
		Metrics: middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			Logger:        log,
		}),
		LoginLimit: loginLimit(ctx, cfg.HTTP),
		Swagger: middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		},
	}, router.Handlers{
		Subscription:  handler.NewSubscriptionHandler(limiter, subscriptions),
		StripeWebhook: handler.NewStripeWebhookHandler(ingestor, handler.DefaultMaxWebhookPayloadSize),
		AdminSession: handler.NewAdminSessionHandler(adminSessions, handler.AdminCookieConfig{
			Name:   cfg.Admin.CookieName,
			Domain: cfg.Admin.CookieDomain,
			Secure: cfg.Admin.CookieSecure,
			MaxAge: signer.TTL(),
		}),
		AdminWebhook: handler.NewAdminWebhookHandler(ingestor, cfg.Webhook.Retention),
		Health:       handler.NewHealthHandler(version, checks...),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := purgeScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Purge scheduler did not stop cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	return nil
}

// loginLimit throttles admin login attempts per client IP; zero requests disables it
func loginLimit(ctx context.Context, cfg config.HTTPConfig) gin.HandlerFunc {
	if cfg.AuthRateLimitRequests <= 0 {
		return nil
	}
	return middleware.RateLimit(middleware.NewRateLimiter(ctx, cfg.AuthRateLimitRequests, cfg.AuthRateLimitWindow))
}

// newPublisher returns the Kafka publisher when brokers are configured and a logging one otherwise
func newPublisher(cfg config.KafkaConfig, log *zap.Logger) (billing.SubscriptionPublisher, error) {
	if !cfg.Enabled() {
		log.Info("Kafka disabled, subscription changes are logged only")
		return event.NewLogSubscriptionPublisher(log), nil
	}
	return event.NewKafkaSubscriptionPublisher(cfg, log)
}
