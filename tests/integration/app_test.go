//go:build integration

package integration

import (
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	appbilling "github.com/thegridhub/backend/internal/application/billing"
	appidentity "github.com/thegridhub/backend/internal/application/identity"
	"github.com/thegridhub/backend/internal/domain/billing"
	"github.com/thegridhub/backend/internal/domain/identity"
	"github.com/thegridhub/backend/internal/infrastructure/auth"
	"github.com/thegridhub/backend/internal/infrastructure/cache"
	"github.com/thegridhub/backend/internal/infrastructure/config"
	"github.com/thegridhub/backend/internal/infrastructure/event"
	"github.com/thegridhub/backend/internal/infrastructure/persistence"
	"github.com/thegridhub/backend/internal/interfaces/http/handler"
	"github.com/thegridhub/backend/internal/interfaces/http/middleware"
	"github.com/thegridhub/backend/internal/interfaces/http/router"
	"github.com/thegridhub/backend/tests/testutil"
	"go.uber.org/zap"
)

const (
	adminCookieName = "gridhub_admin_session"
	adminPassword   = "correct-horse-battery"
	retention       = 90 * 24 * time.Hour
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

// testApp is the HTTP engine wired to real repositories on the test database
type testApp struct {
	db     *TestDB
	engine *gin.Engine
	admins *persistence.GormAdminUserRepository
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := NewSharedTestDB(t)
	log := zap.NewNop()

	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	admins := persistence.NewGormAdminUserRepository(db.DB)

	idempotency := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = idempotency.Close() })

	limiter := appbilling.NewUsageLimiter(appbilling.UsageLimiterConfig{
		Plans:   billing.DefaultPlanCatalog(),
		Tenants: persistence.NewGormTenantRepository(db.DB),
		Usage:   persistence.NewGormUsageCounter(db.DB),
		Logger:  log,
	})
	ingestor := appbilling.NewWebhookIngestor(appbilling.WebhookIngestorConfig{
		WebhookSecret: testutil.TestWebhookSecret,
		Events:        persistence.NewGormWebhookEventRepository(db.DB),
		Subscriptions: subscriptionRepo,
		Publisher:     event.NewLogSubscriptionPublisher(log),
		Idempotency:   idempotency,
		Logger:        log,
	})
	sessions := appidentity.NewAdminSessionService(admins, auth.NewSessionSigner(config.AdminConfig{
		SessionSecret: "integration-admin-secret-0123456789",
		SessionTTL:    time.Hour,
	}, auth.NewInMemoryTokenBlacklist()), log)

	engine, err := router.NewEngine(router.EngineConfig{
		Logger:      log,
		CORS:        middleware.DefaultCORSConfig(),
		MaxBodySize: 1 << 20,
		TenantAuth: middleware.TenantAuth(middleware.TenantAuthConfig{
			JWTService: auth.NewJWTService(testutil.TestJWTConfig()),
			Logger:     log,
		}),
		AdminAuth: middleware.AdminSession(middleware.AdminSessionConfig{
			Authenticator: sessions,
			CookieName:    adminCookieName,
			Logger:        log,
		}),
	}, router.Handlers{
		Subscription:  handler.NewSubscriptionHandler(limiter, appbilling.NewSubscriptionQueryService(subscriptionRepo)),
		StripeWebhook: handler.NewStripeWebhookHandler(ingestor, 0),
		AdminSession:  handler.NewAdminSessionHandler(sessions, handler.AdminCookieConfig{Name: adminCookieName}),
		AdminWebhook:  handler.NewAdminWebhookHandler(ingestor, retention),
		Health:        handler.NewHealthHandler("integration"),
	})
	require.NoError(t, err)

	return &testApp{db: db, engine: engine, admins: admins}
}

// deliver posts a signed provider event to the webhook endpoint
func (a *testApp) deliver(t *testing.T, payload []byte) map[string]any {
	t.Helper()

	w := testutil.Do(t, a.engine, testutil.Request{
		Method:  http.MethodPost,
		Path:    "/webhooks/stripe",
		Body:    payload,
		Headers: map[string]string{"Stripe-Signature": testutil.SignStripePayload(payload, testutil.TestWebhookSecret)},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return testutil.JSONBody(t, w)
}

// adminLogin creates an operator with role and returns its session cookie
func (a *testApp) adminLogin(t *testing.T, role identity.AdminRole) *http.Cookie {
	t.Helper()

	email := string(role) + "@thegridhub.test"
	user, err := identity.NewAdminUser(email, adminPassword, role)
	require.NoError(t, err)
	require.NoError(t, a.admins.Save(testutil.ContextWithTimeout(t, 5*time.Second), user))

	w := testutil.Do(t, a.engine, testutil.Request{
		Method: http.MethodPost,
		Path:   "/internal/admin/session",
		Body:   map[string]string{"email": email, "password": adminPassword},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == adminCookieName {
			return c
		}
	}
	require.FailNow(t, "session cookie not set")
	return nil
}
