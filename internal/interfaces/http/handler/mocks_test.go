package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	appbilling "github.com/thegridhub/backend/internal/application/billing"
	appidentity "github.com/thegridhub/backend/internal/application/identity"
	"github.com/thegridhub/backend/internal/domain/billing"
	"github.com/thegridhub/backend/internal/infrastructure/auth"
	"github.com/thegridhub/backend/internal/interfaces/http/dto"
	"github.com/thegridhub/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type mockLimitChecker struct{ mock.Mock }

func (m *mockLimitChecker) CheckLimit(ctx context.Context, input appbilling.CheckLimitInput) (*billing.LimitDecision, error) {
	args := m.Called(ctx, input)
	if d := args.Get(0); d != nil {
		return d.(*billing.LimitDecision), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLimitChecker) UsageSummary(ctx context.Context, tenantID uuid.UUID) (*appbilling.UsageSummary, error) {
	args := m.Called(ctx, tenantID)
	if s := args.Get(0); s != nil {
		return s.(*appbilling.UsageSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSubscriptionReader struct{ mock.Mock }

func (m *mockSubscriptionReader) Get(ctx context.Context, tenantID uuid.UUID) (*appbilling.SubscriptionView, error) {
	args := m.Called(ctx, tenantID)
	if v := args.Get(0); v != nil {
		return v.(*appbilling.SubscriptionView), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockWebhookReceiver struct{ mock.Mock }

func (m *mockWebhookReceiver) Ingest(ctx context.Context, payload []byte, signature string) (*appbilling.WebhookResult, error) {
	args := m.Called(ctx, payload, signature)
	if r := args.Get(0); r != nil {
		return r.(*appbilling.WebhookResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockWebhookAdmin struct{ mock.Mock }

func (m *mockWebhookAdmin) List(ctx context.Context, filter billing.WebhookEventFilter) ([]*billing.WebhookEvent, int64, error) {
	args := m.Called(ctx, filter)
	events, _ := args.Get(0).([]*billing.WebhookEvent)
	return events, args.Get(1).(int64), args.Error(2)
}

func (m *mockWebhookAdmin) Retry(ctx context.Context, eventID string) (*appbilling.WebhookResult, error) {
	args := m.Called(ctx, eventID)
	if r := args.Get(0); r != nil {
		return r.(*appbilling.WebhookResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWebhookAdmin) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	args := m.Called(ctx, retention)
	return args.Get(0).(int64), args.Error(1)
}

type mockAdminSessionManager struct{ mock.Mock }

func (m *mockAdminSessionManager) Login(ctx context.Context, input appidentity.AdminLoginInput) (*appidentity.AdminLoginResult, error) {
	args := m.Called(ctx, input)
	if r := args.Get(0); r != nil {
		return r.(*appidentity.AdminLoginResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAdminSessionManager) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

// withTenant stands in for TenantAuth
func withTenant(tenantID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTClaimsKey, &auth.Claims{TenantID: tenantID.String()})
		c.Set(middleware.TenantIDKey, tenantID.String())
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func dataMap(t *testing.T, resp dto.Response) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}
