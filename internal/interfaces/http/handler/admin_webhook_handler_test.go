package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	appbilling "github.com/thegridhub/backend/internal/application/billing"
	"github.com/thegridhub/backend/internal/domain/billing"
	"github.com/thegridhub/backend/internal/domain/shared"
	"github.com/thegridhub/backend/internal/interfaces/http/dto"
)

const testRetention = 90 * 24 * time.Hour

func newAdminWebhookRouter(admin WebhookAdmin) *gin.Engine {
	h := NewAdminWebhookHandler(admin, testRetention)
	r := gin.New()
	r.GET("/internal/admin/webhooks", h.List)
	r.POST("/internal/admin/webhooks/retry", h.Retry)
	r.POST("/internal/admin/webhooks/purge", h.Purge)
	return r
}

func TestAdminWebhookHandler_List(t *testing.T) {
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	admin := new(mockWebhookAdmin)
	admin.On("List", mock.Anything, mock.MatchedBy(func(f billing.WebhookEventFilter) bool {
		return f.Status == billing.WebhookEventStatusFailed && f.Page == 2 && f.PageSize == 10
	})).Return([]*billing.WebhookEvent{{
		EventID:   "evt_1",
		Type:      "checkout.session.completed",
		Payload:   []byte(`{"secret":"payload"}`),
		Status:    billing.WebhookEventStatusFailed,
		Error:     "tenant_id metadata missing",
		Attempts:  1,
		CreatedAt: created,
	}}, int64(11), nil)

	w := doJSON(t, newAdminWebhookRouter(admin), http.MethodGet, "/internal/admin/webhooks?status=failed&page=2&page_size=10", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(11), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)

	items, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "evt_1", item["event_id"])
	assert.Equal(t, "failed", item["status"])
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestAdminWebhookHandler_List_RejectsUnknownStatus(t *testing.T) {
	admin := new(mockWebhookAdmin)

	w := doJSON(t, newAdminWebhookRouter(admin), http.MethodGet, "/internal/admin/webhooks?status=exploded", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	admin.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestAdminWebhookHandler_Retry(t *testing.T) {
	tests := []struct {
		name     string
		result   *appbilling.WebhookResult
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "reprocessed",
			result:   &appbilling.WebhookResult{EventID: "evt_1", Processed: true, Status: billing.WebhookEventStatusProcessed},
			wantCode: http.StatusOK,
		},
		{
			name:     "unknown event",
			err:      shared.NewDomainError("NOT_FOUND", "Webhook event evt_1 not found"),
			wantCode: http.StatusNotFound,
			wantErr:  dto.ErrCodeNotFound,
		},
		{
			name:     "type without handler",
			err:      appbilling.ErrUnsupportedEventType,
			wantCode: http.StatusBadRequest,
			wantErr:  dto.ErrCodeUnsupportedEventType,
		},
		{
			name:     "handler failed again",
			result:   &appbilling.WebhookResult{EventID: "evt_1", Status: billing.WebhookEventStatusFailed},
			err:      shared.NewDomainError("DISPATCH_FAILED", "Retry failed: tenant not found"),
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  dto.ErrCodeDispatchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admin := new(mockWebhookAdmin)
			admin.On("Retry", mock.Anything, "evt_1").Return(tt.result, tt.err)

			w := doJSON(t, newAdminWebhookRouter(admin), http.MethodPost, "/internal/admin/webhooks/retry",
				map[string]string{"event_id": "evt_1"})

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decode(t, w).Error.Code)
			}
		})
	}

	t.Run("event_id is required", func(t *testing.T) {
		w := doJSON(t, newAdminWebhookRouter(new(mockWebhookAdmin)), http.MethodPost, "/internal/admin/webhooks/retry", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdminWebhookHandler_Purge(t *testing.T) {
	t.Run("empty body uses configured retention", func(t *testing.T) {
		admin := new(mockWebhookAdmin)
		admin.On("Purge", mock.Anything, testRetention).Return(int64(12), nil)

		w := doJSON(t, newAdminWebhookRouter(admin), http.MethodPost, "/internal/admin/webhooks/purge", nil)

		require.Equal(t, http.StatusOK, w.Code)
		data := dataMap(t, decode(t, w))
		assert.Equal(t, float64(12), data["deleted"])
		assert.Equal(t, float64(90), data["retention_days"])
	})

	t.Run("explicit retention in days", func(t *testing.T) {
		admin := new(mockWebhookAdmin)
		admin.On("Purge", mock.Anything, 7*24*time.Hour).Return(int64(0), nil)

		w := doJSON(t, newAdminWebhookRouter(admin), http.MethodPost, "/internal/admin/webhooks/purge", `{"retention_days":7}`)

		assert.Equal(t, http.StatusOK, w.Code)
		admin.AssertExpectations(t)
	})

	t.Run("zero days is rejected", func(t *testing.T) {
		w := doJSON(t, newAdminWebhookRouter(new(mockWebhookAdmin)), http.MethodPost, "/internal/admin/webhooks/purge", `{"retention_days":0}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
