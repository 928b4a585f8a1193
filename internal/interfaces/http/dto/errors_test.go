package dto

import (
	"encoding/json"
	"math"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthenticated, http.StatusUnauthorized},
		{ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeDispatchFailed, http.StatusUnprocessableEntity},
		{ErrCodeInvalidSignature, http.StatusBadRequest},
		{ErrCodeMalformedPayload, http.StatusBadRequest},
		{ErrCodeUnsupportedEventType, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"INVALID_INPUT", ErrCodeInvalidInput},
		{"UNAUTHENTICATED", ErrCodeUnauthenticated},
		{"INVALID_CREDENTIALS", ErrCodeInvalidCredentials},
		{"INVALID_SIGNATURE", ErrCodeInvalidSignature},
		{"UNSUPPORTED_EVENT_TYPE", ErrCodeUnsupportedEventType},
		{"DISPATCH_FAILED", ErrCodeDispatchFailed},
		{ErrCodeNotFound, ErrCodeNotFound},
		{"SOMETHING_ELSE", "SOMETHING_ELSE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestDomainCodesMapToExpectedStatus(t *testing.T) {
	// every mapped domain code must resolve to a non-500 status
	for domainCode, apiCode := range DomainErrorCodeMapping {
		if apiCode == ErrCodeInternal {
			continue
		}
		assert.NotEqual(t, http.StatusInternalServerError, GetHTTPStatus(apiCode), domainCode)
	}
}

func TestNewErrorResponseWithRequestID_JSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Webhook event evt_1 not found", "req-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, false, body["success"])
	assert.NotContains(t, body, "data")

	errBody := body["error"].(map[string]any)
	assert.Equal(t, ErrCodeNotFound, errBody["code"])
	assert.Equal(t, "req-123", errBody["request_id"])
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 45, 2, 20)

	require.NotNil(t, resp.Meta)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.True(t, resp.Success)
}

func TestCheckLimitRequest_Size(t *testing.T) {
	camel, snake := float64(10), float64(20)
	fractional, huge := 1024.25, 1e30

	assert.Equal(t, int64(0), CheckLimitRequest{}.Size())
	assert.Equal(t, int64(10), CheckLimitRequest{FileSize: &camel, FileSizeSnake: &snake}.Size())
	assert.Equal(t, int64(20), CheckLimitRequest{FileSizeSnake: &snake}.Size())
	assert.Equal(t, int64(1025), CheckLimitRequest{FileSize: &fractional}.Size(), "partial bytes round up")
	assert.Equal(t, int64(math.MaxInt64), CheckLimitRequest{FileSize: &huge}.Size())
}
