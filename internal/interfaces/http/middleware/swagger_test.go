package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/thegridhub/backend/internal/interfaces/http/dto"
)

func newSwaggerRouter(cfg SwaggerConfig, adminAuth gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/swagger/*any", SwaggerProtection(cfg, adminAuth), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})
	return r
}

func getSwagger(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSwaggerProtection(t *testing.T) {
	denyAll := func(c *gin.Context) {
		abortWithError(c, dto.ErrCodeUnauthenticated, "Admin session required")
	}
	allowAll := func(c *gin.Context) {}

	tests := []struct {
		name       string
		cfg        SwaggerConfig
		auth       gin.HandlerFunc
		remoteAddr string
		wantStatus int
		wantCode   string
	}{
		{"disabled", SwaggerConfig{}, nil, "10.0.0.1:1234", http.StatusNotFound, dto.ErrCodeNotFound},
		{"open", SwaggerConfig{Enabled: true}, nil, "10.0.0.1:1234", http.StatusOK, ""},
		{"exact ip allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, nil,
			"10.0.0.1:1234", http.StatusOK, ""},
		{"cidr allowed", SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.0.0/16"}}, nil,
			"192.168.4.20:1234", http.StatusOK, ""},
		{"ip outside allowlist", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8", "bogus"}}, nil,
			"172.16.0.1:1234", http.StatusForbidden, dto.ErrCodeForbidden},
		{"session required and missing", SwaggerConfig{Enabled: true, RequireAuth: true}, denyAll,
			"10.0.0.1:1234", http.StatusUnauthorized, dto.ErrCodeUnauthenticated},
		{"session required and present", SwaggerConfig{Enabled: true, RequireAuth: true}, allowAll,
			"10.0.0.1:1234", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := getSwagger(newSwaggerRouter(tt.cfg, tt.auth), tt.remoteAddr)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, w))
			} else {
				assert.Equal(t, "docs", w.Body.String())
			}
		})
	}
}
