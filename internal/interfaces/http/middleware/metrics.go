package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thegridhub/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// HTTPMetricsConfig holds configuration for the HTTP metrics middleware
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Logger        *zap.Logger
}

var (
	requestSizeBuckets  = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000}
	responseSizeBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000, 5000000}
)

type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	requestSize     *telemetry.Histogram
	responseSize    *telemetry.Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	m := &httpMetrics{}
	var err error

	if m.requestTotal, err = telemetry.NewCounter(meter,
		"http_server_request_total", "Total number of HTTP requests", "{request}"); err != nil {
		return nil, err
	}
	if m.requestDuration, err = telemetry.NewHistogram(meter,
		"http_server_request_duration_seconds", "HTTP request latency", "s",
		telemetry.HTTPDurationBuckets...); err != nil {
		return nil, err
	}
	if m.requestSize, err = telemetry.NewHistogram(meter,
		"http_server_request_size_bytes", "HTTP request body size", "By", requestSizeBuckets...); err != nil {
		return nil, err
	}
	if m.responseSize, err = telemetry.NewHistogram(meter,
		"http_server_response_size_bytes", "HTTP response body size", "By", responseSizeBuckets...); err != nil {
		return nil, err
	}
	if m.activeRequests, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	return m, nil
}

// HTTPMetrics returns a middleware recording request count, latency, body sizes
// and in-flight requests. It is a pass-through when metrics are not exported.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.MeterProvider.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(cfg.MeterProvider.Meter("gridhub.http"), cfg.Logger)
}

// HTTPMetricsWithMeter builds the middleware on an explicit meter
func HTTPMetricsWithMeter(meter metric.Meter, log *zap.Logger) gin.HandlerFunc {
	metrics, err := newHTTPMetrics(meter)
	if err != nil {
		if log != nil {
			log.Warn("HTTP metrics unavailable", zap.Error(err))
		}
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		metrics.activeRequests.Add(ctx, 1)
		c.Next()
		metrics.activeRequests.Add(ctx, -1)

		tenant := ""
		if id, ok := GetTenantID(c); ok {
			tenant = id.String()
		}
		metrics.record(ctx, c.Request.Method, routePattern(c), c.Writer.Status(), tenant,
			time.Since(start), c.Request.ContentLength, c.Writer.Size())
	}
}

func (m *httpMetrics) record(ctx context.Context, method, route string, status int, tenant string,
	duration time.Duration, requestSize int64, responseSize int) {
	base := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(method),
		telemetry.AttrHTTPRoute.String(route),
	}

	countAttrs := append([]attribute.KeyValue{telemetry.AttrHTTPStatusCode.Int(status)}, base...)
	if tenant != "" {
		countAttrs = append(countAttrs, telemetry.AttrTenantID.String(tenant))
	}
	m.requestTotal.Inc(ctx, countAttrs...)
	m.requestDuration.RecordDuration(ctx, duration, base...)

	if requestSize > 0 {
		m.requestSize.Record(ctx, float64(requestSize), base...)
	}
	if responseSize > 0 {
		m.responseSize.Record(ctx, float64(responseSize), base...)
	}
}

// routePattern keeps route cardinality bounded by using the matched template
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

func passThrough(c *gin.Context) {
	c.Next()
}
