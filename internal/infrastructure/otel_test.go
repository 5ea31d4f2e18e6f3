package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
)

func TestInitializeOTel_Prometheus(t *testing.T) {
	var buf bytes.Buffer
	providers, err := InitializeOTel(config.TelemetryConfig{
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		SampleRatio:    1,
	}, NewLogger(&buf, "info"))
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.MeterProvider)
	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := NewDashboardMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordFile(ctx, "succeeded", 12)
	metrics.RecordBatch(ctx, "rendered", 250*time.Millisecond)
	metrics.RecordChartRender(ctx, "bar", "svg")
	metrics.RecordHTTPRequest(ctx, http.MethodGet, "/api/dashboard", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "files_processed_total")
	assert.Contains(t, body, "records_normalized_total")
	assert.Contains(t, body, "chart_renders_total")
	assert.Contains(t, body, `kind="bar"`)
}

func TestInitializeOTel_RepeatedInitialization(t *testing.T) {
	cfg := config.TelemetryConfig{TraceExporter: "none", MetricExporter: "prometheus", SampleRatio: 1}

	first, err := InitializeOTel(cfg, nil)
	require.NoError(t, err)
	defer first.Shutdown(context.Background())

	second, err := InitializeOTel(cfg, nil)
	require.NoError(t, err)
	defer second.Shutdown(context.Background())
}

func TestInitializeOTel_StdoutTracing(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{
		TraceExporter:  "stdout",
		MetricExporter: "none",
		SampleRatio:    1,
	}, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.TracerProvider)
	assert.Nil(t, providers.PrometheusHTTP)

	ctx, span := providers.Tracer.Start(context.Background(), "test-operation")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)

	RecordError(ctx, errors.New("boom"))
}

func TestInitializeOTel_UnknownExporter(t *testing.T) {
	_, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "jaeger", MetricExporter: "none"}, nil)
	assert.Error(t, err)

	_, err = InitializeOTel(config.TelemetryConfig{TraceExporter: "none", MetricExporter: "statsd"}, nil)
	assert.Error(t, err)
}

func TestDashboardMetrics_NilSafe(t *testing.T) {
	var m *DashboardMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordFile(ctx, "parse", 0)
		m.RecordBatch(ctx, "error", time.Second)
		m.RecordChartRender(ctx, "pie", "png")
		m.RecordHTTPRequest(ctx, http.MethodPost, "/api/uploads", http.StatusOK, time.Second)
	})
}

func TestTraceIDFromContext_NoSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
