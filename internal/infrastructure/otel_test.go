package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "genderviz/internal/errors"
)

// TestOTelInitialization tests OpenTelemetry initialization
func TestOTelInitialization(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	providers, err := InitializeOTel(nil, logger)
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.Nil(t, providers.TracerProvider, "tracing is off by default")
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Registry)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

// TestTraceCorrelation tests trace ID correlation
func TestTraceCorrelation(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceExporter = "stdout"
	providers, err := InitializeOTel(cfg, slog.Default())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := providers.Tracer.Start(context.Background(), "test-operation")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
	assert.Equal(t, traceID, GetTraceID(ctx))
}

func TestUnsupportedTraceExporter(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceExporter = "zipkin"

	_, err := InitializeOTel(cfg, slog.Default())
	assert.Error(t, err)
}

func TestPipelineMetricsTextfile(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), slog.Default())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RowsLoaded.Add(ctx, 42, metric.WithAttributes(attribute.String("dataset", "test_scores")))
	RecordStage(ctx, metrics, "test_scores", "normalize", 150*time.Millisecond, nil)
	RecordStage(ctx, metrics, "test_scores", "load", time.Millisecond, apperrors.NewIOError("missing", nil))

	path := filepath.Join(t.TempDir(), "genderviz.prom")
	require.NoError(t, providers.WriteMetricsFile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "pipeline_rows_loaded_total")
	assert.Contains(t, text, "pipeline_stage_duration_seconds")
	assert.Contains(t, text, `error_type="IO"`)
}

func TestWriteMetricsFileDisabled(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableMetrics = false
	providers, err := InitializeOTel(cfg, slog.Default())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "none.prom")
	require.NoError(t, providers.WriteMetricsFile(path))
	assert.NoFileExists(t, path)

	// no-op meter still yields usable instruments
	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)
	RecordStage(context.Background(), metrics, "x", "bind", time.Second, errors.New("boom"))
}
