package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"scribe/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Logger
	Logger = NewLogger("production", &buf)
	t.Cleanup(func() { Logger = prev })
	return &buf
}

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	prev := Tracer
	Tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")
	t.Cleanup(func() { Tracer = prev })
	return recorder
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_AddsRequestFields(t *testing.T) {
	buf := captureLogs(t)
	recordSpans(t)

	ctx, span := StartServiceSpan(context.Background(), "PostService", "update")
	defer span.End()
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithViewer(ctx, 7)

	Logger.With("component", "test").InfoContext(ctx, "hello")

	entry := decodeLine(t, buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "authenticated", entry["viewer"])
	assert.EqualValues(t, 7, entry["user_id"])
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
	assert.Equal(t, "test", entry["component"])
}

func TestLogger_AnonymousViewer(t *testing.T) {
	buf := captureLogs(t)

	Logger.InfoContext(WithViewer(context.Background(), 0), "read")

	entry := decodeLine(t, buf)
	assert.Equal(t, "anonymous", entry["viewer"])
	assert.NotContains(t, entry, "user_id")
	assert.NotContains(t, entry, "request_id")
	assert.NotContains(t, entry, "trace_id")
}

func TestNewLogger_TextOutsideProduction(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("development", &buf).InfoContext(WithRequestID(context.Background(), "r"), "hi")
	assert.Contains(t, buf.String(), "request_id=r")
}

func TestRepoLogger(t *testing.T) {
	buf := captureLogs(t)
	l := NewRepoLogger("posts")

	l.LogMutation(context.Background(), "soft_delete", slog.Uint64("post_id", 7))
	entry := decodeLine(t, buf)
	assert.Equal(t, "posts soft_delete", entry["msg"])
	assert.Equal(t, "posts", entry["table"])
	assert.EqualValues(t, 7, entry["post_id"])

	buf.Reset()
	l.LogError(context.Background(), errors.New("disk full"), "Update")
	entry = decodeLine(t, buf)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "disk full", entry["error"])
}

func TestLogServiceCall(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantLevel   string
		wantOutcome string
	}{
		{"success", nil, "INFO", "ok"},
		{"forbidden", models.NewForbiddenError("not yours"), "WARN", "forbidden"},
		{"not found", models.NewNotFoundError("Post", 1), "WARN", "not_found"},
		{"fault", errors.New("connection reset"), "ERROR", "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)

			LogServiceCall(context.Background(), "PostService", "delete", tt.err, slog.Uint64("post_id", 3))

			entry := decodeLine(t, buf)
			assert.Equal(t, "PostService.delete", entry["msg"])
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantOutcome, entry["outcome"])
			assert.EqualValues(t, 3, entry["post_id"])
		})
	}
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "conflict", Outcome(models.NewConflictError("taken")))
	assert.Equal(t, "validation_error", Outcome(models.NewValidationError("bad")))
	assert.Equal(t, "error", Outcome(models.NewInternalError(errors.New("x"))))
	assert.Equal(t, "error", Outcome(errors.New("x")))
}

func TestTrackQuery(t *testing.T) {
	before := testutil.CollectAndCount(DatabaseQueryLatency)
	done := NewDatabaseMetrics("metrics_test_table").TrackQuery("select")
	done()
	assert.Equal(t, before+1, testutil.CollectAndCount(DatabaseQueryLatency))
}

func TestSpans(t *testing.T) {
	recorder := recordSpans(t)
	ctx := context.Background()

	_, span := StartRepositorySpan(ctx, "posts", "GetActive")
	EndSpan(span, models.NewNotFoundError("Post", 1))
	_, span = StartRedisSpan(ctx, "exists")
	EndSpan(span, errors.New("connection refused"))
	_, span = StartServiceSpan(ctx, "PostService", "create", attribute.Int64("author.id", 2))
	EndSpan(span, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, "repository.posts.GetActive", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code, "not found is an outcome, not a fault")
	assert.Contains(t, spans[0].Attributes(), attribute.String("outcome", "not_found"))

	assert.Equal(t, "redis.exists", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)

	assert.Equal(t, "PostService.create", spans[2].Name())
	assert.Contains(t, spans[2].Attributes(), attribute.Int64("author.id", 2))
}

func TestInitTracing(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "scribe-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, err = InitTracing(TracingConfig{ServiceName: "scribe-test", Enabled: true, Exporter: "jaeger"})
	assert.ErrorContains(t, err, "unknown tracing exporter")
}
