// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// Logger is the process-wide structured logger. Records logged with a
// request context carry that request's id, caller and trace.
var Logger = NewLogger(os.Getenv("APP_ENV"), os.Stdout)

// NewLogger returns a request-aware logger writing JSON in production and
// text everywhere else.
func NewLogger(env string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	switch env {
	case "production", "prod":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(requestHandler{handler})
}

type requestKey struct{}

// requestInfo is what the HTTP layer knows about the caller.
type requestInfo struct {
	requestID string
	userID    uint
	viewer    string
}

func requestFrom(ctx context.Context) requestInfo {
	info, _ := ctx.Value(requestKey{}).(requestInfo)
	return info
}

// WithRequestID returns ctx tagged with the HTTP request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	info := requestFrom(ctx)
	info.requestID = id
	return context.WithValue(ctx, requestKey{}, info)
}

// WithViewer returns ctx tagged with the caller. userID 0 is anonymous.
func WithViewer(ctx context.Context, userID uint) context.Context {
	info := requestFrom(ctx)
	info.userID = userID
	info.viewer = ViewerKind(userID)
	return context.WithValue(ctx, requestKey{}, info)
}

// ViewerKind labels a caller for logs, spans and metrics.
func ViewerKind(userID uint) string {
	if userID == 0 {
		return "anonymous"
	}
	return "authenticated"
}

// requestHandler decorates records with the request fields found in ctx.
type requestHandler struct {
	slog.Handler
}

func (h requestHandler) Handle(ctx context.Context, r slog.Record) error {
	info := requestFrom(ctx)
	if info.requestID != "" {
		r.AddAttrs(slog.String("request_id", info.requestID))
	}
	if info.viewer != "" {
		r.AddAttrs(slog.String("viewer", info.viewer))
	}
	if info.userID != 0 {
		r.AddAttrs(slog.Uint64("user_id", uint64(info.userID)))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
	}
	return h.Handler.Handle(ctx, r)
}

func (h requestHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return requestHandler{h.Handler.WithAttrs(attrs)}
}

func (h requestHandler) WithGroup(name string) slog.Handler {
	return requestHandler{h.Handler.WithGroup(name)}
}

// RepoLogger logs row mutations and storage faults for one table.
type RepoLogger struct {
	table  string
	logger *slog.Logger
}

// NewRepoLogger creates a RepoLogger for table.
func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table, logger: Logger}
}

// LogMutation records a write to the table.
func (l *RepoLogger) LogMutation(ctx context.Context, operation string, attrs ...slog.Attr) {
	l.logger.LogAttrs(ctx, slog.LevelInfo, l.table+" "+operation,
		append([]slog.Attr{slog.String("table", l.table)}, attrs...)...)
}

// LogError records a storage fault. Domain outcomes such as not found are
// filtered out by the caller.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	l.logger.LogAttrs(ctx, slog.LevelError, "repository error",
		slog.String("table", l.table),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// LogServiceCall records the outcome of a service operation that changes
// state. A nil err is logged at info level, a domain rejection at warn and
// anything else at error.
func LogServiceCall(ctx context.Context, service, method string, err error, attrs ...slog.Attr) {
	level := slog.LevelInfo
	outcome := "ok"
	if err != nil {
		outcome, level = Outcome(err), slog.LevelWarn
		if outcome == "error" {
			level = slog.LevelError
			attrs = append(attrs, slog.String("error", err.Error()))
		}
	}
	Logger.LogAttrs(ctx, level, service+"."+method,
		append([]slog.Attr{slog.String("outcome", outcome)}, attrs...)...)
}
