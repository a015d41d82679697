// Package middleware provides request-scoped logging, tracing and metrics middleware.
package middleware

import (
	"log/slog"
	"time"

	"scribe/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Logger is the application logger. It is request-aware: pass the request's
// UserContext to the *Context methods.
var Logger = observability.Logger

const localAnnotations = "accessAnnotations"

// ContextMiddleware copies the request id into the request context so that
// services and repositories log it.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rid, ok := c.Locals("requestid").(string); ok {
			c.SetUserContext(observability.WithRequestID(c.UserContext(), rid))
		}
		return c.Next()
	}
}

// SetViewer records the caller on the request context and the server span.
// Log lines pick it up from the context. userID 0 is anonymous.
func SetViewer(c *fiber.Ctx, userID uint) {
	span := trace.SpanFromContext(c.UserContext())
	span.SetAttributes(attribute.String("viewer", observability.ViewerKind(userID)))
	if userID != 0 {
		span.SetAttributes(attribute.Int64("user.id", int64(userID)))
	}
	c.SetUserContext(observability.WithViewer(c.UserContext(), userID))
}

// Annotate attaches attributes such as the post id or its visibility to the
// current request. They end up on the server span and the access log line.
func Annotate(c *fiber.Ctx, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(c.UserContext()).SetAttributes(attrs...)
	existing, _ := c.Locals(localAnnotations).([]attribute.KeyValue)
	c.Locals(localAnnotations, append(existing, attrs...))
}

func annotations(c *fiber.Ctx) []attribute.KeyValue {
	attrs, _ := c.Locals(localAnnotations).([]attribute.KeyValue)
	return attrs
}

// StructuredLogger writes one access log line per request. 5xx responses
// log at error, 4xx at warn.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []slog.Attr{
			slog.Int("status", status),
			slog.String("method", c.Method()),
			slog.String("route", routePattern(c)),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
		}
		for _, kv := range annotations(c) {
			attrs = append(attrs, slog.Any(string(kv.Key), kv.Value.AsInterface()))
		}

		level := slog.LevelInfo
		switch {
		case err != nil || status >= fiber.StatusInternalServerError:
			level = slog.LevelError
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
		case status >= fiber.StatusBadRequest:
			level = slog.LevelWarn
		}
		Logger.LogAttrs(c.UserContext(), level, "request", attrs...)

		return err
	}
}

// routePattern returns the matched route, e.g. /api/posts/:id, so that logs
// and spans group by endpoint rather than by id.
func routePattern(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" {
		return r.Path
	}
	return c.Path()
}
