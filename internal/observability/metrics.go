package observability

import (
	"strings"
	"time"

	"scribe/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scribe_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PostsCreated counts successfully created posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scribe_posts_created_total",
		Help: "Total number of posts created",
	})

	// PostMutations counts post creates, updates and deletes by outcome.
	PostMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_post_mutations_total",
		Help: "Total number of post mutations by operation and outcome",
	}, []string{"operation", "outcome"})

	// VisibilityDenials counts reads hidden from a viewer by author privacy.
	VisibilityDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_visibility_denials_total",
		Help: "Total number of post reads denied by author privacy",
	}, []string{"viewer"})

	// AuthFailures counts rejected credentials and tokens by reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scribe_auth_failures_total",
		Help: "Total number of authentication failures by reason",
	}, []string{"reason"})
)

// DatabaseMetrics records query latency for a single table.
type DatabaseMetrics struct {
	table string
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance for table.
func NewDatabaseMetrics(table string) *DatabaseMetrics {
	return &DatabaseMetrics{table: table}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, m.table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, start)
	}
}

// Outcome labels err for metrics and logs: "ok" for nil, the lowercased
// AppError code for domain errors, and "error" for anything else.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if code := models.ErrorCode(err); code != "" && code != models.CodeInternal {
		return strings.ToLower(code)
	}
	return "error"
}
