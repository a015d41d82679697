package repository

import (
	"context"

	"scribe/internal/observability"
)

// instrumentation bundles the tracing, latency and logging hooks shared by repositories.
type instrumentation struct {
	table   string
	metrics *observability.DatabaseMetrics
	log     *observability.RepoLogger
}

func newInstrumentation(table string) instrumentation {
	return instrumentation{
		table:   table,
		metrics: observability.NewDatabaseMetrics(table),
		log:     observability.NewRepoLogger(table),
	}
}

// start opens a span and latency timer for method. The returned func must be
// called with the method's final error. Only storage faults are logged; not
// found and conflict are ordinary outcomes.
func (in instrumentation) start(ctx context.Context, method string) (context.Context, func(error)) {
	ctx, span := observability.StartRepositorySpan(ctx, in.table, method)
	done := in.metrics.TrackQuery(method)
	return ctx, func(err error) {
		done()
		observability.EndSpan(span, err)
		if observability.Outcome(err) == "error" {
			in.log.LogError(ctx, err, method)
		}
	}
}
