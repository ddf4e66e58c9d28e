package dag

import (
	"context"
	"time"

	"github.com/kbukum/dagrun/logger"
	"github.com/kbukum/dagrun/observability"
)

// JobMiddleware wraps a JobFunc with cross-cutting behavior.
type JobMiddleware func(JobFunc) JobFunc

// Chain applies middlewares to a job, outermost first.
func Chain(job JobFunc, mws ...JobMiddleware) JobFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		job = mws[i](job)
	}
	return job
}

// WithTracing opens a span per job execution, tagged with the node id.
func WithTracing() JobMiddleware {
	return func(next JobFunc) JobFunc {
		return func(ctx context.Context, nodeID string) (any, error) {
			ctx, span := observability.StartSpan(ctx, "dagrun.job")
			defer span.End()
			observability.SetSpanAttribute(ctx, observability.AttrNode, nodeID)

			result, err := next(ctx, nodeID)
			if err != nil {
				observability.SetSpanError(ctx, err)
			}
			return result, err
		}
	}
}

// WithLogging logs job start and completion with duration.
func WithLogging(log *logger.Logger) JobMiddleware {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("job")
	return func(next JobFunc) JobFunc {
		return func(ctx context.Context, nodeID string) (any, error) {
			start := time.Now()
			log.Debug("job started", logger.Fields(logger.FieldNode, nodeID))

			result, err := next(ctx, nodeID)

			fields := logger.MergeWithDuration(logger.Fields(logger.FieldNode, nodeID), time.Since(start))
			if err != nil {
				log.Warn("job failed", logger.MergeWithError(fields, err))
			} else {
				log.Debug("job finished", fields)
			}
			return result, err
		}
	}
}

// WithMetrics records per-job instruments around each execution. Use
// this or the Dispatcher's Metrics field, not both, to avoid double
// counting.
func WithMetrics(m *observability.Metrics) JobMiddleware {
	return func(next JobFunc) JobFunc {
		return func(ctx context.Context, nodeID string) (any, error) {
			start := time.Now()
			m.RecordTaskStart(ctx)

			result, err := next(ctx, nodeID)

			state := StatusSucceeded
			if err != nil {
				state = StatusFailed
			}
			m.RecordTaskEnd(ctx, nodeID, state.String(), time.Since(start))
			return result, err
		}
	}
}

// WithTimeout bounds each job execution. A job that outlives the
// deadline fails with the context error; it must still honor ctx.
func WithTimeout(d time.Duration) JobMiddleware {
	return func(next JobFunc) JobFunc {
		return func(ctx context.Context, nodeID string) (any, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, nodeID)
		}
	}
}
