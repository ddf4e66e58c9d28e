package dag

import (
	"context"
	"time"
)

// JobFunc is the unit of work for a node. The payload semantics are
// opaque to the scheduler; only the returned result or error matters.
type JobFunc func(ctx context.Context, nodeID string) (any, error)

// Job is a submission to a worker pool.
type Job struct {
	// NodeID identifies the task for reporting and logging.
	NodeID string
	// Fn is the work to execute.
	Fn JobFunc
}

// Completion is the worker pool's notification that a submitted job
// finished, successfully or not.
type Completion struct {
	// NodeID echoes the submitted job's node id.
	NodeID string
	// Success reports whether the job returned without error.
	Success bool
	// Result is the job's return value on success.
	Result any
	// Err is the job's error on failure.
	Err error
	// StartedAt is when a worker began executing the job.
	StartedAt time.Time
	// CompletedAt is when the job finished.
	CompletedAt time.Time
	// WorkerID identifies the worker that executed the job.
	WorkerID string
}

// Handle tracks one in-flight submission.
type Handle interface {
	// Done returns a channel that delivers exactly one Completion.
	Done() <-chan Completion
}

// WorkerPool executes opaque jobs and reports completions.
//
// Submit must not block on job execution: it either accepts the job and
// returns a handle immediately or rejects it with a retryable error
// (resource exhaustion). The scheduler computes submission eligibility
// structurally from the graph, never from handle identity.
type WorkerPool interface {
	Submit(ctx context.Context, job Job) (Handle, error)
}
