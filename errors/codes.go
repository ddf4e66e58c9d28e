package errors

// Code represents a machine-readable error code.
type Code string

// Graph construction errors (fatal to the build)
const (
	// CodeDuplicateNode indicates a node id was added twice.
	CodeDuplicateNode Code = "DUPLICATE_NODE"
	// CodeUnknownNode indicates an edge endpoint or lookup id does not exist.
	CodeUnknownNode Code = "UNKNOWN_NODE"
	// CodeCycle indicates an edge would close a dependency cycle.
	CodeCycle Code = "CYCLE"
	// CodeGraphFrozen indicates a mutation was attempted after Freeze.
	CodeGraphFrozen Code = "GRAPH_FROZEN"
	// CodeGraphNotFrozen indicates execution was attempted before Freeze.
	CodeGraphNotFrozen Code = "GRAPH_NOT_FROZEN"
)

// Runtime errors
const (
	// CodeInvalidTransition indicates a task state regression or skip.
	// This is a scheduler bug, not an input error.
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	// CodeSubmissionRejected indicates the worker pool refused a submission.
	CodeSubmissionRejected Code = "SUBMISSION_REJECTED"
	// CodeJobFailed indicates the job itself returned an error.
	CodeJobFailed Code = "JOB_FAILED"
	// CodeUnreachable indicates a task whose dependency policy can never
	// be satisfied because of an ancestor's outcome.
	CodeUnreachable Code = "UNREACHABLE"
	// CodeCanceled indicates the run context was canceled before the task
	// reached a natural terminal state.
	CodeCanceled Code = "CANCELED"
)

// Input errors
const (
	// CodeInvalidInput indicates invalid configuration or arguments.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeInternal indicates an unexpected internal error.
	CodeInternal Code = "INTERNAL"
)

var retryableCodes = map[Code]bool{
	CodeSubmissionRejected: true,
}

// IsRetryableCode returns true if the code indicates a retryable error.
func IsRetryableCode(code Code) bool {
	return retryableCodes[code]
}
