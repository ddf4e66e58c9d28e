package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Error is the unified dagrun error type.
type Error struct {
	// Code is a machine-readable error code.
	Code Code `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with automatic retryable detection.
func New(code Code, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// GetCode extracts the error code from any error.
// Returns CodeInternal for errors that are not *Error values.
func GetCode(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Code == code
}

// IsRetryable reports whether err is marked retryable.
func IsRetryable(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Retryable
}

// --- Common Error Constructors ---

// DuplicateNode creates an Error for a node id that already exists.
func DuplicateNode(id string) *Error {
	return &Error{
		Code: CodeDuplicateNode, Message: fmt.Sprintf("node %q already exists", id),
		Details: map[string]any{"node": id},
	}
}

// UnknownNode creates an Error for a node id that does not exist.
func UnknownNode(id string) *Error {
	return &Error{
		Code: CodeUnknownNode, Message: fmt.Sprintf("node %q does not exist", id),
		Details: map[string]any{"node": id},
	}
}

// Cycle creates an Error for an edge that would close a dependency cycle.
// path lists the node ids along the offending cycle.
func Cycle(path []string) *Error {
	return &Error{
		Code: CodeCycle, Message: fmt.Sprintf("edge would create a cycle: %s", strings.Join(path, " -> ")),
		Details: map[string]any{"path": path},
	}
}

// GraphFrozen creates an Error for a mutation attempted after Freeze.
func GraphFrozen(op string) *Error {
	return &Error{
		Code: CodeGraphFrozen, Message: fmt.Sprintf("graph is frozen, %s is not allowed", op),
		Details: map[string]any{"operation": op},
	}
}

// GraphNotFrozen creates an Error for execution attempted before Freeze.
func GraphNotFrozen(op string) *Error {
	return &Error{
		Code: CodeGraphNotFrozen, Message: fmt.Sprintf("%s requires a frozen graph", op),
		Details: map[string]any{"operation": op},
	}
}

// InvalidTransition creates an Error for a task state machine violation.
func InvalidTransition(id, from, to string) *Error {
	return &Error{
		Code: CodeInvalidTransition, Message: fmt.Sprintf("node %q cannot transition %s -> %s", id, from, to),
		Details: map[string]any{"node": id, "from": from, "to": to},
	}
}

// SubmissionRejected creates a retryable Error for a refused worker pool submission.
func SubmissionRejected(id string, cause error) *Error {
	return &Error{
		Code: CodeSubmissionRejected, Message: fmt.Sprintf("worker pool rejected submission of node %q", id),
		Retryable: true,
		Details:   map[string]any{"node": id},
		Cause:     cause,
	}
}

// JobFailed creates an Error wrapping a job's own failure.
func JobFailed(id string, cause error) *Error {
	return &Error{
		Code: CodeJobFailed, Message: fmt.Sprintf("job for node %q failed", id),
		Details: map[string]any{"node": id},
		Cause:   cause,
	}
}

// Unreachable creates an Error for a node whose dependency policy can
// never be satisfied. ancestor is the node blamed for the outcome.
func Unreachable(id, ancestor string) *Error {
	return &Error{
		Code: CodeUnreachable, Message: fmt.Sprintf("node %q is unreachable due to %q", id, ancestor),
		Details: map[string]any{"node": id, "ancestor": ancestor},
	}
}

// Canceled creates an Error for a task interrupted by run cancellation.
func Canceled(id string, cause error) *Error {
	return &Error{
		Code: CodeCanceled, Message: fmt.Sprintf("run canceled before node %q completed", id),
		Details: map[string]any{"node": id},
		Cause:   cause,
	}
}

// InvalidInput creates an Error for invalid configuration or arguments.
func InvalidInput(field, reason string) *Error {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &Error{
		Code: CodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates an Error for validation failures.
func Validation(message string) *Error {
	return &Error{Code: CodeInvalidInput, Message: message}
}

// Internal creates an Error for an unexpected internal error.
func Internal(cause error) *Error {
	return &Error{
		Code: CodeInternal, Message: "an unexpected internal error occurred",
		Cause: cause,
	}
}
