package dag

// Policy decides when a task's dependencies allow it to run.
//
// A policy is a property of the node and applies uniformly to all of its
// incoming edges; there is no per-edge policy.
type Policy int

const (
	// AllSuccess runs the task only after every dependency succeeded.
	// Any failed or unreachable dependency makes the task unreachable
	// immediately. This is the default.
	AllSuccess Policy = iota
	// AnySuccess runs the task as soon as any dependency succeeded,
	// even while other dependencies are still running.
	AnySuccess
	// AllDone runs the task once every dependency reached a terminal
	// state, regardless of outcome.
	AllDone
	// AnyDone runs the task as soon as any dependency reached a
	// terminal state, regardless of outcome.
	AnyDone
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case AllSuccess:
		return "AllSuccess"
	case AnySuccess:
		return "AnySuccess"
	case AllDone:
		return "AllDone"
	case AnyDone:
		return "AnyDone"
	default:
		return "Unknown"
	}
}
