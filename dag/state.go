package dag

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/dagrun/errors"
)

// Status is the lifecycle state of a task. Transitions only move
// forward; no state regresses.
type Status int

const (
	// StatusPending means dependencies are not yet satisfied.
	StatusPending Status = iota
	// StatusReady means the dependency policy is satisfied and the task
	// is being handed to the worker pool.
	StatusReady
	// StatusRunning means the task was accepted by the worker pool.
	StatusRunning
	// StatusSucceeded is terminal: the job returned without error.
	StatusSucceeded
	// StatusFailed is terminal: the job returned an error, or every
	// submission attempt was rejected.
	StatusFailed
	// StatusUnreachable is terminal: the dependency policy can never be
	// satisfied because of an ancestor's outcome, or the run was
	// canceled before the task started.
	StatusUnreachable
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusReady:
		return "Ready"
	case StatusRunning:
		return "Running"
	case StatusSucceeded:
		return "Succeeded"
	case StatusFailed:
		return "Failed"
	case StatusUnreachable:
		return "Unreachable"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusUnreachable
}

// validNext encodes the allowed state machine:
//
//	Pending -> Ready -> Running -> {Succeeded, Failed}
//	Pending -> Unreachable            (dependency policy unsatisfiable)
//	Ready   -> Unreachable            (run canceled before submission)
//	Ready   -> Failed                 (every submission attempt rejected;
//	                                   the task never reached a worker)
var validNext = map[Status][]Status{
	StatusPending: {StatusReady, StatusUnreachable},
	StatusReady:   {StatusRunning, StatusFailed, StatusUnreachable},
	StatusRunning: {StatusSucceeded, StatusFailed},
}

func transitionAllowed(from, to Status) bool {
	for _, next := range validNext[from] {
		if next == to {
			return true
		}
	}
	return false
}

// record is the per-task ledger entry. Its mutex serializes mutations of
// this task only; different tasks are mutated fully concurrently.
type record struct {
	mu          sync.Mutex
	status      Status
	submittedAt time.Time
	startedAt   time.Time
	completedAt time.Time
	result      any
	err         error
	cause       string
	workerID    string
}

// Snapshot is a point-in-time copy of a task's ledger entry.
type Snapshot struct {
	ID          string
	Status      Status
	SubmittedAt time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	Result      any
	Err         error
	// Cause names the node responsible for a Failed or Unreachable
	// outcome: the task itself on job failure, the blamed direct
	// ancestor on unreachability.
	Cause    string
	WorkerID string
}

// Tracker is the invariant ledger: it owns every task's state history
// for one execution and validates each transition against the state
// machine. It performs no side effects beyond its own storage.
type Tracker struct {
	graph    *Graph
	records  []record
	terminal atomic.Int64
}

// NewTracker creates a tracker for a frozen graph, all tasks Pending.
func NewTracker(g *Graph) (*Tracker, error) {
	if !g.Frozen() {
		return nil, errors.GraphNotFrozen("NewTracker")
	}
	return &Tracker{
		graph:   g,
		records: make([]record, g.Len()),
	}, nil
}

// Transition moves a task to the next state, validating against the
// state machine. An invalid move fails with INVALID_TRANSITION, which
// indicates a scheduler bug rather than an input error.
func (t *Tracker) Transition(id string, next Status) error {
	rec, err := t.recordOf(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !transitionAllowed(rec.status, next) {
		return errors.InvalidTransition(id, rec.status.String(), next.String())
	}
	t.applyLocked(rec, next)
	return nil
}

// TryTransition moves a task from a specific state to the next one.
// Returns false without error when the task is no longer in from, which
// makes re-evaluation after races idempotent: once a task moved on, a
// second attempt is a no-op.
func (t *Tracker) TryTransition(id string, from, next Status) (bool, error) {
	rec, err := t.recordOf(id)
	if err != nil {
		return false, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.status != from {
		return false, nil
	}
	if !transitionAllowed(from, next) {
		return false, errors.InvalidTransition(id, from.String(), next.String())
	}
	t.applyLocked(rec, next)
	return true, nil
}

// applyLocked records the transition and its timestamps. rec.mu held.
func (t *Tracker) applyLocked(rec *record, next Status) {
	rec.status = next
	now := time.Now()
	switch {
	case next == StatusRunning:
		rec.submittedAt = now
	case next.Terminal():
		if rec.completedAt.IsZero() {
			rec.completedAt = now
		}
		t.terminal.Add(1)
	}
}

// RecordOutcome moves a Running task to its terminal state using the
// worker pool's completion notification.
func (t *Tracker) RecordOutcome(id string, c Completion) error {
	rec, err := t.recordOf(id)
	if err != nil {
		return err
	}

	next := StatusSucceeded
	if !c.Success {
		next = StatusFailed
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !transitionAllowed(rec.status, next) {
		return errors.InvalidTransition(id, rec.status.String(), next.String())
	}
	rec.startedAt = c.StartedAt
	rec.completedAt = c.CompletedAt
	rec.workerID = c.WorkerID
	if c.Success {
		rec.result = c.Result
	} else {
		rec.err = errors.JobFailed(id, c.Err)
		rec.cause = id
	}
	t.applyLocked(rec, next)
	return nil
}

// MarkSubmissionFailed moves a Ready task to Failed after the worker
// pool rejected every submission attempt. Returns false without error
// when the task already left Ready, which happens when a cancellation
// sweep won the race.
func (t *Tracker) MarkSubmissionFailed(id string, cause error) (bool, error) {
	rec, err := t.recordOf(id)
	if err != nil {
		return false, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.status != StatusReady {
		return false, nil
	}
	rec.err = errors.SubmissionRejected(id, cause)
	rec.cause = id
	t.applyLocked(rec, StatusFailed)
	return true, nil
}

// MarkUnreachable moves a Pending or Ready task to Unreachable, blaming
// the given ancestor. The first recorded cause wins; later attempts are
// no-ops.
func (t *Tracker) MarkUnreachable(id, ancestor string) (bool, error) {
	rec, err := t.recordOf(id)
	if err != nil {
		return false, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.status != StatusPending && rec.status != StatusReady {
		return false, nil
	}
	rec.err = errors.Unreachable(id, ancestor)
	rec.cause = ancestor
	t.applyLocked(rec, StatusUnreachable)
	return true, nil
}

// MarkCanceled moves a Pending or Ready task to Unreachable because the
// run context was canceled.
func (t *Tracker) MarkCanceled(id string, cause error) (bool, error) {
	rec, err := t.recordOf(id)
	if err != nil {
		return false, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.status != StatusPending && rec.status != StatusReady {
		return false, nil
	}
	rec.err = errors.Canceled(id, cause)
	t.applyLocked(rec, StatusUnreachable)
	return true, nil
}

// Status returns the current state of a task.
func (t *Tracker) Status(id string) (Status, error) {
	rec, err := t.recordOf(id)
	if err != nil {
		return StatusPending, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.status, nil
}

// Snapshot returns a copy of a task's ledger entry.
func (t *Tracker) Snapshot(id string) (Snapshot, error) {
	rec, err := t.recordOf(id)
	if err != nil {
		return Snapshot{}, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return Snapshot{
		ID:          id,
		Status:      rec.status,
		SubmittedAt: rec.submittedAt,
		StartedAt:   rec.startedAt,
		CompletedAt: rec.completedAt,
		Result:      rec.result,
		Err:         rec.err,
		Cause:       rec.cause,
		WorkerID:    rec.workerID,
	}, nil
}

// AllTerminal reports whether every task reached a terminal state.
func (t *Tracker) AllTerminal() bool {
	return t.terminal.Load() == int64(len(t.records))
}

// Counts returns the number of tasks per state.
func (t *Tracker) Counts() map[Status]int {
	counts := make(map[Status]int)
	for i := range t.records {
		rec := &t.records[i]
		rec.mu.Lock()
		counts[rec.status]++
		rec.mu.Unlock()
	}
	return counts
}

func (t *Tracker) recordOf(id string) (*record, error) {
	idx, ok := t.graph.indexOf(id)
	if !ok {
		return nil, errors.UnknownNode(id)
	}
	return &t.records[idx], nil
}
