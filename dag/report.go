package dag

import "time"

// RunStatus summarizes a full graph run.
type RunStatus int

const (
	// RunSucceeded means every task succeeded.
	RunSucceeded RunStatus = iota
	// RunFailed means at least one task failed or was unreachable.
	RunFailed
	// RunCanceled means the run context was canceled before completion.
	RunCanceled
)

// String returns the run status name.
func (s RunStatus) String() string {
	switch s {
	case RunSucceeded:
		return "Succeeded"
	case RunFailed:
		return "Failed"
	case RunCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// TaskReport is the final record for one task.
type TaskReport struct {
	ID     string
	Status Status
	Policy Policy
	// Result is the job's return value for succeeded tasks.
	Result any
	// Err explains a Failed or Unreachable outcome.
	Err error
	// Cause is the directly responsible node: the task itself for a job
	// or submission failure, the blamed direct dependency for an
	// unreachable task. Empty for succeeded and canceled tasks.
	Cause string
	// RootCause is the nearest failed ancestor reached by following the
	// cause chain, so every unreachable task points at the task whose
	// failure started the cascade.
	RootCause   string
	WorkerID    string
	SubmittedAt time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// Duration returns the wall time the task spent executing, zero if it
// never ran.
func (t TaskReport) Duration() time.Duration {
	if t.StartedAt.IsZero() || t.CompletedAt.IsZero() {
		return 0
	}
	return t.CompletedAt.Sub(t.StartedAt)
}

// Report is the immutable outcome of one graph run.
type Report struct {
	RunID       string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt time.Time
	// Tasks holds every task's final record in graph insertion order.
	Tasks []TaskReport

	byID map[string]int
}

// Duration returns the wall time of the whole run.
func (r *Report) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// Task returns the record for one task id.
func (r *Report) Task(id string) (TaskReport, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return TaskReport{}, false
	}
	return r.Tasks[idx], true
}

// Counts returns the number of tasks per final state.
func (r *Report) Counts() map[Status]int {
	counts := make(map[Status]int)
	for _, t := range r.Tasks {
		counts[t.Status]++
	}
	return counts
}

// Succeeded returns the ids of tasks that succeeded, in insertion order.
func (r *Report) Succeeded() []string { return r.withStatus(StatusSucceeded) }

// Failed returns the ids of tasks that failed, in insertion order.
func (r *Report) Failed() []string { return r.withStatus(StatusFailed) }

// Unreachable returns the ids of tasks that never became eligible, in
// insertion order.
func (r *Report) Unreachable() []string { return r.withStatus(StatusUnreachable) }

func (r *Report) withStatus(s Status) []string {
	var ids []string
	for _, t := range r.Tasks {
		if t.Status == s {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// buildReport assembles the final report from the tracker's ledger.
func buildReport(runID string, g *Graph, tracker *Tracker, startedAt, completedAt time.Time, canceled bool) *Report {
	ids := g.NodeIDs()
	report := &Report{
		RunID:       runID,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Tasks:       make([]TaskReport, 0, len(ids)),
		byID:        make(map[string]int, len(ids)),
	}

	// cause chains are acyclic so the walk always terminates.
	causes := make(map[string]string, len(ids))
	allOK := true
	for _, id := range ids {
		snap, err := tracker.Snapshot(id)
		if err != nil {
			continue
		}
		causes[id] = snap.Cause

		policy, _ := g.PolicyOf(id)
		report.byID[id] = len(report.Tasks)
		report.Tasks = append(report.Tasks, TaskReport{
			ID:          id,
			Status:      snap.Status,
			Policy:      policy,
			Result:      snap.Result,
			Err:         snap.Err,
			Cause:       snap.Cause,
			WorkerID:    snap.WorkerID,
			SubmittedAt: snap.SubmittedAt,
			StartedAt:   snap.StartedAt,
			CompletedAt: snap.CompletedAt,
		})
		if snap.Status != StatusSucceeded {
			allOK = false
		}
	}

	for i := range report.Tasks {
		report.Tasks[i].RootCause = rootCause(report.Tasks[i].ID, causes)
	}

	switch {
	case canceled:
		report.Status = RunCanceled
	case allOK:
		report.Status = RunSucceeded
	default:
		report.Status = RunFailed
	}
	return report
}

// rootCause follows the cause chain until it reaches a node that blames
// itself, which is the failure that started the cascade.
func rootCause(id string, causes map[string]string) string {
	cur := causes[id]
	if cur == "" {
		return ""
	}
	for cur != "" && causes[cur] != cur && causes[cur] != "" {
		cur = causes[cur]
	}
	return cur
}
