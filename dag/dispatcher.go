package dag

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/dagrun/config"
	"github.com/kbukum/dagrun/errors"
	"github.com/kbukum/dagrun/logger"
	"github.com/kbukum/dagrun/observability"
	"github.com/kbukum/dagrun/resilience"
)

// Dispatcher drives one frozen graph to completion over a worker pool.
//
// Execution is event driven: a task is submitted the instant its
// dependency policy is satisfied, never later. Independent branches run
// concurrently, bounded only by the worker pool's capacity. The zero
// value is usable; defaults are applied on Run.
type Dispatcher struct {
	// SubmitRetries is the maximum number of submission attempts per
	// task, including the first. Exhausting them fails the task without
	// it ever reaching a worker.
	SubmitRetries int
	// SubmitBackoff is the initial delay between submission attempts.
	SubmitBackoff time.Duration
	// SubmitMaxBackoff caps the delay between submission attempts.
	SubmitMaxBackoff time.Duration
	// Log receives structured progress events. Defaults to a nop logger.
	Log *logger.Logger
	// Metrics records task and run instruments when set.
	Metrics *observability.Metrics
}

// NewDispatcher builds a dispatcher from scheduler configuration.
// SubmitRetries in the config counts retries after the first attempt.
func NewDispatcher(cfg config.SchedulerConfig, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		SubmitRetries:    cfg.SubmitRetries + 1,
		SubmitBackoff:    cfg.SubmitBackoff,
		SubmitMaxBackoff: cfg.SubmitMaxBackoff,
		Log:              log,
	}
}

// event is the single funnel for everything a launch goroutine can
// report back to the run loop.
type event struct {
	nodeID     string
	completion Completion
	submitErr  error
}

// Run executes the graph on the pool and blocks until every task is
// terminal. job is the default work function for nodes without a
// per-node job.
//
// Task failures do not fail Run: they are reported per task in the
// Report. Run itself fails only on misuse (unfrozen graph, missing
// job) or context cancellation; on cancellation the returned Report
// covers everything that finished before the cut.
func (d *Dispatcher) Run(ctx context.Context, g *Graph, pool WorkerPool, job JobFunc) (*Report, error) {
	if g == nil || !g.Frozen() {
		return nil, errors.GraphNotFrozen("Run")
	}
	if pool == nil {
		return nil, errors.InvalidInput("pool", "worker pool is required")
	}
	for i := range g.nodes {
		if g.nodes[i].job == nil && job == nil {
			return nil, errors.InvalidInput("job", "node "+g.nodes[i].id+" has no job and no default was given")
		}
	}
	// Defensive acyclicity re-check; AddEdge already guarantees it.
	if _, err := g.Sequence(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("dispatcher").WithFields(logger.Fields(logger.FieldRunID, runID))

	ctx, span := observability.StartSpan(ctx, "dagrun.Run")
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRunID, runID)

	tracker, err := NewTracker(g)
	if err != nil {
		return nil, err
	}
	res := newResolver(g, tracker)

	startedAt := time.Now()
	log.Info("run started", logger.Fields("nodes", g.Len()))

	events := make(chan event, g.Len())
	inflight := 0
	launch := func(id string) {
		inflight++
		fn := d.jobFor(g, id, job)
		log.Debug("task ready", logger.NodeFields(id, StatusReady.String()))
		go d.submit(ctx, pool, tracker, id, fn, events, log)
	}

	ready, err := res.initial()
	if err != nil {
		return nil, err
	}
	for _, id := range ready {
		launch(id)
	}

	canceled := false
	for !tracker.AllTerminal() {
		// Cancellation takes priority over completions so a canceled run
		// is always reported as canceled, even when both are pending.
		if !canceled {
			select {
			case <-ctx.Done():
				canceled = true
				d.sweepCanceled(g, tracker, ctx.Err(), log)
				continue
			default:
			}
		}
		if inflight == 0 {
			// Nothing can produce further events; only possible after a
			// cancellation sweep raced a final completion.
			break
		}

		if canceled {
			// Keep draining: running jobs still deliver completions, and
			// everything not yet started is already condemned.
			ev := <-events
			inflight--
			if err := d.handle(ev, tracker, log); err != nil {
				return nil, err
			}
			continue
		}

		select {
		case <-ctx.Done():
			canceled = true
			d.sweepCanceled(g, tracker, ctx.Err(), log)
		case ev := <-events:
			inflight--
			newlyReady, err := d.handleResolve(ev, tracker, res, log)
			if err != nil {
				return nil, err
			}
			for _, id := range newlyReady {
				launch(id)
			}
		}
	}

	if canceled {
		// A final sweep catches tasks whose launch aborted after the
		// first pass.
		d.sweepCanceled(g, tracker, ctx.Err(), log)
	} else if ctx.Err() != nil {
		canceled = true
	}

	report := buildReport(runID, g, tracker, startedAt, time.Now(), canceled)
	log.Info("run finished", logger.Fields(
		"status", report.Status.String(),
		logger.FieldDuration, report.Duration().Milliseconds(),
	))
	if d.Metrics != nil {
		d.Metrics.RecordRun(ctx, report.Status.String(), report.Duration())
	}
	if canceled {
		observability.SetSpanError(ctx, ctx.Err())
		return report, ctx.Err()
	}
	return report, nil
}

// submit pushes one Ready task into the pool, retrying rejected
// submissions, then forwards the completion to the run loop. Runs in
// its own goroutine so slow submissions never stall other branches.
func (d *Dispatcher) submit(ctx context.Context, pool WorkerPool, tracker *Tracker, id string, fn JobFunc, events chan<- event, log *logger.Logger) {
	cfg := resilience.RetryConfig{
		MaxAttempts:    d.SubmitRetries,
		InitialBackoff: d.SubmitBackoff,
		MaxBackoff:     d.SubmitMaxBackoff,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			log.Warn("submission rejected, retrying", logger.Fields(
				logger.FieldNode, id,
				logger.FieldAttempt, attempt,
				logger.FieldError, err.Error(),
			))
		},
	}

	handle, err := resilience.Retry(ctx, cfg, func() (Handle, error) {
		return pool.Submit(ctx, Job{NodeID: id, Fn: fn})
	})
	if err != nil {
		events <- event{nodeID: id, submitErr: err}
		return
	}

	moved, terr := tracker.TryTransition(id, StatusReady, StatusRunning)
	if terr != nil || !moved {
		// Lost the race against a cancellation sweep; the pool will run
		// the job anyway but its completion is dropped here.
		<-handle.Done()
		events <- event{nodeID: id, submitErr: ctx.Err()}
		return
	}

	if d.Metrics != nil {
		d.Metrics.RecordTaskStart(ctx)
	}
	log.Debug("task running", logger.NodeFields(id, StatusRunning.String()))

	events <- event{nodeID: id, completion: <-handle.Done()}
}

// handleResolve applies an event to the tracker, then resolves the
// downstream consequences and returns newly ready task ids.
func (d *Dispatcher) handleResolve(ev event, tracker *Tracker, res *resolver, log *logger.Logger) ([]string, error) {
	if err := d.handle(ev, tracker, log); err != nil {
		return nil, err
	}
	return res.resolve(ev.nodeID)
}

// handle records a task's terminal outcome without resolving dependents.
func (d *Dispatcher) handle(ev event, tracker *Tracker, log *logger.Logger) error {
	id := ev.nodeID

	if ev.submitErr != nil {
		// When a cancellation sweep won the race the task is already
		// Unreachable and there is nothing left to record.
		moved, err := tracker.MarkSubmissionFailed(id, ev.submitErr)
		if err != nil {
			return err
		}
		if moved {
			log.Error("task failed before reaching a worker", logger.MergeWithError(
				logger.NodeFields(id, StatusFailed.String()), ev.submitErr))
		}
		return nil
	}

	if err := tracker.RecordOutcome(id, ev.completion); err != nil {
		return err
	}

	snap, err := tracker.Snapshot(id)
	if err != nil {
		return err
	}
	if d.Metrics != nil {
		d.Metrics.RecordTaskEnd(context.Background(), id, snap.Status.String(), snap.CompletedAt.Sub(snap.StartedAt))
	}
	if snap.Status == StatusFailed {
		log.Warn("task failed", logger.MergeWithError(
			logger.NodeFields(id, snap.Status.String()), snap.Err))
	} else {
		log.Debug("task finished", logger.NodeFields(id, snap.Status.String()))
	}
	return nil
}

// sweepCanceled condemns every task that has not started yet, which
// covers the dependents of condemned tasks as well. Running tasks are
// left alone; their jobs observe the canceled context and finish on
// their own terms.
func (d *Dispatcher) sweepCanceled(g *Graph, tracker *Tracker, cause error, log *logger.Logger) {
	for _, id := range g.NodeIDs() {
		moved, err := tracker.MarkCanceled(id, cause)
		if err != nil || !moved {
			continue
		}
		log.Warn("task canceled", logger.NodeFields(id, StatusUnreachable.String()))
	}
}

// jobFor picks the effective work function for a node.
func (d *Dispatcher) jobFor(g *Graph, id string, fallback JobFunc) JobFunc {
	if idx, ok := g.indexOf(id); ok && g.nodes[idx].job != nil {
		return g.nodes[idx].job
	}
	return fallback
}
