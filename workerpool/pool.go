package workerpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/dagrun/config"
	"github.com/kbukum/dagrun/dag"
	"github.com/kbukum/dagrun/errors"
	"github.com/kbukum/dagrun/logger"
	"github.com/kbukum/dagrun/resilience"
)

// Config configures a Pool.
type Config struct {
	// Workers is the number of worker goroutines.
	Workers int
	// QueueSize is the number of accepted jobs that can wait for a
	// worker. Admission capacity is Workers+QueueSize.
	QueueSize int
	// Log receives structured worker events. Defaults to a nop logger.
	Log *logger.Logger
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.QueueSize < 0 {
		c.QueueSize = 0
	}
}

// task is one accepted submission traveling through the pool.
type task struct {
	ctx  context.Context
	job  dag.Job
	done chan dag.Completion
}

// handle delivers exactly one completion for an accepted job.
type handle struct {
	done chan dag.Completion
}

func (h *handle) Done() <-chan dag.Completion { return h.done }

// Pool executes jobs on a fixed set of worker goroutines.
//
// Submit never blocks on execution: a job is either admitted within the
// pool's capacity or rejected with a retryable SUBMISSION_REJECTED
// error. A slot is held from admission until the completion has been
// delivered, so capacity counts queued and running jobs alike.
type Pool struct {
	queue    chan task
	bulkhead *resilience.Bulkhead
	log      *logger.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates and starts a pool.
func New(cfg Config) *Pool {
	cfg.ApplyDefaults()
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}

	p := &Pool{
		queue: make(chan task, cfg.QueueSize),
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "workerpool",
			MaxConcurrent: cfg.Workers + cfg.QueueSize,
		}),
		log: log.WithComponent("workerpool"),
	}

	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.worker(uuid.NewString())
	}
	return p
}

// NewFromConfig builds a pool from loaded pool configuration.
func NewFromConfig(cfg config.PoolConfig, log *logger.Logger) *Pool {
	return New(Config{Workers: cfg.Workers, QueueSize: cfg.QueueSize, Log: log})
}

// Submit admits a job or rejects it immediately.
// Rejections for lack of capacity are retryable; submissions to a
// closed pool are not.
func (p *Pool) Submit(ctx context.Context, job dag.Job) (dag.Handle, error) {
	if job.Fn == nil {
		return nil, errors.InvalidInput("job", "job function is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := p.bulkhead.TryAcquire(); err != nil {
		return nil, errors.SubmissionRejected(job.NodeID, err)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.bulkhead.Release()
		return nil, errors.New(errors.CodeInternal, "worker pool is closed")
	}
	t := task{ctx: ctx, job: job, done: make(chan dag.Completion, 1)}
	// The bulkhead slot guarantees queue space: held slots never exceed
	// Workers+QueueSize, and running jobs are out of the queue.
	p.queue <- t
	p.mu.Unlock()

	return &handle{done: t.done}, nil
}

// InFlight returns the number of jobs admitted but not yet completed.
func (p *Pool) InFlight() int { return p.bulkhead.InUse() }

// Close stops accepting jobs and waits for queued and running jobs to
// finish. Safe to call once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker(id string) {
	defer p.wg.Done()
	log := p.log.WithFields(logger.Fields(logger.FieldWorkerID, id))

	for t := range p.queue {
		startedAt := time.Now()
		result, err := p.execute(t)
		completedAt := time.Now()

		c := dag.Completion{
			NodeID:      t.job.NodeID,
			Success:     err == nil,
			Result:      result,
			Err:         err,
			StartedAt:   startedAt,
			CompletedAt: completedAt,
			WorkerID:    id,
		}
		if err != nil {
			log.Warn("job failed", logger.MergeWithError(
				logger.Fields(logger.FieldNode, t.job.NodeID), err))
		} else {
			log.Debug("job finished", logger.MergeWithDuration(
				logger.Fields(logger.FieldNode, t.job.NodeID), completedAt.Sub(startedAt)))
		}

		t.done <- c
		p.bulkhead.Release()
	}
}

// execute runs the job, turning a panic into an error so one bad job
// cannot take down a worker.
func (p *Pool) execute(t task) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Internal(fmt.Errorf("job panic: %v", r))
		}
	}()
	return t.job.Fn(t.ctx, t.job.NodeID)
}
