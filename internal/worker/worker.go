// Package worker runs analysis jobs on a fixed pool fed by a bounded
// in-memory queue. Handlers only enqueue; the pool owns execution.
package worker

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/internal/analyzer"
	"github.com/growthlens/growthlens/pkg/config"
	"github.com/growthlens/growthlens/pkg/errors"
	"github.com/growthlens/growthlens/pkg/logger"
	"go.uber.org/fx"
)

// Task is one queued analysis run.
type Task struct {
	JobID     uuid.UUID
	AccountID uuid.UUID
	MaxPosts  int
}

// ErrQueueFull is returned when the queue cannot absorb another task.
var ErrQueueFull = errors.New("analysis queue is full")

// ErrStopped is returned when the pool no longer accepts tasks.
var ErrStopped = errors.New("worker pool is stopped")

type Opts struct {
	fx.In

	Config   *config.Config
	Logger   logger.Logger
	Analyzer analyzer.Service
}

type Pool struct {
	logger   logger.Logger
	analyzer analyzer.Service
	tasks    chan Task
	size     int

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

func New(opts Opts) *Pool {
	return &Pool{
		logger:   opts.Logger.WithComponent("WorkerPool"),
		analyzer: opts.Analyzer,
		tasks:    make(chan Task, opts.Config.Worker.QueueSize),
		size:     opts.Config.Worker.PoolSize,
	}
}

// Enqueue hands a task to the pool without blocking. A full queue is the
// caller's problem to surface. Safe to call concurrently with Stop; once
// the pool stops the channel is closed and must not be written.
func (p *Pool) Enqueue(task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the workers. Jobs receive a context detached from any
// request so an in-flight analysis survives its originating HTTP call.
func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.work(ctx)
	}
	p.logger.Info("Worker pool started", "workers", p.size, "queue_size", cap(p.tasks))
}

// Stop cancels in-flight jobs and waits for the workers to drain.
// Idempotent.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	close(p.tasks)
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *Pool) work(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			// Run marks the job failed itself; nothing more to do here.
			if err := p.analyzer.Run(ctx, task.JobID, task.AccountID, task.MaxPosts); err != nil {
				p.logger.Warn("Job finished with error", "job_id", task.JobID, "error", err)
			}
		}
	}
}

var Module = fx.Module("worker_pool",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, p *Pool) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				p.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				p.Stop()
				return nil
			},
		})
	}),
)
