package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/growthlens/growthlens/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAnalyzer struct {
	mu   sync.Mutex
	runs []uuid.UUID
	done chan struct{}
}

func (r *recordingAnalyzer) Run(ctx context.Context, jobID, accountID uuid.UUID, maxPosts int) error {
	r.mu.Lock()
	r.runs = append(r.runs, jobID)
	r.mu.Unlock()
	select {
	case r.done <- struct{}{}:
	default:
	}
	return nil
}

func newTestPool(queueSize, workers int, a *recordingAnalyzer) *Pool {
	return &Pool{
		logger:   logger.NewNop(),
		analyzer: a,
		tasks:    make(chan Task, queueSize),
		size:     workers,
	}
}

func TestPoolRunsEnqueuedTasks(t *testing.T) {
	a := &recordingAnalyzer{done: make(chan struct{}, 8)}
	p := newTestPool(8, 2, a)
	p.Start()

	jobID := uuid.New()
	require.NoError(t, p.Enqueue(Task{JobID: jobID, AccountID: uuid.New(), MaxPosts: 50}))

	select {
	case <-a.done:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
	p.Stop()

	a.mu.Lock()
	defer a.mu.Unlock()
	require.Len(t, a.runs, 1)
	assert.Equal(t, jobID, a.runs[0])
}

func TestEnqueueFullQueue(t *testing.T) {
	a := &recordingAnalyzer{done: make(chan struct{}, 1)}
	p := newTestPool(1, 1, a)
	// pool not started, nothing drains the queue

	require.NoError(t, p.Enqueue(Task{JobID: uuid.New()}))
	err := p.Enqueue(Task{JobID: uuid.New()})
	require.Error(t, err)
	assert.ErrorContains(t, err, "queue is full")
}

func TestStopDrainsWorkers(t *testing.T) {
	a := &recordingAnalyzer{done: make(chan struct{}, 8)}
	p := newTestPool(8, 4, a)
	p.Start()
	p.Stop() // must not hang or panic
}

func TestEnqueueAfterStopFails(t *testing.T) {
	a := &recordingAnalyzer{done: make(chan struct{}, 1)}
	p := newTestPool(8, 1, a)
	p.Start()
	p.Stop()

	err := p.Enqueue(Task{JobID: uuid.New()})
	require.ErrorIs(t, err, ErrStopped)
}

func TestStopIsIdempotent(t *testing.T) {
	a := &recordingAnalyzer{done: make(chan struct{}, 1)}
	p := newTestPool(8, 1, a)
	p.Start()
	p.Stop()
	p.Stop() // second close would panic without the guard
}
