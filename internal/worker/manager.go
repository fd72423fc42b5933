package worker

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/scheduler-engine/internal/dto"
	appErrors "github.com/noah-isme/scheduler-engine/pkg/errors"
)

// MetricsRecorder is the subset of internal/service's MetricsService the
// manager needs; kept as a local interface so this package never imports
// service (which imports worker to orchestrate jobs).
type MetricsRecorder interface {
	SetQueueDepth(priority string, depth int)
	SetRunningJobs(n int)
	ObserveSolverRun(algorithm, outcome string, duration time.Duration)
}

// Manager is the priority job queue and its bounded pool of worker
// goroutines (spec.md §5). Jobs dequeue in priority order, FIFO among ties,
// and at most maxWorkers run concurrently.
type Manager struct {
	maxWorkers int
	metrics    MetricsRecorder
	log        *zap.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  priorityQueue
	jobs   map[string]*Job
	items  map[string]*queuedJob
	seq    uint64
	closed bool
	running int

	wg sync.WaitGroup
}

// NewManager builds a Manager and starts its worker goroutines.
func NewManager(maxWorkers int, metrics MetricsRecorder, log *zap.Logger) *Manager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	m := &Manager{
		maxWorkers: maxWorkers,
		metrics:    metrics,
		log:        log,
		jobs:       map[string]*Job{},
		items:      map[string]*queuedJob{},
	}
	m.cond = sync.NewCond(&m.mu)
	heap.Init(&m.queue)

	for i := 0; i < maxWorkers; i++ {
		m.wg.Add(1)
		go m.workerLoop()
	}
	return m
}

// Submit enqueues a new job and returns it immediately in QUEUED state.
func (m *Manager) Submit(id, institutionID, token string, req dto.SchedulingRequest, run Runner) *Job {
	job := newJob(id, institutionID, token, req, run)

	m.mu.Lock()
	m.seq++
	item := &queuedJob{job: job, priority: req.Priority, seq: m.seq}
	m.jobs[id] = job
	m.items[id] = item
	heap.Push(&m.queue, item)
	depth := m.queue.Len()
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SetQueueDepth(priorityLabel(req.Priority), depth)
	}

	m.cond.Signal()
	return job
}

// Status returns a point-in-time snapshot of a job, or false if unknown.
func (m *Manager) Status(jobID string) (Snapshot, bool) {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	m.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}
	return job.snapshot(), true
}

// Cancel requests cancellation of a job. A queued job is removed from the
// queue and marked CANCELLED directly; a running job's context is cancelled
// and the worker loop settles it into CANCELLED once the runner observes
// ctx.Err(). Cancelling an already-terminal job is a no-op.
func (m *Manager) Cancel(jobID string) error {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	if !ok {
		m.mu.Unlock()
		return appErrors.ErrNotFound
	}

	if item, stillQueued := m.items[jobID]; stillQueued {
		heap.Remove(&m.queue, item.index)
		delete(m.items, jobID)
		m.mu.Unlock()

		job.transition(dto.JobStatusCancelled)
		job.markCancelled()
		return nil
	}
	m.mu.Unlock()

	job.mu.Lock()
	cancel := job.cancel
	job.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// Shutdown stops accepting new dequeues and waits for in-flight jobs to
// finish, up to ctx's deadline.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cond.Broadcast()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) workerLoop() {
	defer m.wg.Done()
	for {
		m.mu.Lock()
		for m.queue.Len() == 0 && !m.closed {
			m.cond.Wait()
		}
		if m.closed {
			m.mu.Unlock()
			return
		}
		item := heap.Pop(&m.queue).(*queuedJob)
		delete(m.items, item.job.ID)
		depth := m.queue.Len()
		m.running++
		running := m.running
		m.mu.Unlock()

		if m.metrics != nil {
			m.metrics.SetQueueDepth(priorityLabel(item.priority), depth)
			m.metrics.SetRunningJobs(running)
		}

		m.runJob(item.job)

		m.mu.Lock()
		m.running--
		running = m.running
		m.mu.Unlock()

		if m.metrics != nil {
			m.metrics.SetRunningJobs(running)
		}
	}
}

func (m *Manager) runJob(job *Job) {
	if !job.transition(dto.JobStatusRunning) {
		// Already cancelled while queued.
		return
	}
	job.markStarted()

	ctx, cancel := context.WithCancel(context.Background())
	job.mu.Lock()
	job.cancel = cancel
	job.mu.Unlock()
	defer cancel()

	start := time.Now()
	result, err := m.invoke(ctx, job)
	elapsed := time.Since(start)

	outcome := "success"
	switch {
	case ctx.Err() == context.Canceled:
		outcome = "cancelled"
		job.transition(dto.JobStatusCancelled)
		job.markCancelled()
	case err != nil:
		outcome = "failed"
		job.transition(dto.JobStatusFailed)
		job.markFailed(err)
		if m.log != nil {
			m.log.Error("scheduling job failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	default:
		job.transition(dto.JobStatusCompleted)
		job.markCompleted(result)
	}

	if m.metrics != nil {
		m.metrics.ObserveSolverRun(string(job.Request.AlgorithmType), outcome, elapsed)
	}
}

// invoke calls the job's Runner, recovering a panic into ErrSolver so one
// bad job can never take down a worker goroutine.
func (m *Manager) invoke(ctx context.Context, job *Job) (result JobResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = appErrors.Clone(appErrors.ErrSolver, fmt.Sprintf("solver panicked: %v", r))
		}
	}()
	return job.run(ctx, job, job.setProgress)
}

func priorityLabel(p dto.JobPriority) string {
	switch p {
	case dto.PriorityHigh:
		return "high"
	case dto.PriorityLow:
		return "low"
	default:
		return "normal"
	}
}
