package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scheduler-engine/internal/dto"
	appErrors "github.com/noah-isme/scheduler-engine/pkg/errors"
)

func blockingRunner(start, release chan struct{}) Runner {
	return func(ctx context.Context, job *Job, report ReportProgress) (JobResult, error) {
		close(start)
		select {
		case <-release:
			return JobResult{TotalSessions: 1}, nil
		case <-ctx.Done():
			return JobResult{}, ctx.Err()
		}
	}
}

func TestManagerDequeuesHighestPriorityFirst(t *testing.T) {
	// A single worker and a pause on the first job lets P2/P1/P0 queue up out
	// of order before any of them run, so dequeue order reflects priority.
	firstStart := make(chan struct{})
	firstRelease := make(chan struct{})
	m := NewManager(1, nil, nil)
	defer m.Shutdown(context.Background())

	var mu sync.Mutex
	var order []string
	done := make(chan struct{}, 3)

	recordingRunner := func(name string) Runner {
		return func(ctx context.Context, job *Job, report ReportProgress) (JobResult, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			done <- struct{}{}
			return JobResult{}, nil
		}
	}

	m.Submit("blocker", "inst-1", "tok", dto.SchedulingRequest{Priority: dto.PriorityNormal}, blockingRunner(firstStart, firstRelease))
	<-firstStart // blocker is now running, holding the single worker slot

	m.Submit("low", "inst-1", "tok", dto.SchedulingRequest{Priority: dto.PriorityLow}, recordingRunner("low"))
	m.Submit("high", "inst-1", "tok", dto.SchedulingRequest{Priority: dto.PriorityHigh}, recordingRunner("high"))
	m.Submit("normal", "inst-1", "tok", dto.SchedulingRequest{Priority: dto.PriorityNormal}, recordingRunner("normal"))

	close(firstRelease)

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for queued jobs to run")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"high", "normal", "low"}, order)
}

func TestManagerCancelRemovesQueuedJob(t *testing.T) {
	firstStart := make(chan struct{})
	firstRelease := make(chan struct{})
	m := NewManager(1, nil, nil)
	defer func() {
		close(firstRelease)
		m.Shutdown(context.Background())
	}()

	m.Submit("blocker", "inst-1", "tok", dto.SchedulingRequest{}, blockingRunner(firstStart, firstRelease))
	<-firstStart

	ran := make(chan struct{}, 1)
	job := m.Submit("queued", "inst-1", "tok", dto.SchedulingRequest{}, func(ctx context.Context, job *Job, report ReportProgress) (JobResult, error) {
		ran <- struct{}{}
		return JobResult{}, nil
	})

	require.NoError(t, m.Cancel(job.ID))

	snap, ok := m.Status(job.ID)
	require.True(t, ok)
	assert.Equal(t, dto.JobStatusCancelled, snap.Status)

	close(firstRelease)
	firstRelease = make(chan struct{}) // avoid double-close in defer

	select {
	case <-ran:
		t.Fatal("cancelled queued job must never run")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestManagerCancelStopsRunningJob(t *testing.T) {
	m := NewManager(1, nil, nil)
	defer m.Shutdown(context.Background())

	start := make(chan struct{})
	job := m.Submit("running", "inst-1", "tok", dto.SchedulingRequest{}, func(ctx context.Context, job *Job, report ReportProgress) (JobResult, error) {
		close(start)
		<-ctx.Done()
		return JobResult{}, ctx.Err()
	})
	<-start

	require.NoError(t, m.Cancel(job.ID))

	require.Eventually(t, func() bool {
		snap, _ := m.Status(job.ID)
		return snap.Status == dto.JobStatusCancelled
	}, time.Second, 10*time.Millisecond)
}

func TestManagerCancelUnknownJobReturnsNotFound(t *testing.T) {
	m := NewManager(1, nil, nil)
	defer m.Shutdown(context.Background())

	err := m.Cancel("does-not-exist")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound.Code))
}

func TestManagerRecoversPanicIntoSolverError(t *testing.T) {
	m := NewManager(1, nil, nil)
	defer m.Shutdown(context.Background())

	job := m.Submit("panicky", "inst-1", "tok", dto.SchedulingRequest{}, func(ctx context.Context, job *Job, report ReportProgress) (JobResult, error) {
		panic("boom")
	})

	require.Eventually(t, func() bool {
		snap, _ := m.Status(job.ID)
		return snap.Status == dto.JobStatusFailed
	}, time.Second, 10*time.Millisecond)

	snap, _ := m.Status(job.ID)
	assert.Contains(t, snap.Error, "solver panicked")
}

func TestManagerShutdownDrainsInFlightJobs(t *testing.T) {
	m := NewManager(2, nil, nil)

	start := make(chan struct{})
	release := make(chan struct{})
	m.Submit("slow", "inst-1", "tok", dto.SchedulingRequest{}, func(ctx context.Context, job *Job, report ReportProgress) (JobResult, error) {
		close(start)
		<-release
		return JobResult{}, nil
	})
	<-start

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
}
