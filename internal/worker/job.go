package worker

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/scheduler-engine/internal/dto"
)

// JobResult is the plain summary a Runner hands back on success; the worker
// package carries it without depending on the solver or persister types.
type JobResult struct {
	GenerationID string

	TotalSessions  int
	HardViolations int
	SoftViolations int

	FacultySatisfaction float64
	BatchSatisfaction   float64
	RoomUtilisation     float64
}

// ReportProgress is handed to a Runner so it can stamp the job's status
// without reaching into Job's internals.
type ReportProgress func(pct float64, message string)

// Runner executes one job's actual work (normalise, solve, persist). It must
// watch ctx for cancellation between phases.
type Runner func(ctx context.Context, job *Job, report ReportProgress) (JobResult, error)

// Job is one submitted scheduling request and its mutable lifecycle state.
type Job struct {
	ID            string
	InstitutionID string
	Token         string
	Request       dto.SchedulingRequest
	Priority      dto.JobPriority
	CreatedAt     time.Time

	run    Runner
	cancel context.CancelFunc

	mu          sync.Mutex
	status      dto.JobStatus
	progress    float64
	message     string
	startedAt   *time.Time
	completedAt *time.Time
	errMessage  string
	result      JobResult
}

func newJob(id, institutionID, token string, req dto.SchedulingRequest, run Runner) *Job {
	return &Job{
		ID:            id,
		InstitutionID: institutionID,
		Token:         token,
		Request:       req,
		Priority:      req.Priority,
		CreatedAt:     time.Now().UTC(),
		run:           run,
		status:        dto.JobStatusQueued,
	}
}

// Snapshot is a point-in-time, lock-free copy of a job's public status.
type Snapshot struct {
	ID            string
	InstitutionID string
	Status        dto.JobStatus
	Progress      float64
	Message       string
	CreatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	Error         string
	Result        JobResult
}

func (j *Job) snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Snapshot{
		ID:            j.ID,
		InstitutionID: j.InstitutionID,
		Status:        j.status,
		Progress:      j.progress,
		Message:       j.message,
		CreatedAt:     j.CreatedAt,
		StartedAt:     j.startedAt,
		CompletedAt:   j.completedAt,
		Error:         j.errMessage,
		Result:        j.result,
	}
}

// legalTransitions enumerates the job status state machine (spec.md §5):
// terminal states never move again, QUEUED can only become RUNNING or
// CANCELLED, and RUNNING can only become a terminal state.
var legalTransitions = map[dto.JobStatus]map[dto.JobStatus]bool{
	dto.JobStatusQueued: {
		dto.JobStatusRunning:   true,
		dto.JobStatusCancelled: true,
	},
	dto.JobStatusRunning: {
		dto.JobStatusCompleted: true,
		dto.JobStatusFailed:    true,
		dto.JobStatusCancelled: true,
	},
}

func (j *Job) transition(to dto.JobStatus) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status == to {
		return true
	}
	if !legalTransitions[j.status][to] {
		return false
	}
	j.status = to
	return true
}

func (j *Job) setProgress(pct float64, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != dto.JobStatusRunning {
		return
	}
	j.progress = pct
	j.message = message
}

func (j *Job) markStarted() {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now().UTC()
	j.startedAt = &now
}

func (j *Job) markCompleted(result JobResult) {
	j.mu.Lock()
	now := time.Now().UTC()
	j.completedAt = &now
	j.progress = 100
	j.message = "completed"
	j.result = result
	j.mu.Unlock()
}

func (j *Job) markFailed(err error) {
	j.mu.Lock()
	now := time.Now().UTC()
	j.completedAt = &now
	j.errMessage = err.Error()
	j.mu.Unlock()
}

func (j *Job) markCancelled() {
	j.mu.Lock()
	now := time.Now().UTC()
	j.completedAt = &now
	j.message = "cancelled"
	j.mu.Unlock()
}
