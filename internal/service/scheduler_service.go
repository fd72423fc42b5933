// Package service wires the scheduler engine's components together: the
// Input Normaliser, Algorithm Factory, Result Persister, and job audit log,
// orchestrated through the Worker Manager's priority queue.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/scheduler-engine/internal/algorithms"
	"github.com/noah-isme/scheduler-engine/internal/audit"
	"github.com/noah-isme/scheduler-engine/internal/catalogue"
	"github.com/noah-isme/scheduler-engine/internal/dto"
	"github.com/noah-isme/scheduler-engine/internal/models"
	"github.com/noah-isme/scheduler-engine/internal/normalizer"
	"github.com/noah-isme/scheduler-engine/internal/persister"
	"github.com/noah-isme/scheduler-engine/internal/scheduling"
	"github.com/noah-isme/scheduler-engine/internal/worker"
	appErrors "github.com/noah-isme/scheduler-engine/pkg/errors"
)

// SchedulerService is the application-level entry point for the scheduling
// domain: accepting jobs, reporting their status, and proxying generation
// reads/deletes through to the catalogue store.
type SchedulerService struct {
	normalizer *normalizer.Normalizer
	factory    *algorithms.Factory
	persister  *persister.Persister
	catalogue  *catalogue.Client
	audit      *audit.Repository
	manager    *worker.Manager
	log        *zap.Logger
}

// NewSchedulerService builds the orchestration service.
func NewSchedulerService(
	norm *normalizer.Normalizer,
	factory *algorithms.Factory,
	persist *persister.Persister,
	catalogueClient *catalogue.Client,
	auditRepo *audit.Repository,
	manager *worker.Manager,
	log *zap.Logger,
) *SchedulerService {
	return &SchedulerService{
		normalizer: norm,
		factory:    factory,
		persister:  persist,
		catalogue:  catalogueClient,
		audit:      auditRepo,
		manager:    manager,
		log:        log,
	}
}

// SubmitJob enqueues a new scheduling job and returns its initial status.
func (s *SchedulerService) SubmitJob(ctx context.Context, token, institutionID string, req dto.SchedulingRequest) (dto.SchedulingJobStatus, error) {
	jobID := audit.NewJobID()

	if s.audit != nil {
		if err := s.audit.RecordSubmission(ctx, jobID, institutionID, string(req.AlgorithmType)); err != nil && s.log != nil {
			s.log.Warn("failed to record job submission", zap.String("job_id", jobID), zap.Error(err))
		}
	}

	job := s.manager.Submit(jobID, institutionID, token, req, s.runJob)
	return toJobStatus(job.ID, job.InstitutionID, dto.JobStatusQueued, 0, "queued", job.CreatedAt, nil, nil, "", worker.JobResult{}), nil
}

// runJob is the worker.Runner the manager invokes for every dequeued job. It
// replicates the original pipeline's progress checkpoints: 10% as catalogue
// loading starts, 30% once the data is loaded and the solver is being
// prepared, 80% once the solver returns, 100% once results are persisted.
func (s *SchedulerService) runJob(ctx context.Context, job *worker.Job, report worker.ReportProgress) (worker.JobResult, error) {
	report(10, "loading catalogue data")
	input, err := s.normalizer.Load(ctx, job.Token, job.InstitutionID)
	if err != nil {
		s.finish(ctx, job.ID, dto.JobStatusFailed, "", err)
		return worker.JobResult{}, err
	}
	if ctx.Err() != nil {
		return worker.JobResult{}, ctx.Err()
	}

	report(30, "preparing solver")
	solver, params, err := s.factory.Create(job.Request.AlgorithmType, job.Request.MaxIterations)
	if err != nil {
		s.finish(ctx, job.ID, dto.JobStatusFailed, "", err)
		return worker.JobResult{}, err
	}
	if ctx.Err() != nil {
		return worker.JobResult{}, ctx.Err()
	}

	result, err := s.solve(ctx, solver, input, params)
	if err != nil {
		s.finish(ctx, job.ID, dto.JobStatusFailed, "", err)
		return worker.JobResult{}, err
	}
	report(80, "persisting schedule")
	if ctx.Err() != nil {
		return worker.JobResult{}, ctx.Err()
	}

	generationID, err := s.persister.Persist(ctx, job.Token, persister.GenerationRequest{
		InstitutionID: job.InstitutionID,
		Name:          job.Request.Name,
		Description:   job.Request.Description,
		AlgorithmType: string(job.Request.AlgorithmType),
		AcademicTerm:  job.Request.AcademicTerm,
	}, result)
	if err != nil {
		wrapped := appErrors.Wrap(err, appErrors.ErrSolver.Code, appErrors.ErrSolver.Status, "persisting schedule")
		s.finish(ctx, job.ID, dto.JobStatusFailed, "", wrapped)
		return worker.JobResult{}, wrapped
	}

	report(100, "completed")
	s.finish(ctx, job.ID, dto.JobStatusCompleted, generationID, nil)

	return worker.JobResult{
		GenerationID:        generationID,
		TotalSessions:       len(result.Sessions),
		HardViolations:      result.HardViolations,
		SoftViolations:      result.SoftViolations,
		FacultySatisfaction: result.FacultySatisfaction,
		BatchSatisfaction:   result.BatchSatisfaction,
		RoomUtilisation:     result.RoomUtilisation,
	}, nil
}

// solve runs the chosen solver, coercing any failure into ErrSolver — a
// solver's own errors are an implementation detail, not a user-facing
// taxonomy. It also enforces spec.md §4.2's feasibility contract: a result
// carrying a hard violation, or one that scheduled nothing at all against
// real demand, never reaches persistence.
func (s *SchedulerService) solve(ctx context.Context, solver scheduling.Solver, input normalizer.Input, params scheduling.Params) (scheduling.Result, error) {
	if ctx.Err() != nil {
		return scheduling.Result{}, ctx.Err()
	}
	result, err := solver.Solve(input, params)
	if err != nil {
		return scheduling.Result{}, appErrors.Wrap(err, appErrors.ErrSolver.Code, appErrors.ErrSolver.Status, "solving schedule")
	}
	if result.HardViolations > 0 {
		return scheduling.Result{}, appErrors.Clone(appErrors.ErrSolver, "solution carries unresolved hard constraint violations")
	}
	if len(result.Sessions) == 0 && scheduling.TotalDemand(input) > 0 {
		return scheduling.Result{}, appErrors.Clone(appErrors.ErrSolver, "no feasible assignment for any faculty, batch, or classroom within the time budget")
	}
	return result, nil
}

func (s *SchedulerService) finish(ctx context.Context, jobID string, status dto.JobStatus, generationID string, err error) {
	if s.audit == nil {
		return
	}
	errMessage := ""
	if err != nil {
		errMessage = err.Error()
	}
	if auditErr := s.audit.RecordCompletion(ctx, jobID, status, generationID, errMessage); auditErr != nil && s.log != nil {
		s.log.Warn("failed to record job completion", zap.String("job_id", jobID), zap.Error(auditErr))
	}
}

// JobStatus reports a job's current status.
func (s *SchedulerService) JobStatus(jobID string) (dto.SchedulingJobStatus, error) {
	snap, ok := s.manager.Status(jobID)
	if !ok {
		return dto.SchedulingJobStatus{}, appErrors.ErrNotFound
	}
	var errMsg string
	if snap.Error != "" {
		errMsg = snap.Error
	}
	return toJobStatus(snap.ID, snap.InstitutionID, snap.Status, snap.Progress, snap.Message, snap.CreatedAt, snap.StartedAt, snap.CompletedAt, errMsg, snap.Result), nil
}

// CancelJob requests cancellation of a job.
func (s *SchedulerService) CancelJob(jobID string) error {
	return s.manager.Cancel(jobID)
}

// JobAudit returns the local audit record for a job (the supplemental
// GET .../jobs/{job_id}/audit endpoint).
func (s *SchedulerService) JobAudit(ctx context.Context, jobID string) (dto.JobAuditRecord, error) {
	if s.audit == nil {
		return dto.JobAuditRecord{}, appErrors.ErrNotFound
	}
	rec, err := s.audit.FindByJobID(ctx, jobID)
	if err != nil {
		return dto.JobAuditRecord{}, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "job audit record not found")
	}
	return dto.JobAuditRecord{
		JobID:         rec.JobID,
		InstitutionID: rec.InstitutionID,
		AlgorithmType: rec.AlgorithmType,
		SubmittedAt:   rec.SubmittedAt,
		FinalStatus:   rec.FinalStatus,
	}, nil
}

// ListGenerations proxies a paginated generation list through to the
// catalogue store.
func (s *SchedulerService) ListGenerations(ctx context.Context, token string, skip, limit int) ([]models.ScheduleGeneration, error) {
	return s.catalogue.ListGenerations(ctx, token, skip, limit)
}

// GetGeneration proxies a single generation fetch.
func (s *SchedulerService) GetGeneration(ctx context.Context, token, id string) (models.ScheduleGeneration, error) {
	return s.catalogue.GetGeneration(ctx, token, id)
}

// DeleteGeneration proxies a generation delete. Callers must already have
// enforced admin-only access (spec.md §3.7).
func (s *SchedulerService) DeleteGeneration(ctx context.Context, token, id string) error {
	return s.catalogue.DeleteGeneration(ctx, token, id)
}

func toJobStatus(
	id, institutionID string,
	status dto.JobStatus,
	progress float64,
	message string,
	createdAt time.Time,
	startedAt, completedAt *time.Time,
	errMsg string,
	result worker.JobResult,
) dto.SchedulingJobStatus {
	_ = institutionID
	return dto.SchedulingJobStatus{
		JobID:       id,
		Status:      status,
		Progress:    progress,
		Message:     message,
		CreatedAt:   createdAt,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Error:       errMsg,

		ScheduleGenerationID:     result.GenerationID,
		TotalSessions:            result.TotalSessions,
		HardConstraintViolations: result.HardViolations,
		SoftConstraintViolations: result.SoftViolations,
		FacultySatisfactionScore: result.FacultySatisfaction,
		BatchSatisfactionScore:   result.BatchSatisfaction,
		RoomUtilisationScore:     result.RoomUtilisation,
	}
}
