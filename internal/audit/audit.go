// Package audit is the engine's local job-audit-log (spec.md §3.6
// supplement): the only data this engine stores itself, as a record of what
// was submitted and how it finished, independent of the catalogue store.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/scheduler-engine/internal/dto"
)

// Record is one row of the job audit log.
type Record struct {
	JobID         string    `db:"id"`
	InstitutionID string    `db:"institution_id"`
	AlgorithmType string    `db:"algorithm_type"`
	SubmittedAt   time.Time `db:"submitted_at"`
	FinishedAt    *time.Time `db:"finished_at"`
	FinalStatus   string    `db:"final_status"`
	GenerationID  *string   `db:"generation_id"`
	ErrorMessage  *string   `db:"error_message"`
}

// Repository persists job audit records to Postgres.
type Repository struct {
	db *sqlx.DB
}

// NewRepository instantiates a job audit repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// RecordSubmission inserts a row the moment a job is accepted onto the
// queue, before any solver work has started.
func (r *Repository) RecordSubmission(ctx context.Context, jobID, institutionID, algorithmType string) error {
	const query = `INSERT INTO scheduler_job_audit_log (id, institution_id, algorithm_type, submitted_at, final_status) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, jobID, institutionID, algorithmType, time.Now().UTC(), string(dto.JobStatusQueued)); err != nil {
		return fmt.Errorf("record job submission: %w", err)
	}
	return nil
}

// RecordCompletion updates a row with its terminal status, generation id (if
// any), and error message (if any).
func (r *Repository) RecordCompletion(ctx context.Context, jobID string, status dto.JobStatus, generationID, errMessage string) error {
	const query = `UPDATE scheduler_job_audit_log SET final_status = $2, finished_at = $3, generation_id = NULLIF($4, ''), error_message = NULLIF($5, '') WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, jobID, string(status), time.Now().UTC(), generationID, errMessage); err != nil {
		return fmt.Errorf("record job completion: %w", err)
	}
	return nil
}

// FindByJobID loads a single audit record for display alongside a job's
// status (spec.md §3.7's supplemental GET .../audit endpoint).
func (r *Repository) FindByJobID(ctx context.Context, jobID string) (*Record, error) {
	const query = `SELECT id, institution_id, algorithm_type, submitted_at, finished_at, final_status, generation_id, error_message FROM scheduler_job_audit_log WHERE id = $1`
	var rec Record
	if err := r.db.GetContext(ctx, &rec, query, jobID); err != nil {
		return nil, fmt.Errorf("find job audit record: %w", err)
	}
	return &rec, nil
}

// NewJobID mints a fresh job identifier, used by the scheduler service at
// submission time so the audit row and the in-memory job share one id.
func NewJobID() string {
	return uuid.NewString()
}
