// Package dto holds the request/response shapes of the scheduler's HTTP
// surface, matching the catalogue-store-facing contract in spec.md §6.1.
package dto

import "time"

// AlgorithmType selects which solver backend processes a job.
type AlgorithmType string

const (
	AlgorithmCSP     AlgorithmType = "csp"
	AlgorithmGenetic AlgorithmType = "genetic"
)

// JobPriority orders queued jobs; higher values run first, FIFO among ties.
type JobPriority int

const (
	PriorityLow    JobPriority = 0
	PriorityNormal JobPriority = 1
	PriorityHigh   JobPriority = 2
)

// SchedulingRequest is the payload for POST /api/v1/scheduler/jobs.
type SchedulingRequest struct {
	Name          string        `json:"name" validate:"required"`
	Description   string        `json:"description"`
	AlgorithmType AlgorithmType `json:"algorithm_type" validate:"required,oneof=csp genetic"`
	AcademicTerm  string        `json:"academic_term" validate:"required"`
	StartDate     time.Time     `json:"start_date" validate:"required"`
	EndDate       time.Time     `json:"end_date" validate:"required,gtfield=StartDate"`
	MaxIterations int           `json:"max_iterations" validate:"omitempty,min=1"`
	Priority      JobPriority   `json:"priority" validate:"omitempty,min=0,max=2"`

	FacultyIDs   []string `json:"faculty_ids"`
	BatchIDs     []string `json:"batch_ids"`
	SubjectIDs   []string `json:"subject_ids"`
	ClassroomIDs []string `json:"classroom_ids"`
}

// JobStatus is the lifecycle state of a submitted scheduling job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
	JobStatusCancelled JobStatus = "CANCELLED"
)

// SchedulingJobStatus is returned by GET /api/v1/scheduler/jobs/{job_id}.
type SchedulingJobStatus struct {
	JobID       string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Progress    float64   `json:"progress"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string    `json:"error,omitempty"`

	ScheduleGenerationID string `json:"schedule_generation_id,omitempty"`
	TotalSessions        int    `json:"total_sessions,omitempty"`
	HardConstraintViolations int `json:"hard_constraint_violations,omitempty"`
	SoftConstraintViolations int `json:"soft_constraint_violations,omitempty"`
	FacultySatisfactionScore float64 `json:"faculty_satisfaction_score,omitempty"`
	BatchSatisfactionScore   float64 `json:"batch_satisfaction_score,omitempty"`
	RoomUtilisationScore     float64 `json:"room_utilisation_score,omitempty"`
}

// ScheduleGenerationSummary is returned by the generation list/detail endpoints.
type ScheduleGenerationSummary struct {
	GenerationID  string    `json:"generation_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	AcademicTerm  string    `json:"academic_term"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	CreatedAt     time.Time `json:"created_at"`

	TotalSessions  int `json:"total_sessions"`
	TotalFaculty   int `json:"total_faculty"`
	TotalBatches   int `json:"total_batches"`
	TotalClassrooms int `json:"total_classrooms"`

	HardConstraintViolations int `json:"hard_constraint_violations"`
	SoftConstraintViolations int `json:"soft_constraint_violations"`
	FacultySatisfactionScore float64 `json:"faculty_satisfaction_score"`
	BatchSatisfactionScore   float64 `json:"batch_satisfaction_score"`
	RoomUtilisationScore     float64 `json:"room_utilisation_score"`
}

// JobAuditRecord is returned by the supplemental GET .../jobs/{job_id}/audit endpoint.
type JobAuditRecord struct {
	JobID         string    `json:"job_id"`
	InstitutionID string    `json:"institution_id"`
	AlgorithmType string    `json:"algorithm_type"`
	SubmittedAt   time.Time `json:"submitted_at"`
	FinalStatus   string    `json:"final_status"`
}
