// Package persister implements the Result Persister (spec.md §4.6): it
// writes a solver's winning Result back to the catalogue store as a fresh
// schedule generation plus its scheduled sessions.
package persister

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/scheduler-engine/internal/catalogue"
	"github.com/noah-isme/scheduler-engine/internal/models"
	"github.com/noah-isme/scheduler-engine/internal/scheduling"
)

const sessionBatchSize = 50

// Persister writes a completed solver run back to the catalogue store.
type Persister struct {
	catalogue *catalogue.Client
}

// New builds a Persister.
func New(client *catalogue.Client) *Persister {
	return &Persister{catalogue: client}
}

// GenerationRequest carries the job metadata needed to stamp the generation
// header, independent of the solver result itself.
type GenerationRequest struct {
	InstitutionID string
	Name          string
	Description   string
	AlgorithmType string
	AcademicTerm  string
}

// Persist writes the generation header, then the scheduled sessions in
// batches of 50. Per spec.md §4.6, a failure at any point fails the whole
// job: there is no local generation_id to clean up, and no partial retry —
// the catalogue store is the only source of truth for what was written.
func (p *Persister) Persist(ctx context.Context, token string, req GenerationRequest, result scheduling.Result) (string, error) {
	generationID := uuid.NewString()

	gen := models.ScheduleGeneration{
		ID:             generationID,
		InstitutionID:  req.InstitutionID,
		Name:           req.Name,
		Description:    req.Description,
		AlgorithmType:  req.AlgorithmType,
		AcademicTerm:   req.AcademicTerm,
		TotalSessions:  len(result.Sessions),
		HardViolations: result.HardViolations,
		SoftViolations: result.SoftViolations,

		FacultySatisfaction: result.FacultySatisfaction,
		BatchSatisfaction:   result.BatchSatisfaction,
		RoomUtilisation:     result.RoomUtilisation,
	}

	if err := p.catalogue.CreateGeneration(ctx, token, gen); err != nil {
		return "", fmt.Errorf("persisting schedule generation: %w", err)
	}

	sessions := make([]models.ScheduledSession, len(result.Sessions))
	for i, s := range result.Sessions {
		sessions[i] = models.ScheduledSession{
			ID:            uuid.NewString(),
			InstitutionID: req.InstitutionID,
			GenerationID:  generationID,
			BatchID:       s.BatchID,
			SubjectID:     s.SubjectID,
			FacultyID:     s.FacultyID,
			ClassroomID:   s.ClassroomID,
			TimeSlotID:    s.TimeSlotID,
		}
	}

	for start := 0; start < len(sessions); start += sessionBatchSize {
		end := start + sessionBatchSize
		if end > len(sessions) {
			end = len(sessions)
		}
		if err := p.catalogue.CreateSessionsBatch(ctx, token, sessions[start:end]); err != nil {
			return "", fmt.Errorf("persisting scheduled sessions [%d:%d]: %w", start, end, err)
		}
	}

	return generationID, nil
}
