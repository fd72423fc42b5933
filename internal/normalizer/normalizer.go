// Package normalizer implements the Input Normaliser (spec.md §4.1): it
// fetches the raw catalogue view for a job and projects it into the flat,
// solver-ready shape the CSP and GA algorithms share.
package normalizer

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/scheduler-engine/internal/catalogue"
	"github.com/noah-isme/scheduler-engine/internal/models"
	appErrors "github.com/noah-isme/scheduler-engine/pkg/errors"
)

// Input is the solver-ready, flattened view of one institution's catalogue
// data for a single scheduling job.
type Input struct {
	Faculty    []models.Faculty
	Batches    []models.Batch
	Subjects   []models.Subject
	Classrooms []models.Classroom
	TimeSlots  []models.TimeSlot

	Constraints []models.SchedulingConstraint

	Preferences map[string]models.FacultyPreferences // faculty_id -> preferences

	batchSubjects map[string]map[string]bool // batch_id -> subject_id -> required
}

// IsSubjectForBatch resolves spec.md §9's first stubbed predicate: whether a
// subject is actually part of a batch's curriculum. When no association data
// was available for a batch at all, every subject is treated as eligible
// (the catalogue simply never populated that batch's curriculum), but once
// any association exists for the batch, membership is authoritative.
func (in Input) IsSubjectForBatch(batchID, subjectID string) bool {
	subjects, ok := in.batchSubjects[batchID]
	if !ok || len(subjects) == 0 {
		return true
	}
	return subjects[subjectID]
}

// RequiredSubjects returns the subjects a batch must be scheduled for. Falls
// back to every known subject when the catalogue has no association data.
func (in Input) RequiredSubjects(batchID string) []string {
	subjects, ok := in.batchSubjects[batchID]
	if !ok || len(subjects) == 0 {
		ids := make([]string, len(in.Subjects))
		for i, s := range in.Subjects {
			ids[i] = s.ID
		}
		return ids
	}
	ids := make([]string, 0, len(subjects))
	for id := range subjects {
		ids = append(ids, id)
	}
	return ids
}

// IsClassroomSuitable resolves spec.md §9's second stubbed predicate: whether
// a classroom's room type satisfies a subject's room-type requirement. A
// subject with no room-type requirement can use any classroom.
func (in Input) IsClassroomSuitable(subjectID, classroomID string) bool {
	var subject *models.Subject
	for i := range in.Subjects {
		if in.Subjects[i].ID == subjectID {
			subject = &in.Subjects[i]
			break
		}
	}
	if subject == nil || subject.RoomTypeID == "" {
		return true
	}
	for _, c := range in.Classrooms {
		if c.ID == classroomID {
			return c.RoomTypeID == subject.RoomTypeID
		}
	}
	return false
}

// Normalizer fetches and projects catalogue data for one job.
type Normalizer struct {
	catalogue *catalogue.Client
	log       *zap.Logger
}

// New builds a Normalizer.
func New(client *catalogue.Client, log *zap.Logger) *Normalizer {
	return &Normalizer{catalogue: client, log: log}
}

// Load fetches every catalogue resource needed to run a solver and projects
// it into an Input. Per spec.md §4.1, a per-faculty preference fetch is
// retried once on failure before falling back to a neutral default; a
// missing required list (faculty, batches, subjects, classrooms, time slots)
// or an unknown preference/expertise tag is an InputError, not a silent
// fallback.
func (n *Normalizer) Load(ctx context.Context, token, institutionID string) (Input, error) {
	faculty, err := n.catalogue.ListFaculty(ctx, token, institutionID)
	if err != nil {
		return Input{}, err
	}
	if len(faculty) == 0 {
		return Input{}, appErrors.Clone(appErrors.ErrInput, "institution has no faculty to schedule")
	}

	batches, err := n.catalogue.ListBatches(ctx, token, institutionID)
	if err != nil {
		return Input{}, err
	}
	if len(batches) == 0 {
		return Input{}, appErrors.Clone(appErrors.ErrInput, "institution has no batches to schedule")
	}

	subjects, err := n.catalogue.ListSubjects(ctx, token, institutionID)
	if err != nil {
		return Input{}, err
	}
	if len(subjects) == 0 {
		return Input{}, appErrors.Clone(appErrors.ErrInput, "institution has no subjects to schedule")
	}

	classrooms, err := n.catalogue.ListClassrooms(ctx, token, institutionID)
	if err != nil {
		return Input{}, err
	}
	if len(classrooms) == 0 {
		return Input{}, appErrors.Clone(appErrors.ErrInput, "institution has no classrooms to schedule")
	}

	timeSlots, err := n.catalogue.ListTimeSlots(ctx, token, institutionID)
	if err != nil {
		return Input{}, err
	}
	if len(timeSlots) == 0 {
		return Input{}, appErrors.Clone(appErrors.ErrInput, "institution has no time slots to schedule")
	}

	constraints, err := n.catalogue.ListConstraints(ctx, token, institutionID)
	if err != nil {
		return Input{}, err
	}

	batchSubjects, _ := n.catalogue.BatchSubjects(ctx, token, institutionID)

	preferences := make(map[string]models.FacultyPreferences, len(faculty))
	for _, f := range faculty {
		prefs, err := n.loadPreferencesWithRetry(ctx, token, f.ID)
		if err != nil {
			return Input{}, err
		}
		preferences[f.ID] = prefs
	}

	return Input{
		Faculty:       faculty,
		Batches:       batches,
		Subjects:      subjects,
		Classrooms:    classrooms,
		TimeSlots:     timeSlots,
		Constraints:   constraints,
		Preferences:   preferences,
		batchSubjects: batchSubjects,
	}, nil
}

func (n *Normalizer) loadPreferencesWithRetry(ctx context.Context, token, facultyID string) (models.FacultyPreferences, error) {
	prefs, err := n.catalogue.FacultyPreferences(ctx, token, facultyID)
	if err == nil {
		return prefs, nil
	}

	if appErrors.Is(err, appErrors.ErrInput.Code) {
		// A malformed tag is a data problem, not a transient one; retrying
		// would just repeat the same failure, so the InputError fails the load.
		return models.FacultyPreferences{}, err
	}

	prefs, err = n.catalogue.FacultyPreferences(ctx, token, facultyID)
	if err == nil {
		return prefs, nil
	}

	if n.log != nil {
		n.log.Warn("faculty preferences unavailable after retry, using neutral default",
			zap.String("faculty_id", facultyID), zap.Error(err))
	}
	return models.NewFacultyPreferences(facultyID), nil
}
