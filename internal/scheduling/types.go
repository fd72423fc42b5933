// Package scheduling defines the shared contract the CSP and GA solvers
// implement (spec.md §4.2-§4.4): a common Input/Result shape, candidate-tuple
// pruning, and the metrics formulas used to score a solution.
package scheduling

import (
	"time"

	"github.com/noah-isme/scheduler-engine/internal/models"
	"github.com/noah-isme/scheduler-engine/internal/normalizer"
)

// Session is one (batch, subject, faculty, classroom, timeslot) assignment,
// the unit both solvers search over.
type Session struct {
	BatchID     string
	SubjectID   string
	FacultyID   string
	ClassroomID string
	TimeSlotID  string
}

// Result is what a solver run returns, in advance of persistence.
type Result struct {
	Sessions []Session

	HardViolations int
	SoftViolations int

	FacultySatisfaction float64
	BatchSatisfaction   float64
	RoomUtilisation     float64
}

// Params bundles together both solvers' tunable parameters; each solver only
// reads the fields relevant to it.
type Params struct {
	TimeLimit time.Duration
	Seed      int64

	// GA-only.
	PopulationSize int
	Generations    int
	MutationRate   float64
	CrossoverRate  float64
	ElitismRate    float64
	TournamentSize int
}

// Solver is the contract both the CSP and GA backends satisfy. Per spec.md
// §9, the factory dispatches on this interface rather than any specific
// constraint-programming engine.
type Solver interface {
	Solve(in normalizer.Input, params Params) (Result, error)
}

// TotalDemand counts every required (batch, subject) pair: the number of
// sessions a fully feasible schedule would contain.
func TotalDemand(in normalizer.Input) int {
	total := 0
	for _, b := range in.Batches {
		total += len(in.RequiredSubjects(b.ID))
	}
	return total
}

// Candidate is a prunable (batch, subject, faculty, classroom, timeslot)
// tuple: one that passes the availability, room-suitability and capacity
// checks before either solver ever builds a variable or gene around it.
// Expertise is not checked: a faculty member with no expertise record for
// the subject is still a candidate.
type Candidate struct {
	BatchID     string
	SubjectID   string
	FacultyID   string
	ClassroomID string
	TimeSlotID  string
}

// BuildCandidates enumerates every tuple that could legally appear in a
// solution: the faculty member is available at the slot, the classroom's
// room type suits the subject, the classroom's capacity covers the batch
// (spec.md §4.2's "batch size <= classroom capacity" hard invariant), and the
// subject is actually part of the batch's curriculum (spec.md §9's two
// previously-stubbed checks).
func BuildCandidates(in normalizer.Input) []Candidate {
	slotByID := make(map[string]models.TimeSlot, len(in.TimeSlots))
	for _, ts := range in.TimeSlots {
		slotByID[ts.ID] = ts
	}

	var out []Candidate
	for _, b := range in.Batches {
		required := in.RequiredSubjects(b.ID)
		for _, subjectID := range required {
			for _, f := range in.Faculty {
				prefs := in.Preferences[f.ID]
				for _, ts := range in.TimeSlots {
					if !facultyAvailable(prefs, ts) {
						continue
					}
					for _, c := range in.Classrooms {
						if !in.IsClassroomSuitable(subjectID, c.ID) {
							continue
						}
						if c.Capacity < b.Size {
							continue
						}
						out = append(out, Candidate{
							BatchID:     b.ID,
							SubjectID:   subjectID,
							FacultyID:   f.ID,
							ClassroomID: c.ID,
							TimeSlotID:  ts.ID,
						})
					}
				}
			}
		}
	}
	return out
}

func facultyAvailable(prefs models.FacultyPreferences, ts models.TimeSlot) bool {
	byDay, ok := prefs.Availability[ts.DayOfWeek]
	if !ok {
		// No availability data recorded for this faculty member: treat them
		// as available rather than unusable, matching the neutral-default
		// policy applied when preference fetches fail entirely.
		return true
	}
	available, ok := byDay[ts.SlotType]
	if !ok {
		return true
	}
	return available
}
