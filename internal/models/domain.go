// Package models holds the scheduling engine's data model: the flattened,
// acyclic view of catalogue entities the solvers operate over, and the
// results they produce.
package models

import "time"

// Expertise levels a faculty member may hold for a subject.
type Expertise int

const (
	ExpertiseNovice       Expertise = 1
	ExpertiseIntermediate Expertise = 2
	ExpertiseDefault      Expertise = 3
	ExpertiseAdvanced     Expertise = 4
	ExpertiseExpert       Expertise = 5
)

// ParseExpertise maps a catalogue tag to its numeric weight, defaulting to
// ExpertiseDefault when the tag is absent or unrecognised.
func ParseExpertise(tag string) Expertise {
	switch tag {
	case "NOVICE":
		return ExpertiseNovice
	case "INTERMEDIATE":
		return ExpertiseIntermediate
	case "ADVANCED":
		return ExpertiseAdvanced
	case "EXPERT":
		return ExpertiseExpert
	default:
		return ExpertiseDefault
	}
}

// Preference levels a faculty member may hold for a batch or classroom.
type Preference int

const (
	PreferenceStronglyDislike Preference = -2
	PreferenceDislike         Preference = -1
	PreferenceNeutral         Preference = 0
	PreferencePrefer          Preference = 1
	PreferenceStronglyPrefer  Preference = 2
)

// ParsePreference maps a catalogue tag to its numeric weight, defaulting to
// PreferenceNeutral. An unrecognised non-empty tag is the caller's concern;
// this function never rejects, callers performing input validation should
// check the tag against the known set before calling ParsePreference when
// rejection is required (see internal/catalogue).
func ParsePreference(tag string) Preference {
	switch tag {
	case "STRONGLY_DISLIKE":
		return PreferenceStronglyDislike
	case "DISLIKE":
		return PreferenceDislike
	case "PREFER":
		return PreferencePrefer
	case "STRONGLY_PREFER":
		return PreferenceStronglyPrefer
	default:
		return PreferenceNeutral
	}
}

// KnownPreferenceTags is the closed set of preference tags the catalogue may
// send; anything else is an input error, not a silently-neutralised value.
var KnownPreferenceTags = map[string]bool{
	"STRONGLY_DISLIKE": true,
	"DISLIKE":          true,
	"NEUTRAL":          true,
	"PREFER":           true,
	"STRONGLY_PREFER":  true,
}

// KnownExpertiseTags is the closed set of expertise tags the catalogue may send.
var KnownExpertiseTags = map[string]bool{
	"NOVICE":       true,
	"INTERMEDIATE": true,
	"ADVANCED":     true,
	"EXPERT":       true,
}

// Faculty is a teacher eligible for assignment.
type Faculty struct {
	ID            string
	InstitutionID string
	Name          string
}

// Batch is a cohort of students sharing a timetable.
type Batch struct {
	ID            string
	InstitutionID string
	Name          string
	Size          int
}

// Subject is a course that must be scheduled for one or more batches.
type Subject struct {
	ID            string
	InstitutionID string
	Name          string
	RoomTypeID    string // required classroom room-type, empty if unconstrained
}

// Classroom is a physical or virtual room sessions can be held in.
type Classroom struct {
	ID            string
	InstitutionID string
	Name          string
	Capacity      int
	RoomTypeID    string
}

// TimeSlot is a schedulable period. DayOfWeek is 0 (Monday) through 6 (Sunday).
type TimeSlot struct {
	ID        string
	DayOfWeek int
	StartTime string // "HH:MM"
	EndTime   string // "HH:MM"
	SlotType  string // e.g. "LECTURE", "LAB" — used for availability categorisation
}

// Availability records whether a faculty member can teach during a given
// day/slot-type combination.
type Availability struct {
	DayOfWeek int
	SlotType  string
	Available bool
}

// FacultyPreferences is the projected view of one faculty member's raw
// preference records, built by the Input Normaliser.
type FacultyPreferences struct {
	FacultyID         string
	Availability      map[int]map[string]bool // day -> slot_type -> available
	SubjectExpertise  map[string]Expertise     // subject_id -> level
	BatchPreference   map[string]Preference    // batch_id -> level
	ClassroomPreference map[string]Preference  // classroom_id -> level
}

// NewFacultyPreferences returns an empty, neutral preference set — the
// fallback used when a faculty member's preference data could not be
// fetched, per the Input Normaliser's retry-once-then-neutral-default policy.
func NewFacultyPreferences(facultyID string) FacultyPreferences {
	return FacultyPreferences{
		FacultyID:           facultyID,
		Availability:        map[int]map[string]bool{},
		SubjectExpertise:    map[string]Expertise{},
		BatchPreference:     map[string]Preference{},
		ClassroomPreference: map[string]Preference{},
	}
}

// ConstraintKind distinguishes hard (must-satisfy) from soft (objective)
// scheduling constraints.
type ConstraintKind string

const (
	ConstraintHard ConstraintKind = "HARD"
	ConstraintSoft ConstraintKind = "SOFT"
)

// SchedulingConstraint is a named rule supplied by the catalogue store that
// the solvers must honour (hard) or reward (soft).
type SchedulingConstraint struct {
	ID     string
	Kind   ConstraintKind
	Type   string
	Weight float64 // meaningful only for soft constraints
}

// ScheduledSession is one (batch, subject, faculty, classroom, timeslot)
// assignment produced by a solver.
type ScheduledSession struct {
	ID            string
	InstitutionID string
	GenerationID  string
	BatchID       string
	SubjectID     string
	FacultyID     string
	ClassroomID   string
	TimeSlotID    string
}

// ScheduleGeneration is the header record summarising one completed
// scheduling run.
type ScheduleGeneration struct {
	ID            string
	InstitutionID string
	Name          string
	Description   string
	AlgorithmType string
	AcademicTerm  string
	StartDate     time.Time
	EndDate       time.Time
	CreatedAt     time.Time

	TotalSessions int

	HardViolations int
	SoftViolations int

	FacultySatisfaction float64
	BatchSatisfaction   float64
	RoomUtilisation     float64
}

// Pagination mirrors the teacher's list-endpoint pagination contract.
type Pagination struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}
