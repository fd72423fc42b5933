package scheduling

import (
	"github.com/noah-isme/scheduler-engine/internal/models"
	"github.com/noah-isme/scheduler-engine/internal/normalizer"
)

// CountHardViolations counts double-bookings: faculty, classroom, or batch
// each teaching/used/attending more than once in the same timeslot. An
// unscheduled (batch, subject) pair is demand left unmet under contention,
// not a constraint broken by the sessions that were emitted, so it is scored
// by BatchSatisfaction instead. A solution can leave required pairs
// unscheduled and still be a hard-violation-free, successful result.
func CountHardViolations(_ normalizer.Input, sessions []Session) int {
	violations := 0

	facultySlot := map[string]map[string]int{}
	classroomSlot := map[string]map[string]int{}
	batchSlot := map[string]map[string]int{}

	for _, s := range sessions {
		bump(facultySlot, s.FacultyID, s.TimeSlotID)
		bump(classroomSlot, s.ClassroomID, s.TimeSlotID)
		bump(batchSlot, s.BatchID, s.TimeSlotID)
	}

	violations += countOverlaps(facultySlot)
	violations += countOverlaps(classroomSlot)
	violations += countOverlaps(batchSlot)

	return violations
}

func bump(m map[string]map[string]int, key, slot string) {
	if m[key] == nil {
		m[key] = map[string]int{}
	}
	m[key][slot]++
}

func countOverlaps(m map[string]map[string]int) int {
	total := 0
	for _, bySlot := range m {
		for _, count := range bySlot {
			if count > 1 {
				total += count - 1
			}
		}
	}
	return total
}

// FacultySatisfaction averages faculty preference scores over the sessions
// assigned to them and rescales from [-2, 5] to [0, 100].
func FacultySatisfaction(in normalizer.Input, sessions []Session) float64 {
	if len(sessions) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range sessions {
		prefs := in.Preferences[s.FacultyID]
		expertise := prefs.SubjectExpertise[s.SubjectID]
		if expertise == 0 {
			expertise = models.ExpertiseDefault
		}
		batchPref := prefs.BatchPreference[s.BatchID]
		total += float64(expertise) + float64(batchPref)
	}
	avg := total / float64(len(sessions))
	scaled := (avg + 2) * (100.0 / 7.0)
	return clamp(scaled, 0, 100)
}

// BatchSatisfaction is the fraction of required (batch, subject) pairs that
// were actually scheduled, as a percentage.
func BatchSatisfaction(in normalizer.Input, sessions []Session) float64 {
	required := 0
	scheduled := map[string]map[string]bool{}
	for _, s := range sessions {
		if scheduled[s.BatchID] == nil {
			scheduled[s.BatchID] = map[string]bool{}
		}
		scheduled[s.BatchID][s.SubjectID] = true
	}

	satisfied := 0
	for _, b := range in.Batches {
		for _, subjectID := range in.RequiredSubjects(b.ID) {
			required++
			if scheduled[b.ID][subjectID] {
				satisfied++
			}
		}
	}
	if required == 0 {
		return 100
	}
	return 100 * float64(satisfied) / float64(required)
}

// RoomUtilisation is the fraction of (classroom, timeslot) combinations
// actually used, as a percentage.
func RoomUtilisation(in normalizer.Input, sessions []Session) float64 {
	capacity := len(in.Classrooms) * len(in.TimeSlots)
	if capacity == 0 {
		return 0
	}
	used := map[string]bool{}
	for _, s := range sessions {
		used[s.ClassroomID+"|"+s.TimeSlotID] = true
	}
	return 100 * float64(len(used)) / float64(capacity)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CountSoftViolations counts sessions assigned against a faculty member's
// stated dislike of the batch or classroom involved — the soft-constraint
// analogue of the hard double-booking count.
func CountSoftViolations(in normalizer.Input, sessions []Session) int {
	violations := 0
	for _, s := range sessions {
		prefs := in.Preferences[s.FacultyID]
		if prefs.BatchPreference[s.BatchID] < models.PreferenceNeutral {
			violations++
		}
		if prefs.ClassroomPreference[s.ClassroomID] < models.PreferenceNeutral {
			violations++
		}
	}
	return violations
}

// Summarise computes all spec.md §4.5 metrics for a candidate solution.
func Summarise(in normalizer.Input, sessions []Session) Result {
	return Result{
		Sessions:            sessions,
		HardViolations:      CountHardViolations(in, sessions),
		SoftViolations:      CountSoftViolations(in, sessions),
		FacultySatisfaction: FacultySatisfaction(in, sessions),
		BatchSatisfaction:   BatchSatisfaction(in, sessions),
		RoomUtilisation:     RoomUtilisation(in, sessions),
	}
}
