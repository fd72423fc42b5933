package csp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scheduler-engine/internal/models"
	"github.com/noah-isme/scheduler-engine/internal/normalizer"
	"github.com/noah-isme/scheduler-engine/internal/scheduling"
)

func minimalFeasibleInput() normalizer.Input {
	return normalizer.Input{
		Faculty:    []models.Faculty{{ID: "fac-1", Name: "Dr. A"}},
		Batches:    []models.Batch{{ID: "batch-1", Name: "CS-1", Size: 40}},
		Subjects:   []models.Subject{{ID: "sub-1", Name: "Algorithms"}},
		Classrooms: []models.Classroom{{ID: "room-1", Capacity: 60}},
		TimeSlots: []models.TimeSlot{
			{ID: "slot-1", DayOfWeek: 0, SlotType: "LECTURE"},
			{ID: "slot-2", DayOfWeek: 0, SlotType: "LECTURE"},
		},
		Preferences: map[string]models.FacultyPreferences{
			"fac-1": models.NewFacultyPreferences("fac-1"),
		},
	}
}

func TestSolveFindsFeasibleSchedule(t *testing.T) {
	in := minimalFeasibleInput()
	s := New()

	result, err := s.Solve(in, scheduling.Params{TimeLimit: time.Second})
	require.NoError(t, err)

	require.Len(t, result.Sessions, 1)
	assert.Equal(t, 0, result.HardViolations)
	assert.Equal(t, "batch-1", result.Sessions[0].BatchID)
	assert.Equal(t, "sub-1", result.Sessions[0].SubjectID)
}

func TestSolveLeavesUnschedulablePairUnscheduledUnderContention(t *testing.T) {
	// Two batches both requiring the same subject, but only one faculty
	// member, one classroom, and one timeslot exist: both cannot be
	// scheduled without a double-booking, so the best completion leaves one
	// (batch, subject) pair unscheduled rather than double-booking anyone.
	// That's unmet demand, not a broken constraint on the sessions actually
	// emitted, so it shows up in BatchSatisfaction, not HardViolations.
	in := normalizer.Input{
		Faculty:    []models.Faculty{{ID: "fac-1"}},
		Batches:    []models.Batch{{ID: "batch-1"}, {ID: "batch-2"}},
		Subjects:   []models.Subject{{ID: "sub-1"}},
		Classrooms: []models.Classroom{{ID: "room-1"}},
		TimeSlots:  []models.TimeSlot{{ID: "slot-1", DayOfWeek: 0, SlotType: "LECTURE"}},
		Preferences: map[string]models.FacultyPreferences{
			"fac-1": models.NewFacultyPreferences("fac-1"),
		},
	}
	s := New()

	result, err := s.Solve(in, scheduling.Params{TimeLimit: time.Second})
	require.NoError(t, err)

	assert.Len(t, result.Sessions, 1)
	assert.Equal(t, 0, result.HardViolations)
	assert.Equal(t, 50.0, result.BatchSatisfaction)
}

func TestSolveRespectsWallClockBudget(t *testing.T) {
	in := minimalFeasibleInput()
	s := New()

	result, err := s.Solve(in, scheduling.Params{TimeLimit: time.Nanosecond})
	require.NoError(t, err)

	assert.NotNil(t, result.Sessions)
}

func TestSolveDefaultsTimeLimitWhenUnset(t *testing.T) {
	assert.Equal(t, 60*time.Second, effectiveTimeLimit(0))
	assert.Equal(t, 5*time.Second, effectiveTimeLimit(5*time.Second))
}
