package normalizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scheduler-engine/internal/catalogue"
	"github.com/noah-isme/scheduler-engine/internal/models"
	appErrors "github.com/noah-isme/scheduler-engine/pkg/errors"
	"github.com/noah-isme/scheduler-engine/pkg/config"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, mux *http.ServeMux) *catalogue.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return catalogue.NewClient(config.CatalogueConfig{BaseURL: srv.URL, RequestTimeout: 5000000000}, nil)
}

func fullCatalogueMux(preferencesFailures int) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/faculty", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]string{{"id": "fac-1", "name": "Dr. A"}})
	})
	mux.HandleFunc("/api/v1/batches", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]interface{}{{"id": "batch-1", "name": "CS-1", "size": 40}})
	})
	mux.HandleFunc("/api/v1/subjects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]string{{"id": "sub-1", "name": "Algorithms"}})
	})
	mux.HandleFunc("/api/v1/classrooms", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]interface{}{{"id": "room-1", "name": "101", "capacity": 60}})
	})
	mux.HandleFunc("/api/v1/time-slots", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]interface{}{{"id": "slot-1", "day_of_week": 0, "start_time": "09:00", "end_time": "10:00", "slot_type": "LECTURE"}})
	})
	mux.HandleFunc("/api/v1/scheduling-constraints", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]interface{}{})
	})
	mux.HandleFunc("/api/v1/batch-subjects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]string{{"batch_id": "batch-1", "subject_id": "sub-1"}})
	})

	attempts := 0
	mux.HandleFunc("/api/v1/faculty-preferences/fac-1/all-preferences", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= preferencesFailures {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, []map[string]interface{}{
			{"kind": "AVAILABILITY", "day_of_week": 0, "slot_type": "LECTURE", "available": true},
		})
	})
	return mux
}

func TestLoadBuildsFlattenedInput(t *testing.T) {
	client := newTestClient(t, fullCatalogueMux(0))
	n := New(client, nil)

	in, err := n.Load(context.Background(), "token", "inst-1")
	require.NoError(t, err)

	assert.Len(t, in.Faculty, 1)
	assert.Len(t, in.Batches, 1)
	assert.Len(t, in.Subjects, 1)
	assert.Len(t, in.Classrooms, 1)
	assert.Len(t, in.TimeSlots, 1)
	assert.True(t, in.Preferences["fac-1"].Availability[0]["LECTURE"])
}

func TestLoadRejectsEmptyFaculty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/faculty", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]string{})
	})
	client := newTestClient(t, mux)
	n := New(client, nil)

	_, err := n.Load(context.Background(), "token", "inst-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInput.Code))
}

func TestLoadRejectsEmptyBatches(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/faculty", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]string{{"id": "fac-1"}})
	})
	mux.HandleFunc("/api/v1/batches", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]string{})
	})
	client := newTestClient(t, mux)
	n := New(client, nil)

	_, err := n.Load(context.Background(), "token", "inst-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInput.Code))
}

func TestLoadPreferencesRetryThenFallback(t *testing.T) {
	client := newTestClient(t, fullCatalogueMux(2))
	n := New(client, nil)

	in, err := n.Load(context.Background(), "token", "inst-1")
	require.NoError(t, err)

	prefs := in.Preferences["fac-1"]
	assert.Equal(t, "fac-1", prefs.FacultyID)
	assert.Empty(t, prefs.Availability)
}

func TestLoadPreferencesSucceedsOnRetry(t *testing.T) {
	client := newTestClient(t, fullCatalogueMux(1))
	n := New(client, nil)

	in, err := n.Load(context.Background(), "token", "inst-1")
	require.NoError(t, err)

	assert.True(t, in.Preferences["fac-1"].Availability[0]["LECTURE"])
}

func TestIsSubjectForBatchUsesAssociationWhenPresent(t *testing.T) {
	in := Input{
		Subjects: []models.Subject{{ID: "sub-1"}, {ID: "sub-2"}},
	}
	in2 := withBatchSubjects(in, map[string]map[string]bool{
		"batch-1": {"sub-1": true},
	})

	assert.True(t, in2.IsSubjectForBatch("batch-1", "sub-1"))
	assert.False(t, in2.IsSubjectForBatch("batch-1", "sub-2"))
}

func TestIsSubjectForBatchDefaultsToEligibleWithoutAssociations(t *testing.T) {
	in := Input{Subjects: []models.Subject{{ID: "sub-1"}}}
	assert.True(t, in.IsSubjectForBatch("unknown-batch", "sub-1"))
}

func TestRequiredSubjectsFallsBackToAllSubjects(t *testing.T) {
	in := Input{Subjects: []models.Subject{{ID: "sub-1"}, {ID: "sub-2"}}}
	required := in.RequiredSubjects("batch-x")
	assert.ElementsMatch(t, []string{"sub-1", "sub-2"}, required)
}

func TestIsClassroomSuitableUnconstrainedSubject(t *testing.T) {
	in := Input{
		Subjects:   []models.Subject{{ID: "sub-1"}},
		Classrooms: []models.Classroom{{ID: "room-1", RoomTypeID: "LAB"}},
	}
	assert.True(t, in.IsClassroomSuitable("sub-1", "room-1"))
}

func TestIsClassroomSuitableRequiresMatchingRoomType(t *testing.T) {
	in := Input{
		Subjects:   []models.Subject{{ID: "sub-1", RoomTypeID: "LAB"}},
		Classrooms: []models.Classroom{{ID: "room-1", RoomTypeID: "LECTURE_HALL"}},
	}
	assert.False(t, in.IsClassroomSuitable("sub-1", "room-1"))
}

// withBatchSubjects sets Input's unexported batchSubjects field; only
// reachable from within the package itself, as tests here are.
func withBatchSubjects(in Input, batchSubjects map[string]map[string]bool) Input {
	in.batchSubjects = batchSubjects
	return in
}
