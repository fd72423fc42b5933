package persister

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scheduler-engine/internal/catalogue"
	"github.com/noah-isme/scheduler-engine/internal/scheduling"
	"github.com/noah-isme/scheduler-engine/pkg/config"
)

func testClient(t *testing.T, mux *http.ServeMux) *catalogue.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return catalogue.NewClient(config.CatalogueConfig{BaseURL: srv.URL, RequestTimeout: 5 * time.Second}, nil)
}

func sessionsOf(n int) []scheduling.Session {
	out := make([]scheduling.Session, n)
	for i := range out {
		out[i] = scheduling.Session{
			BatchID:     "batch-1",
			SubjectID:   "sub-1",
			FacultyID:   "fac-1",
			ClassroomID: "room-1",
			TimeSlotID:  "slot-1",
		}
	}
	return out
}

func TestPersistWritesGenerationThenBatchedSessions(t *testing.T) {
	var generationCalls, batchCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/schedule-generations", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&generationCalls, 1)
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/api/v1/scheduled-sessions/batch-create", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&batchCalls, 1)
		w.WriteHeader(http.StatusCreated)
	})
	client := testClient(t, mux)
	p := New(client)

	result := scheduling.Result{Sessions: sessionsOf(120)}
	generationID, err := p.Persist(context.Background(), "tok", GenerationRequest{InstitutionID: "inst-1"}, result)

	require.NoError(t, err)
	assert.NotEmpty(t, generationID)
	assert.EqualValues(t, 1, atomic.LoadInt32(&generationCalls))
	assert.EqualValues(t, 3, atomic.LoadInt32(&batchCalls)) // 50 + 50 + 20
}

func TestPersistAbortsWholeJobOnGenerationFailure(t *testing.T) {
	var batchCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/schedule-generations", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/api/v1/scheduled-sessions/batch-create", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&batchCalls, 1)
		w.WriteHeader(http.StatusCreated)
	})
	client := testClient(t, mux)
	p := New(client)

	_, err := p.Persist(context.Background(), "tok", GenerationRequest{InstitutionID: "inst-1"}, scheduling.Result{Sessions: sessionsOf(10)})

	require.Error(t, err)
	assert.EqualValues(t, 0, atomic.LoadInt32(&batchCalls))
}

func TestPersistAbortsOnSessionBatchFailureWithoutRetry(t *testing.T) {
	var batchCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/schedule-generations", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/api/v1/scheduled-sessions/batch-create", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&batchCalls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	client := testClient(t, mux)
	p := New(client)

	_, err := p.Persist(context.Background(), "tok", GenerationRequest{InstitutionID: "inst-1"}, scheduling.Result{Sessions: sessionsOf(120)})

	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&batchCalls)) // fails on the first batch, never retries or continues
}
