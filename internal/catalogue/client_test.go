package catalogue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/scheduler-engine/pkg/errors"
	"github.com/noah-isme/scheduler-engine/pkg/config"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newClient(t *testing.T, mux *http.ServeMux, redisClient *redis.Client) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(config.CatalogueConfig{BaseURL: srv.URL, RequestTimeout: 5 * time.Second, CacheTTL: time.Minute}, redisClient)
}

func TestListFacultyProjectsRawShape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/faculty", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]string{{"id": "fac-1", "name": "Dr. A"}})
	})
	client := newClient(t, mux, nil)

	faculty, err := client.ListFaculty(context.Background(), "tok", "inst-1")
	require.NoError(t, err)
	require.Len(t, faculty, 1)
	assert.Equal(t, "fac-1", faculty[0].ID)
	assert.Equal(t, "inst-1", faculty[0].InstitutionID)
}

func TestListFacultyFallsBackToLiveFetchWhenCacheUnreachable(t *testing.T) {
	// getCached degrades to a live fetch on any Redis error rather than
	// failing the request; pointing at a port nothing listens on exercises
	// that best-effort path without standing up a real Redis server.
	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	t.Cleanup(func() { redisClient.Close() })

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/faculty", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]string{{"id": "fac-1", "name": "Dr. A"}})
	})
	client := newClient(t, mux, redisClient)

	faculty, err := client.ListFaculty(context.Background(), "tok", "inst-1")
	require.NoError(t, err)
	require.Len(t, faculty, 1)
}

func TestFacultyPreferencesRejectsUnknownExpertiseTag(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/faculty-preferences/fac-1/all-preferences", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]interface{}{
			{"kind": "EXPERTISE", "subject_id": "sub-1", "expertise": "GODLIKE"},
		})
	})
	client := newClient(t, mux, nil)

	_, err := client.FacultyPreferences(context.Background(), "tok", "fac-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInput.Code))
}

func TestFacultyPreferencesRejectsUnknownPreferenceTag(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/faculty-preferences/fac-1/all-preferences", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]interface{}{
			{"kind": "BATCH_PREFERENCE", "batch_id": "batch-1", "preference": "MEH"},
		})
	})
	client := newClient(t, mux, nil)

	_, err := client.FacultyPreferences(context.Background(), "tok", "fac-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInput.Code))
}

func TestFacultyPreferencesAcceptsKnownTags(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/faculty-preferences/fac-1/all-preferences", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]interface{}{
			{"kind": "AVAILABILITY", "day_of_week": 1, "slot_type": "LAB", "available": false},
			{"kind": "EXPERTISE", "subject_id": "sub-1", "expertise": "EXPERT"},
		})
	})
	client := newClient(t, mux, nil)

	prefs, err := client.FacultyPreferences(context.Background(), "tok", "fac-1")
	require.NoError(t, err)
	assert.False(t, prefs.Availability[1]["LAB"])
}

func TestDeleteGenerationMapsNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/schedule-generations/gen-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	client := newClient(t, mux, nil)

	err := client.DeleteGeneration(context.Background(), "tok", "gen-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound.Code))
}

func TestDeleteGenerationSucceeds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/schedule-generations/gen-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	client := newClient(t, mux, nil)

	err := client.DeleteGeneration(context.Background(), "tok", "gen-1")
	require.NoError(t, err)
}

func TestListGenerationsProxiesPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/schedule-generations", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("skip"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		writeJSON(w, []map[string]string{})
	})
	client := newClient(t, mux, nil)

	gens, err := client.ListGenerations(context.Background(), "tok", 5, 10)
	require.NoError(t, err)
	assert.Empty(t, gens)
}

func TestGetGenerationSurfacesCatalogueError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/schedule-generations/gen-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	client := newClient(t, mux, nil)

	_, err := client.GetGeneration(context.Background(), "tok", "gen-1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrCatalogue.Code))
}
