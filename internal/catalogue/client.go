// Package catalogue is the HTTP client for the external catalogue store
// (spec.md §6.2). The engine never owns catalogue data; it only reads
// faculty/batch/subject/classroom/time-slot/constraint lists and writes
// schedule generations and sessions back through this client.
package catalogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/scheduler-engine/internal/models"
	appErrors "github.com/noah-isme/scheduler-engine/pkg/errors"
	"github.com/noah-isme/scheduler-engine/pkg/config"
)

// Client talks to the catalogue store on behalf of the engine.
type Client struct {
	baseURL    string
	httpClient *http.Client
	redis      *redis.Client
	cacheTTL   time.Duration
}

// NewClient builds a catalogue client. redisClient may be nil, in which case
// list responses are never cached.
func NewClient(cfg config.CatalogueConfig, redisClient *redis.Client) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		redis:    redisClient,
		cacheTTL: cfg.CacheTTL,
	}
}

// rawFaculty etc. mirror the catalogue store's wire shapes before projection
// into internal/models types.
type rawFaculty struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type rawBatch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int    `json:"size"`
}

type rawSubject struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RoomTypeID string `json:"room_type_id"`
}

type rawClassroom struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Capacity   int    `json:"capacity"`
	RoomTypeID string `json:"room_type_id"`
}

type rawTimeSlot struct {
	ID        string `json:"id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	SlotType  string `json:"slot_type"`
}

type rawConstraint struct {
	ID     string  `json:"id"`
	Kind   string  `json:"kind"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}

type rawPreferenceEntry struct {
	DayOfWeek int    `json:"day_of_week"`
	SlotType  string `json:"slot_type"`
	Available bool   `json:"available"`

	SubjectID   string `json:"subject_id"`
	BatchID     string `json:"batch_id"`
	ClassroomID string `json:"classroom_id"`

	ExpertiseTag  string `json:"expertise"`
	PreferenceTag string `json:"preference"`

	Kind string `json:"kind"` // "AVAILABILITY" | "EXPERTISE" | "BATCH_PREFERENCE" | "CLASSROOM_PREFERENCE"
}

// ListFaculty fetches the institution's faculty roster.
func (c *Client) ListFaculty(ctx context.Context, token, institutionID string) ([]models.Faculty, error) {
	var raw []rawFaculty
	if err := c.getCached(ctx, token, "/api/v1/faculty?limit=1000", institutionID, "faculty", &raw); err != nil {
		return nil, err
	}
	out := make([]models.Faculty, len(raw))
	for i, r := range raw {
		out[i] = models.Faculty{ID: r.ID, InstitutionID: institutionID, Name: r.Name}
	}
	return out, nil
}

// ListBatches fetches the institution's batches.
func (c *Client) ListBatches(ctx context.Context, token, institutionID string) ([]models.Batch, error) {
	var raw []rawBatch
	if err := c.getCached(ctx, token, "/api/v1/batches?limit=1000", institutionID, "batches", &raw); err != nil {
		return nil, err
	}
	out := make([]models.Batch, len(raw))
	for i, r := range raw {
		out[i] = models.Batch{ID: r.ID, InstitutionID: institutionID, Name: r.Name, Size: r.Size}
	}
	return out, nil
}

// ListSubjects fetches the institution's subjects.
func (c *Client) ListSubjects(ctx context.Context, token, institutionID string) ([]models.Subject, error) {
	var raw []rawSubject
	if err := c.getCached(ctx, token, "/api/v1/subjects?limit=1000", institutionID, "subjects", &raw); err != nil {
		return nil, err
	}
	out := make([]models.Subject, len(raw))
	for i, r := range raw {
		out[i] = models.Subject{ID: r.ID, InstitutionID: institutionID, Name: r.Name, RoomTypeID: r.RoomTypeID}
	}
	return out, nil
}

// ListClassrooms fetches the institution's classrooms.
func (c *Client) ListClassrooms(ctx context.Context, token, institutionID string) ([]models.Classroom, error) {
	var raw []rawClassroom
	if err := c.getCached(ctx, token, "/api/v1/classrooms?limit=1000", institutionID, "classrooms", &raw); err != nil {
		return nil, err
	}
	out := make([]models.Classroom, len(raw))
	for i, r := range raw {
		out[i] = models.Classroom{ID: r.ID, InstitutionID: institutionID, Name: r.Name, Capacity: r.Capacity, RoomTypeID: r.RoomTypeID}
	}
	return out, nil
}

// ListTimeSlots fetches the institution's schedulable time slots.
func (c *Client) ListTimeSlots(ctx context.Context, token, institutionID string) ([]models.TimeSlot, error) {
	var raw []rawTimeSlot
	if err := c.getCached(ctx, token, "/api/v1/time-slots?limit=1000", institutionID, "time-slots", &raw); err != nil {
		return nil, err
	}
	out := make([]models.TimeSlot, len(raw))
	for i, r := range raw {
		out[i] = models.TimeSlot{ID: r.ID, DayOfWeek: r.DayOfWeek, StartTime: r.StartTime, EndTime: r.EndTime, SlotType: r.SlotType}
	}
	return out, nil
}

// ListConstraints fetches configured hard/soft scheduling constraints.
func (c *Client) ListConstraints(ctx context.Context, token, institutionID string) ([]models.SchedulingConstraint, error) {
	var raw []rawConstraint
	if err := c.getCached(ctx, token, "/api/v1/scheduling-constraints?limit=1000", institutionID, "scheduling-constraints", &raw); err != nil {
		return nil, err
	}
	out := make([]models.SchedulingConstraint, len(raw))
	for i, r := range raw {
		out[i] = models.SchedulingConstraint{ID: r.ID, Kind: models.ConstraintKind(r.Kind), Type: r.Type, Weight: r.Weight}
	}
	return out, nil
}

// BatchSubjects fetches the required (batch_id -> subject_ids) association,
// best-effort: a failure here is not fatal, it degrades to an empty map and
// the normaliser treats every subject as potentially required.
func (c *Client) BatchSubjects(ctx context.Context, token, institutionID string) (map[string]map[string]bool, error) {
	type pair struct {
		BatchID   string `json:"batch_id"`
		SubjectID string `json:"subject_id"`
	}
	var raw []pair
	if err := c.getCached(ctx, token, "/api/v1/batch-subjects?limit=5000", institutionID, "batch-subjects", &raw); err != nil {
		return map[string]map[string]bool{}, nil
	}
	out := make(map[string]map[string]bool, len(raw))
	for _, p := range raw {
		if out[p.BatchID] == nil {
			out[p.BatchID] = map[string]bool{}
		}
		out[p.BatchID][p.SubjectID] = true
	}
	return out, nil
}

// FacultyPreferences fetches one faculty member's raw preference records and
// projects them into the engine's FacultyPreferences shape. Unknown
// preference/expertise tags are rejected with ErrInput, per spec.md §9's
// dynamic-enum handling.
func (c *Client) FacultyPreferences(ctx context.Context, token, facultyID string) (models.FacultyPreferences, error) {
	path := fmt.Sprintf("/api/v1/faculty-preferences/%s/all-preferences", facultyID)

	var raw []rawPreferenceEntry
	if err := c.get(ctx, token, path, &raw); err != nil {
		return models.FacultyPreferences{}, err
	}

	prefs := models.NewFacultyPreferences(facultyID)
	for _, r := range raw {
		switch r.Kind {
		case "AVAILABILITY":
			if prefs.Availability[r.DayOfWeek] == nil {
				prefs.Availability[r.DayOfWeek] = map[string]bool{}
			}
			prefs.Availability[r.DayOfWeek][r.SlotType] = r.Available
		case "EXPERTISE":
			if r.ExpertiseTag != "" && !models.KnownExpertiseTags[r.ExpertiseTag] {
				return models.FacultyPreferences{}, appErrors.Clone(appErrors.ErrInput, "unknown expertise tag: "+r.ExpertiseTag)
			}
			prefs.SubjectExpertise[r.SubjectID] = models.ParseExpertise(r.ExpertiseTag)
		case "BATCH_PREFERENCE":
			if r.PreferenceTag != "" && !models.KnownPreferenceTags[r.PreferenceTag] {
				return models.FacultyPreferences{}, appErrors.Clone(appErrors.ErrInput, "unknown preference tag: "+r.PreferenceTag)
			}
			prefs.BatchPreference[r.BatchID] = models.ParsePreference(r.PreferenceTag)
		case "CLASSROOM_PREFERENCE":
			if r.PreferenceTag != "" && !models.KnownPreferenceTags[r.PreferenceTag] {
				return models.FacultyPreferences{}, appErrors.Clone(appErrors.ErrInput, "unknown preference tag: "+r.PreferenceTag)
			}
			prefs.ClassroomPreference[r.ClassroomID] = models.ParsePreference(r.PreferenceTag)
		}
	}
	return prefs, nil
}

type createGenerationRequest struct {
	ID            string  `json:"id"`
	InstitutionID string  `json:"institution_id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Status        string  `json:"status"`
	AlgorithmType string  `json:"algorithm_type"`
	AcademicTerm  string  `json:"academic_term"`
}

// CreateGeneration posts the schedule-generation header. The engine assumes
// this write either succeeds or the job fails outright — no local retry of
// a partial write, per spec.md §4.6.
func (c *Client) CreateGeneration(ctx context.Context, token string, gen models.ScheduleGeneration) error {
	body := createGenerationRequest{
		ID:            gen.ID,
		InstitutionID: gen.InstitutionID,
		Name:          gen.Name,
		Description:   gen.Description,
		Status:        "COMPLETED",
		AlgorithmType: gen.AlgorithmType,
		AcademicTerm:  gen.AcademicTerm,
	}
	return c.post(ctx, token, "/api/v1/schedule-generations", body, nil)
}

// CreateSessionsBatch posts one batch (<=50) of scheduled sessions.
func (c *Client) CreateSessionsBatch(ctx context.Context, token string, sessions []models.ScheduledSession) error {
	return c.post(ctx, token, "/api/v1/scheduled-sessions/batch-create", sessions, nil)
}

// ListGenerations proxies a paginated generation list straight through to
// the catalogue store; the engine does not store generations locally.
func (c *Client) ListGenerations(ctx context.Context, token string, skip, limit int) ([]models.ScheduleGeneration, error) {
	path := fmt.Sprintf("/api/v1/schedule-generations?skip=%d&limit=%d", skip, limit)
	var raw []models.ScheduleGeneration
	if err := c.get(ctx, token, path, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// GetGeneration proxies a single generation fetch.
func (c *Client) GetGeneration(ctx context.Context, token, id string) (models.ScheduleGeneration, error) {
	path := fmt.Sprintf("/api/v1/schedule-generations/%s", id)
	var gen models.ScheduleGeneration
	if err := c.get(ctx, token, path, &gen); err != nil {
		return models.ScheduleGeneration{}, err
	}
	return gen, nil
}

// DeleteGeneration proxies a generation delete.
func (c *Client) DeleteGeneration(ctx context.Context, token, id string) error {
	path := fmt.Sprintf("/api/v1/schedule-generations/%s", id)
	return c.delete(ctx, token, path)
}

func (c *Client) get(ctx context.Context, token, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCatalogue.Code, appErrors.ErrCatalogue.Status, "building catalogue request")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCatalogue.Code, appErrors.ErrCatalogue.Status, "calling catalogue store")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return appErrors.Clone(appErrors.ErrCatalogue, fmt.Sprintf("catalogue store returned %d for %s", resp.StatusCode, path))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCatalogue.Code, appErrors.ErrCatalogue.Status, "decoding catalogue response")
	}
	return nil
}

// getCached wraps get with a Redis-backed cache keyed by institution and
// resource. Caching is best-effort: any Redis failure falls back to a live
// fetch rather than failing the job.
func (c *Client) getCached(ctx context.Context, token, path, institutionID, resource string, out interface{}) error {
	if c.redis == nil {
		return c.get(ctx, token, path, out)
	}

	key := fmt.Sprintf("catalogue:%s:%s", institutionID, resource)
	if cached, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		if jsonErr := json.Unmarshal(cached, out); jsonErr == nil {
			return nil
		}
	}

	if err := c.get(ctx, token, path, out); err != nil {
		return err
	}

	if encoded, err := json.Marshal(out); err == nil {
		_ = c.redis.Set(ctx, key, encoded, c.cacheTTL).Err()
	}
	return nil
}

func (c *Client) post(ctx context.Context, token, path string, body, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCatalogue.Code, appErrors.ErrCatalogue.Status, "encoding catalogue request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCatalogue.Code, appErrors.ErrCatalogue.Status, "building catalogue request")
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCatalogue.Code, appErrors.ErrCatalogue.Status, "calling catalogue store")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return appErrors.Clone(appErrors.ErrCatalogue, fmt.Sprintf("catalogue store returned %d for %s", resp.StatusCode, path))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) delete(ctx context.Context, token, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCatalogue.Code, appErrors.ErrCatalogue.Status, "building catalogue request")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCatalogue.Code, appErrors.ErrCatalogue.Status, "calling catalogue store")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return appErrors.Clone(appErrors.ErrCatalogue, fmt.Sprintf("catalogue store returned %d for %s", resp.StatusCode, path))
	}
	if resp.StatusCode == http.StatusNotFound {
		return appErrors.ErrNotFound
	}
	return nil
}
