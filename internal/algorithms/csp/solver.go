// Package csp implements the CSP Solver (spec.md §4.2): a boolean
// assignment-variable model over (batch, subject, faculty, classroom,
// timeslot) tuples, faculty/classroom/batch exclusivity as hard checks, and
// a weighted soft objective used to choose among feasible completions.
// Coverage is not forced: a (batch, subject) pair with no conflict-free
// option is left unscheduled. spec.md §9 treats the "any CP-SAT-shaped
// backend" contract as the interface, not a specific engine; no CP-SAT/SAT/ILP
// Go binding exists in this project's dependency set, so the search below is
// a hand-rolled exhaustive backtracking solver (no objective-bound pruning)
// over the same variable and constraint shape the original ortools model used.
package csp

import (
	"sort"
	"time"

	"github.com/noah-isme/scheduler-engine/internal/normalizer"
	"github.com/noah-isme/scheduler-engine/internal/scheduling"
)

// Solver is the CSP backend.
type Solver struct{}

// New constructs a CSP Solver.
func New() *Solver {
	return &Solver{}
}

type pairDemand struct {
	batchID   string
	subjectID string
}

// Solve runs backtracking search with a deterministic candidate ordering,
// honouring params.TimeLimit as a wall-clock budget (spec.md §4.2 default
// 60s). It returns the best feasible-or-partial solution found when the
// budget expires.
func (s *Solver) Solve(in normalizer.Input, params scheduling.Params) (scheduling.Result, error) {
	deadline := time.Now().Add(effectiveTimeLimit(params.TimeLimit))

	candidates := scheduling.BuildCandidates(in)
	byPair := groupByPair(in, candidates)

	demands := demandOrder(in)

	assigned := make([]scheduling.Session, 0, len(demands))
	facultyBusy := map[string]map[string]bool{}
	classroomBusy := map[string]map[string]bool{}
	batchBusy := map[string]map[string]bool{}

	best := struct {
		sessions []scheduling.Session
		score    float64
	}{}

	var search func(idx int, current []scheduling.Session, score float64) bool
	search = func(idx int, current []scheduling.Session, score float64) bool {
		if time.Now().After(deadline) {
			return false
		}
		if idx == len(demands) {
			if score > best.score || best.sessions == nil {
				best.sessions = append([]scheduling.Session(nil), current...)
				best.score = score
			}
			return true
		}

		d := demands[idx]
		options := byPair[d]
		for _, cand := range options {
			if time.Now().After(deadline) {
				return false
			}
			if facultyBusy[cand.FacultyID][cand.TimeSlotID] ||
				classroomBusy[cand.ClassroomID][cand.TimeSlotID] ||
				batchBusy[cand.BatchID][cand.TimeSlotID] {
				continue
			}

			mark(facultyBusy, cand.FacultyID, cand.TimeSlotID)
			mark(classroomBusy, cand.ClassroomID, cand.TimeSlotID)
			mark(batchBusy, cand.BatchID, cand.TimeSlotID)

			session := scheduling.Session{
				BatchID:     cand.BatchID,
				SubjectID:   cand.SubjectID,
				FacultyID:   cand.FacultyID,
				ClassroomID: cand.ClassroomID,
				TimeSlotID:  cand.TimeSlotID,
			}
			next := append(current, session)
			weight := candidateWeight(in, cand)

			search(idx+1, next, score+weight)

			unmark(facultyBusy, cand.FacultyID, cand.TimeSlotID)
			unmark(classroomBusy, cand.ClassroomID, cand.TimeSlotID)
			unmark(batchBusy, cand.BatchID, cand.TimeSlotID)
		}

		// Leaving this (batch, subject) pair unscheduled is always a legal
		// (if penalised) continuation, so the search never dead-ends.
		search(idx+1, current, score)
		return true
	}

	search(0, assigned, 0)

	if best.sessions == nil {
		best.sessions = []scheduling.Session{}
	}

	return scheduling.Summarise(in, best.sessions), nil
}

func effectiveTimeLimit(d time.Duration) time.Duration {
	if d <= 0 {
		return 60 * time.Second
	}
	return d
}

func groupByPair(in normalizer.Input, candidates []scheduling.Candidate) map[pairDemand][]scheduling.Candidate {
	out := map[pairDemand][]scheduling.Candidate{}
	for _, c := range candidates {
		key := pairDemand{batchID: c.BatchID, subjectID: c.SubjectID}
		out[key] = append(out[key], c)
	}
	for key := range out {
		opts := out[key]
		sort.Slice(opts, func(i, j int) bool {
			wi, wj := candidateWeight(in, opts[i]), candidateWeight(in, opts[j])
			if wi != wj {
				return wi > wj
			}
			if opts[i].TimeSlotID != opts[j].TimeSlotID {
				return opts[i].TimeSlotID < opts[j].TimeSlotID
			}
			if opts[i].FacultyID != opts[j].FacultyID {
				return opts[i].FacultyID < opts[j].FacultyID
			}
			return opts[i].ClassroomID < opts[j].ClassroomID
		})
		out[key] = opts
	}
	return out
}

func demandOrder(in normalizer.Input) []pairDemand {
	var out []pairDemand
	for _, b := range in.Batches {
		for _, subjectID := range in.RequiredSubjects(b.ID) {
			out = append(out, pairDemand{batchID: b.ID, subjectID: subjectID})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].batchID != out[j].batchID {
			return out[i].batchID < out[j].batchID
		}
		return out[i].subjectID < out[j].subjectID
	})
	return out
}

func candidateWeight(in normalizer.Input, c scheduling.Candidate) float64 {
	prefs := in.Preferences[c.FacultyID]
	expertise := prefs.SubjectExpertise[c.SubjectID]
	batchPref := prefs.BatchPreference[c.BatchID]
	classroomPref := prefs.ClassroomPreference[c.ClassroomID]
	return float64(expertise) + float64(batchPref) + float64(classroomPref)
}

func mark(m map[string]map[string]bool, key, slot string) {
	if m[key] == nil {
		m[key] = map[string]bool{}
	}
	m[key][slot] = true
}

func unmark(m map[string]map[string]bool, key, slot string) {
	if m[key] != nil {
		delete(m[key], slot)
	}
}
