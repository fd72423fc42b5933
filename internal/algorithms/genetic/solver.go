// Package genetic implements the GA Solver (spec.md §4.3), a direct port of
// the operators in the original Python implementation's genetic algorithm:
// tournament selection, (batch, subject)-keyed crossover, single-gene
// mutation, conflict repair, and elitism.
package genetic

import (
	"math/rand"
	"sort"
	"time"

	"github.com/noah-isme/scheduler-engine/internal/normalizer"
	"github.com/noah-isme/scheduler-engine/internal/scheduling"
)

// Solver is the GA backend.
type Solver struct{}

// New constructs a GA Solver.
func New() *Solver {
	return &Solver{}
}

type gene struct {
	batchID     string
	subjectID   string
	facultyID   string
	classroomID string
	timeSlotID  string
}

func (g gene) key() string { return g.batchID + "|" + g.subjectID }

type chromosome struct {
	genes   []gene
	fitness float64
}

// Solve runs the genetic algorithm for up to params.Generations iterations
// or until params.TimeLimit elapses, whichever comes first.
func (s *Solver) Solve(in normalizer.Input, params scheduling.Params) (scheduling.Result, error) {
	rng := rand.New(rand.NewSource(seedOrDefault(params.Seed)))

	candidates := scheduling.BuildCandidates(in)
	byPair := groupByPair(candidates)
	pairs := demandPairs(in)

	if len(pairs) == 0 || len(candidates) == 0 {
		return scheduling.Summarise(in, nil), nil
	}

	populationSize := orDefault(params.PopulationSize, 50)
	generations := orDefault(params.Generations, 100)
	tournamentSize := orDefault(params.TournamentSize, 5)
	mutationRate := orDefaultFloat(params.MutationRate, 0.10)
	elitismRate := orDefaultFloat(params.ElitismRate, 0.10)
	timeLimit := params.TimeLimit
	if timeLimit <= 0 {
		timeLimit = 60 * time.Second
	}

	population := initializePopulation(rng, byPair, pairs, populationSize)
	for i := range population {
		population[i].fitness = fitness(in, population[i])
	}
	sortByFitness(population)

	eliteCount := int(float64(populationSize) * elitismRate)
	if eliteCount < 1 {
		eliteCount = 1
	}

	deadline := time.Now().Add(timeLimit)
	best := population[0]

	for gen := 0; gen < generations; gen++ {
		if time.Now().After(deadline) {
			break
		}

		next := make([]chromosome, 0, populationSize)
		next = append(next, population[:eliteCount]...)

		for len(next) < populationSize {
			parentA := tournamentSelect(rng, population, tournamentSize)
			parentB := tournamentSelect(rng, population, tournamentSize)
			child := crossover(rng, parentA, parentB)
			child = mutate(rng, child, byPair, mutationRate)
			child = repair(in, child, byPair)
			child.fitness = fitness(in, child)
			next = append(next, child)
		}

		population = next
		sortByFitness(population)
		if population[0].fitness > best.fitness {
			best = population[0]
		}
	}

	sessions := toSessions(best)
	return scheduling.Summarise(in, sessions), nil
}

func seedOrDefault(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return 1
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func orDefaultFloat(v, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}
	return v
}

func groupByPair(candidates []scheduling.Candidate) map[string][]scheduling.Candidate {
	out := map[string][]scheduling.Candidate{}
	for _, c := range candidates {
		key := c.BatchID + "|" + c.SubjectID
		out[key] = append(out[key], c)
	}
	return out
}

func demandPairs(in normalizer.Input) []string {
	var out []string
	for _, b := range in.Batches {
		for _, subjectID := range in.RequiredSubjects(b.ID) {
			out = append(out, b.ID+"|"+subjectID)
		}
	}
	return out
}

func initializePopulation(rng *rand.Rand, byPair map[string][]scheduling.Candidate, pairs []string, size int) []chromosome {
	population := make([]chromosome, 0, size)
	for i := 0; i < size; i++ {
		genes := make([]gene, 0, len(pairs))
		for _, pairKey := range pairs {
			options := byPair[pairKey]
			if len(options) == 0 {
				continue
			}
			c := options[rng.Intn(len(options))]
			genes = append(genes, candidateToGene(c))
		}
		population = append(population, chromosome{genes: genes})
	}
	return population
}

func candidateToGene(c scheduling.Candidate) gene {
	return gene{
		batchID:     c.BatchID,
		subjectID:   c.SubjectID,
		facultyID:   c.FacultyID,
		classroomID: c.ClassroomID,
		timeSlotID:  c.TimeSlotID,
	}
}

func fitness(in normalizer.Input, c chromosome) float64 {
	sessions := toSessions(c)
	hardViolations := scheduling.CountHardViolations(in, sessions)
	if hardViolations > 0 {
		return -1000 * float64(hardViolations)
	}
	faculty := scheduling.FacultySatisfaction(in, sessions)
	batch := scheduling.BatchSatisfaction(in, sessions)
	room := scheduling.RoomUtilisation(in, sessions)
	return 0.4*faculty + 0.4*batch + 0.2*room
}

func toSessions(c chromosome) []scheduling.Session {
	out := make([]scheduling.Session, len(c.genes))
	for i, g := range c.genes {
		out[i] = scheduling.Session{
			BatchID:     g.batchID,
			SubjectID:   g.subjectID,
			FacultyID:   g.facultyID,
			ClassroomID: g.classroomID,
			TimeSlotID:  g.timeSlotID,
		}
	}
	return out
}

func sortByFitness(population []chromosome) {
	sort.Slice(population, func(i, j int) bool {
		return population[i].fitness > population[j].fitness
	})
}

func tournamentSelect(rng *rand.Rand, population []chromosome, size int) chromosome {
	if size > len(population) {
		size = len(population)
	}
	best := population[rng.Intn(len(population))]
	for i := 1; i < size; i++ {
		candidate := population[rng.Intn(len(population))]
		if candidate.fitness > best.fitness {
			best = candidate
		}
	}
	return best
}

// crossover merges two parents by (batch, subject) key, choosing each gene
// from one parent at random when both define it.
func crossover(rng *rand.Rand, a, b chromosome) chromosome {
	byKeyA := map[string]gene{}
	for _, g := range a.genes {
		byKeyA[g.key()] = g
	}
	byKeyB := map[string]gene{}
	for _, g := range b.genes {
		byKeyB[g.key()] = g
	}

	seen := map[string]bool{}
	var genes []gene
	for _, g := range a.genes {
		if seen[g.key()] {
			continue
		}
		seen[g.key()] = true
		gb, ok := byKeyB[g.key()]
		if ok && rng.Float64() < 0.5 {
			genes = append(genes, gb)
		} else {
			genes = append(genes, g)
		}
	}
	for _, g := range b.genes {
		if !seen[g.key()] {
			seen[g.key()] = true
			genes = append(genes, g)
		}
	}

	return chromosome{genes: genes}
}

// mutate randomises one of time-slot/faculty/classroom for a gene with
// probability mutationRate, picking among the candidates still valid for
// that gene's (batch, subject) pair.
func mutate(rng *rand.Rand, c chromosome, byPair map[string][]scheduling.Candidate, mutationRate float64) chromosome {
	genes := append([]gene(nil), c.genes...)
	for i, g := range genes {
		if rng.Float64() >= mutationRate {
			continue
		}
		options := byPair[g.key()]
		if len(options) == 0 {
			continue
		}
		field := rng.Intn(3) // 0: time slot, 1: faculty, 2: classroom
		var pool []scheduling.Candidate
		for _, opt := range options {
			keep := [3]bool{opt.TimeSlotID == g.timeSlotID, opt.FacultyID == g.facultyID, opt.ClassroomID == g.classroomID}
			keep[field] = true
			if keep[0] && keep[1] && keep[2] {
				pool = append(pool, opt)
			}
		}
		if len(pool) == 0 {
			continue
		}
		replacement := pool[rng.Intn(len(pool))]
		genes[i] = candidateToGene(replacement)
	}
	return chromosome{genes: genes}
}

// repair resolves faculty/classroom/batch time conflicts by reassigning the
// conflicting genes to a non-conflicting candidate when one exists.
func repair(in normalizer.Input, c chromosome, byPair map[string][]scheduling.Candidate) chromosome {
	genes := append([]gene(nil), c.genes...)

	facultySlot := map[string]map[string]int{}
	classroomSlot := map[string]map[string]int{}
	batchSlot := map[string]map[string]int{}
	for _, g := range genes {
		bump(facultySlot, g.facultyID, g.timeSlotID)
		bump(classroomSlot, g.classroomID, g.timeSlotID)
		bump(batchSlot, g.batchID, g.timeSlotID)
	}

	for i, g := range genes {
		conflicted := facultySlot[g.facultyID][g.timeSlotID] > 1 ||
			classroomSlot[g.classroomID][g.timeSlotID] > 1 ||
			batchSlot[g.batchID][g.timeSlotID] > 1
		if !conflicted {
			continue
		}

		options := byPair[g.key()]
		replaced := false
		for _, opt := range options {
			if facultySlot[opt.FacultyID][opt.TimeSlotID] > 0 ||
				classroomSlot[opt.ClassroomID][opt.TimeSlotID] > 0 ||
				batchSlot[opt.BatchID][opt.TimeSlotID] > 0 {
				continue
			}
			unbump(facultySlot, g.facultyID, g.timeSlotID)
			unbump(classroomSlot, g.classroomID, g.timeSlotID)
			unbump(batchSlot, g.batchID, g.timeSlotID)

			genes[i] = candidateToGene(opt)
			bump(facultySlot, opt.FacultyID, opt.TimeSlotID)
			bump(classroomSlot, opt.ClassroomID, opt.TimeSlotID)
			bump(batchSlot, opt.BatchID, opt.TimeSlotID)
			replaced = true
			break
		}
		_ = replaced // leaving unresolved conflicts to the fitness penalty is acceptable; no candidate was free.
	}

	return chromosome{genes: genes}
}

func bump(m map[string]map[string]int, key, slot string) {
	if m[key] == nil {
		m[key] = map[string]int{}
	}
	m[key][slot]++
}

func unbump(m map[string]map[string]int, key, slot string) {
	if m[key] == nil {
		return
	}
	m[key][slot]--
	if m[key][slot] <= 0 {
		delete(m[key], slot)
	}
}
