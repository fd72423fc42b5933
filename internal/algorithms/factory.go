// Package algorithms is the Algorithm Factory (spec.md §4.4): it dispatches
// a job's requested algorithm type to the matching solver and injects the
// configured default parameters.
package algorithms

import (
	"time"

	"github.com/noah-isme/scheduler-engine/internal/algorithms/csp"
	"github.com/noah-isme/scheduler-engine/internal/algorithms/genetic"
	"github.com/noah-isme/scheduler-engine/internal/dto"
	"github.com/noah-isme/scheduler-engine/internal/scheduling"
	"github.com/noah-isme/scheduler-engine/pkg/config"
	appErrors "github.com/noah-isme/scheduler-engine/pkg/errors"
)

// Factory dispatches a job's requested algorithm type to its solver.
type Factory struct {
	cfg config.SchedulerConfig
}

// NewFactory builds a Factory bound to the scheduler's configured defaults.
func NewFactory(cfg config.SchedulerConfig) *Factory {
	return &Factory{cfg: cfg}
}

// Create returns a Solver and its bound Params for the given algorithm type.
// maxIterations, when non-zero, overrides the default generation count. An
// unrecognised algorithm type is an InputError, not a nil solver.
func (f *Factory) Create(algorithmType dto.AlgorithmType, maxIterations int) (scheduling.Solver, scheduling.Params, error) {
	switch algorithmType {
	case dto.AlgorithmCSP:
		params := scheduling.Params{TimeLimit: f.cfg.CSPTimeLimit}
		return csp.New(), params, nil
	case dto.AlgorithmGenetic:
		generations := f.cfg.GAGenerations
		if maxIterations > 0 {
			generations = maxIterations
		}
		params := scheduling.Params{
			TimeLimit:      f.cfg.GATimeLimit,
			PopulationSize: f.cfg.GAPopulationSize,
			Generations:    generations,
			MutationRate:   f.cfg.GAMutationRate,
			CrossoverRate:  f.cfg.GACrossoverRate,
			ElitismRate:    f.cfg.GAElitismRate,
			TournamentSize: f.cfg.GATournamentSize,
		}
		return genetic.New(), params, nil
	default:
		return nil, scheduling.Params{}, appErrors.Clone(appErrors.ErrInput, "unknown algorithm type: "+string(algorithmType))
	}
}

// DefaultTimeLimit exposes the configured wall-clock ceiling for the given
// algorithm type.
func (f *Factory) DefaultTimeLimit(algorithmType dto.AlgorithmType) time.Duration {
	if algorithmType == dto.AlgorithmGenetic {
		return f.cfg.GATimeLimit
	}
	return f.cfg.CSPTimeLimit
}
