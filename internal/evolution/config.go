package evolution

import (
	"time"

	"github.com/evoquant/dna-engine/internal/errors"
	"github.com/evoquant/dna-engine/internal/gene"
)

// Defaults tuned for intraday bar series
const (
	DefaultPopulationSize = 24
	DefaultGenerations    = 15
	DefaultMutationRate   = 0.2
	DefaultCrossoverRate  = 0.85
	DefaultSurvivalRate   = 0.2
	DefaultTournamentSize = 2
	DefaultMaxWorkers     = 6
	DefaultMutationScale  = 0.1

	// Survival rate is clamped into this documented band rather than
	// rejected, so sweeping external configs cannot collapse or freeze the
	// gene pool.
	MinSurvivalRate = 0.2
	MaxSurvivalRate = 0.4

	// Diversity band for the post-mutation guard
	MinDiversity = 0.4
	MaxDiversity = 0.7
)

// Config holds all evolution-run settings
type Config struct {
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	MutationRate   float64 `json:"mutation_rate"`
	CrossoverRate  float64 `json:"crossover_rate"`
	SurvivalRate   float64 `json:"survival_rate"`
	TournamentSize int     `json:"tournament_size"`
	MaxWorkers     int     `json:"max_workers"`

	// MutationScale is the gaussian perturbation magnitude as a fraction of
	// each parameter's bound span.
	MutationScale float64 `json:"mutation_scale"`

	// PlateauWindow enables early stop after this many generations without
	// best-fitness improvement; zero disables it.
	PlateauWindow int `json:"plateau_window"`

	// EvalTimeout bounds a single fitness evaluation; an overrun is treated
	// as a divergent (NaN) evaluation. Zero disables the timeout.
	EvalTimeout time.Duration `json:"eval_timeout"`

	// Seed fixes the run's RNG for reproducibility; zero seeds from the clock
	Seed int64 `json:"seed"`

	// GeneTypes lists the gene variants a strategy genome is built from
	GeneTypes []gene.Type `json:"gene_types"`
}

// DefaultConfig returns the evolution defaults over the indicator genes
func DefaultConfig() Config {
	return Config{
		PopulationSize: DefaultPopulationSize,
		Generations:    DefaultGenerations,
		MutationRate:   DefaultMutationRate,
		CrossoverRate:  DefaultCrossoverRate,
		SurvivalRate:   DefaultSurvivalRate,
		TournamentSize: DefaultTournamentSize,
		MaxWorkers:     DefaultMaxWorkers,
		MutationScale:  DefaultMutationScale,
		GeneTypes: []gene.Type{
			gene.TypeMomentum, gene.TypeTrend, gene.TypeVolatility, gene.TypeVolume,
		},
	}
}

// Validate rejects unusable settings and normalizes the survival rate into
// its documented band.
func (c *Config) Validate() error {
	if c.PopulationSize < 2 {
		return errors.NewConfigurationError("evolution", "validate", "population_size must be at least 2")
	}
	if c.Generations < 1 {
		return errors.NewConfigurationError("evolution", "validate", "generations must be positive")
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return errors.NewConfigurationError("evolution", "validate", "mutation_rate must lie in [0, 1]")
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return errors.NewConfigurationError("evolution", "validate", "crossover_rate must lie in [0, 1]")
	}
	if c.TournamentSize < 1 {
		return errors.NewConfigurationError("evolution", "validate", "tournament_size must be positive")
	}
	if c.MaxWorkers < 1 {
		return errors.NewConfigurationError("evolution", "validate", "max_workers must be positive")
	}
	if c.MutationScale <= 0 {
		return errors.NewConfigurationError("evolution", "validate", "mutation_scale must be positive")
	}
	if c.PlateauWindow < 0 {
		return errors.NewConfigurationError("evolution", "validate", "plateau_window must not be negative")
	}
	if len(c.GeneTypes) == 0 {
		return errors.NewConfigurationError("evolution", "validate", "at least one gene type is required")
	}
	for _, t := range c.GeneTypes {
		if _, err := gene.Specs(t); err != nil {
			return err
		}
	}

	if c.SurvivalRate < MinSurvivalRate {
		c.SurvivalRate = MinSurvivalRate
	}
	if c.SurvivalRate > MaxSurvivalRate {
		c.SurvivalRate = MaxSurvivalRate
	}
	return nil
}

// EliteCount is the number of individuals carried over unchanged
func (c Config) EliteCount() int {
	elite := int(float64(c.PopulationSize) * c.SurvivalRate)
	if elite < 1 {
		elite = 1
	}
	if elite >= c.PopulationSize {
		elite = c.PopulationSize - 1
	}
	return elite
}
