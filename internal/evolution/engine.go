package evolution

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/evoquant/dna-engine/internal/errors"
	"github.com/evoquant/dna-engine/internal/metrics"
)

// EvalFunc realizes one strategy's historical performance and returns its
// metric snapshot; the snapshot's Fitness field drives selection. A NaN or
// Inf fitness marks the evaluation as divergent.
type EvalFunc func(ctx context.Context, s *Strategy) (metrics.StrategyMetrics, error)

// Observer receives run progress. All methods may be called from the run
// goroutine only.
type Observer interface {
	GenerationCompleted(generation int, best, average, diversity float64)
	DivergenceRecovered(generation int)
}

// StopReason records how a run ended
type StopReason string

const (
	StopCompleted StopReason = "completed"
	StopPlateau   StopReason = "plateau"
	StopCancelled StopReason = "cancelled"
)

// Result is the outcome of one evolution run. BestTrace holds the running
// best fitness after each committed generation and is non-decreasing by
// construction; its length equals Committed.
type Result struct {
	Best      *Strategy
	BestTrace []float64
	Final     []*Strategy
	Committed int
	Stopped   StopReason
}

// Engine runs the generational loop: evaluate, select, recombine, mutate,
// guard diversity. Generations are strictly sequential; cancellation is
// honored at generation boundaries only, so no partial generation is ever
// committed.
type Engine struct {
	cfg      Config
	evaluate EvalFunc
	rng      *rand.Rand
	observer Observer
}

// Option configures an Engine
type Option func(*Engine)

// WithObserver attaches a progress observer
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// NewEngine validates the config and creates an engine. The RNG is seeded
// from cfg.Seed (or the clock when zero), so a seeded run is reproducible.
func NewEngine(cfg Config, evaluate EvalFunc, opts ...Option) (*Engine, error) {
	if evaluate == nil {
		return nil, errors.NewConfigurationError("evolution", "new", "evaluation function is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e := &Engine{
		cfg:      cfg,
		evaluate: evaluate,
		rng:      rand.New(rand.NewSource(seed)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes the full generational loop from a fresh random population and
// returns the committed result. Cancellation between generations stops the
// run cleanly with the generations committed so far.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	population, err := e.initialPopulation()
	if err != nil {
		return nil, err
	}
	return e.run(ctx, population)
}

func (e *Engine) run(ctx context.Context, population []*Strategy) (*Result, error) {
	result := &Result{Stopped: StopCompleted}
	noImprove := 0

	for gen := 0; gen < e.cfg.Generations; gen++ {
		if ctx.Err() != nil {
			result.Stopped = StopCancelled
			break
		}
		if len(population) == 0 {
			return nil, errors.NewPopulationError("evolution", "empty population before evaluation")
		}

		if err := e.evaluatePopulation(ctx, population, gen); err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			// Evaluation raced with cancellation: drop the partial generation
			result.Stopped = StopCancelled
			break
		}

		sortByFitness(population)

		if result.Best == nil || population[0].Fitness > result.Best.Fitness {
			result.Best = population[0].Clone()
			noImprove = 0
		} else {
			noImprove++
		}
		result.BestTrace = append(result.BestTrace, result.Best.Fitness)
		result.Final = population
		result.Committed++

		if e.observer != nil {
			e.observer.GenerationCompleted(gen, result.Best.Fitness,
				averageFitness(population), diversity(population))
		}

		if e.cfg.PlateauWindow > 0 && noImprove >= e.cfg.PlateauWindow {
			result.Stopped = StopPlateau
			break
		}

		if gen < e.cfg.Generations-1 {
			next, err := e.nextGeneration(population)
			if err != nil {
				return nil, err
			}
			population = next
		}
	}

	if result.Best == nil {
		return nil, errors.NewPopulationError("evolution", "run ended with no evaluated generation")
	}
	return result, nil
}

// Resume runs the loop from a previously persisted population instead of a
// random one. The population must already satisfy the configured size.
func (e *Engine) Resume(ctx context.Context, population []*Strategy) (*Result, error) {
	if len(population) != e.cfg.PopulationSize {
		return nil, errors.NewPopulationError("evolution", "persisted population size does not match configuration")
	}
	for _, s := range population {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return e.run(ctx, population)
}

func (e *Engine) initialPopulation() ([]*Strategy, error) {
	population := make([]*Strategy, e.cfg.PopulationSize)
	for i := range population {
		s, err := randomStrategy(e.cfg.GeneTypes, e.rng)
		if err != nil {
			return nil, err
		}
		population[i] = s
	}
	return population, nil
}

// evaluatePopulation computes fitness for every unevaluated individual on a
// bounded worker pool, then replaces divergent individuals (NaN/Inf fitness,
// evaluation error, or timeout) with fresh random ones.
func (e *Engine) evaluatePopulation(ctx context.Context, population []*Strategy, gen int) error {
	var wg sync.WaitGroup
	workers := make(chan struct{}, e.cfg.MaxWorkers)
	divergent := make([]bool, len(population))

	for i := range population {
		if population[i].Fitness != unevaluated {
			continue // elites keep their fitness
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			workers <- struct{}{}
			defer func() { <-workers }()

			m, err := e.evaluateOne(ctx, population[idx])
			if err != nil || !isFinite(m.Fitness) {
				divergent[idx] = true
				return
			}
			population[idx].Fitness = m.Fitness
			population[idx].Metrics = m
		}(i)
	}
	wg.Wait()

	return e.replaceDivergent(ctx, population, divergent, gen)
}

// evaluateOne runs a single evaluation under the configured timeout. An
// overrun counts as a divergent evaluation.
func (e *Engine) evaluateOne(ctx context.Context, s *Strategy) (metrics.StrategyMetrics, error) {
	if e.cfg.EvalTimeout <= 0 {
		return e.evaluate(ctx, s)
	}

	evalCtx, cancel := context.WithTimeout(ctx, e.cfg.EvalTimeout)
	defer cancel()

	type evalOut struct {
		m   metrics.StrategyMetrics
		err error
	}
	out := make(chan evalOut, 1)
	go func() {
		m, err := e.evaluate(evalCtx, s)
		out <- evalOut{m: m, err: err}
	}()

	select {
	case r := <-out:
		return r.m, r.err
	case <-evalCtx.Done():
		return metrics.StrategyMetrics{}, errors.NewDivergenceError("evolution", math.NaN())
	}
}

// replaceDivergent swaps each divergent individual for a fresh random one and
// evaluates it synchronously. An individual that keeps diverging is given
// zero fitness rather than stalling the generation.
func (e *Engine) replaceDivergent(ctx context.Context, population []*Strategy, divergent []bool, gen int) error {
	const maxRetries = 5

	for i, bad := range divergent {
		if !bad {
			continue
		}
		if e.observer != nil {
			e.observer.DivergenceRecovered(gen)
		}

		recovered := false
		for attempt := 0; attempt < maxRetries && ctx.Err() == nil; attempt++ {
			fresh, err := randomStrategy(e.cfg.GeneTypes, e.rng)
			if err != nil {
				return err
			}
			m, err := e.evaluateOne(ctx, fresh)
			if err != nil || !isFinite(m.Fitness) {
				continue
			}
			fresh.Fitness = m.Fitness
			fresh.Metrics = m
			population[i] = fresh
			recovered = true
			break
		}
		if !recovered {
			fresh, err := randomStrategy(e.cfg.GeneTypes, e.rng)
			if err != nil {
				return err
			}
			fresh.Fitness = 0
			population[i] = fresh
		}
	}
	return nil
}

// nextGeneration builds the successor population: elites survive unchanged,
// the rest comes from tournament parents via crossover and mutation, and the
// diversity guard refreshes the tail if the gene pool collapses.
func (e *Engine) nextGeneration(population []*Strategy) ([]*Strategy, error) {
	if len(population) == 0 {
		return nil, errors.NewPopulationError("evolution", "empty population before selection")
	}

	next := make([]*Strategy, len(population))
	elite := e.cfg.EliteCount()
	for i := 0; i < elite; i++ {
		next[i] = population[i].Clone()
	}

	for i := elite; i < len(population); i++ {
		parent1 := tournamentSelect(population, e.cfg.TournamentSize, e.rng)
		parent2 := tournamentSelect(population, e.cfg.TournamentSize, e.rng)

		child := crossover(parent1, parent2, e.cfg.CrossoverRate, e.rng)
		mutate(child, e.cfg.MutationRate, e.cfg.MutationScale, e.rng)
		next[i] = child
	}

	return e.guardDiversity(next)
}

// guardDiversity injects fresh random genomes over the least-fit tail until
// the unique-genome fraction climbs back above the low diversity bound.
func (e *Engine) guardDiversity(population []*Strategy) ([]*Strategy, error) {
	elite := e.cfg.EliteCount()
	for i := len(population) - 1; i >= elite; i-- {
		if diversity(population) >= MinDiversity {
			break
		}
		fresh, err := randomStrategy(e.cfg.GeneTypes, e.rng)
		if err != nil {
			return nil, err
		}
		population[i] = fresh
	}
	return population, nil
}

func sortByFitness(population []*Strategy) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].Fitness > population[j].Fitness
	})
}

func averageFitness(population []*Strategy) float64 {
	if len(population) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range population {
		sum += s.Fitness
	}
	return sum / float64(len(population))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
