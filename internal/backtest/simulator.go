package backtest

import (
	"math"

	"github.com/evoquant/dna-engine/internal/composer"
	"github.com/evoquant/dna-engine/internal/errors"
	"github.com/evoquant/dna-engine/internal/gene"
	"github.com/evoquant/dna-engine/internal/metrics"
	"github.com/evoquant/dna-engine/pkg/types"
)

// Result is one full signal-replay pass: the composite signal stream, the
// realized strategy returns it produced, and the derived metric snapshot.
type Result struct {
	// Signals holds the composite signal value at each bar
	Signals []float64

	// GeneSignals holds each gene's signal-value stream, indexed like the
	// gene slice passed to Run. Feeds per-gene auto-tuning statistics.
	GeneSignals [][]float64

	// Returns are the realized per-step strategy returns: the position held
	// at bar t (the composite signal) applied to the market return of bar
	// t+1. One element shorter than the bar series.
	Returns       []float64
	MarketReturns []float64
	Equity        []float64

	Metrics metrics.StrategyMetrics

	// NormalizedReturn is the raw total return squashed with tanh to [-1, 1]
	NormalizedReturn float64
}

// Simulator replays a gene set over a bar series step by step, with no
// look-ahead: the signal for bar t only sees bars up to and including t.
type Simulator struct{}

// NewSimulator creates a replay simulator
func NewSimulator() *Simulator {
	return &Simulator{}
}

// Run replays the genes over the bar series and derives the metric snapshot.
// Genes that lack lookback early in the series abstain silently; any other
// gene failure aborts the replay.
func (s *Simulator) Run(genes []gene.Gene, comp *composer.Composer, bars []types.Bar) (*Result, error) {
	if len(bars) < 2 {
		return nil, errors.NewDataError("simulator", "run", "need at least two bars to realize a return")
	}
	if len(genes) == 0 {
		return nil, errors.NewConfigurationError("simulator", "run", "no genes to replay")
	}
	if comp == nil {
		return nil, errors.NewConfigurationError("simulator", "run", "composer is required")
	}

	result := &Result{
		Signals:     make([]float64, len(bars)),
		GeneSignals: make([][]float64, len(genes)),
	}
	for i := range genes {
		result.GeneSignals[i] = make([]float64, len(bars))
	}

	inputs := make([]composer.Input, len(genes))
	for t := range bars {
		window := bars[:t+1]
		for i, g := range genes {
			sig, err := g.ComputeSignal(window)
			if err != nil && !errors.IsInsufficientData(err) {
				return nil, err
			}
			inputs[i] = composer.Input{
				Signal:    sig,
				Weight:    g.Weight(),
				Threshold: g.SignalThreshold(),
			}
			result.GeneSignals[i][t] = sig.Value
		}
		result.Signals[t] = comp.Compose(inputs).Value
	}

	result.MarketReturns = types.Returns(bars)
	result.Returns = make([]float64, len(result.MarketReturns))
	for t, marketRet := range result.MarketReturns {
		result.Returns[t] = result.Signals[t] * marketRet
	}

	result.Equity = equityOf(result.Returns)
	result.Metrics = metrics.ComputeStrategyMetrics(result.Returns, result.MarketReturns)
	result.NormalizedReturn = math.Tanh(result.Metrics.TotalReturn)
	return result, nil
}

func equityOf(returns []float64) []float64 {
	equity := make([]float64, len(returns)+1)
	equity[0] = 1
	for i, r := range returns {
		equity[i+1] = equity[i] * (1 + r)
	}
	return equity
}
