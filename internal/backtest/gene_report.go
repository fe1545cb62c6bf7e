package backtest

import (
	"math"

	"github.com/evoquant/dna-engine/internal/gene"
	"github.com/evoquant/dna-engine/internal/metrics"
)

// GeneReport scores one gene's standalone contribution to a replay
type GeneReport struct {
	Name    string
	Weight  float64
	Metrics metrics.GeneMetrics
	Fitness float64
}

// GeneReports derives per-gene quality metrics from the recorded signal
// streams: each gene is scored as if it traded alone on its own signals,
// then the auto-tuning statistics are taken from the raw stream. The genes
// must be the same slice, in the same order, that produced the replay.
func (r *Result) GeneReports(genes []gene.Gene) []GeneReport {
	reports := make([]GeneReport, 0, len(genes))
	for i, g := range genes {
		if i >= len(r.GeneSignals) {
			break
		}
		m := soloGeneMetrics(r.GeneSignals[i], r.MarketReturns)
		m.AutoTune(r.GeneSignals[i])
		reports = append(reports, GeneReport{
			Name:    g.Name(),
			Weight:  g.Weight(),
			Metrics: m,
			Fitness: metrics.GeneFitness(m),
		})
	}
	return reports
}

// soloGeneMetrics replays one gene's signal stream against the market
// returns as if it were the whole strategy. Flat signals are skipped for the
// trade statistics, matching the strategy-level convention.
func soloGeneMetrics(signals, marketReturns []float64) metrics.GeneMetrics {
	var m metrics.GeneMetrics

	var wins, trades, correct int
	var grossProfit, grossLoss, strengthSum float64
	for t, marketRet := range marketReturns {
		s := signals[t]
		strengthSum += math.Abs(s)
		if s == 0 {
			continue
		}
		trades++
		ret := s * marketRet
		if ret > 0 {
			wins++
			grossProfit += ret
		} else if ret < 0 {
			grossLoss += -ret
		}
		if (s > 0 && marketRet > 0) || (s < 0 && marketRet < 0) {
			correct++
		}
	}

	if len(marketReturns) > 0 {
		m.SignalStrength = strengthSum / float64(len(marketReturns))
	}
	if trades > 0 {
		m.WinRate = float64(wins) / float64(trades)
		m.Accuracy = float64(correct) / float64(trades)
		switch {
		case grossLoss > 0:
			m.ProfitFactor = grossProfit / grossLoss
		case grossProfit > 0:
			m.ProfitFactor = math.Inf(1)
		}
	}

	m.NoiseRatio = directionFlipRatio(signals)
	return m
}

// directionFlipRatio is the fraction of consecutive non-flat signal pairs
// that flip direction. A gene that whipsaws between long and short every bar
// scores 1; a gene that holds its view scores 0.
func directionFlipRatio(signals []float64) float64 {
	flips, pairs := 0, 0
	prev := 0.0
	for _, s := range signals {
		if s == 0 {
			continue
		}
		if prev != 0 {
			pairs++
			if (s > 0) != (prev > 0) {
				flips++
			}
		}
		prev = s
	}
	if pairs == 0 {
		return 0
	}
	return float64(flips) / float64(pairs)
}
