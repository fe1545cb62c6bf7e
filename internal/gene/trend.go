package gene

import (
	"github.com/evoquant/dna-engine/internal/errors"
	"github.com/evoquant/dna-engine/pkg/types"
)

// TrendGene generates signals from fast/slow EMA divergence (MACD). The
// histogram (MACD line minus its signal line) is normalized against the MACD
// line magnitude, so the mapped value grows monotonically with the relative
// strength of the divergence and is clamped to [-1, 1]. Crossovers produce
// full-strength signals, continued momentum in the histogram half-strength
// ones, matching the indicator's usual reading.
type TrendGene struct {
	params       map[string]float64
	weight       float64
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
	threshold    float64
}

// TrendSpecs declares the trend gene's parameter bounds. slow_period must
// exceed fast_period; that cross-parameter rule is checked at construction.
var TrendSpecs = []ParamSpec{
	{Name: "fast_period", Min: 2, Max: 50, Default: 12, Integer: true},
	{Name: "slow_period", Min: 5, Max: 100, Default: 26, Integer: true},
	{Name: "signal_period", Min: 2, Max: 50, Default: 9, Integer: true},
	{Name: "signal_threshold", Min: 0.05, Max: 1, Default: 0.6},
}

// NewTrendGene creates a trend gene, validating all parameters
func NewTrendGene(params map[string]float64, weight float64) (Gene, error) {
	validated, err := validateParams("trend", TrendSpecs, params)
	if err != nil {
		return nil, err
	}
	if err := validateWeight("trend", weight); err != nil {
		return nil, err
	}
	if validated["fast_period"] >= validated["slow_period"] {
		return nil, errors.NewInvalidParameterError("trend", "fast_period",
			validated["fast_period"], TrendSpecs[0].Min, validated["slow_period"]-1)
	}
	return &TrendGene{
		params:       validated,
		weight:       weight,
		fastPeriod:   int(validated["fast_period"]),
		slowPeriod:   int(validated["slow_period"]),
		signalPeriod: int(validated["signal_period"]),
		threshold:    validated["signal_threshold"],
	}, nil
}

func (g *TrendGene) Name() string               { return "trend" }
func (g *TrendGene) Type() Type                 { return TypeTrend }
func (g *TrendGene) Params() map[string]float64 { return copyParams(g.params) }
func (g *TrendGene) Weight() float64            { return g.weight }
func (g *TrendGene) SignalThreshold() float64   { return g.threshold }

// RequiredBars returns the lookback needed for a stable histogram comparison
func (g *TrendGene) RequiredBars() int { return g.slowPeriod + g.signalPeriod + 1 }

// ComputeSignal computes MACD over the window and maps the histogram to [-1, 1]
func (g *TrendGene) ComputeSignal(bars []types.Bar) (Signal, error) {
	if len(bars) < g.RequiredBars() {
		return Neutral(g.Name()), errors.NewInsufficientDataError(g.Name(), len(bars), g.RequiredBars())
	}

	closes := types.Closes(bars)
	fast := ema(closes, g.fastPeriod)
	slow := ema(closes, g.slowPeriod)

	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = fast[i] - slow[i]
	}
	signalLine := ema(macd, g.signalPeriod)

	n := len(closes) - 1
	currHist := macd[n] - signalLine[n]
	prevHist := macd[n-1] - signalLine[n-1]

	strength := clamp(currHist/(abs(macd[n])+1e-6), -1, 1)
	confidence := clamp(abs(strength)*1.5, 0, 1)

	switch {
	case currHist > 0 && prevHist < 0:
		return Signal{Value: abs(strength), Confidence: confidence, Source: g.Name()}, nil
	case currHist < 0 && prevHist > 0:
		return Signal{Value: -abs(strength), Confidence: confidence, Source: g.Name()}, nil
	case currHist > 0 && currHist > prevHist:
		return Signal{Value: abs(strength) * 0.5, Confidence: confidence, Source: g.Name()}, nil
	case currHist < 0 && currHist < prevHist:
		return Signal{Value: -abs(strength) * 0.5, Confidence: confidence, Source: g.Name()}, nil
	}
	return Neutral(g.Name()), nil
}

// ema computes an exponential moving average seeded with the simple mean of
// the first period values.
func ema(data []float64, period int) []float64 {
	out := make([]float64, len(data))
	if len(data) < period {
		return out
	}
	alpha := 2.0 / float64(period+1)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	out[period-1] = sum / float64(period)

	for i := period; i < len(data); i++ {
		out[i] = data[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
