package gene

import (
	"math"

	"github.com/evoquant/dna-engine/internal/errors"
	"github.com/evoquant/dna-engine/pkg/types"
)

// VolatilityGene generates signals from the price's position inside Bollinger
// bands. %B (the band-relative position in [0, 1] when inside the bands) is
// mapped linearly and monotonically to [-1, 1]: a close at the lower band
// yields +1 (mean-reversion buy), at the upper band -1, at the middle 0.
// Confidence grows with the distance from the band midpoint.
type VolatilityGene struct {
	params    map[string]float64
	weight    float64
	period    int
	stdDev    float64
	threshold float64
}

// VolatilitySpecs declares the volatility gene's parameter bounds
var VolatilitySpecs = []ParamSpec{
	{Name: "period", Min: 5, Max: 100, Default: 20, Integer: true},
	{Name: "std_dev", Min: 0.5, Max: 4, Default: 2},
	{Name: "signal_threshold", Min: 0.05, Max: 1, Default: 0.8},
}

// NewVolatilityGene creates a volatility gene, validating all parameters
func NewVolatilityGene(params map[string]float64, weight float64) (Gene, error) {
	validated, err := validateParams("volatility", VolatilitySpecs, params)
	if err != nil {
		return nil, err
	}
	if err := validateWeight("volatility", weight); err != nil {
		return nil, err
	}
	return &VolatilityGene{
		params:    validated,
		weight:    weight,
		period:    int(validated["period"]),
		stdDev:    validated["std_dev"],
		threshold: validated["signal_threshold"],
	}, nil
}

func (g *VolatilityGene) Name() string               { return "volatility" }
func (g *VolatilityGene) Type() Type                 { return TypeVolatility }
func (g *VolatilityGene) Params() map[string]float64 { return copyParams(g.params) }
func (g *VolatilityGene) Weight() float64            { return g.weight }
func (g *VolatilityGene) SignalThreshold() float64   { return g.threshold }

// RequiredBars returns the rolling window length of the bands
func (g *VolatilityGene) RequiredBars() int { return g.period }

// ComputeSignal computes the band-relative position of the latest close
func (g *VolatilityGene) ComputeSignal(bars []types.Bar) (Signal, error) {
	if len(bars) < g.RequiredBars() {
		return Neutral(g.Name()), errors.NewInsufficientDataError(g.Name(), len(bars), g.RequiredBars())
	}

	window := types.Closes(bars[len(bars)-g.period:])
	mean, std := meanStd(window)
	if std == 0 {
		// Flat window: bands collapse, no position to read
		return Neutral(g.Name()), nil
	}

	upper := mean + std*g.stdDev
	lower := mean - std*g.stdDev
	close := bars[len(bars)-1].Close

	// %B in [0, 1] inside the bands; can exceed on breakouts
	b := (close - lower) / (upper - lower)

	value := clamp(1-2*b, -1, 1)
	confidence := clamp(2*abs(b-0.5), 0, 1)
	return Signal{Value: value, Confidence: confidence, Source: g.Name()}, nil
}

// meanStd computes the mean and population standard deviation of values
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
