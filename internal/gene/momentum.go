package gene

import (
	"github.com/evoquant/dna-engine/internal/errors"
	"github.com/evoquant/dna-engine/pkg/types"
)

// MomentumGene generates signals from an RSI-style oscillator compared against
// overbought/oversold bounds. The oscillator value is mapped to [-1, 1] by the
// normalized distance past the active bound: deeper oversold readings produce
// stronger positive (buy) values, deeper overbought readings stronger negative
// (sell) values. The mapping is monotonic in the oscillator on each side.
type MomentumGene struct {
	params     map[string]float64
	weight     float64
	period     int
	oversold   float64
	overbought float64
	threshold  float64
}

// MomentumSpecs declares the momentum gene's parameter bounds
var MomentumSpecs = []ParamSpec{
	{Name: "period", Min: 2, Max: 50, Default: 14, Integer: true},
	{Name: "oversold", Min: 10, Max: 45, Default: 30},
	{Name: "overbought", Min: 55, Max: 90, Default: 70},
	{Name: "signal_threshold", Min: 0.05, Max: 1, Default: 0.6},
}

// NewMomentumGene creates a momentum gene, validating all parameters against
// their declared bounds.
func NewMomentumGene(params map[string]float64, weight float64) (Gene, error) {
	validated, err := validateParams("momentum", MomentumSpecs, params)
	if err != nil {
		return nil, err
	}
	if err := validateWeight("momentum", weight); err != nil {
		return nil, err
	}
	if validated["oversold"] >= validated["overbought"] {
		return nil, errors.NewInvalidParameterError("momentum", "oversold", validated["oversold"], 0, validated["overbought"])
	}
	return &MomentumGene{
		params:     validated,
		weight:     weight,
		period:     int(validated["period"]),
		oversold:   validated["oversold"],
		overbought: validated["overbought"],
		threshold:  validated["signal_threshold"],
	}, nil
}

func (g *MomentumGene) Name() string              { return "momentum" }
func (g *MomentumGene) Type() Type                { return TypeMomentum }
func (g *MomentumGene) Params() map[string]float64 { return copyParams(g.params) }
func (g *MomentumGene) Weight() float64           { return g.weight }
func (g *MomentumGene) SignalThreshold() float64  { return g.threshold }

// RequiredBars returns the minimum window length: period deltas plus one bar
// of history to detect the oscillator's direction.
func (g *MomentumGene) RequiredBars() int { return g.period + 2 }

// ComputeSignal computes the oscillator over the window and maps it to [-1, 1]
func (g *MomentumGene) ComputeSignal(bars []types.Bar) (Signal, error) {
	if len(bars) < g.RequiredBars() {
		return Neutral(g.Name()), errors.NewInsufficientDataError(g.Name(), len(bars), g.RequiredBars())
	}

	rsi := wilderRSI(types.Closes(bars), g.period)
	current := rsi[len(rsi)-1]
	previous := rsi[len(rsi)-2]

	switch {
	case current < g.oversold && current < previous:
		// Falling into oversold territory: buy conviction grows as the
		// oscillator approaches zero.
		strength := (g.oversold - current) / g.oversold
		return Signal{Value: clamp(strength, 0, 1), Confidence: clamp(strength, 0, 1), Source: g.Name()}, nil
	case current > g.overbought && current > previous:
		strength := (current - g.overbought) / (100 - g.overbought)
		return Signal{Value: -clamp(strength, 0, 1), Confidence: clamp(strength, 0, 1), Source: g.Name()}, nil
	}
	return Neutral(g.Name()), nil
}

// wilderRSI computes the RSI series with Wilder smoothing. The first period
// entries are zero-filled; callers must supply at least period+2 prices.
func wilderRSI(prices []float64, period int) []float64 {
	rsi := make([]float64, len(prices))

	var up, down float64
	for i := 1; i <= period; i++ {
		delta := prices[i] - prices[i-1]
		if delta >= 0 {
			up += delta
		} else {
			down -= delta
		}
	}
	up /= float64(period)
	down /= float64(period)
	rsi[period] = rsiFromAverages(up, down)

	for i := period + 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		upval, downval := 0.0, 0.0
		if delta > 0 {
			upval = delta
		} else {
			downval = -delta
		}
		up = (up*float64(period-1) + upval) / float64(period)
		down = (down*float64(period-1) + downval) / float64(period)
		rsi[i] = rsiFromAverages(up, down)
	}
	return rsi
}

func rsiFromAverages(up, down float64) float64 {
	if down == 0 {
		if up == 0 {
			return 50
		}
		return 100
	}
	rs := up / down
	return 100 - 100/(1+rs)
}
