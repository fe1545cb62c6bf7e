package gene

import (
	"math"

	"github.com/evoquant/dna-engine/internal/errors"
	"github.com/evoquant/dna-engine/pkg/types"
)

// VolumeGene generates signals from the close's deviation from the
// volume-weighted average price, confirmed by a relative volume spike.
// The VWAP deviation is squashed with tanh so the mapping to [-1, 1] is
// monotonic and saturating; confidence is the current volume relative to its
// moving average, scaled by spike_ratio. Without a volume spike the gene still
// reports the deviation direction, just with low confidence, and the
// composer's thresholding decides whether it counts.
type VolumeGene struct {
	params       map[string]float64
	weight       float64
	vwapPeriod   int
	volumeMA     int
	spikeRatio   float64
	deviationGain float64
	threshold    float64
}

// VolumeSpecs declares the volume gene's parameter bounds
var VolumeSpecs = []ParamSpec{
	{Name: "vwap_period", Min: 2, Max: 100, Default: 14, Integer: true},
	{Name: "volume_ma_period", Min: 2, Max: 200, Default: 20, Integer: true},
	{Name: "spike_ratio", Min: 1, Max: 10, Default: 2},
	{Name: "deviation_gain", Min: 1, Max: 200, Default: 50},
	{Name: "signal_threshold", Min: 0.05, Max: 1, Default: 0.6},
}

// NewVolumeGene creates a volume gene, validating all parameters
func NewVolumeGene(params map[string]float64, weight float64) (Gene, error) {
	validated, err := validateParams("volume", VolumeSpecs, params)
	if err != nil {
		return nil, err
	}
	if err := validateWeight("volume", weight); err != nil {
		return nil, err
	}
	return &VolumeGene{
		params:        validated,
		weight:        weight,
		vwapPeriod:    int(validated["vwap_period"]),
		volumeMA:      int(validated["volume_ma_period"]),
		spikeRatio:    validated["spike_ratio"],
		deviationGain: validated["deviation_gain"],
		threshold:     validated["signal_threshold"],
	}, nil
}

func (g *VolumeGene) Name() string               { return "volume" }
func (g *VolumeGene) Type() Type                 { return TypeVolume }
func (g *VolumeGene) Params() map[string]float64 { return copyParams(g.params) }
func (g *VolumeGene) Weight() float64            { return g.weight }
func (g *VolumeGene) SignalThreshold() float64   { return g.threshold }

// RequiredBars returns the longer of the two lookbacks
func (g *VolumeGene) RequiredBars() int {
	if g.vwapPeriod > g.volumeMA {
		return g.vwapPeriod
	}
	return g.volumeMA
}

// ComputeSignal computes the VWAP deviation and relative volume for the
// latest bar.
func (g *VolumeGene) ComputeSignal(bars []types.Bar) (Signal, error) {
	if len(bars) < g.RequiredBars() {
		return Neutral(g.Name()), errors.NewInsufficientDataError(g.Name(), len(bars), g.RequiredBars())
	}

	vwap := g.vwap(bars)
	if vwap == 0 {
		return Neutral(g.Name()), nil
	}

	volumeAvg := mean(types.Volumes(bars[len(bars)-g.volumeMA:]))
	current := bars[len(bars)-1]

	deviation := (current.Close - vwap) / vwap
	value := math.Tanh(deviation * g.deviationGain)

	relVolume := 1.0
	if volumeAvg > 0 {
		relVolume = current.Volume / volumeAvg
	}
	confidence := clamp(relVolume/g.spikeRatio, 0, 1)

	return Signal{Value: value, Confidence: confidence, Source: g.Name()}, nil
}

// vwap computes the volume-weighted average typical price over the vwap window
func (g *VolumeGene) vwap(bars []types.Bar) float64 {
	window := bars[len(bars)-g.vwapPeriod:]
	var priceVolume, volume float64
	for _, b := range window {
		priceVolume += b.TypicalPrice() * b.Volume
		volume += b.Volume
	}
	if volume == 0 {
		return 0
	}
	return priceVolume / volume
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
