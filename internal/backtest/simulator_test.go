package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoquant/dna-engine/internal/composer"
	"github.com/evoquant/dna-engine/internal/errors"
	"github.com/evoquant/dna-engine/internal/gene"
	"github.com/evoquant/dna-engine/pkg/types"
)

// stubGene emits a fixed signal value once the lookback is satisfied
type stubGene struct {
	value    float64
	lookback int
}

func (s stubGene) Name() string                { return "stub" }
func (s stubGene) Type() gene.Type             { return gene.TypeMomentum }
func (s stubGene) Params() map[string]float64  { return nil }
func (s stubGene) Weight() float64             { return 1.0 }
func (s stubGene) SignalThreshold() float64    { return 0.1 }
func (s stubGene) RequiredBars() int           { return s.lookback }
func (s stubGene) ComputeSignal(bars []types.Bar) (gene.Signal, error) {
	if len(bars) < s.lookback {
		return gene.Neutral(s.Name()), errors.NewInsufficientDataError(s.Name(), len(bars), s.lookback)
	}
	return gene.Signal{Value: s.value, Confidence: 1, Source: s.Name()}, nil
}

func mustComposer(t *testing.T) *composer.Composer {
	t.Helper()
	c, err := composer.New(composer.Config{Policy: composer.PolicyWeightedAverage})
	require.NoError(t, err)
	return c
}

func barsFromCloses(closes []float64) []types.Bar {
	bars := make([]types.Bar, len(closes))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = types.Bar{
			Open: c, High: c, Low: c, Close: c, Volume: 1000,
			Timestamp: start.Add(time.Duration(i) * time.Hour),
		}
	}
	return bars
}

func TestRunRejectsDegenerateInputs(t *testing.T) {
	sim := NewSimulator()
	comp := mustComposer(t)
	g := stubGene{value: 1, lookback: 1}

	_, err := sim.Run([]gene.Gene{g}, comp, barsFromCloses([]float64{100}))
	assert.Error(t, err)

	_, err = sim.Run(nil, comp, barsFromCloses([]float64{100, 101}))
	assert.Error(t, err)

	_, err = sim.Run([]gene.Gene{g}, nil, barsFromCloses([]float64{100, 101}))
	assert.Error(t, err)
}

func TestAlwaysLongCapturesMarketReturn(t *testing.T) {
	sim := NewSimulator()
	comp := mustComposer(t)

	// Signal +1 on every bar: strategy returns equal market returns
	res, err := sim.Run([]gene.Gene{stubGene{value: 1, lookback: 1}}, comp,
		barsFromCloses([]float64{100, 110, 99, 108.9}))
	require.NoError(t, err)

	require.Len(t, res.Returns, 3)
	assert.InDelta(t, 0.10, res.Returns[0], 1e-12)
	assert.InDelta(t, -0.10, res.Returns[1], 1e-12)
	assert.InDelta(t, 0.10, res.Returns[2], 1e-12)
	assert.Equal(t, res.MarketReturns, res.Returns)
}

func TestShortSignalInvertsReturns(t *testing.T) {
	sim := NewSimulator()
	comp := mustComposer(t)

	res, err := sim.Run([]gene.Gene{stubGene{value: -1, lookback: 1}}, comp,
		barsFromCloses([]float64{100, 110}))
	require.NoError(t, err)
	assert.InDelta(t, -0.10, res.Returns[0], 1e-12)
}

func TestNoLookAhead(t *testing.T) {
	sim := NewSimulator()
	comp := mustComposer(t)

	// The gene needs 3 bars; the first two signals must be neutral, so the
	// first two market moves earn nothing.
	res, err := sim.Run([]gene.Gene{stubGene{value: 1, lookback: 3}}, comp,
		barsFromCloses([]float64{100, 110, 121, 133.1}))
	require.NoError(t, err)

	assert.Zero(t, res.Signals[0])
	assert.Zero(t, res.Signals[1])
	assert.Zero(t, res.Returns[0])
	assert.Zero(t, res.Returns[1])
	assert.InDelta(t, 0.10, res.Returns[2], 1e-12)
}

func TestNormalizedReturnIsTanhOfTotal(t *testing.T) {
	sim := NewSimulator()
	comp := mustComposer(t)

	res, err := sim.Run([]gene.Gene{stubGene{value: 1, lookback: 1}}, comp,
		barsFromCloses([]float64{100, 110, 121}))
	require.NoError(t, err)

	assert.InDelta(t, 0.21, res.Metrics.TotalReturn, 1e-12)
	assert.InDelta(t, math.Tanh(0.21), res.NormalizedReturn, 1e-12)
	assert.InDelta(t, 1.0, res.Equity[0], 1e-12)
	assert.InDelta(t, 1.21, res.Equity[len(res.Equity)-1], 1e-12)
}

func TestGeneSignalStreamsRecorded(t *testing.T) {
	sim := NewSimulator()
	comp := mustComposer(t)

	res, err := sim.Run(
		[]gene.Gene{stubGene{value: 0.5, lookback: 1}, stubGene{value: -0.5, lookback: 1}},
		comp, barsFromCloses([]float64{100, 101, 102}))
	require.NoError(t, err)

	require.Len(t, res.GeneSignals, 2)
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, res.GeneSignals[0])
	assert.Equal(t, []float64{-0.5, -0.5, -0.5}, res.GeneSignals[1])
	assert.Equal(t, []float64{0, 0, 0}, res.Signals, "opposing genes cancel")
}

func TestRunIsDeterministic(t *testing.T) {
	sim := NewSimulator()
	comp := mustComposer(t)
	genes := []gene.Gene{stubGene{value: 0.7, lookback: 2}}
	bars := barsFromCloses([]float64{100, 103, 101, 104, 102, 105})

	first, err := sim.Run(genes, comp, bars)
	require.NoError(t, err)
	second, err := sim.Run(genes, comp, bars)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
