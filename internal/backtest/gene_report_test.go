package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoquant/dna-engine/internal/gene"
	"github.com/evoquant/dna-engine/pkg/types"
)

// flipGene alternates between long and short on every bar
type flipGene struct{}

func (flipGene) Name() string               { return "flip" }
func (flipGene) Type() gene.Type            { return gene.TypeMomentum }
func (flipGene) Params() map[string]float64 { return nil }
func (flipGene) Weight() float64            { return 0.9 }
func (flipGene) SignalThreshold() float64   { return 0.1 }
func (flipGene) RequiredBars() int          { return 1 }
func (flipGene) ComputeSignal(bars []types.Bar) (gene.Signal, error) {
	v := 0.6
	if len(bars)%2 == 0 {
		v = -0.6
	}
	return gene.Signal{Value: v, Confidence: 1, Source: "flip"}, nil
}

func TestGeneReportsSteadyGene(t *testing.T) {
	sim := NewSimulator()
	comp := mustComposer(t)
	genes := []gene.Gene{stubGene{value: 0.5, lookback: 1}}

	res, err := sim.Run(genes, comp, barsFromCloses([]float64{100, 110, 121, 133.1}))
	require.NoError(t, err)

	reports := res.GeneReports(genes)
	require.Len(t, reports, 1)

	rep := reports[0]
	assert.Equal(t, "stub", rep.Name)
	assert.InDelta(t, 1.0, rep.Weight, 1e-12)

	// Every call was right on a rising market with no losing step
	assert.InDelta(t, 1.0, rep.Metrics.WinRate, 1e-12)
	assert.InDelta(t, 1.0, rep.Metrics.Accuracy, 1e-12)
	assert.True(t, math.IsInf(rep.Metrics.ProfitFactor, 1))
	assert.InDelta(t, 0.5, rep.Metrics.SignalStrength, 1e-12)
	assert.Zero(t, rep.Metrics.NoiseRatio)

	// A constant stream is maximally stable, insensitive, and non-extreme
	assert.InDelta(t, 1.0, rep.Metrics.Stability, 1e-12)
	assert.Zero(t, rep.Metrics.Sensitivity)
	assert.InDelta(t, 1.0, rep.Metrics.Robustness, 1e-12)

	assert.InDelta(t, 1.0, rep.Fitness, 1e-12)
}

func TestGeneReportsWhipsawGene(t *testing.T) {
	sim := NewSimulator()
	comp := mustComposer(t)
	genes := []gene.Gene{flipGene{}}

	res, err := sim.Run(genes, comp, barsFromCloses([]float64{100, 110, 121, 133.1}))
	require.NoError(t, err)

	reports := res.GeneReports(genes)
	require.Len(t, reports, 1)

	rep := reports[0]
	assert.InDelta(t, 2.0/3.0, rep.Metrics.WinRate, 1e-12)
	assert.InDelta(t, 2.0/3.0, rep.Metrics.Accuracy, 1e-12)
	assert.InDelta(t, 2.0, rep.Metrics.ProfitFactor, 1e-12)
	assert.InDelta(t, 1.0, rep.Metrics.NoiseRatio, 1e-12, "every consecutive pair flips direction")

	assert.InDelta(t, 0.4, rep.Metrics.Stability, 1e-12)
	assert.InDelta(t, 1.2, rep.Metrics.Sensitivity, 1e-12)
	assert.InDelta(t, 1.0, rep.Metrics.Robustness, 1e-12)

	expected := 0.25*(2.0/3.0) + 0.25*(2.0/3.0) + 0.15*(2.0/3.0) + 0.10*0 + 0.10*0.4 + 0.15*1.0
	assert.InDelta(t, expected, rep.Fitness, 1e-12)
}

func TestGeneReportsAbstainingGene(t *testing.T) {
	sim := NewSimulator()
	comp := mustComposer(t)
	genes := []gene.Gene{stubGene{value: 1, lookback: 100}}

	res, err := sim.Run(genes, comp, barsFromCloses([]float64{100, 110, 121}))
	require.NoError(t, err)

	reports := res.GeneReports(genes)
	require.Len(t, reports, 1)

	// No non-flat signal means no trade statistics at all
	assert.Zero(t, reports[0].Metrics.WinRate)
	assert.Zero(t, reports[0].Metrics.ProfitFactor)
	assert.Zero(t, reports[0].Metrics.SignalStrength)
}

func TestGeneReportsFollowGeneOrder(t *testing.T) {
	sim := NewSimulator()
	comp := mustComposer(t)
	genes := []gene.Gene{stubGene{value: 0.5, lookback: 1}, flipGene{}}

	res, err := sim.Run(genes, comp, barsFromCloses([]float64{100, 101, 102, 103}))
	require.NoError(t, err)

	reports := res.GeneReports(genes)
	require.Len(t, reports, 2)
	assert.Equal(t, "stub", reports[0].Name)
	assert.Equal(t, "flip", reports[1].Name)
	assert.InDelta(t, 0.9, reports[1].Weight, 1e-12)
}

func TestGeneReportsTruncateToRecordedStreams(t *testing.T) {
	res := &Result{
		GeneSignals:   [][]float64{{0.5, 0.5}},
		MarketReturns: []float64{0.1},
	}
	genes := []gene.Gene{stubGene{value: 0.5, lookback: 1}, flipGene{}}

	assert.Len(t, res.GeneReports(genes), 1)
}
