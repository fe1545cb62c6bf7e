package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitnessKnownVector(t *testing.T) {
	m := StrategyMetrics{
		SharpeRatio:       1.2,
		SortinoRatio:      1.5,
		ProfitFactor:      2.0,
		WinRate:           0.6,
		MaxDrawdown:       -0.1,
		MarketCorrelation: 0.3,
	}

	// Normalized terms (0.6, 0.75, 0.667, 0.6, 0.5, 1.0) under weights
	// (0.2, 0.2, 0.2, 0.15, 0.15, 0.1)
	expected := 0.2*0.6 + 0.2*0.75 + 0.2*(2.0/3.0) + 0.15*0.6 + 0.15*0.5 + 0.1*1.0
	assert.InDelta(t, expected, Fitness(m), 1e-12)
	assert.InDelta(t, 0.668, Fitness(m), 1e-3)
}

func TestFitnessClampsExtremes(t *testing.T) {
	m := StrategyMetrics{
		SharpeRatio:       10,   // clips to 1
		SortinoRatio:      -3,   // clips to 0
		ProfitFactor:      100,  // clips to 1
		WinRate:           1,
		MaxDrawdown:       -0.9, // clips to 1
		MarketCorrelation: 1,    // clips to 0
	}
	expected := 0.2*1 + 0.2*0 + 0.2*1 + 0.15*1 + 0.15*1 + 0.1*0
	assert.InDelta(t, expected, Fitness(m), 1e-12)
}

func TestFitnessPropagatesNaN(t *testing.T) {
	m := StrategyMetrics{SharpeRatio: math.NaN()}
	assert.True(t, math.IsNaN(Fitness(m)), "a poisoned metric must surface as NaN, not be clamped away")
}

func TestComputeMetricsEmptySeries(t *testing.T) {
	m := ComputeStrategyMetrics(nil, nil)
	assert.Zero(t, m.TotalReturn)
	assert.Zero(t, m.NumTrades)
	assert.False(t, math.IsNaN(m.Fitness))
}

func TestTotalAndAnnualReturn(t *testing.T) {
	// Two steps of +10% compound to 21%
	m := ComputeStrategyMetrics([]float64{0.1, 0.1}, nil)
	assert.InDelta(t, 0.21, m.TotalReturn, 1e-12)

	expectedAnnual := math.Pow(1.21, 252.0/2.0) - 1
	assert.InDelta(t, expectedAnnual, m.AnnualReturn, 1e-9)
}

func TestMaxDrawdownIsNegative(t *testing.T) {
	// Equity path 1.0 -> 1.2 -> 0.9 -> 1.0: worst drawdown is (0.9-1.2)/1.2 = -0.25
	returns := []float64{0.2, -0.25, 1.0/0.9 - 1}
	m := ComputeStrategyMetrics(returns, nil)
	assert.InDelta(t, -0.25, m.MaxDrawdown, 1e-12)
	assert.Negative(t, m.AvgDrawdown)
	assert.GreaterOrEqual(t, m.MaxDrawdown, -1.0)
}

func TestMonotoneGainsHaveNoDrawdown(t *testing.T) {
	m := ComputeStrategyMetrics([]float64{0.01, 0.02, 0.005, 0.03}, nil)
	assert.Zero(t, m.MaxDrawdown)
	assert.Zero(t, m.AvgDrawdown)
	assert.Zero(t, m.SortinoRatio, "no losing step means no downside deviation")
	assert.Equal(t, 1.0, m.WinRate)
	assert.True(t, math.IsInf(m.ProfitFactor, 1))
}

func TestTradeStats(t *testing.T) {
	// Two wins of 0.02, one loss of 0.01, one flat step
	m := ComputeStrategyMetrics([]float64{0.02, -0.01, 0, 0.02}, nil)
	assert.Equal(t, 3, m.NumTrades)
	assert.InDelta(t, 2.0/3.0, m.WinRate, 1e-12)
	assert.InDelta(t, 4.0, m.ProfitFactor, 1e-12)
	assert.InDelta(t, 0.01, m.AvgTrade, 1e-12)
}

func TestMarketCorrelationAndBeta(t *testing.T) {
	market := []float64{0.01, -0.02, 0.015, -0.005, 0.02}

	// A strategy that doubles the market has correlation 1 and beta 2
	leveraged := make([]float64, len(market))
	for i, r := range market {
		leveraged[i] = 2 * r
	}

	m := ComputeStrategyMetrics(leveraged, market)
	assert.InDelta(t, 1.0, m.MarketCorrelation, 1e-12)
	assert.InDelta(t, 2.0, m.Beta, 1e-12)
	assert.InDelta(t, 0.0, m.Alpha, 1e-12)
}

func TestMismatchedMarketSeriesIgnored(t *testing.T) {
	m := ComputeStrategyMetrics([]float64{0.01, 0.02, -0.01}, []float64{0.01})
	assert.Zero(t, m.MarketCorrelation)
	assert.Zero(t, m.Beta)
}

func TestVaR95IsLowTailReturn(t *testing.T) {
	returns := []float64{-0.05, 0.01, 0.02, 0.01, -0.01, 0.03, 0.02, 0.01, -0.02, 0.015}
	m := ComputeStrategyMetrics(returns, nil)
	assert.Negative(t, m.VaR95)
	assert.GreaterOrEqual(t, m.VaR95, -0.05)
}

func TestComputeMetricsIsDeterministic(t *testing.T) {
	returns := []float64{0.02, -0.01, 0.03, -0.02, 0.01}
	market := []float64{0.01, -0.005, 0.02, -0.01, 0.005}

	first := ComputeStrategyMetrics(returns, market)
	second := ComputeStrategyMetrics(returns, market)
	require.Equal(t, first, second)
}

func TestPercentileInterpolation(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, percentile(values, 0), 1e-12)
	assert.InDelta(t, 3.0, percentile(values, 50), 1e-12)
	assert.InDelta(t, 5.0, percentile(values, 100), 1e-12)
	assert.InDelta(t, 1.2, percentile(values, 5), 1e-12)
}
