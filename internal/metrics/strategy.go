package metrics

import (
	"math"
	"sort"
)

// TradingDaysPerYear is the annualization factor for daily return series
const TradingDaysPerYear = 252

// StrategyMetrics is the full return/risk/quality snapshot of one strategy's
// realized performance. It is a pure function of the inputs: the same return
// series always produces the same snapshot.
type StrategyMetrics struct {
	// Return metrics
	TotalReturn  float64 `json:"total_return"`
	AnnualReturn float64 `json:"annual_return"`
	Volatility   float64 `json:"volatility"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`

	// Risk metrics. Drawdowns are represented as negative fractions.
	MaxDrawdown float64 `json:"max_drawdown"`
	AvgDrawdown float64 `json:"avg_drawdown"`
	VaR95       float64 `json:"var_95"`

	// Trade metrics, over the non-flat steps of the series
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	AvgTrade     float64 `json:"avg_trade"`
	NumTrades    int     `json:"num_trades"`

	// Quality metrics
	MarketCorrelation float64 `json:"market_correlation"`
	Alpha             float64 `json:"alpha"`
	Beta              float64 `json:"beta"`
	Fitness           float64 `json:"strategy_fitness"`
}

// ComputeStrategyMetrics derives the full snapshot from a realized per-step
// return series and the matching market return series (nil when no benchmark
// is available).
func ComputeStrategyMetrics(returns, marketReturns []float64) StrategyMetrics {
	var m StrategyMetrics
	if len(returns) == 0 {
		m.Fitness = Fitness(m)
		return m
	}

	equity := equityCurve(returns)

	m.TotalReturn = equity[len(equity)-1] - 1
	m.AnnualReturn = math.Pow(1+m.TotalReturn, TradingDaysPerYear/float64(len(returns))) - 1

	meanRet, stdRet := meanStd(returns)
	m.Volatility = stdRet * math.Sqrt(TradingDaysPerYear)
	if stdRet > 0 {
		m.SharpeRatio = meanRet / stdRet * math.Sqrt(TradingDaysPerYear)
	}
	if dd := downsideDeviation(returns); dd > 0 {
		m.SortinoRatio = meanRet / dd * math.Sqrt(TradingDaysPerYear)
	}

	m.MaxDrawdown, m.AvgDrawdown = drawdownStats(equity)
	m.VaR95 = percentile(returns, 5)

	m.WinRate, m.ProfitFactor, m.AvgTrade, m.NumTrades = tradeStats(returns)

	if len(marketReturns) == len(returns) && len(returns) > 1 {
		m.MarketCorrelation = correlation(returns, marketReturns)
		meanMkt, stdMkt := meanStd(marketReturns)
		if stdMkt > 0 {
			m.Beta = covariance(returns, marketReturns) / (stdMkt * stdMkt)
			m.Alpha = meanRet - m.Beta*meanMkt
		}
	}

	m.Fitness = Fitness(m)
	return m
}

// Fitness collapses a metric snapshot into the [0, 1] strategy fitness used
// for selection. The weights and normalizations are contractual; changing
// them invalidates every persisted fitness value.
func Fitness(m StrategyMetrics) float64 {
	return 0.2*clip(m.SharpeRatio/2, 0, 1) +
		0.2*clip(m.SortinoRatio/2, 0, 1) +
		0.2*clip(m.ProfitFactor/3, 0, 1) +
		0.15*m.WinRate +
		0.15*clip(-m.MaxDrawdown/0.2, 0, 1) +
		0.1*clip((1-math.Abs(m.MarketCorrelation))/0.5, 0, 1)
}

// equityCurve compounds the return series from an initial equity of 1
func equityCurve(returns []float64) []float64 {
	equity := make([]float64, len(returns)+1)
	equity[0] = 1
	for i, r := range returns {
		equity[i+1] = equity[i] * (1 + r)
	}
	return equity
}

// drawdownStats computes the running-peak max and average drawdown, both
// negative (or zero when the curve never leaves its peak).
func drawdownStats(equity []float64) (maxDD, avgDD float64) {
	peak := equity[0]
	var underwaterSum float64
	underwaterCount := 0
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak == 0 {
			continue
		}
		dd := (e - peak) / peak
		if dd < maxDD {
			maxDD = dd
		}
		if dd < 0 {
			underwaterSum += dd
			underwaterCount++
		}
	}
	if underwaterCount > 0 {
		avgDD = underwaterSum / float64(underwaterCount)
	}
	return maxDD, avgDD
}

// tradeStats treats each non-flat step as one trade outcome
func tradeStats(returns []float64) (winRate, profitFactor, avgTrade float64, numTrades int) {
	var wins int
	var totalProfit, totalLoss, sum float64
	for _, r := range returns {
		if r == 0 {
			continue
		}
		numTrades++
		sum += r
		if r > 0 {
			wins++
			totalProfit += r
		} else {
			totalLoss += -r
		}
	}
	if numTrades == 0 {
		return 0, 0, 0, 0
	}
	winRate = float64(wins) / float64(numTrades)
	avgTrade = sum / float64(numTrades)
	switch {
	case totalLoss > 0:
		profitFactor = totalProfit / totalLoss
	case totalProfit > 0:
		profitFactor = math.Inf(1)
	}
	return winRate, profitFactor, avgTrade, numTrades
}

// downsideDeviation is the population standard deviation of the negative
// returns only, zero when the series never loses.
func downsideDeviation(returns []float64) float64 {
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return 0
	}
	_, std := meanStd(downside)
	return std
}

// percentile returns the p-th percentile with linear interpolation
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// meanStd computes the mean and population standard deviation
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

// covariance computes the population covariance of two equal-length series
func covariance(a, b []float64) float64 {
	meanA, _ := meanStd(a)
	meanB, _ := meanStd(b)
	var cov float64
	for i := range a {
		cov += (a[i] - meanA) * (b[i] - meanB)
	}
	return cov / float64(len(a))
}

// correlation computes the Pearson correlation, zero for degenerate series
func correlation(a, b []float64) float64 {
	_, stdA := meanStd(a)
	_, stdB := meanStd(b)
	if stdA == 0 || stdB == 0 {
		return 0
	}
	return covariance(a, b) / (stdA * stdB)
}

// clip bounds v to [lo, hi]
func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
