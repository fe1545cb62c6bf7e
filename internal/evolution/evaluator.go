package evolution

import (
	"context"

	"github.com/evoquant/dna-engine/internal/backtest"
	"github.com/evoquant/dna-engine/internal/composer"
	"github.com/evoquant/dna-engine/internal/metrics"
	"github.com/evoquant/dna-engine/pkg/types"
)

// SimulatorEvaluator adapts the replay simulator into the engine's
// evaluation function: the strategy genome is materialized into live genes,
// replayed over the bar series, and scored by the metric snapshot.
func SimulatorEvaluator(sim *backtest.Simulator, comp *composer.Composer, bars []types.Bar) EvalFunc {
	return func(ctx context.Context, s *Strategy) (metrics.StrategyMetrics, error) {
		if err := ctx.Err(); err != nil {
			return metrics.StrategyMetrics{}, err
		}
		genes, err := s.Build()
		if err != nil {
			return metrics.StrategyMetrics{}, err
		}
		result, err := sim.Run(genes, comp, bars)
		if err != nil {
			return metrics.StrategyMetrics{}, err
		}
		return result.Metrics, nil
	}
}
