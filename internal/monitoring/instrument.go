package monitoring

import (
	"context"
	"time"

	"github.com/evoquant/dna-engine/internal/evolution"
	"github.com/evoquant/dna-engine/internal/metrics"
)

// InstrumentEvaluator wraps an evaluation function so every call feeds the
// latency tracker and every failed call counts toward the error metric. The
// tracker is the same one the health checker scores, so slow evaluations
// show up on /health.
func InstrumentEvaluator(inner evolution.EvalFunc, latency *metrics.LatencyTracker) evolution.EvalFunc {
	return func(ctx context.Context, s *evolution.Strategy) (metrics.StrategyMetrics, error) {
		started := time.Now()
		m, err := inner(ctx, s)
		latency.Record("evaluation", time.Since(started))
		if err != nil {
			RecordError("evaluation")
		}
		return m, err
	}
}
