package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoquant/dna-engine/internal/errors"
	"github.com/evoquant/dna-engine/internal/evolution"
	"github.com/evoquant/dna-engine/internal/metrics"
)

func TestRecordGenerationUpdatesMetrics(t *testing.T) {
	RecordGeneration("metrics-test", 0.8, 0.5, 0.9)
	RecordGeneration("metrics-test", 0.9, 0.6, 0.7)

	assert.Equal(t, 2.0, testutil.ToFloat64(generationsTotal.WithLabelValues("metrics-test")))
	assert.Equal(t, 0.9, testutil.ToFloat64(bestFitness.WithLabelValues("metrics-test")))
	assert.Equal(t, 0.6, testutil.ToFloat64(averageFitness.WithLabelValues("metrics-test")))
	assert.Equal(t, 0.7, testutil.ToFloat64(populationDiversity.WithLabelValues("metrics-test")))
}

func TestRecordErrorCountsByCategory(t *testing.T) {
	before := testutil.ToFloat64(errorsTotal.WithLabelValues("data"))

	RecordError("data")
	RecordError("data")

	assert.Equal(t, before+2, testutil.ToFloat64(errorsTotal.WithLabelValues("data")))
}

func TestInstrumentEvaluatorFeedsLatencyTracker(t *testing.T) {
	tracker := metrics.NewLatencyTracker(8)
	inner := func(ctx context.Context, s *evolution.Strategy) (metrics.StrategyMetrics, error) {
		time.Sleep(2 * time.Millisecond)
		return metrics.StrategyMetrics{Fitness: 0.4}, nil
	}

	wrapped := InstrumentEvaluator(inner, tracker)
	m, err := wrapped(context.Background(), &evolution.Strategy{})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, m.Fitness, 1e-12)
	assert.Greater(t, tracker.StageLatency("evaluation"), 0.0)
}

func TestInstrumentEvaluatorCountsFailures(t *testing.T) {
	tracker := metrics.NewLatencyTracker(8)
	inner := func(ctx context.Context, s *evolution.Strategy) (metrics.StrategyMetrics, error) {
		return metrics.StrategyMetrics{}, errors.NewDivergenceError("evolution", 0)
	}

	before := testutil.ToFloat64(errorsTotal.WithLabelValues("evaluation"))
	_, err := InstrumentEvaluator(inner, tracker)(context.Background(), &evolution.Strategy{})

	assert.Error(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(errorsTotal.WithLabelValues("evaluation")))
	assert.Greater(t, tracker.StageLatency("evaluation"), 0.0)
}
