package evolution

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoquant/dna-engine/internal/backtest"
	"github.com/evoquant/dna-engine/internal/composer"
	"github.com/evoquant/dna-engine/internal/gene"
	"github.com/evoquant/dna-engine/pkg/types"
)

func syntheticBars(n int, seed int64) []types.Bar {
	rng := rand.New(rand.NewSource(seed))
	bars := make([]types.Bar, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := range bars {
		price *= 1 + (rng.Float64()-0.48)*0.03
		bars[i] = types.Bar{
			Open:      price * 0.999,
			High:      price * 1.004,
			Low:       price * 0.996,
			Close:     price,
			Volume:    500 + rng.Float64()*2000,
			Timestamp: start.Add(time.Duration(i) * time.Hour),
		}
	}
	return bars
}

func TestEvolutionOverSimulatedMarket(t *testing.T) {
	gene.RegisterDefaults(nil)

	comp, err := composer.New(composer.DefaultConfig())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.PopulationSize = 8
	cfg.Generations = 3
	cfg.MaxWorkers = 4
	cfg.Seed = 7

	eval := SimulatorEvaluator(backtest.NewSimulator(), comp, syntheticBars(160, 7))
	eng, err := NewEngine(cfg, eval)
	require.NoError(t, err)

	result, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Committed)
	require.NotNil(t, result.Best)
	assert.False(t, math.IsNaN(result.Best.Fitness))
	assert.GreaterOrEqual(t, result.Best.Fitness, 0.0)
	assert.LessOrEqual(t, result.Best.Fitness, 1.0)

	// The winning genome carries a full metric snapshot for reporting
	assert.Equal(t, result.Best.Fitness, result.Best.Metrics.Fitness)
}

func TestSimulatorEvaluatorHonorsCancellation(t *testing.T) {
	gene.RegisterDefaults(nil)

	comp, err := composer.New(composer.DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eval := SimulatorEvaluator(backtest.NewSimulator(), comp, syntheticBars(50, 1))
	rng := rand.New(rand.NewSource(1))
	s, err := randomStrategy(DefaultConfig().GeneTypes, rng)
	require.NoError(t, err)

	_, err = eval(ctx, s)
	assert.Error(t, err)
}
