package validation

import (
	"context"
	"fmt"
	"math"

	"github.com/evoquant/dna-engine/internal/evolution"
	"github.com/evoquant/dna-engine/internal/metrics"
	"github.com/evoquant/dna-engine/pkg/types"
)

// Optimizer evolves a strategy on the training slice and returns the best one
type Optimizer func(ctx context.Context, train []types.Bar) (*evolution.Strategy, error)

// Backtester evaluates an evolved strategy on an out-of-sample slice
type Backtester func(strategy *evolution.Strategy, bars []types.Bar) (metrics.StrategyMetrics, error)

// WalkForwardConfig holds the configuration for walk-forward validation
type WalkForwardConfig struct {
	Rolling    bool
	SplitRatio float64
	TrainDays  int
	TestDays   int
	RollDays   int
}

// FoldResult holds the in-sample and out-of-sample results for a single fold
type FoldResult struct {
	Fold         int
	Strategy     *evolution.Strategy
	TrainMetrics metrics.StrategyMetrics
	TestMetrics  metrics.StrategyMetrics
}

// Summary aggregates all fold results into robustness statistics
type Summary struct {
	Results              []FoldResult
	AverageTrainReturn   float64
	AverageTestReturn    float64
	AverageTrainDrawdown float64
	AverageTestDrawdown  float64
	ReturnDegradation    float64
	IsRobust             bool
	OverfittingRisk      string
}

// WalkForwardValidator re-evolves a strategy on each training window and
// scores it on the untouched window that follows, measuring how much the
// evolved edge degrades out of sample.
type WalkForwardValidator struct {
	optimizer  Optimizer
	backtester Backtester
}

// NewWalkForwardValidator creates a validator from the two evaluation hooks
func NewWalkForwardValidator(optimizer Optimizer, backtester Backtester) *WalkForwardValidator {
	return &WalkForwardValidator{
		optimizer:  optimizer,
		backtester: backtester,
	}
}

// Validate runs rolling or holdout validation depending on the config
func (v *WalkForwardValidator) Validate(ctx context.Context, data []types.Bar, cfg WalkForwardConfig) (*Summary, error) {
	if v.optimizer == nil || v.backtester == nil {
		return nil, fmt.Errorf("validator requires both an optimizer and a backtester")
	}

	if cfg.Rolling {
		return v.validateRolling(ctx, data, cfg)
	}
	return v.validateHoldout(ctx, data, cfg)
}

func (v *WalkForwardValidator) validateRolling(ctx context.Context, data []types.Bar, cfg WalkForwardConfig) (*Summary, error) {
	folds := CreateRollingFolds(data, cfg.TrainDays, cfg.TestDays, cfg.RollDays)
	if len(folds) == 0 {
		return nil, fmt.Errorf("not enough data for rolling walk-forward validation")
	}

	var results []FoldResult

	for i, fold := range folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		strategy, err := v.optimizer(ctx, fold.Train)
		if err != nil {
			return nil, fmt.Errorf("optimization failed for fold %d: %w", i+1, err)
		}

		trainMetrics, err := v.backtester(strategy, fold.Train)
		if err != nil {
			return nil, fmt.Errorf("in-sample evaluation failed for fold %d: %w", i+1, err)
		}

		testMetrics, err := v.backtester(strategy, fold.Test)
		if err != nil {
			return nil, fmt.Errorf("out-of-sample evaluation failed for fold %d: %w", i+1, err)
		}

		results = append(results, FoldResult{
			Fold:         i + 1,
			Strategy:     strategy,
			TrainMetrics: trainMetrics,
			TestMetrics:  testMetrics,
		})
	}

	return calculateSummary(results), nil
}

func (v *WalkForwardValidator) validateHoldout(ctx context.Context, data []types.Bar, cfg WalkForwardConfig) (*Summary, error) {
	trainData, testData := SplitByRatio(data, cfg.SplitRatio)
	if len(testData) < 50 {
		return nil, fmt.Errorf("not enough test data for validation")
	}

	strategy, err := v.optimizer(ctx, trainData)
	if err != nil {
		return nil, fmt.Errorf("optimization failed: %w", err)
	}

	trainMetrics, err := v.backtester(strategy, trainData)
	if err != nil {
		return nil, fmt.Errorf("in-sample evaluation failed: %w", err)
	}

	testMetrics, err := v.backtester(strategy, testData)
	if err != nil {
		return nil, fmt.Errorf("out-of-sample evaluation failed: %w", err)
	}

	result := FoldResult{
		Fold:         1,
		Strategy:     strategy,
		TrainMetrics: trainMetrics,
		TestMetrics:  testMetrics,
	}

	return calculateSummary([]FoldResult{result}), nil
}

func calculateSummary(results []FoldResult) *Summary {
	if len(results) == 0 {
		return &Summary{}
	}

	var trainReturns, testReturns []float64
	var trainDrawdowns, testDrawdowns []float64

	for _, r := range results {
		trainReturns = append(trainReturns, r.TrainMetrics.TotalReturn*100)
		testReturns = append(testReturns, r.TestMetrics.TotalReturn*100)
		trainDrawdowns = append(trainDrawdowns, r.TrainMetrics.MaxDrawdown*100)
		testDrawdowns = append(testDrawdowns, r.TestMetrics.MaxDrawdown*100)
	}

	avgTrainReturn := average(trainReturns)
	avgTestReturn := average(testReturns)

	returnDegradation := ((avgTrainReturn - avgTestReturn) / math.Max(0.01, math.Abs(avgTrainReturn))) * 100

	isRobust := returnDegradation <= 30
	var overfittingRisk string
	switch {
	case returnDegradation > 30:
		overfittingRisk = "HIGH"
	case returnDegradation > 15:
		overfittingRisk = "MODERATE"
	default:
		overfittingRisk = "LOW"
	}

	return &Summary{
		Results:              results,
		AverageTrainReturn:   avgTrainReturn,
		AverageTestReturn:    avgTestReturn,
		AverageTrainDrawdown: average(trainDrawdowns),
		AverageTestDrawdown:  average(testDrawdowns),
		ReturnDegradation:    returnDegradation,
		IsRobust:             isRobust,
		OverfittingRisk:      overfittingRisk,
	}
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
