package validation

import (
	"time"

	"github.com/evoquant/dna-engine/pkg/types"
)

// Minimum fold sizes: a training window this small cannot evolve anything
// meaningful, and a tiny test window makes the degradation estimate noise.
const (
	minFoldData  = 100
	minTrainBars = 50
	minTestBars  = 10
)

// WalkForwardFold is one train/test window pair of a walk-forward pass
type WalkForwardFold struct {
	Train      []types.Bar
	Test       []types.Bar
	TrainStart time.Time
	TrainEnd   time.Time
	TestStart  time.Time
	TestEnd    time.Time
}

// SplitByRatio cuts a bar series into a leading train slice and a trailing
// test slice. A ratio outside (0, 1), or a cut that would leave either side
// empty, returns the whole series as train with no test slice.
func SplitByRatio(data []types.Bar, ratio float64) ([]types.Bar, []types.Bar) {
	if ratio <= 0 || ratio >= 1 {
		return data, nil
	}
	n := int(float64(len(data)) * ratio)
	if n < 1 || n >= len(data) {
		return data, nil
	}
	return data[:n], data[n:]
}

// CreateRollingFolds cuts the series into overlapping train/test windows,
// each rolled forward by rollDays from the previous one. Windows are anchored
// on timestamps rather than bar counts, so gaps and irregular spacing shrink
// a window instead of silently stretching it. Folds stop once a window falls
// under the minimum train or test size.
func CreateRollingFolds(data []types.Bar, trainDays, testDays, rollDays int) []WalkForwardFold {
	if len(data) < minFoldData {
		return nil
	}

	const day = 24 * time.Hour
	var folds []WalkForwardFold

	start := 0
	for {
		anchor := data[start].Timestamp
		trainEnd := scanUntil(data, start, anchor.Add(time.Duration(trainDays)*day))
		testEnd := scanUntil(data, trainEnd, anchor.Add(time.Duration(trainDays+testDays)*day))

		if trainEnd-start < minTrainBars || testEnd-trainEnd < minTestBars {
			break
		}

		folds = append(folds, WalkForwardFold{
			Train:      data[start:trainEnd],
			Test:       data[trainEnd:testEnd],
			TrainStart: anchor,
			TrainEnd:   data[trainEnd-1].Timestamp,
			TestStart:  data[trainEnd].Timestamp,
			TestEnd:    data[testEnd-1].Timestamp,
		})

		next := scanUntil(data, start, anchor.Add(time.Duration(rollDays)*day))
		if next <= start {
			next = start + 1
		}
		if next >= len(data) {
			break
		}
		start = next
	}

	return folds
}

// scanUntil returns the index of the first bar at or after the cutoff,
// scanning forward from from.
func scanUntil(data []types.Bar, from int, cutoff time.Time) int {
	i := from
	for i < len(data) && data[i].Timestamp.Before(cutoff) {
		i++
	}
	return i
}
