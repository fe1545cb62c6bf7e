package types

import "time"

// Bar is a single OHLCV candle. Bar sequences handed to the engine are
// expected to be ordered by strictly increasing timestamp with no duplicates;
// the data provider enforces that invariant.
type Bar struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// TypicalPrice returns (high + low + close) / 3, the price used for
// volume-weighted calculations.
func (b Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// Closes extracts the close prices of a bar window.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Volumes extracts the volumes of a bar window.
func Volumes(bars []Bar) []float64 {
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		volumes[i] = b.Volume
	}
	return volumes
}

// Returns computes simple period-over-period returns of the close series.
// The result has len(bars)-1 entries; an empty or single-bar window yields nil.
func Returns(bars []Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	rets := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev != 0 {
			rets[i-1] = (bars[i].Close - prev) / prev
		}
	}
	return rets
}
