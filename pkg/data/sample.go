package data

import (
	"math"
	"math/rand"
	"time"

	"github.com/evoquant/dna-engine/pkg/types"
)

// GenerateSampleData produces a synthetic but realistic-looking bar series
// for smoke runs and tests. The same seed always yields the same series.
func GenerateSampleData(n int, seed int64) []types.Bar {
	if n <= 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seed))
	bars := make([]types.Bar, 0, n)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0

	for i := 0; i < n; i++ {
		// Random walk with a mild cyclical drift so trend and momentum
		// signals have something to latch on to.
		drift := 0.0005 * math.Sin(float64(i)/20)
		change := drift + rng.NormFloat64()*0.01
		open := price
		price = price * (1 + change)
		if price < 1 {
			price = 1
		}

		high := math.Max(open, price) * (1 + rng.Float64()*0.005)
		low := math.Min(open, price) * (1 - rng.Float64()*0.005)
		volume := 1000 + rng.Float64()*9000

		bars = append(bars, types.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     price,
			Volume:    volume,
		})
	}

	return bars
}
