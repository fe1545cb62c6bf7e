package metrics

import "math"

// GeneMetrics tracks one gene's contribution quality plus the auto-tuning
// statistics derived from its recent signal stream.
type GeneMetrics struct {
	WinRate        float64 `json:"win_rate"`
	ProfitFactor   float64 `json:"profit_factor"`
	Accuracy       float64 `json:"accuracy"`
	SignalStrength float64 `json:"signal_strength"`
	NoiseRatio     float64 `json:"noise_ratio"`

	// Auto-tuning statistics
	Stability   float64 `json:"stability"`
	Sensitivity float64 `json:"sensitivity"`
	Robustness  float64 `json:"robustness"`
}

// GeneFitness collapses the gene metrics into a single comparable score.
// Profit factor is normalized against 3 like the strategy formula so one
// runaway ratio cannot dominate the blend.
func GeneFitness(m GeneMetrics) float64 {
	return 0.25*m.WinRate +
		0.25*clip(m.ProfitFactor/3, 0, 1) +
		0.15*m.Accuracy +
		0.10*(1-m.NoiseRatio) +
		0.10*m.Stability +
		0.15*m.Robustness
}

// AutoTune derives the tuning statistics from a recent signal-value stream:
// stability is the inverse of the signal dispersion, sensitivity the mean
// absolute step-to-step change, robustness the fraction of non-extreme
// readings. Streams shorter than two signals leave the metrics untouched.
func (m *GeneMetrics) AutoTune(signalValues []float64) {
	if len(signalValues) < 2 {
		return
	}

	_, std := meanStd(signalValues)
	m.Stability = clip(1-std, 0, 1)

	var changeSum float64
	for i := 1; i < len(signalValues); i++ {
		changeSum += math.Abs(signalValues[i] - signalValues[i-1])
	}
	m.Sensitivity = changeSum / float64(len(signalValues)-1)

	const extremeThreshold = 0.8
	nonExtreme := 0
	for _, v := range signalValues {
		if math.Abs(v) < extremeThreshold {
			nonExtreme++
		}
	}
	m.Robustness = float64(nonExtreme) / float64(len(signalValues))
}
