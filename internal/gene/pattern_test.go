package gene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoquant/dna-engine/internal/pattern"
)

// repeatedMotifBars tiles a fixed 10-bar motif so every window length 10 at a
// given phase recurs identically, guaranteeing promoted catalogue patterns.
func repeatedMotifBars(repeats int) []float64 {
	motif := []float64{101, 105, 102, 108, 103, 109, 104, 107, 100, 106}
	closes := make([]float64, 0, len(motif)*repeats)
	for i := 0; i < repeats; i++ {
		closes = append(closes, motif...)
	}
	return closes
}

func trainedRecognizer(t *testing.T) *pattern.Recognizer {
	t.Helper()

	cfg := pattern.DefaultConfig()
	cfg.MinLength = 10
	cfg.MaxLength = 10
	cfg.SimilarityThreshold = 0.95
	cfg.MaxPatterns = 200

	rec, err := pattern.NewRecognizer(cfg)
	require.NoError(t, err)

	rec.Observe(barsFromCloses(repeatedMotifBars(6)))
	require.NotEmpty(t, rec.Catalogue(), "identical recurring windows must promote")
	return rec
}

func TestPatternGeneRequiresRecognizer(t *testing.T) {
	_, err := NewPatternGene(nil, nil, 1.0)
	assert.Error(t, err)
}

func TestPatternGeneMatchesRecurringShape(t *testing.T) {
	rec := trainedRecognizer(t)

	g, err := NewPatternGene(rec, map[string]float64{"window_length": 10}, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 10, g.RequiredBars())

	// The trailing window is an exact recurrence of a catalogued shape whose
	// forward window is identical, so the predictive correlation is 1.
	s, err := g.ComputeSignal(barsFromCloses(repeatedMotifBars(6)))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s.Value, 1e-9)
	assert.InDelta(t, 1.0, s.Confidence, 1e-9)
}

func TestPatternGeneAbstainsWithoutMatch(t *testing.T) {
	rec := trainedRecognizer(t)

	g, err := NewPatternGene(rec, map[string]float64{"window_length": 10}, 1.0)
	require.NoError(t, err)

	// A monotone ramp shares no shape with the catalogued motif
	ramp := []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109}
	s, err := g.ComputeSignal(barsFromCloses(ramp))
	require.NoError(t, err)
	assert.Equal(t, Neutral("pattern"), s)
}

func TestPatternGeneInsufficientData(t *testing.T) {
	rec := trainedRecognizer(t)

	g, err := NewPatternGene(rec, map[string]float64{"window_length": 10}, 1.0)
	require.NoError(t, err)

	_, err = g.ComputeSignal(barsFromCloses([]float64{100, 101, 102}))
	assert.Error(t, err)
}
