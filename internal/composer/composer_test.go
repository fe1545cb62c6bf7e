package composer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoquant/dna-engine/internal/gene"
)

func input(value, confidence, weight, threshold float64) Input {
	return Input{
		Signal:    gene.Signal{Value: value, Confidence: confidence, Source: "test"},
		Weight:    weight,
		Threshold: threshold,
	}
}

func mustComposer(t *testing.T, cfg Config) *Composer {
	t.Helper()
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestConfigValidation(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.Policy = "plurality"
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.ConfirmationRequired = true
	bad.MinAgreement = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.SoftmaxWeighting = true
	bad.SoftmaxTemperature = 0
	assert.Error(t, bad.Validate())
}

func TestWeightedAverageKnownValue(t *testing.T) {
	c := mustComposer(t, Config{Policy: PolicyWeightedAverage})

	// (0.8*1.0 + 0.2*1.0 - 0.1*0.5) / 2.5 = 0.38
	s := c.Compose([]Input{
		input(0.8, 0.9, 1.0, 0.6),
		input(0.2, 0.5, 1.0, 0.6),
		input(-0.1, 0.3, 0.5, 0.6),
	})
	assert.InDelta(t, 0.38, s.Value, 1e-12)
	assert.Equal(t, CompositeSource, s.Source)
}

func TestWeightedAverageConfidence(t *testing.T) {
	c := mustComposer(t, Config{Policy: PolicyWeightedAverage})

	s := c.Compose([]Input{
		input(0.5, 1.0, 1.0, 0.6),
		input(0.5, 0.0, 1.0, 0.6),
	})
	assert.InDelta(t, 0.5, s.Confidence, 1e-12)
}

func TestWeightedAverageZeroWeightsNeutral(t *testing.T) {
	c := mustComposer(t, Config{Policy: PolicyWeightedAverage})

	s := c.Compose([]Input{input(0.9, 0.9, 0, 0.6)})
	assert.Equal(t, gene.Neutral(CompositeSource), s)
}

func TestEmptyInputsNeutral(t *testing.T) {
	c := mustComposer(t, DefaultConfig())
	assert.Equal(t, gene.Neutral(CompositeSource), c.Compose(nil))
}

func TestMajorityVoteWinningSide(t *testing.T) {
	c := mustComposer(t, Config{Policy: PolicyMajorityVote})

	s := c.Compose([]Input{
		input(0.8, 0.9, 1.0, 0.6),  // active bull
		input(0.7, 0.8, 1.0, 0.6),  // active bull
		input(-0.9, 0.9, 1.0, 0.6), // active bear, outvoted
	})
	assert.Positive(t, s.Value)
	assert.InDelta(t, 0.75, s.Value, 1e-12, "mean magnitude of the agreeing genes")
}

func TestMajorityVoteIgnoresInactiveGenes(t *testing.T) {
	c := mustComposer(t, Config{Policy: PolicyMajorityVote})

	// The two weak bulls are below their thresholds; the single active bear wins
	s := c.Compose([]Input{
		input(0.2, 0.9, 1.0, 0.6),
		input(0.3, 0.9, 1.0, 0.6),
		input(-0.8, 0.7, 1.0, 0.6),
	})
	assert.Negative(t, s.Value)
	assert.InDelta(t, -0.8, s.Value, 1e-12)
}

func TestMajorityVoteTieNeutral(t *testing.T) {
	c := mustComposer(t, Config{Policy: PolicyMajorityVote})

	s := c.Compose([]Input{
		input(0.8, 0.9, 1.0, 0.6),
		input(-0.8, 0.9, 1.0, 0.6),
	})
	assert.Equal(t, gene.Neutral(CompositeSource), s)
}

func TestUnanimousAgreementEmits(t *testing.T) {
	c := mustComposer(t, Config{Policy: PolicyUnanimous})

	s := c.Compose([]Input{
		input(0.8, 0.9, 1.0, 0.6),
		input(0.7, 0.8, 1.0, 0.6),
	})
	assert.InDelta(t, 0.75, s.Value, 1e-12)
}

func TestUnanimousDisagreementNoTrade(t *testing.T) {
	c := mustComposer(t, Config{Policy: PolicyUnanimous})

	s := c.Compose([]Input{
		input(0.8, 0.9, 1.0, 0.6),
		input(-0.7, 0.8, 1.0, 0.6),
	})
	assert.Equal(t, gene.Neutral(CompositeSource), s)
}

func TestUnanimousHesitationNoTrade(t *testing.T) {
	c := mustComposer(t, Config{Policy: PolicyUnanimous})

	// Same sign, but the second gene is below its own threshold
	s := c.Compose([]Input{
		input(0.8, 0.9, 1.0, 0.6),
		input(0.3, 0.8, 1.0, 0.6),
	})
	assert.Equal(t, gene.Neutral(CompositeSource), s)
}

func TestConfirmationRequiredDegradesToNeutral(t *testing.T) {
	c := mustComposer(t, Config{
		Policy:               PolicyWeightedAverage,
		ConfirmationRequired: true,
		MinAgreement:         2,
	})

	// Only one gene actively agrees with the bullish composite
	s := c.Compose([]Input{
		input(0.9, 0.9, 1.0, 0.6),
		input(0.1, 0.5, 1.0, 0.6),
	})
	assert.Equal(t, gene.Neutral(CompositeSource), s)
}

func TestConfirmationRequiredSatisfied(t *testing.T) {
	c := mustComposer(t, Config{
		Policy:               PolicyWeightedAverage,
		ConfirmationRequired: true,
		MinAgreement:         2,
	})

	s := c.Compose([]Input{
		input(0.9, 0.9, 1.0, 0.6),
		input(0.7, 0.5, 1.0, 0.6),
	})
	assert.Positive(t, s.Value)
}

func TestSoftmaxWeightingFavorsFitterGene(t *testing.T) {
	plain := mustComposer(t, Config{Policy: PolicyWeightedAverage})
	softmax := mustComposer(t, Config{
		Policy:             PolicyWeightedAverage,
		SoftmaxWeighting:   true,
		SoftmaxTemperature: 0.5,
	})

	inputs := []Input{
		input(1.0, 0.9, 2.0, 0.6),  // heavy bull
		input(-1.0, 0.9, 1.0, 0.6), // light bear
	}

	p := plain.Compose(inputs)
	s := softmax.Compose(inputs)
	assert.Greater(t, s.Value, p.Value, "softmax sharpens the weight contrast")
}

func TestComposeIsPure(t *testing.T) {
	c := mustComposer(t, DefaultConfig())
	inputs := []Input{
		input(0.8, 0.9, 1.0, 0.6),
		input(-0.2, 0.4, 1.0, 0.6),
	}

	first := c.Compose(inputs)
	second := c.Compose(inputs)
	assert.Equal(t, first, second)
}
