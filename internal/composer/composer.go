package composer

import (
	"math"

	"github.com/evoquant/dna-engine/internal/errors"
	"github.com/evoquant/dna-engine/internal/gene"
)

// Policy selects how per-gene signals reduce to one composite
type Policy string

const (
	PolicyWeightedAverage Policy = "weighted_average"
	PolicyMajorityVote    Policy = "majority_vote"
	PolicyUnanimous       Policy = "unanimous"
)

// CompositeSource tags composite signals
const CompositeSource = "composite"

// Input pairs one gene's signal for the current step with the strategy weight
// and activation threshold of the gene that produced it.
type Input struct {
	Signal    gene.Signal
	Weight    float64
	Threshold float64
}

// Config holds the composer's aggregation settings. With SoftmaxWeighting the
// raw weights are passed through a temperature-scaled softmax before
// aggregation, so relative fitness differences between genes translate into
// sharper weight contrasts.
type Config struct {
	Policy               Policy  `json:"policy"`
	ConfirmationRequired bool    `json:"confirmation_required"`
	MinAgreement         int     `json:"min_agreement"`
	SoftmaxWeighting     bool    `json:"softmax_weighting"`
	SoftmaxTemperature   float64 `json:"softmax_temperature"`
}

// DefaultConfig returns the composer defaults
func DefaultConfig() Config {
	return Config{
		Policy:             PolicyWeightedAverage,
		MinAgreement:       2,
		SoftmaxTemperature: 1.0,
	}
}

// Validate rejects inconsistent composer configuration
func (c Config) Validate() error {
	switch c.Policy {
	case PolicyWeightedAverage, PolicyMajorityVote, PolicyUnanimous:
	default:
		return errors.NewConfigurationError("composer", "validate", "unknown aggregation policy")
	}
	if c.ConfirmationRequired && c.MinAgreement < 1 {
		return errors.NewConfigurationError("composer", "validate", "min_agreement must be positive when confirmation is required")
	}
	if c.SoftmaxWeighting && c.SoftmaxTemperature <= 0 {
		return errors.NewConfigurationError("composer", "validate", "softmax temperature must be positive")
	}
	return nil
}

// Composer reduces per-gene signals into one composite signal. It holds no
// mutable state: Compose is a pure function of its inputs.
type Composer struct {
	cfg Config
}

// New creates a composer with the given configuration
func New(cfg Config) (*Composer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Composer{cfg: cfg}, nil
}

// Compose reduces the step's signals under the configured policy. An empty
// input set composes to neutral.
func (c *Composer) Compose(inputs []Input) gene.Signal {
	if len(inputs) == 0 {
		return gene.Neutral(CompositeSource)
	}

	weights := c.effectiveWeights(inputs)

	var composite gene.Signal
	switch c.cfg.Policy {
	case PolicyMajorityVote:
		composite = majorityVote(inputs, weights)
	case PolicyUnanimous:
		composite = unanimous(inputs, weights)
	default:
		composite = weightedAverage(inputs, weights)
	}

	if c.cfg.ConfirmationRequired && composite.Value != 0 {
		if agreeing(inputs, sign(composite.Value)) < c.cfg.MinAgreement {
			return gene.Neutral(CompositeSource)
		}
	}
	return composite
}

// effectiveWeights returns the aggregation weights, softmax-transformed when
// configured.
func (c *Composer) effectiveWeights(inputs []Input) []float64 {
	weights := make([]float64, len(inputs))
	if !c.cfg.SoftmaxWeighting {
		for i, in := range inputs {
			weights[i] = in.Weight
		}
		return weights
	}

	// Shift by the max weight for numerical stability
	maxW := inputs[0].Weight
	for _, in := range inputs[1:] {
		if in.Weight > maxW {
			maxW = in.Weight
		}
	}
	sum := 0.0
	for i, in := range inputs {
		weights[i] = math.Exp((in.Weight - maxW) / c.cfg.SoftmaxTemperature)
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

// weightedAverage computes Σ(value·weight)/Σ(weight) for value and confidence
func weightedAverage(inputs []Input, weights []float64) gene.Signal {
	var valueSum, confSum, weightSum float64
	for i, in := range inputs {
		valueSum += in.Signal.Value * weights[i]
		confSum += in.Signal.Confidence * weights[i]
		weightSum += weights[i]
	}
	if weightSum == 0 {
		return gene.Neutral(CompositeSource)
	}
	return gene.Signal{
		Value:      valueSum / weightSum,
		Confidence: confSum / weightSum,
		Source:     CompositeSource,
	}
}

// majorityVote emits the sign held by the largest weighted subset of active
// genes (those past their own threshold); magnitude is the mean magnitude of
// the agreeing genes. A tie or no active gene composes to neutral.
func majorityVote(inputs []Input, weights []float64) gene.Signal {
	var bullWeight, bearWeight float64
	for i, in := range inputs {
		if !active(in) {
			continue
		}
		if in.Signal.Value > 0 {
			bullWeight += weights[i]
		} else {
			bearWeight += weights[i]
		}
	}
	if bullWeight == bearWeight {
		return gene.Neutral(CompositeSource)
	}

	winner := 1.0
	if bearWeight > bullWeight {
		winner = -1.0
	}

	var magnitude, confidence float64
	count := 0
	for _, in := range inputs {
		if !active(in) || sign(in.Signal.Value) != winner {
			continue
		}
		magnitude += math.Abs(in.Signal.Value)
		confidence += in.Signal.Confidence
		count++
	}
	if count == 0 {
		return gene.Neutral(CompositeSource)
	}
	return gene.Signal{
		Value:      winner * magnitude / float64(count),
		Confidence: confidence / float64(count),
		Source:     CompositeSource,
	}
}

// unanimous emits the weighted average only when every gene is past its
// threshold and all signs agree; any disagreement or hesitation is a no-trade.
func unanimous(inputs []Input, weights []float64) gene.Signal {
	first := sign(inputs[0].Signal.Value)
	if first == 0 {
		return gene.Neutral(CompositeSource)
	}
	for _, in := range inputs {
		if !active(in) || sign(in.Signal.Value) != first {
			return gene.Neutral(CompositeSource)
		}
	}
	return weightedAverage(inputs, weights)
}

// active reports whether the gene's signal clears its own threshold
func active(in Input) bool {
	return math.Abs(in.Signal.Value) >= in.Threshold
}

// agreeing counts the active genes sharing the composite's direction
func agreeing(inputs []Input, direction float64) int {
	count := 0
	for _, in := range inputs {
		if active(in) && sign(in.Signal.Value) == direction {
			count++
		}
	}
	return count
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
