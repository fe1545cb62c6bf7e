package gene

import (
	"github.com/evoquant/dna-engine/internal/errors"
	"github.com/evoquant/dna-engine/internal/pattern"
	"github.com/evoquant/dna-engine/pkg/types"
)

// PatternGene derives its signal from the pattern catalogue: the trailing
// window_length closes are matched against catalogued shapes, and the matched
// pattern's predictive correlation (signed, in [-1, 1]) scaled by the match
// similarity becomes the signal value. The mapping is monotonic in the
// predictive correlation. When no catalogued pattern is eligible the gene
// abstains with a neutral signal.
type PatternGene struct {
	params     map[string]float64
	weight     float64
	window     int
	threshold  float64
	recognizer *pattern.Recognizer
}

// PatternSpecs declares the pattern gene's parameter bounds. The window
// length bound mirrors the recognizer's pattern length range.
var PatternSpecs = []ParamSpec{
	{Name: "window_length", Min: 5, Max: 20, Default: 10, Integer: true},
	{Name: "signal_threshold", Min: 0.05, Max: 1, Default: 0.6},
}

// NewPatternGene creates a pattern gene bound to a recognizer
func NewPatternGene(recognizer *pattern.Recognizer, params map[string]float64, weight float64) (Gene, error) {
	if recognizer == nil {
		return nil, errors.NewConfigurationError("pattern_gene", "new", "recognizer is required")
	}
	validated, err := validateParams("pattern_gene", PatternSpecs, params)
	if err != nil {
		return nil, err
	}
	if err := validateWeight("pattern_gene", weight); err != nil {
		return nil, err
	}
	return &PatternGene{
		params:     validated,
		weight:     weight,
		window:     int(validated["window_length"]),
		threshold:  validated["signal_threshold"],
		recognizer: recognizer,
	}, nil
}

// PatternFactory adapts NewPatternGene to the registry Factory shape for a
// fixed recognizer instance.
func PatternFactory(recognizer *pattern.Recognizer) Factory {
	return func(params map[string]float64, weight float64) (Gene, error) {
		return NewPatternGene(recognizer, params, weight)
	}
}

func (g *PatternGene) Name() string               { return "pattern" }
func (g *PatternGene) Type() Type                 { return TypePattern }
func (g *PatternGene) Params() map[string]float64 { return copyParams(g.params) }
func (g *PatternGene) Weight() float64            { return g.weight }
func (g *PatternGene) SignalThreshold() float64   { return g.threshold }

// RequiredBars returns the probe window length
func (g *PatternGene) RequiredBars() int { return g.window }

// ComputeSignal matches the trailing window against the catalogue
func (g *PatternGene) ComputeSignal(bars []types.Bar) (Signal, error) {
	if len(bars) < g.RequiredBars() {
		return Neutral(g.Name()), errors.NewInsufficientDataError(g.Name(), len(bars), g.RequiredBars())
	}

	probe := types.Closes(bars[len(bars)-g.window:])
	match, ok := g.recognizer.Match(probe)
	if !ok {
		return Neutral(g.Name()), nil
	}

	value := clamp(match.Pattern.Predictive*match.Similarity, -1, 1)
	confidence := clamp(match.Similarity*match.Pattern.Quality, 0, 1)
	return Signal{Value: value, Confidence: confidence, Source: g.Name()}, nil
}
