package gene

import (
	"fmt"
	"math"
	"sort"

	"github.com/evoquant/dna-engine/internal/errors"
	"github.com/evoquant/dna-engine/pkg/types"
)

// Type tags the closed set of gene variants
type Type string

const (
	TypeMomentum   Type = "momentum"
	TypeTrend      Type = "trend"
	TypeVolatility Type = "volatility"
	TypeVolume     Type = "volume"
	TypePattern    Type = "pattern"
)

// Signal is a directional conviction in [-1, 1] with a confidence in [0, 1].
// Signals are ephemeral; they are recomputed per window and never persisted.
type Signal struct {
	Value      float64
	Confidence float64
	Source     string
}

// Neutral returns a no-conviction signal attributed to source
func Neutral(source string) Signal {
	return Signal{Value: 0, Confidence: 0, Source: source}
}

// ParamSpec declares a tunable parameter and its hard bounds. Values outside
// [Min, Max] are rejected at construction/mutation time, never clamped inside
// signal computation.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
	Integer bool
}

// Gene is a single parameterized indicator producing a bounded signal.
// Implementations are immutable once constructed: ComputeSignal is pure and
// deterministic for a given window.
type Gene interface {
	Name() string
	Type() Type
	Params() map[string]float64
	Weight() float64
	SignalThreshold() float64
	RequiredBars() int
	ComputeSignal(bars []types.Bar) (Signal, error)
}

// Factory builds a gene from a validated parameter map. The weight is carried
// alongside the parameters because it belongs to the (gene, weight) pair of a
// strategy, not to the indicator math.
type Factory func(params map[string]float64, weight float64) (Gene, error)

type registration struct {
	factory Factory
	specs   []ParamSpec
}

var registry = map[Type]registration{}

// Register adds a gene type to the registry. Registration is explicit and
// happens in RegisterDefaults (or test setup), not via reflection scanning.
func Register(t Type, specs []ParamSpec, factory Factory) {
	registry[t] = registration{factory: factory, specs: specs}
}

// NewGene constructs a gene of the given type from the registry
func NewGene(t Type, params map[string]float64, weight float64) (Gene, error) {
	reg, ok := registry[t]
	if !ok {
		return nil, errors.NewConfigurationError("gene", "new", fmt.Sprintf("unknown gene type %q", t))
	}
	return reg.factory(params, weight)
}

// Specs returns the parameter specs declared for a gene type, sorted by name
// so parameter vectors have a stable order.
func Specs(t Type) ([]ParamSpec, error) {
	reg, ok := registry[t]
	if !ok {
		return nil, errors.NewConfigurationError("gene", "specs", fmt.Sprintf("unknown gene type %q", t))
	}
	specs := make([]ParamSpec, len(reg.specs))
	copy(specs, reg.specs)
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, nil
}

// RegisteredTypes returns all registered gene types in stable order
func RegisteredTypes() []Type {
	out := make([]Type, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// validateParams fills defaults for missing parameters and rejects any value
// outside its declared bound. Returns the validated copy.
func validateParams(component string, specs []ParamSpec, params map[string]float64) (map[string]float64, error) {
	validated := make(map[string]float64, len(specs))
	for _, spec := range specs {
		value, ok := params[spec.Name]
		if !ok {
			value = spec.Default
		}
		if value < spec.Min || value > spec.Max {
			return nil, errors.NewInvalidParameterError(component, spec.Name, value, spec.Min, spec.Max)
		}
		if spec.Integer {
			value = math.Round(value)
		}
		validated[spec.Name] = value
	}
	return validated, nil
}

// validateWeight rejects negative strategy weights
func validateWeight(component string, weight float64) error {
	if weight < 0 || math.IsNaN(weight) {
		return errors.NewInvalidParameterError(component, "weight", weight, 0, math.Inf(1))
	}
	return nil
}

// clamp bounds v to [lo, hi]
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// copyParams returns a defensive copy so a constructed gene cannot observe
// later mutations of the caller's map.
func copyParams(params map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
