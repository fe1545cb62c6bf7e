package evolution

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/evoquant/dna-engine/internal/errors"
	"github.com/evoquant/dna-engine/internal/gene"
	"github.com/evoquant/dna-engine/internal/metrics"
)

// Weight bounds for evolved gene weights
const (
	minWeight = 0.0
	maxWeight = 2.0
)

// GeneConfig is one gene slot of a strategy genome: the variant plus its
// evolved parameter vector and strategy weight.
type GeneConfig struct {
	Type   gene.Type          `json:"type"`
	Params map[string]float64 `json:"params"`
	Weight float64            `json:"weight"`
}

// Strategy is one individual: an ordered gene genome with its evaluated
// fitness. Fitness below zero marks an unevaluated individual.
type Strategy struct {
	Genes   []GeneConfig            `json:"genes"`
	Fitness float64                 `json:"fitness"`
	Metrics metrics.StrategyMetrics `json:"metrics"`
}

// Build materializes the genome into live genes via the registry. A genome
// referencing an unregistered type or out-of-bound parameter fails here.
func (s *Strategy) Build() ([]gene.Gene, error) {
	genes := make([]gene.Gene, len(s.Genes))
	for i, gc := range s.Genes {
		g, err := gene.NewGene(gc.Type, gc.Params, gc.Weight)
		if err != nil {
			return nil, err
		}
		genes[i] = g
	}
	return genes, nil
}

// Clone deep-copies the strategy
func (s *Strategy) Clone() *Strategy {
	genes := make([]GeneConfig, len(s.Genes))
	for i, gc := range s.Genes {
		params := make(map[string]float64, len(gc.Params))
		for k, v := range gc.Params {
			params[k] = v
		}
		genes[i] = GeneConfig{Type: gc.Type, Params: params, Weight: gc.Weight}
	}
	return &Strategy{Genes: genes, Fitness: s.Fitness, Metrics: s.Metrics}
}

// Key returns a stable fingerprint of the genome's parameter vector, used to
// measure population diversity.
func (s *Strategy) Key() string {
	var b strings.Builder
	for _, gc := range s.Genes {
		fmt.Fprintf(&b, "%s|w=%.6f", gc.Type, gc.Weight)
		names := make([]string, 0, len(gc.Params))
		for name := range gc.Params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "|%s=%.6f", name, gc.Params[name])
		}
		b.WriteByte(';')
	}
	return b.String()
}

// Validate re-checks every gene config against its registered bounds. Used
// when a persisted population is loaded, so a corrupt blob fails closed.
func (s *Strategy) Validate() error {
	if len(s.Genes) == 0 {
		return errors.NewDataError("strategy", "validate", "genome has no genes")
	}
	_, err := s.Build()
	return err
}

// randomStrategy draws a fresh genome: every parameter uniform within its
// declared bound, weights uniform within the weight band. Draws violating a
// gene's cross-parameter rules (for example fast >= slow) are resampled.
func randomStrategy(geneTypes []gene.Type, rng *rand.Rand) (*Strategy, error) {
	const maxDraws = 1000
	for attempt := 0; attempt < maxDraws; attempt++ {
		genes := make([]GeneConfig, len(geneTypes))
		for i, t := range geneTypes {
			specs, err := gene.Specs(t)
			if err != nil {
				return nil, err
			}
			params := make(map[string]float64, len(specs))
			for _, spec := range specs {
				params[spec.Name] = randomParam(spec, rng)
			}
			genes[i] = GeneConfig{
				Type:   t,
				Params: params,
				Weight: minWeight + rng.Float64()*(maxWeight-minWeight),
			}
		}
		s := &Strategy{Genes: genes, Fitness: unevaluated}
		if s.Validate() == nil {
			return s, nil
		}
	}
	return nil, errors.NewPopulationError("evolution", "could not draw a valid random genome")
}

func randomParam(spec gene.ParamSpec, rng *rand.Rand) float64 {
	v := spec.Min + rng.Float64()*(spec.Max-spec.Min)
	if spec.Integer {
		v = float64(int(v + 0.5))
	}
	return v
}
