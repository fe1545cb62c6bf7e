package evolution

import (
	"math/rand"

	"github.com/evoquant/dna-engine/internal/gene"
)

// unevaluated marks an individual whose fitness has not been computed yet.
// Valid fitness values live in [0, 1].
const unevaluated = -1.0

// tournamentSelect picks the fittest of tournamentSize random individuals
func tournamentSelect(population []*Strategy, tournamentSize int, rng *rand.Rand) *Strategy {
	best := population[rng.Intn(len(population))]
	for i := 1; i < tournamentSize; i++ {
		candidate := population[rng.Intn(len(population))]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best
}

// crossover produces a child by uniform per-parameter mixing: each parameter
// and weight is taken from either parent with equal probability. Below the
// crossover rate the child is a plain copy of the first parent. A mix that
// violates a gene's cross-parameter rules falls back to the first parent.
func crossover(parent1, parent2 *Strategy, rate float64, rng *rand.Rand) *Strategy {
	child := parent1.Clone()
	child.Fitness = unevaluated

	if rng.Float64() >= rate {
		return child
	}

	for i := range child.Genes {
		if i >= len(parent2.Genes) || child.Genes[i].Type != parent2.Genes[i].Type {
			continue
		}
		for name := range child.Genes[i].Params {
			if rng.Float64() < 0.5 {
				if v, ok := parent2.Genes[i].Params[name]; ok {
					child.Genes[i].Params[name] = v
				}
			}
		}
		if rng.Float64() < 0.5 {
			child.Genes[i].Weight = parent2.Genes[i].Weight
		}
	}

	if child.Validate() != nil {
		child = parent1.Clone()
		child.Fitness = unevaluated
	}
	return child
}

// mutate perturbs each parameter with probability rate by a gaussian step
// scaled to the parameter's bound span, hard-clamped back into the bound. A
// mutation that violates a gene's cross-parameter rules is rejected, leaving
// the individual unchanged.
func mutate(s *Strategy, rate, scale float64, rng *rand.Rand) {
	mutated := s.Clone()
	changed := false

	for i := range mutated.Genes {
		specs, err := gene.Specs(mutated.Genes[i].Type)
		if err != nil {
			continue
		}
		for _, spec := range specs {
			if rng.Float64() >= rate {
				continue
			}
			v := mutated.Genes[i].Params[spec.Name]
			v += rng.NormFloat64() * scale * (spec.Max - spec.Min)
			v = clampParam(v, spec)
			mutated.Genes[i].Params[spec.Name] = v
			changed = true
		}
		if rng.Float64() < rate {
			w := mutated.Genes[i].Weight
			w += rng.NormFloat64() * scale * (maxWeight - minWeight)
			if w < minWeight {
				w = minWeight
			}
			if w > maxWeight {
				w = maxWeight
			}
			mutated.Genes[i].Weight = w
			changed = true
		}
	}

	if !changed || mutated.Validate() != nil {
		return
	}
	mutated.Fitness = unevaluated
	*s = *mutated
}

// clampParam bounds v to the spec's declared range, rounding integer
// parameters. The clamp is unconditional: a mutated parameter never leaves
// its bound.
func clampParam(v float64, spec gene.ParamSpec) float64 {
	if v < spec.Min {
		v = spec.Min
	}
	if v > spec.Max {
		v = spec.Max
	}
	if spec.Integer {
		v = float64(int(v + 0.5))
		if v > spec.Max {
			v = spec.Max
		}
	}
	return v
}

// diversity is the fraction of unique genomes in the population
func diversity(population []*Strategy) float64 {
	if len(population) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(population))
	for _, s := range population {
		seen[s.Key()] = struct{}{}
	}
	return float64(len(seen)) / float64(len(population))
}
