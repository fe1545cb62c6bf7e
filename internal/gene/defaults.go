package gene

import "github.com/evoquant/dna-engine/internal/pattern"

// RegisterDefaults wires the built-in gene variants into the registry. The
// pattern gene needs a live recognizer to match against; pass nil to register
// only the indicator genes.
func RegisterDefaults(recognizer *pattern.Recognizer) {
	Register(TypeMomentum, MomentumSpecs, NewMomentumGene)
	Register(TypeTrend, TrendSpecs, NewTrendGene)
	Register(TypeVolatility, VolatilitySpecs, NewVolatilityGene)
	Register(TypeVolume, VolumeSpecs, NewVolumeGene)
	if recognizer != nil {
		Register(TypePattern, PatternSpecs, PatternFactory(recognizer))
	}
}
