package evolution

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evoquant/dna-engine/internal/errors"
)

func samplePopulation(t *testing.T, n int) []*Strategy {
	t.Helper()
	rng := rand.New(rand.NewSource(37))
	population := make([]*Strategy, n)
	for i := range population {
		s := mustRandomStrategy(t, rng)
		s.Fitness = float64(i) / float64(n)
		population[i] = s
	}
	return population
}

func TestPopulationRoundTrip(t *testing.T) {
	original := samplePopulation(t, 5)

	blob, err := MarshalPopulation(original)
	require.NoError(t, err)

	restored, err := UnmarshalPopulation(blob)
	require.NoError(t, err)
	require.Len(t, restored, 5)

	for i := range original {
		assert.Equal(t, original[i].Key(), restored[i].Key())
		assert.Equal(t, original[i].Fitness, restored[i].Fitness)
	}
}

func TestMarshalRejectsEmptyPopulation(t *testing.T) {
	_, err := MarshalPopulation(nil)
	assert.Error(t, err)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	_, err := UnmarshalPopulation([]byte("not json at all"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.ErrorCategoryData))
}

func TestUnmarshalRejectsUnknownFields(t *testing.T) {
	blob, err := MarshalPopulation(samplePopulation(t, 2))
	require.NoError(t, err)

	tampered := append([]byte(`{"extra_field":1,`), blob[1:]...)
	_, err = UnmarshalPopulation(tampered)
	assert.Error(t, err)
}

func TestUnmarshalRejectsWrongVersion(t *testing.T) {
	_, err := UnmarshalPopulation([]byte(`{"version":99,"strategies":[]}`))
	assert.Error(t, err)
}

func TestUnmarshalRejectsOutOfBoundParameters(t *testing.T) {
	population := samplePopulation(t, 2)
	blob, err := MarshalPopulation(population)
	require.NoError(t, err)

	// Poison one parameter beyond its declared bound and re-encode
	population[0].Genes[0].Params["period"] = 100000
	poisoned, err := MarshalPopulation(population)
	require.NoError(t, err)

	_, err = UnmarshalPopulation(poisoned)
	require.Error(t, err, "a corrupt blob must be rejected whole, never partially decoded")

	// The untouched blob still loads
	_, err = UnmarshalPopulation(blob)
	assert.NoError(t, err)
}

func TestUnmarshalRejectsBogusFitness(t *testing.T) {
	population := samplePopulation(t, 2)
	population[1].Fitness = 7.5

	blob, err := MarshalPopulation(population)
	require.NoError(t, err)

	_, err = UnmarshalPopulation(blob)
	assert.Error(t, err)
}

func TestResumeValidatesPersistedPopulation(t *testing.T) {
	cfg := testConfig()
	eng, err := NewEngine(cfg, keyedEval)
	require.NoError(t, err)

	_, err = eng.Resume(context.Background(), samplePopulation(t, 3))
	assert.Error(t, err, "size mismatch must be fatal")

	population := samplePopulation(t, cfg.PopulationSize)
	result, err := eng.Resume(context.Background(), population)
	require.NoError(t, err)
	assert.Equal(t, cfg.Generations, result.Committed)
}
