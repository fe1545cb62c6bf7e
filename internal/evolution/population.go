package evolution

import (
	"bytes"
	"encoding/json"

	"github.com/evoquant/dna-engine/internal/errors"
)

// populationBlobVersion guards persisted populations against format drift
const populationBlobVersion = 1

type populationBlob struct {
	Version    int         `json:"version"`
	Strategies []*Strategy `json:"strategies"`
}

// MarshalPopulation serializes a population to an opaque blob for external
// persistence.
func MarshalPopulation(population []*Strategy) ([]byte, error) {
	if len(population) == 0 {
		return nil, errors.NewPopulationError("evolution", "refusing to persist an empty population")
	}
	blob := populationBlob{
		Version:    populationBlobVersion,
		Strategies: population,
	}
	data, err := json.Marshal(blob)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorCategoryData, "evolution", "marshal_population")
	}
	return data, nil
}

// UnmarshalPopulation decodes a persisted population, failing closed: any
// decode error, version mismatch, unknown field, or genome violating its
// registered parameter bounds rejects the whole blob. A partially decoded
// population is never returned.
func UnmarshalPopulation(data []byte) ([]*Strategy, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var blob populationBlob
	if err := dec.Decode(&blob); err != nil {
		return nil, errors.WrapError(err, errors.ErrorCategoryData, "evolution", "unmarshal_population")
	}
	if blob.Version != populationBlobVersion {
		return nil, errors.NewDataError("evolution", "unmarshal_population", "unsupported population blob version")
	}
	if len(blob.Strategies) == 0 {
		return nil, errors.NewDataError("evolution", "unmarshal_population", "population blob holds no strategies")
	}
	for _, s := range blob.Strategies {
		if s == nil {
			return nil, errors.NewDataError("evolution", "unmarshal_population", "population blob holds a null strategy")
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if s.Fitness != unevaluated && (s.Fitness < 0 || s.Fitness > 1 || !isFinite(s.Fitness)) {
			return nil, errors.NewDataError("evolution", "unmarshal_population", "persisted fitness outside [0, 1]")
		}
	}
	return blob.Strategies, nil
}
