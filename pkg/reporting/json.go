package reporting

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/evoquant/dna-engine/internal/evolution"
)

// WriteBestStrategyJSON writes the evolved genome and its metrics to a JSON
// file so a later run can reload it.
func WriteBestStrategyJSON(strategy *evolution.Strategy, path string) error {
	if strategy == nil {
		return fmt.Errorf("no strategy to write")
	}

	if err := ensureParentDir(path); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(strategy, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal strategy: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// WritePopulationBlob persists the final population so evolution can resume
// from it later.
func WritePopulationBlob(population []*evolution.Strategy, path string) error {
	data, err := evolution.MarshalPopulation(population)
	if err != nil {
		return fmt.Errorf("failed to marshal population: %w", err)
	}

	if err := ensureParentDir(path); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}
