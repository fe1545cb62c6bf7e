package reporting

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/evoquant/dna-engine/internal/evolution"
)

// WriteTraceCSV writes the per-generation best-fitness trace to a CSV file
func WriteTraceCSV(result *evolution.Result, path string) error {
	if result == nil {
		return fmt.Errorf("no result to write")
	}

	if err := ensureParentDir(path); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"generation", "best_fitness"}); err != nil {
		return err
	}

	for i, best := range result.BestTrace {
		record := []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.6f", best),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}
