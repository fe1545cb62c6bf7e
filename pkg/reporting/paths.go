package reporting

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultOutputDir builds the conventional results directory for a run:
// results/SYMBOL_interval, with the symbol uppercased and the interval
// lowercased. Blank components fall back to UNKNOWN so a misconfigured run
// still lands somewhere findable.
func DefaultOutputDir(symbol, interval string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		s = "UNKNOWN"
	}
	i := strings.ToLower(strings.TrimSpace(interval))
	if i == "" {
		i = "unknown"
	}
	return filepath.Join("results", s+"_"+i)
}

// ensureParentDir creates the directory that will hold path
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
