package config

import (
	"time"

	"github.com/evoquant/dna-engine/internal/composer"
	"github.com/evoquant/dna-engine/internal/errors"
	"github.com/evoquant/dna-engine/internal/evolution"
	"github.com/evoquant/dna-engine/internal/gene"
	"github.com/evoquant/dna-engine/internal/pattern"
)

// EngineConfig is the nested on-disk configuration format for an evolution run
type EngineConfig struct {
	Run        RunConfig         `json:"run"`
	Evolution  EvolutionSection  `json:"evolution"`
	Composer   composer.Config   `json:"composer"`
	Pattern    PatternSection    `json:"pattern"`
	Monitoring MonitoringSection `json:"monitoring"`
	Report     ReportSection     `json:"report"`
}

// RunConfig identifies the data set and reproducibility settings of a run
type RunConfig struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	DataFile string `json:"data_file"`
	Seed     int64  `json:"seed"`

	// SampleBars generates a deterministic synthetic series of this many bars
	// when no data file is configured. Zero disables it.
	SampleBars int `json:"sample_bars"`
}

// EvolutionSection mirrors the evolution engine configuration with a
// file-friendly timeout field (seconds instead of nanoseconds).
type EvolutionSection struct {
	PopulationSize     int      `json:"population_size"`
	Generations        int      `json:"generations"`
	MutationRate       float64  `json:"mutation_rate"`
	CrossoverRate      float64  `json:"crossover_rate"`
	SurvivalRate       float64  `json:"survival_rate"`
	TournamentSize     int      `json:"tournament_size"`
	MaxWorkers         int      `json:"max_workers"`
	MutationScale      float64  `json:"mutation_scale"`
	PlateauWindow      int      `json:"plateau_window"`
	EvalTimeoutSeconds float64  `json:"eval_timeout_seconds"`
	GeneTypes          []string `json:"gene_types"`
}

// PatternSection toggles the pattern recognizer and carries its tuning
type PatternSection struct {
	Enabled bool           `json:"enabled"`
	Config  pattern.Config `json:"config"`
}

// MonitoringSection controls the HTTP metrics and health endpoints
type MonitoringSection struct {
	Enabled    bool   `json:"enabled"`
	ListenAddr string `json:"listen_addr"`
}

// ReportSection controls run output
type ReportSection struct {
	Console   bool   `json:"console"`
	OutputDir string `json:"output_dir"`
	ExcelFile string `json:"excel_file"`
}

// NewDefaultEngineConfig returns a runnable default configuration
func NewDefaultEngineConfig() *EngineConfig {
	evoDefaults := evolution.DefaultConfig()

	geneTypes := make([]string, 0, len(evoDefaults.GeneTypes))
	for _, gt := range evoDefaults.GeneTypes {
		geneTypes = append(geneTypes, string(gt))
	}

	return &EngineConfig{
		Run: RunConfig{
			Symbol:     "SAMPLE",
			Interval:   "1h",
			Seed:       42,
			SampleBars: 2000,
		},
		Evolution: EvolutionSection{
			PopulationSize: evoDefaults.PopulationSize,
			Generations:    evoDefaults.Generations,
			MutationRate:   evoDefaults.MutationRate,
			CrossoverRate:  evoDefaults.CrossoverRate,
			SurvivalRate:   evoDefaults.SurvivalRate,
			TournamentSize: evoDefaults.TournamentSize,
			MaxWorkers:     evoDefaults.MaxWorkers,
			MutationScale:  evoDefaults.MutationScale,
			GeneTypes:      geneTypes,
		},
		Composer: composer.DefaultConfig(),
		Pattern: PatternSection{
			Enabled: true,
			Config:  pattern.DefaultConfig(),
		},
		Monitoring: MonitoringSection{
			ListenAddr: ":9090",
		},
		Report: ReportSection{
			Console:   true,
			OutputDir: "results",
		},
	}
}

// ToEvolution converts the file section into the engine's runtime config
func (s EvolutionSection) ToEvolution(seed int64) (evolution.Config, error) {
	geneTypes := make([]gene.Type, 0, len(s.GeneTypes))
	for _, name := range s.GeneTypes {
		geneTypes = append(geneTypes, gene.Type(name))
	}

	cfg := evolution.Config{
		PopulationSize: s.PopulationSize,
		Generations:    s.Generations,
		MutationRate:   s.MutationRate,
		CrossoverRate:  s.CrossoverRate,
		SurvivalRate:   s.SurvivalRate,
		TournamentSize: s.TournamentSize,
		MaxWorkers:     s.MaxWorkers,
		MutationScale:  s.MutationScale,
		PlateauWindow:  s.PlateauWindow,
		EvalTimeout:    time.Duration(s.EvalTimeoutSeconds * float64(time.Second)),
		Seed:           seed,
		GeneTypes:      geneTypes,
	}

	if err := cfg.Validate(); err != nil {
		return evolution.Config{}, err
	}
	return cfg, nil
}

// Validate checks the full configuration tree and fails closed. Indicator
// genes must be registered before validation; the pattern gene is exempt
// because its factory only exists once a recognizer has been built.
func (c *EngineConfig) Validate() error {
	if c.Run.Symbol == "" {
		return errors.NewConfigurationError("config", "validate", "run.symbol must be set")
	}
	if c.Run.DataFile == "" && c.Run.SampleBars <= 0 {
		return errors.NewConfigurationError("config", "validate", "run requires a data_file or sample_bars")
	}
	if c.Evolution.EvalTimeoutSeconds < 0 {
		return errors.NewConfigurationError("config", "validate", "evolution.eval_timeout_seconds cannot be negative")
	}

	evoSection := c.Evolution
	if c.Pattern.Enabled {
		evoSection.GeneTypes = withoutType(evoSection.GeneTypes, string(gene.TypePattern))
	}
	if _, err := evoSection.ToEvolution(c.Run.Seed); err != nil {
		return err
	}
	if err := c.Composer.Validate(); err != nil {
		return err
	}
	if c.Pattern.Enabled {
		if err := c.Pattern.Config.Validate(); err != nil {
			return err
		}
	}
	if c.Monitoring.Enabled && c.Monitoring.ListenAddr == "" {
		return errors.NewConfigurationError("config", "validate", "monitoring.listen_addr must be set when monitoring is enabled")
	}

	return nil
}

func withoutType(types []string, name string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		if t != name {
			out = append(out, t)
		}
	}
	return out
}
