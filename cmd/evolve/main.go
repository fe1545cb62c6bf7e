package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/evoquant/dna-engine/internal/backtest"
	"github.com/evoquant/dna-engine/internal/composer"
	"github.com/evoquant/dna-engine/internal/evolution"
	"github.com/evoquant/dna-engine/internal/gene"
	"github.com/evoquant/dna-engine/internal/logger"
	"github.com/evoquant/dna-engine/internal/metrics"
	"github.com/evoquant/dna-engine/internal/monitoring"
	"github.com/evoquant/dna-engine/internal/pattern"
	"github.com/evoquant/dna-engine/pkg/config"
	"github.com/evoquant/dna-engine/pkg/data"
	"github.com/evoquant/dna-engine/pkg/reporting"
	"github.com/evoquant/dna-engine/pkg/types"
	"github.com/evoquant/dna-engine/pkg/validation"
)

const trainRatio = 0.8

func main() {
	var (
		configFile  = flag.String("config", "", "Path to engine configuration file (JSON)")
		dataFile    = flag.String("data", "", "Path to OHLCV CSV data file (overrides config)")
		symbol      = flag.String("symbol", "", "Symbol name for reporting (overrides config)")
		interval    = flag.String("interval", "", "Bar interval label (overrides config)")
		seed        = flag.Int64("seed", 0, "Random seed (overrides config; 0 keeps config value)")
		generations = flag.Int("generations", 0, "Generation count (overrides config; 0 keeps config value)")
		population  = flag.Int("population", 0, "Population size (overrides config; 0 keeps config value)")
		outputDir   = flag.String("output", "", "Output directory (default: results/SYMBOL_interval)")
		resumeFile  = flag.String("resume", "", "Resume evolution from a persisted population blob")
	)
	flag.Parse()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, using system environment")
	}

	// Indicator genes must exist before config validation; the pattern gene
	// is registered later, once a recognizer has been trained.
	gene.RegisterDefaults(nil)

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}
	applyOverrides(cfg, *dataFile, *symbol, *interval, *seed, *generations, *population)

	if err := run(cfg, *outputDir, *resumeFile); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func applyOverrides(cfg *config.EngineConfig, dataFile, symbol, interval string, seed int64, generations, population int) {
	if dataFile != "" {
		cfg.Run.DataFile = dataFile
	}
	if symbol != "" {
		cfg.Run.Symbol = symbol
	}
	if interval != "" {
		cfg.Run.Interval = interval
	}
	if seed != 0 {
		cfg.Run.Seed = seed
	}
	if generations > 0 {
		cfg.Evolution.Generations = generations
	}
	if population > 0 {
		cfg.Evolution.PopulationSize = population
	}
	if dataFile == "" {
		if envFile := os.Getenv("DNA_DATA_FILE"); envFile != "" && cfg.Run.DataFile == "" {
			cfg.Run.DataFile = envFile
		}
	}
}

func run(cfg *config.EngineConfig, outputDir, resumeFile string) error {
	runLog, err := logger.NewLogger(cfg.Run.Symbol, cfg.Run.Interval)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer runLog.Close()

	bars, err := loadBars(cfg)
	if err != nil {
		runLog.LogError("data load", err)
		monitoring.RecordError("data")
		return err
	}
	log.Printf("📂 Loaded %d bars for %s %s", len(bars), cfg.Run.Symbol, cfg.Run.Interval)
	runLog.Info("loaded %d bars", len(bars))

	train, test := validation.SplitByRatio(bars, trainRatio)
	log.Printf("📊 Train: %d bars, Test: %d bars", len(train), len(test))

	// Register gene factories, with the pattern gene only when a trained
	// recognizer is available.
	var recognizer *pattern.Recognizer
	geneTypes := cfg.Evolution.GeneTypes
	if cfg.Pattern.Enabled {
		recognizer, err = pattern.NewRecognizer(cfg.Pattern.Config)
		if err != nil {
			return fmt.Errorf("failed to create pattern recognizer: %w", err)
		}
		recognizer.Observe(train)
		monitoring.UpdateCatalogueSize(recognizer.Size())
		log.Printf("🔍 Pattern catalogue trained: %d patterns", recognizer.Size())

		if !containsType(geneTypes, string(gene.TypePattern)) {
			geneTypes = append(geneTypes, string(gene.TypePattern))
		}
	}
	gene.RegisterDefaults(recognizer)
	cfg.Evolution.GeneTypes = geneTypes

	comp, err := composer.New(cfg.Composer)
	if err != nil {
		return fmt.Errorf("failed to create composer: %w", err)
	}

	evoCfg, err := cfg.Evolution.ToEvolution(cfg.Run.Seed)
	if err != nil {
		return fmt.Errorf("invalid evolution configuration: %w", err)
	}

	sim := backtest.NewSimulator()

	// Evaluation latency feeds the health score, so a stalling backtest
	// surfaces on /health instead of only in the logs.
	latency := metrics.NewLatencyTracker(256)
	evaluator := monitoring.InstrumentEvaluator(evolution.SimulatorEvaluator(sim, comp, train), latency)

	health := monitoring.NewHealthChecker(latency)
	observer := &runObserver{
		run:    cfg.Run.Symbol,
		log:    runLog,
		health: health,
	}

	engine, err := evolution.NewEngine(evoCfg, evaluator, evolution.WithObserver(observer))
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	if cfg.Monitoring.Enabled {
		startMonitoringServer(cfg.Monitoring.ListenAddr, health)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("🧬 Starting evolution: population=%d generations=%d seed=%d",
		evoCfg.PopulationSize, evoCfg.Generations, evoCfg.Seed)

	result, err := runEvolution(ctx, engine, resumeFile)
	if err != nil {
		runLog.LogError("evolution", err)
		monitoring.RecordError("evolution")
		health.RecordError(err.Error())
		return err
	}

	runLog.LogRunCompletion(result.Committed, bestFitness(result), string(result.Stopped))

	return report(cfg, outputDir, result, comp, sim, test)
}

func loadBars(cfg *config.EngineConfig) ([]types.Bar, error) {
	provider := data.NewCSVProvider()

	if cfg.Run.DataFile != "" {
		return provider.LoadData(cfg.Run.DataFile)
	}

	log.Printf("🎲 No data file configured, generating %d sample bars (seed %d)",
		cfg.Run.SampleBars, cfg.Run.Seed)
	bars := data.GenerateSampleData(cfg.Run.SampleBars, cfg.Run.Seed)
	if err := provider.ValidateData(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

func runEvolution(ctx context.Context, engine *evolution.Engine, resumeFile string) (*evolution.Result, error) {
	if resumeFile == "" {
		return engine.Run(ctx)
	}

	blob, err := os.ReadFile(resumeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read population blob: %w", err)
	}
	population, err := evolution.UnmarshalPopulation(blob)
	if err != nil {
		return nil, fmt.Errorf("rejected population blob: %w", err)
	}

	log.Printf("♻️ Resuming from %d persisted strategies", len(population))
	return engine.Resume(ctx, population)
}

func report(cfg *config.EngineConfig, outputDir string, result *evolution.Result, comp *composer.Composer, sim *backtest.Simulator, test []types.Bar) error {
	if cfg.Report.Console {
		console := reporting.NewConsoleReporter()
		console.PrintRunSummary(cfg.Run.Symbol, cfg.Run.Interval, result)
		console.PrintStrategy(result.Best)

		if result.Best != nil {
			console.PrintMetrics(result.Best.Metrics)

			// Score the evolved strategy on the held-out slice
			if len(test) >= 2 {
				if genes, err := result.Best.Build(); err == nil {
					if oos, err := sim.Run(genes, comp, test); err == nil {
						fmt.Println("OUT-OF-SAMPLE (held-out data):")
						console.PrintMetrics(oos.Metrics)
						console.PrintGeneMetrics(oos.GeneReports(genes))
						monitoring.UpdateCompositeSignal(cfg.Run.Symbol, oos.Signals[len(oos.Signals)-1])
					}
				}
			}
		}
	}

	dir := outputDir
	if dir == "" {
		dir = cfg.Report.OutputDir
	}
	if dir == "" || dir == "results" {
		dir = reporting.DefaultOutputDir(cfg.Run.Symbol, cfg.Run.Interval)
	}

	if result.Best != nil {
		if err := reporting.WriteBestStrategyJSON(result.Best, filepath.Join(dir, "best_strategy.json")); err != nil {
			return err
		}
	}
	if err := reporting.WriteTraceCSV(result, filepath.Join(dir, "fitness_trace.csv")); err != nil {
		return err
	}
	if len(result.Final) > 0 {
		if err := reporting.WritePopulationBlob(result.Final, filepath.Join(dir, "population.json")); err != nil {
			return err
		}
	}

	excelFile := cfg.Report.ExcelFile
	if excelFile == "" {
		excelFile = "evolution_report.xlsx"
	}
	if err := reporting.NewExcelReporter().WriteRunXLSX(result, cfg.Run.Symbol, cfg.Run.Interval, filepath.Join(dir, excelFile)); err != nil {
		return err
	}

	log.Printf("💾 Results written to %s", dir)
	return nil
}

func startMonitoringServer(addr string, health *monitoring.HealthChecker) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	mux.Handle("/health", health)

	go func() {
		log.Printf("📡 Monitoring endpoints on %s (/metrics, /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("⚠️ Monitoring server stopped: %v", err)
		}
	}()
}

func containsType(types []string, name string) bool {
	for _, t := range types {
		if t == name {
			return true
		}
	}
	return false
}

func bestFitness(result *evolution.Result) float64 {
	if result.Best == nil {
		return 0
	}
	return result.Best.Fitness
}

// runObserver fans generation events out to Prometheus, the run log, and the
// health checker.
type runObserver struct {
	run    string
	log    *logger.Logger
	health *monitoring.HealthChecker

	divergences int
}

func (o *runObserver) GenerationCompleted(generation int, best, average, diversity float64) {
	monitoring.RecordGeneration(o.run, best, average, diversity)
	o.health.MarkGeneration()
	o.log.LogGenerationSummary(generation, best, average, diversity, o.divergences)
	o.divergences = 0

	log.Printf("🧬 Gen %d: best=%.4f avg=%.4f diversity=%.2f", generation, best, average, diversity)
}

func (o *runObserver) DivergenceRecovered(generation int) {
	monitoring.RecordDivergence(o.run)
	o.divergences++
	o.log.Warning("divergent evaluation replaced in generation %d", generation)
}
