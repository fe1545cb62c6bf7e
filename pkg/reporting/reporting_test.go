package reporting

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/evoquant/dna-engine/internal/evolution"
	"github.com/evoquant/dna-engine/internal/gene"
	"github.com/evoquant/dna-engine/internal/metrics"
)

func sampleResult() *evolution.Result {
	best := &evolution.Strategy{
		Genes: []evolution.GeneConfig{
			{Type: gene.TypeMomentum, Params: map[string]float64{"period": 14, "oversold": 30, "overbought": 70}, Weight: 1.2},
			{Type: gene.TypeTrend, Params: map[string]float64{"fast_period": 9, "slow_period": 26}, Weight: 0.8},
		},
		Fitness: 0.71,
		Metrics: metrics.StrategyMetrics{
			TotalReturn: 0.34,
			SharpeRatio: 1.4,
			MaxDrawdown: -0.12,
			WinRate:     0.58,
			NumTrades:   120,
			Fitness:     0.71,
		},
	}

	return &evolution.Result{
		Best:      best,
		BestTrace: []float64{0.42, 0.55, 0.55, 0.71},
		Final:     []*evolution.Strategy{best},
		Committed: 4,
		Stopped:   evolution.StopCompleted,
	}
}

func TestWriteTraceCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trace.csv")
	require.NoError(t, WriteTraceCSV(sampleResult(), path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 5) // header + 4 generations
	assert.Equal(t, []string{"generation", "best_fitness"}, records[0])
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "0.420000", records[1][1])
	assert.Equal(t, "0.710000", records[4][1])
}

func TestWriteTraceCSVNilResult(t *testing.T) {
	assert.Error(t, WriteTraceCSV(nil, filepath.Join(t.TempDir(), "trace.csv")))
}

func TestWriteBestStrategyJSONRoundTrip(t *testing.T) {
	result := sampleResult()
	path := filepath.Join(t.TempDir(), "out", "best.json")
	require.NoError(t, WriteBestStrategyJSON(result.Best, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"momentum"`)
	assert.Contains(t, string(data), `"fitness": 0.71`)
}

func TestWritePopulationBlobRoundTrip(t *testing.T) {
	gene.RegisterDefaults(nil)

	result := sampleResult()
	path := filepath.Join(t.TempDir(), "out", "population.json")
	require.NoError(t, WritePopulationBlob(result.Final, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	population, err := evolution.UnmarshalPopulation(data)
	require.NoError(t, err)
	require.Len(t, population, 1)
	assert.InDelta(t, 0.71, population[0].Fitness, 1e-12)
}

func TestWriteRunXLSX(t *testing.T) {
	result := sampleResult()
	path := filepath.Join(t.TempDir(), "out", "run.xlsx")
	require.NoError(t, NewExcelReporter().WriteRunXLSX(result, "BTCUSDT", "1h", path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	assert.ElementsMatch(t, []string{"Summary", "Best Strategy", "Generations"}, fx.GetSheetList())

	symbol, err := fx.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", symbol)

	geneType, err := fx.GetCellValue("Best Strategy", "A2")
	require.NoError(t, err)
	assert.Equal(t, "momentum", geneType)

	lastBest, err := fx.GetCellValue("Generations", "B5")
	require.NoError(t, err)
	assert.Equal(t, "0.71", lastBest)
}

func TestDefaultOutputDir(t *testing.T) {
	assert.Equal(t, filepath.Join("results", "BTCUSDT_1h"), DefaultOutputDir(" btcusdt ", " 1H "))
	assert.Equal(t, filepath.Join("results", "UNKNOWN_unknown"), DefaultOutputDir("", ""))
}

func TestEnsureParentDir(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "a", "b", "report.xlsx")
	require.NoError(t, ensureParentDir(nested))
	assert.DirExists(t, filepath.Dir(nested))

	// A bare filename has no parent to create
	assert.NoError(t, ensureParentDir("report.xlsx"))
}
