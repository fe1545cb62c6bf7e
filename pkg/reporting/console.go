package reporting

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/evoquant/dna-engine/internal/backtest"
	"github.com/evoquant/dna-engine/internal/evolution"
	"github.com/evoquant/dna-engine/internal/metrics"
	"github.com/evoquant/dna-engine/pkg/validation"
)

// ConsoleReporter renders evolution results as terminal tables
type ConsoleReporter struct{}

// NewConsoleReporter creates a new console reporter
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// PrintRunSummary prints the headline result of an evolution run
func (r *ConsoleReporter) PrintRunSummary(symbol, interval string, result *evolution.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("EVOLUTION RESULT")
	t.SetStyle(table.StyleRounded)

	rows := []table.Row{
		{"📊 Symbol", symbol},
		{"⏰ Interval", interval},
		{"🏁 Stopped", string(result.Stopped)},
		{"🔁 Generations", fmt.Sprintf("%d", result.Committed)},
	}
	if result.Best != nil {
		rows = append(rows, table.Row{"🏆 Best Fitness", fmt.Sprintf("%.4f", result.Best.Fitness)})
	}
	t.AppendRows(rows)

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 15, WidthMax: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, WidthMax: 35, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

// PrintStrategy prints the genome of an evolved strategy
func (r *ConsoleReporter) PrintStrategy(s *evolution.Strategy) {
	if s == nil {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("BEST STRATEGY GENOME")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Gene", "Weight", "Parameters"})

	for _, gc := range s.Genes {
		t.AppendRow(table.Row{string(gc.Type), fmt.Sprintf("%.3f", gc.Weight), formatParams(gc.Params)})
	}

	t.Render()
	fmt.Println()
}

// PrintMetrics prints the full performance breakdown of a strategy
func (r *ConsoleReporter) PrintMetrics(m metrics.StrategyMetrics) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("PERFORMANCE METRICS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"📈 Total Return", fmt.Sprintf("%.2f%%", m.TotalReturn*100)},
		{"📈 Annual Return", fmt.Sprintf("%.2f%%", m.AnnualReturn*100)},
		{"📊 Sharpe Ratio", fmt.Sprintf("%.2f", m.SharpeRatio)},
		{"📊 Sortino Ratio", fmt.Sprintf("%.2f", m.SortinoRatio)},
		{"📉 Max Drawdown", fmt.Sprintf("%.2f%%", m.MaxDrawdown*100)},
		{"💹 Profit Factor", fmt.Sprintf("%.2f", m.ProfitFactor)},
		{"✅ Win Rate", fmt.Sprintf("%.1f%%", m.WinRate*100)},
		{"🔄 Trades", fmt.Sprintf("%d", m.NumTrades)},
		{"🔗 Market Correlation", fmt.Sprintf("%.2f", m.MarketCorrelation)},
		{"🏆 Fitness", fmt.Sprintf("%.4f", m.Fitness)},
	})

	t.Render()
	fmt.Println()
}

// PrintGeneMetrics prints each gene's standalone quality scores and
// auto-tuned signal statistics from a replay.
func (r *ConsoleReporter) PrintGeneMetrics(reports []backtest.GeneReport) {
	if len(reports) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("GENE CONTRIBUTIONS")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Gene", "Weight", "Win Rate", "Accuracy", "Stability", "Sensitivity", "Robustness", "Fitness"})

	for _, rep := range reports {
		t.AppendRow(table.Row{
			rep.Name,
			fmt.Sprintf("%.3f", rep.Weight),
			fmt.Sprintf("%.1f%%", rep.Metrics.WinRate*100),
			fmt.Sprintf("%.1f%%", rep.Metrics.Accuracy*100),
			fmt.Sprintf("%.2f", rep.Metrics.Stability),
			fmt.Sprintf("%.2f", rep.Metrics.Sensitivity),
			fmt.Sprintf("%.2f", rep.Metrics.Robustness),
			fmt.Sprintf("%.4f", rep.Fitness),
		})
	}

	t.Render()
	fmt.Println()
}

// PrintWalkForwardSummary prints out-of-sample robustness statistics
func (r *ConsoleReporter) PrintWalkForwardSummary(summary *validation.Summary) {
	if summary == nil || len(summary.Results) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("WALK-FORWARD SUMMARY (%d folds)", len(summary.Results)))
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Train Return", fmt.Sprintf("%.2f%%", summary.AverageTrainReturn)},
		{"Test Return", fmt.Sprintf("%.2f%%", summary.AverageTestReturn)},
		{"Train Drawdown", fmt.Sprintf("%.2f%%", summary.AverageTrainDrawdown)},
		{"Test Drawdown", fmt.Sprintf("%.2f%%", summary.AverageTestDrawdown)},
		{"Return Degradation", fmt.Sprintf("%.1f%%", summary.ReturnDegradation)},
		{"Overfitting Risk", summary.OverfittingRisk},
	})

	t.Render()

	if summary.IsRobust {
		fmt.Println("✅ ROBUST STRATEGY - Good generalization across time periods")
	} else {
		fmt.Println("⚠️  HIGH OVERFITTING RISK - Strategy may not generalize well")
	}
	fmt.Println()
}

func formatParams(params map[string]float64) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	out := ""
	for i, name := range names {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%.3g", name, params[name])
	}
	return out
}
