package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/evoquant/dna-engine/internal/evolution"
)

// ExcelStyles holds the workbook formatting styles
type ExcelStyles struct {
	HeaderStyle  int
	PercentStyle int
	NumberStyle  int
}

// ExcelReporter writes evolution results as an Excel workbook
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

// WriteRunXLSX writes the full run result to an Excel workbook with Summary,
// Best Strategy, and Generations sheets.
func (r *ExcelReporter) WriteRunXLSX(result *evolution.Result, symbol, interval, path string) error {
	if result == nil {
		return fmt.Errorf("no result to write")
	}

	if err := ensureParentDir(path); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const strategySheet = "Best Strategy"
	const generationsSheet = "Generations"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	fx.NewSheet(strategySheet)
	fx.NewSheet(generationsSheet)

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, result, symbol, interval, styles); err != nil {
		return err
	}
	if err := r.writeStrategySheet(fx, strategySheet, result.Best, styles); err != nil {
		return err
	}
	if err := r.writeGenerationsSheet(fx, generationsSheet, result, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	// Header style - dark background with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 10, // 0.00%
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.NumberStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 4, // #,##0.00
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	return styles, nil
}

func (r *ExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, result *evolution.Result, symbol, interval string, styles ExcelStyles) error {
	fx.SetCellValue(sheet, "A1", "EVOLUTION RESULT")
	fx.SetCellStyle(sheet, "A1", "B1", styles.HeaderStyle)
	fx.MergeCell(sheet, "A1", "B1")

	rows := [][]interface{}{
		{"Symbol", symbol},
		{"Interval", interval},
		{"Stopped", string(result.Stopped)},
		{"Generations Committed", result.Committed},
	}

	if result.Best != nil {
		m := result.Best.Metrics
		rows = append(rows,
			[]interface{}{"Best Fitness", result.Best.Fitness},
			[]interface{}{"Total Return", m.TotalReturn},
			[]interface{}{"Annual Return", m.AnnualReturn},
			[]interface{}{"Sharpe Ratio", m.SharpeRatio},
			[]interface{}{"Sortino Ratio", m.SortinoRatio},
			[]interface{}{"Max Drawdown", m.MaxDrawdown},
			[]interface{}{"Profit Factor", m.ProfitFactor},
			[]interface{}{"Win Rate", m.WinRate},
			[]interface{}{"Trades", m.NumTrades},
		)
	}

	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	fx.SetColWidth(sheet, "A", "A", 24)
	fx.SetColWidth(sheet, "B", "B", 18)
	return nil
}

func (r *ExcelReporter) writeStrategySheet(fx *excelize.File, sheet string, strategy *evolution.Strategy, styles ExcelStyles) error {
	header := []interface{}{"Gene", "Weight", "Parameters"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	fx.SetCellStyle(sheet, "A1", "C1", styles.HeaderStyle)

	if strategy == nil {
		return nil
	}

	for i, gc := range strategy.Genes {
		row := []interface{}{string(gc.Type), gc.Weight, formatParams(gc.Params)}
		cell := fmt.Sprintf("A%d", i+2)
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	fx.SetColWidth(sheet, "A", "A", 14)
	fx.SetColWidth(sheet, "C", "C", 60)
	return nil
}

func (r *ExcelReporter) writeGenerationsSheet(fx *excelize.File, sheet string, result *evolution.Result, styles ExcelStyles) error {
	header := []interface{}{"Generation", "Best Fitness"}
	if err := fx.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	fx.SetCellStyle(sheet, "A1", "B1", styles.HeaderStyle)

	for i, best := range result.BestTrace {
		row := []interface{}{i + 1, best}
		cell := fmt.Sprintf("A%d", i+2)
		if err := fx.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if len(result.BestTrace) > 0 {
		last := fmt.Sprintf("B%d", len(result.BestTrace)+1)
		fx.SetCellStyle(sheet, "B2", last, styles.NumberStyle)
	}

	return nil
}
