package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/smartman0307/pycryptobot/internal/backtest"
)

// excelStyles holds the style IDs shared across sheets.
type excelStyles struct {
	header   int
	currency int
	percent  int
}

// WriteSummaryXLSX writes the simulation results as a workbook with a
// summary sheet and a trades sheet.
func WriteSummaryXLSX(summary *backtest.Summary, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const tradesSheet = "Trades"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	if _, err := fx.NewSheet(tradesSheet); err != nil {
		return err
	}

	styles, err := newExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := writeSummarySheet(fx, summarySheet, summary, styles); err != nil {
		return err
	}
	if err := writeTradesSheet(fx, tradesSheet, summary, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func newExcelStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.header, err = fx.NewStyle(&excelize.Style{
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

	styles.currency, err = fx.NewStyle(&excelize.Style{
		NumFmt: 7,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.percent, err = fx.NewStyle(&excelize.Style{
		NumFmt: 2,
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
	})
	return styles, err
}

func writeSummarySheet(fx *excelize.File, sheet string, summary *backtest.Summary, styles excelStyles) error {
	rows := []struct {
		label string
		value interface{}
		style int
	}{
		{"Market", summary.Market, 0},
		{"Granularity", summary.Granularity.String(), 0},
		{"Ticks", summary.Ticks, 0},
		{"Starting Quote", summary.StartQuote, styles.currency},
		{"Ending Quote", summary.EndQuote, styles.currency},
		{"Total Return %", summary.TotalReturnPct, styles.percent},
		{"Buy & Hold %", summary.BuyHoldReturnPct, styles.percent},
		{"Max Drawdown %", summary.MaxDrawdownPct, styles.percent},
		{"Trades", len(summary.Trades), 0},
		{"Winning", summary.WinningCount, 0},
		{"Losing", summary.LosingCount, 0},
		{"Win Rate %", summary.WinRate, styles.percent},
		{"Insufficient Data", summary.InsufficientData, 0},
	}

	if err := fx.SetCellValue(sheet, "A1", "Metric"); err != nil {
		return err
	}
	if err := fx.SetCellValue(sheet, "B1", "Value"); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", "B1", styles.header); err != nil {
		return err
	}

	for i, row := range rows {
		labelCell := fmt.Sprintf("A%d", i+2)
		valueCell := fmt.Sprintf("B%d", i+2)
		if err := fx.SetCellValue(sheet, labelCell, row.label); err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, valueCell, row.value); err != nil {
			return err
		}
		if row.style != 0 {
			if err := fx.SetCellStyle(sheet, valueCell, valueCell, row.style); err != nil {
				return err
			}
		}
	}

	return fx.SetColWidth(sheet, "A", "B", 22)
}

func writeTradesSheet(fx *excelize.File, sheet string, summary *backtest.Summary, styles excelStyles) error {
	headers := []string{"#", "Entry Time", "Exit Time", "Entry Price", "Exit Price", "Size", "Fees", "Margin %"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", last, styles.header); err != nil {
		return err
	}

	for i, trade := range summary.Trades {
		row := i + 2
		values := []interface{}{
			i + 1,
			trade.EntryTime.UTC().Format("2006-01-02 15:04"),
			trade.ExitTime.UTC().Format("2006-01-02 15:04"),
			trade.EntryPrice,
			trade.ExitPrice,
			trade.Size,
			trade.Fees,
			trade.MarginPct,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := fx.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return fx.SetColWidth(sheet, "A", "H", 18)
}
