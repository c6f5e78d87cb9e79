// Package reporting renders simulation results to the console and to CSV,
// JSON, and Excel files.
package reporting

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/smartman0307/pycryptobot/internal/backtest"
)

// ConsoleReporter renders summaries as terminal tables.
type ConsoleReporter struct{}

// NewConsoleReporter creates a console reporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// OutputSummary prints the simulation summary.
func (r *ConsoleReporter) OutputSummary(summary *backtest.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("SIMULATION RESULTS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"📊 Market", summary.Market},
		{"⏰ Granularity", summary.Granularity.String()},
		{"🔄 Ticks", summary.Ticks},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"💰 Starting Quote", fmt.Sprintf("$%.2f", summary.StartQuote)},
		{"💰 Ending Quote", fmt.Sprintf("$%.2f", summary.EndQuote)},
		{"📈 Total Return", fmt.Sprintf("%.2f%%", summary.TotalReturnPct)},
		{"📊 Buy & Hold", fmt.Sprintf("%.2f%%", summary.BuyHoldReturnPct)},
		{"📉 Max Drawdown", fmt.Sprintf("%.2f%%", summary.MaxDrawdownPct)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"🔄 Trades", len(summary.Trades)},
		{"✅ Winning", summary.WinningCount},
		{"❌ Losing", summary.LosingCount},
		{"🎯 Win Rate", fmt.Sprintf("%.1f%%", summary.WinRate)},
	})

	if summary.OpenPosition != nil {
		t.AppendSeparator()
		t.AppendRow(table.Row{"💼 Open Position", fmt.Sprintf("%.8f @ $%.2f", summary.OpenPosition.EntrySize, summary.OpenPosition.EntryPrice)})
	}
	if summary.InsufficientData {
		t.AppendSeparator()
		t.AppendRow(table.Row{"⚠️  Data", "series too short for the indicators"})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, WidthMax: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, WidthMax: 35, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

// OutputTrades prints the closed trades table.
func (r *ConsoleReporter) OutputTrades(summary *backtest.Summary) {
	if len(summary.Trades) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("TRADES")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Entry", "Exit", "Entry $", "Exit $", "Size", "Margin %"})

	for i, trade := range summary.Trades {
		t.AppendRow(table.Row{
			i + 1,
			trade.EntryTime.Format("2006-01-02 15:04"),
			trade.ExitTime.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f", trade.EntryPrice),
			fmt.Sprintf("%.2f", trade.ExitPrice),
			fmt.Sprintf("%.8f", trade.Size),
			fmt.Sprintf("%+.2f", trade.MarginPct),
		})
	}

	t.Render()
	fmt.Println()
}

// OutputConsole is the package-level convenience used by the CLI.
func OutputConsole(summary *backtest.Summary) {
	reporter := NewConsoleReporter()
	reporter.OutputSummary(summary)
	reporter.OutputTrades(summary)
}
