package reporting

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/smartman0307/pycryptobot/internal/backtest"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

func sampleSummary() *backtest.Summary {
	entry := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	return &backtest.Summary{
		Market:         "BTC-USD",
		Granularity:    types.GranularityOneHour,
		Ticks:          500,
		StartQuote:     1000,
		EndQuote:       1080,
		TotalReturnPct: 8.0,
		WinningCount:   2,
		LosingCount:    1,
		WinRate:        66.7,
		Trades: []types.TradeRecord{
			{Market: "BTC-USD", EntryTime: entry, ExitTime: entry.Add(12 * time.Hour), EntryPrice: 100, ExitPrice: 110, Size: 10, Fees: 1.05, MarginPct: 9.5},
			{Market: "BTC-USD", EntryTime: entry.Add(48 * time.Hour), ExitTime: entry.Add(60 * time.Hour), EntryPrice: 112, ExitPrice: 108, Size: 9.8, Fees: 1.1, MarginPct: -4.1},
			{Market: "BTC-USD", EntryTime: entry.Add(90 * time.Hour), ExitTime: entry.Add(95 * time.Hour), EntryPrice: 105, ExitPrice: 109, Size: 10, Fees: 1.07, MarginPct: 3.2},
		},
	}
}

func TestWriteTradesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trades.csv")
	require.NoError(t, WriteTradesCSV(sampleSummary(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus three trades")
	assert.Equal(t, "market", rows[0][0])
	assert.Equal(t, "BTC-USD", rows[1][0])
	assert.Equal(t, "100", rows[1][3])
}

func TestWriteSummaryJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	require.NoError(t, WriteSummaryJSON(sampleSummary(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded backtest.Summary
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "BTC-USD", decoded.Market)
	assert.Len(t, decoded.Trades, 3)
	assert.Equal(t, 8.0, decoded.TotalReturnPct)
}

func TestWriteSummaryXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteSummaryXLSX(sampleSummary(), path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	assert.Contains(t, fx.GetSheetList(), "Summary")
	assert.Contains(t, fx.GetSheetList(), "Trades")

	market, err := fx.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "BTC-USD", market)

	rows, err := fx.GetRows("Trades")
	require.NoError(t, err)
	require.Len(t, rows, 4)
}

func TestCSVEmptyTrades(t *testing.T) {
	summary := &backtest.Summary{Market: "ETH-USD", Granularity: types.GranularityOneHour}
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteTradesCSV(summary, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}
