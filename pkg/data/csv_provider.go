// Package data loads candle series from local CSV files for simulation
// runs that should not touch an exchange.
package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// ColumnMapping describes where each candle field lives in a CSV row.
type ColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int

	// DateFormat is a time.Parse layout. Empty means the timestamp column
	// holds unix seconds or milliseconds.
	DateFormat string
}

// DefaultFormat matches "timestamp,open,high,low,close,volume" with unix
// second timestamps.
var DefaultFormat = ColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
}

// CSVProvider loads price series from CSV files.
type CSVProvider struct {
	format ColumnMapping
}

// NewCSVProvider creates a provider with the default column layout.
func NewCSVProvider() *CSVProvider {
	return &CSVProvider{format: DefaultFormat}
}

// NewCSVProviderWithFormat creates a provider with a custom column layout.
func NewCSVProviderWithFormat(format ColumnMapping) *CSVProvider {
	return &CSVProvider{format: format}
}

// LoadSeries reads the file into a validated series. Malformed rows are
// skipped with a warning; a gap in the surviving candles fails validation
// rather than being papered over.
func (p *CSVProvider) LoadSeries(filename, market string, granularity types.Granularity) (types.PriceSeries, error) {
	series := types.PriceSeries{Market: market, Granularity: granularity}

	file, err := os.Open(filename)
	if err != nil {
		return series, fmt.Errorf("failed to open data file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		return series, fmt.Errorf("failed to read CSV header: %w", err)
	}

	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return series, fmt.Errorf("error reading CSV at line %d: %w", lineNum, err)
		}
		lineNum++

		candle, err := p.parseRow(record)
		if err != nil {
			log.Printf("⚠️ line %d skipped: %v", lineNum, err)
			continue
		}
		series.Candles = append(series.Candles, candle)
	}

	series.Normalize()
	if len(series.Candles) == 0 {
		return series, fmt.Errorf("%w: no usable rows in %s", types.ErrIncompleteSeries, filename)
	}
	if err := series.Validate(); err != nil {
		return series, err
	}
	return series, nil
}

func (p *CSVProvider) parseRow(record []string) (types.Candle, error) {
	f := p.format
	if len(record) < f.MinColumns {
		return types.Candle{}, fmt.Errorf("expected %d columns, got %d", f.MinColumns, len(record))
	}

	ts, err := p.parseTimestamp(record[f.TimestampCol])
	if err != nil {
		return types.Candle{}, err
	}

	open, err := strconv.ParseFloat(record[f.OpenCol], 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("invalid open %q", record[f.OpenCol])
	}
	high, err := strconv.ParseFloat(record[f.HighCol], 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("invalid high %q", record[f.HighCol])
	}
	low, err := strconv.ParseFloat(record[f.LowCol], 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("invalid low %q", record[f.LowCol])
	}
	closePrice, err := strconv.ParseFloat(record[f.CloseCol], 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("invalid close %q", record[f.CloseCol])
	}
	volume, err := strconv.ParseFloat(record[f.VolumeCol], 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("invalid volume %q", record[f.VolumeCol])
	}

	if open <= 0 || high <= 0 || low <= 0 || closePrice <= 0 {
		return types.Candle{}, fmt.Errorf("non-positive price")
	}
	if high < low || high < open || high < closePrice {
		return types.Candle{}, fmt.Errorf("high below another price")
	}
	if low > open || low > closePrice {
		return types.Candle{}, fmt.Errorf("low above another price")
	}

	return types.Candle{
		Timestamp: ts,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}, nil
}

func (p *CSVProvider) parseTimestamp(raw string) (time.Time, error) {
	if p.format.DateFormat != "" {
		ts, err := time.Parse(p.format.DateFormat, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
		}
		return ts.UTC(), nil
	}

	epoch, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
	}
	// Millisecond epochs are thirteen digits until the year 33658.
	if epoch > 1e12 {
		return time.UnixMilli(epoch).UTC(), nil
	}
	return time.Unix(epoch, 0).UTC(), nil
}
