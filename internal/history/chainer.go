// Package history assembles long candle ranges from the exchange's paged
// historical data endpoint.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/smartman0307/pycryptobot/internal/exchange"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

// CandleSource is the slice of the exchange interface the chainer needs.
type CandleSource interface {
	GetHistoricalData(ctx context.Context, market string, granularity types.Granularity, start, end time.Time) ([]types.Candle, error)
}

// Chainer fetches a candle range page by page, working backwards from the
// end, and validates the stitched result.
type Chainer struct {
	source   CandleSource
	pageSize int
}

// NewChainer creates a chainer over the given source.
func NewChainer(source CandleSource) *Chainer {
	return &Chainer{source: source, pageSize: exchange.MaxCandlesPerPage}
}

// Chain returns a validated series covering [start, end]. Pages overlap at
// the seams; duplicates are dropped. If the stitched result still has holes
// the error is ErrIncompleteSeries, never an interpolated series.
func (c *Chainer) Chain(ctx context.Context, market string, granularity types.Granularity, start, end time.Time) (types.PriceSeries, error) {
	series := types.PriceSeries{Market: market, Granularity: granularity}
	if !end.After(start) {
		return series, fmt.Errorf("invalid range: start %s not before end %s", start, end)
	}

	step := granularity.Duration()
	pageSpan := time.Duration(c.pageSize-1) * step

	// worst case page count for the span, plus slack for seam overlap
	maxPages := int(end.Sub(start)/pageSpan) + 2

	cursor := end
	for page := 0; page < maxPages && cursor.After(start); page++ {
		pageStart := cursor.Add(-pageSpan)
		if pageStart.Before(start) {
			pageStart = start
		}

		candles, err := c.source.GetHistoricalData(ctx, market, granularity, pageStart, cursor)
		if err != nil {
			return series, fmt.Errorf("fetch page %s..%s: %w", pageStart.Format(time.RFC3339), cursor.Format(time.RFC3339), err)
		}
		if len(candles) == 0 {
			// the market's history starts after pageStart; stop paging
			break
		}
		series.Candles = append(series.Candles, candles...)

		earliest := candles[0].Timestamp
		if !earliest.After(pageStart) {
			if !pageStart.After(start) {
				break
			}
		}
		cursor = earliest.Add(-step)
	}

	series.Normalize()
	series.Candles = clamp(series.Candles, start, end)

	if len(series.Candles) == 0 {
		return series, fmt.Errorf("%w: no candles for %s between %s and %s",
			types.ErrIncompleteSeries, market, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	if err := series.Validate(); err != nil {
		return series, err
	}
	return series, nil
}

// ChainLatest returns the most recent count candles ending at now.
func (c *Chainer) ChainLatest(ctx context.Context, market string, granularity types.Granularity, count int, now time.Time) (types.PriceSeries, error) {
	end := now.Truncate(granularity.Duration())
	start := end.Add(-time.Duration(count-1) * granularity.Duration())
	return c.Chain(ctx, market, granularity, start, end)
}

func clamp(candles []types.Candle, start, end time.Time) []types.Candle {
	out := candles[:0]
	for _, c := range candles {
		if c.Timestamp.Before(start) || c.Timestamp.After(end) {
			continue
		}
		out = append(out, c)
	}
	return out
}
