package coinbase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/smartman0307/pycryptobot/internal/exchange"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

// GetHistoricalData fetches one page of candles, returned ascending. The API
// delivers rows newest first as [time, low, high, open, close, volume].
func (c *Client) GetHistoricalData(ctx context.Context, market string, granularity types.Granularity, start, end time.Time) ([]types.Candle, error) {
	q := url.Values{}
	q.Set("granularity", strconv.Itoa(granularity.Seconds()))
	if !start.IsZero() {
		q.Set("start", start.UTC().Format(time.RFC3339))
	}
	if !end.IsZero() {
		q.Set("end", end.UTC().Format(time.RFC3339))
	}

	var rows [][]float64
	path := fmt.Sprintf("/products/%s/candles?%s", market, q.Encode())
	if err := c.do(ctx, http.MethodGet, path, nil, false, &rows); err != nil {
		return nil, err
	}

	candles := make([]types.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("%w: malformed candle row for %s", types.ErrIncompleteSeries, market)
		}
		candles = append(candles, types.Candle{
			Timestamp: time.Unix(int64(row[0]), 0).UTC(),
			Low:       row[1],
			High:      row[2],
			Open:      row[3],
			Close:     row[4],
			Volume:    row[5],
		})
	}
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	return candles, nil
}

// GetTicker returns the last traded price for the market.
func (c *Client) GetTicker(ctx context.Context, market string) (float64, error) {
	var body struct {
		Price string `json:"price"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/"+market+"/ticker", nil, false, &body); err != nil {
		return 0, err
	}
	price, err := strconv.ParseFloat(body.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ticker price %q: %w", body.Price, err)
	}
	return price, nil
}

// TakerFee returns the account's current taker fee rate.
func (c *Client) TakerFee(ctx context.Context, market string) (float64, error) {
	var body struct {
		TakerFeeRate string `json:"taker_fee_rate"`
	}
	if err := c.do(ctx, http.MethodGet, "/fees", nil, true, &body); err != nil {
		return 0, err
	}
	rate, err := strconv.ParseFloat(body.TakerFeeRate, 64)
	if err != nil {
		return 0, fmt.Errorf("parse taker fee rate %q: %w", body.TakerFeeRate, err)
	}
	return rate, nil
}

var _ exchange.Exchange = (*Client)(nil)
