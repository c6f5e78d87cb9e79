package bybit

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/smartman0307/pycryptobot/internal/exchange"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

func interval(g types.Granularity) string {
	switch g {
	case types.GranularityOneMinute:
		return "1"
	case types.GranularityFiveMinutes:
		return "5"
	case types.GranularityFifteenMinutes:
		return "15"
	case types.GranularityOneHour:
		return "60"
	case types.GranularitySixHours:
		return "360"
	default:
		return "D"
	}
}

// GetHistoricalData fetches one page of spot klines, ascending. The API
// returns rows newest first as [start, open, high, low, close, volume,
// turnover] strings.
func (c *Client) GetHistoricalData(ctx context.Context, market string, granularity types.Granularity, start, end time.Time) ([]types.Candle, error) {
	params := map[string]interface{}{
		"category": "spot",
		"symbol":   market,
		"interval": interval(granularity),
		"limit":    exchange.MaxCandlesPerPage,
	}
	if !start.IsZero() {
		params["start"] = start.UTC().UnixMilli()
	}
	if !end.IsZero() {
		params["end"] = end.UTC().UnixMilli()
	}

	var result struct {
		List [][]string `json:"list"`
	}
	err := c.call(ctx, params, func(s *bybit_api.BybitClientRequest, ctx context.Context) (*bybit_api.ServerResponse, error) {
		return s.GetMarketKline(ctx)
	}, &result)
	if err != nil {
		return nil, err
	}

	candles := make([]types.Candle, 0, len(result.List))
	for _, row := range result.List {
		if len(row) < 6 {
			return nil, fmt.Errorf("%w: malformed kline row for %s", types.ErrIncompleteSeries, market)
		}
		startMs, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad kline timestamp %q", types.ErrIncompleteSeries, row[0])
		}
		candles = append(candles, types.Candle{
			Timestamp: time.UnixMilli(startMs).UTC(),
			Open:      parseFloat(row[1]),
			High:      parseFloat(row[2]),
			Low:       parseFloat(row[3]),
			Close:     parseFloat(row[4]),
			Volume:    parseFloat(row[5]),
		})
	}
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	return candles, nil
}

// GetTicker returns the last traded price for the market.
func (c *Client) GetTicker(ctx context.Context, market string) (float64, error) {
	params := map[string]interface{}{
		"category": "spot",
		"symbol":   market,
	}
	var result struct {
		List []struct {
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}
	err := c.call(ctx, params, func(s *bybit_api.BybitClientRequest, ctx context.Context) (*bybit_api.ServerResponse, error) {
		return s.GetMarketTickers(ctx)
	}, &result)
	if err != nil {
		return 0, err
	}
	if len(result.List) == 0 {
		return 0, fmt.Errorf("no ticker returned for %s", market)
	}
	return parseFloat(result.List[0].LastPrice), nil
}

// GetServerTime returns Bybit's authoritative clock.
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	var result struct {
		TimeSecond string `json:"timeSecond"`
	}
	err := c.call(ctx, map[string]interface{}{}, func(s *bybit_api.BybitClientRequest, ctx context.Context) (*bybit_api.ServerResponse, error) {
		return s.GetServerTime(ctx)
	}, &result)
	if err != nil {
		return time.Time{}, err
	}
	sec, err := strconv.ParseInt(result.TimeSecond, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse server time %q: %w", result.TimeSecond, err)
	}
	return time.Unix(sec, 0).UTC(), nil
}

// TakerFee returns the spot taker fee rate for the market.
func (c *Client) TakerFee(ctx context.Context, market string) (float64, error) {
	params := map[string]interface{}{
		"category": "spot",
		"symbol":   market,
	}
	var result struct {
		List []struct {
			TakerFeeRate string `json:"takerFeeRate"`
		} `json:"list"`
	}
	err := c.call(ctx, params, func(s *bybit_api.BybitClientRequest, ctx context.Context) (*bybit_api.ServerResponse, error) {
		return s.GetFeeRates(ctx)
	}, &result)
	if err != nil {
		return 0, err
	}
	if len(result.List) == 0 {
		return 0, fmt.Errorf("no fee rate returned for %s", market)
	}
	return parseFloat(result.List[0].TakerFeeRate), nil
}

var _ exchange.Exchange = (*Client)(nil)
