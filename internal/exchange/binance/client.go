// Package binance adapts the adshao/go-binance SDK to the exchange
// interface.
package binance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance"
	"github.com/adshao/go-binance/common"

	"github.com/smartman0307/pycryptobot/internal/exchange"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

// Binance error codes the adapter classifies specially.
const (
	codeRateLimit           = -1003
	codeTimestampOutOfRange = -1021
	codeInvalidAPIKey       = -2014
	codeRejectedAPIKey      = -2015
	codeInsufficientBalance = -2010
)

// Client implements the exchange interface for Binance spot.
type Client struct {
	delegate *binance.Client
}

// NewClient creates a Binance client. baseURL overrides the production
// endpoint when non-empty (tests, regional mirrors).
func NewClient(apiKey, apiSecret, baseURL string) *Client {
	delegate := binance.NewClient(apiKey, apiSecret)
	if baseURL != "" {
		delegate.BaseURL = baseURL
	}
	return &Client{delegate: delegate}
}

// Name returns the adapter identifier.
func (c *Client) Name() string {
	return "binance"
}

func interval(g types.Granularity) string {
	switch g {
	case types.GranularityOneMinute:
		return "1m"
	case types.GranularityFiveMinutes:
		return "5m"
	case types.GranularityFifteenMinutes:
		return "15m"
	case types.GranularityOneHour:
		return "1h"
	case types.GranularitySixHours:
		return "6h"
	default:
		return "1d"
	}
}

// wrapErr normalizes SDK errors into the shared taxonomy.
func (c *Client) wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	kind := exchange.KindPermanent
	switch apiErr.Code {
	case codeRateLimit:
		kind = exchange.KindTransient
	case codeTimestampOutOfRange:
		kind = exchange.KindClockSkew
	case codeInvalidAPIKey, codeRejectedAPIKey:
		kind = exchange.KindAuth
	case codeInsufficientBalance:
		kind = exchange.KindInsufficientFunds
	}
	return exchange.NewAPIError(c.Name(), 0, strconv.FormatInt(apiErr.Code, 10), apiErr.Message, kind)
}

// GetHistoricalData fetches one page of candles, ascending.
func (c *Client) GetHistoricalData(ctx context.Context, market string, granularity types.Granularity, start, end time.Time) ([]types.Candle, error) {
	svc := c.delegate.NewKlinesService().
		Symbol(market).
		Interval(interval(granularity)).
		Limit(exchange.MaxCandlesPerPage)
	if !start.IsZero() {
		svc = svc.StartTime(start.UTC().UnixNano() / int64(time.Millisecond))
	}
	if !end.IsZero() {
		svc = svc.EndTime(end.UTC().UnixNano() / int64(time.Millisecond))
	}

	klines, err := svc.Do(ctx)
	if err != nil {
		return nil, c.wrapErr(err)
	}

	candles := make([]types.Candle, 0, len(klines))
	for _, k := range klines {
		candle, err := parseKline(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrIncompleteSeries, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func parseKline(k *binance.Kline) (types.Candle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("parse open %q: %w", k.Open, err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("parse high %q: %w", k.High, err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("parse low %q: %w", k.Low, err)
	}
	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("parse close %q: %w", k.Close, err)
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return types.Candle{}, fmt.Errorf("parse volume %q: %w", k.Volume, err)
	}
	return types.Candle{
		Timestamp: time.Unix(0, k.OpenTime*int64(time.Millisecond)).UTC(),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}, nil
}

// GetTicker returns the last traded price.
func (c *Client) GetTicker(ctx context.Context, market string) (float64, error) {
	prices, err := c.delegate.NewListPricesService().Symbol(market).Do(ctx)
	if err != nil {
		return 0, c.wrapErr(err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("no price returned for %s", market)
	}
	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", prices[0].Price, err)
	}
	return price, nil
}

// GetBalance returns the funds held in one asset.
func (c *Client) GetBalance(ctx context.Context, currency string) (types.Balance, error) {
	account, err := c.delegate.NewGetAccountService().Do(ctx)
	if err != nil {
		return types.Balance{}, c.wrapErr(err)
	}
	for _, b := range account.Balances {
		if b.Asset != currency {
			continue
		}
		free, _ := strconv.ParseFloat(b.Free, 64)
		locked, _ := strconv.ParseFloat(b.Locked, 64)
		return types.Balance{Currency: currency, Available: free, Hold: locked}, nil
	}
	return types.Balance{Currency: currency}, nil
}

func mapStatus(status binance.OrderStatusType) types.OrderStatus {
	switch status {
	case binance.OrderStatusTypeFilled:
		return types.OrderStatusFilled
	case binance.OrderStatusTypeNew, binance.OrderStatusTypePartiallyFilled:
		return types.OrderStatusOpen
	case binance.OrderStatusTypeRejected, binance.OrderStatusTypeCanceled, binance.OrderStatusTypeExpired:
		return types.OrderStatusRejected
	default:
		return types.OrderStatusUnknown
	}
}

// GetOrders returns the market's order history, most recent first.
func (c *Client) GetOrders(ctx context.Context, market string) ([]types.Order, error) {
	rows, err := c.delegate.NewListOrdersService().Symbol(market).Limit(100).Do(ctx)
	if err != nil {
		return nil, c.wrapErr(err)
	}

	orders := make([]types.Order, 0, len(rows))
	// the SDK returns oldest first; normalize to most recent first
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		size, _ := strconv.ParseFloat(row.ExecutedQuantity, 64)
		quote, _ := strconv.ParseFloat(row.CummulativeQuoteQuantity, 64)
		price := 0.0
		if size > 0 {
			price = quote / size
		}
		orders = append(orders, types.Order{
			ID:            strconv.FormatInt(row.OrderID, 10),
			ClientOrderID: row.ClientOrderID,
			Market:        market,
			Side:          types.OrderSide(sideString(row.Side)),
			Size:          size,
			Price:         price,
			Status:        mapStatus(row.Status),
			CreatedAt:     time.Unix(0, row.Time*int64(time.Millisecond)).UTC(),
		})
	}
	return orders, nil
}

func sideString(side binance.SideType) string {
	if side == binance.SideTypeSell {
		return string(types.OrderSideSell)
	}
	return string(types.OrderSideBuy)
}

// PlaceMarketOrder submits a market order. Binance market buys are sized in
// base quantity, so quote funds are converted at the last traded price.
func (c *Client) PlaceMarketOrder(ctx context.Context, market string, side types.OrderSide, amount float64, clientID string) (types.Order, error) {
	quantity := amount
	if side == types.OrderSideBuy {
		price, err := c.GetTicker(ctx, market)
		if err != nil {
			return types.Order{}, fmt.Errorf("size buy order: %w", err)
		}
		quantity = amount / price
	}

	sdkSide := binance.SideTypeBuy
	if side == types.OrderSideSell {
		sdkSide = binance.SideTypeSell
	}

	resp, err := c.delegate.NewCreateOrderService().
		Symbol(market).
		Side(sdkSide).
		Type(binance.OrderTypeMarket).
		Quantity(strconv.FormatFloat(quantity, 'f', 8, 64)).
		NewClientOrderID(clientID).
		Do(ctx)
	if err != nil {
		return types.Order{}, c.wrapErr(err)
	}

	size, _ := strconv.ParseFloat(resp.ExecutedQuantity, 64)
	quote, _ := strconv.ParseFloat(resp.CummulativeQuoteQuantity, 64)
	price := 0.0
	if size > 0 {
		price = quote / size
	}
	return types.Order{
		ID:            strconv.FormatInt(resp.OrderID, 10),
		ClientOrderID: resp.ClientOrderID,
		Market:        market,
		Side:          side,
		Size:          size,
		Price:         price,
		Status:        mapStatus(resp.Status),
		CreatedAt:     time.Unix(0, resp.TransactTime*int64(time.Millisecond)).UTC(),
	}, nil
}

// GetServerTime returns Binance's authoritative clock.
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	ms, err := c.delegate.NewServerTimeService().Do(ctx)
	if err != nil {
		return time.Time{}, c.wrapErr(err)
	}
	return time.Unix(0, ms*int64(time.Millisecond)).UTC(), nil
}

// TakerFee is not exposed on the endpoints this adapter uses; callers fall
// back to the configured flat rate.
func (c *Client) TakerFee(ctx context.Context, market string) (float64, error) {
	return 0, errors.New("binance: taker fee lookup not supported")
}

var _ exchange.Exchange = (*Client)(nil)
