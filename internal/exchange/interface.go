// Package exchange defines the capability surface the trading engine needs
// from a spot exchange, plus the shared error taxonomy and retry policy the
// adapters implement it with.
package exchange

import (
	"context"
	"time"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// MaxCandlesPerPage is the largest number of candles a single historical
// data request may return. Longer ranges are chained from multiple pages.
const MaxCandlesPerPage = 300

// Exchange is the capability set every adapter provides. All calls honor the
// passed context; blocking calls return promptly on cancellation.
type Exchange interface {
	// Name returns the adapter identifier ("coinbase", "binance", "bybit").
	Name() string

	// GetHistoricalData returns ascending candles for the range, at most one
	// page per call. start/end are inclusive candle open times.
	GetHistoricalData(ctx context.Context, market string, granularity types.Granularity, start, end time.Time) ([]types.Candle, error)

	// GetTicker returns the last traded price for the market.
	GetTicker(ctx context.Context, market string) (float64, error)

	// GetBalance returns the funds held in one currency.
	GetBalance(ctx context.Context, currency string) (types.Balance, error)

	// GetOrders returns the market's order history, most recent first. An
	// empty history is a valid result, not an error.
	GetOrders(ctx context.Context, market string) ([]types.Order, error)

	// PlaceMarketOrder submits a market order. For buys, amount is quote
	// currency funds; for sells it is base currency size. clientID is the
	// caller-chosen idempotency key, echoed back by GetOrders.
	PlaceMarketOrder(ctx context.Context, market string, side types.OrderSide, amount float64, clientID string) (types.Order, error)

	// GetServerTime returns the exchange's authoritative clock.
	GetServerTime(ctx context.Context) (time.Time, error)

	// TakerFee returns the taker fee rate for the market. Callers fall back
	// to a flat configured rate when this fails.
	TakerFee(ctx context.Context, market string) (float64, error)
}

// TickerStreamer is implemented by adapters that can push live prices.
// Adapters without a stream are polled instead.
type TickerStreamer interface {
	// StreamTicker delivers last-trade prices on the returned channel until
	// the context is cancelled.
	StreamTicker(ctx context.Context, market string) (<-chan float64, error)
}
