package exchange

import (
	"context"
	"time"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// retrying wraps an adapter and retries its read calls under the configured
// policy. Order placement is NOT retried here: an uncertain placement must be
// reconciled against order history by client ID, never re-submitted.
type retrying struct {
	inner Exchange
	cfg   RetryConfig
}

// WithRetry decorates an adapter with the retry policy. A zero config means
// the default policy.
func WithRetry(inner Exchange, cfg RetryConfig) Exchange {
	if cfg.MaxRetries == 0 && cfg.InitialDelay == 0 {
		cfg = DefaultRetryConfig()
	}
	return &retrying{inner: inner, cfg: cfg}
}

func (r *retrying) Name() string {
	return r.inner.Name()
}

func (r *retrying) GetHistoricalData(ctx context.Context, market string, granularity types.Granularity, start, end time.Time) ([]types.Candle, error) {
	var candles []types.Candle
	err := Retry(ctx, r.cfg, func() error {
		var opErr error
		candles, opErr = r.inner.GetHistoricalData(ctx, market, granularity, start, end)
		return opErr
	})
	return candles, err
}

func (r *retrying) GetTicker(ctx context.Context, market string) (float64, error) {
	var price float64
	err := Retry(ctx, r.cfg, func() error {
		var opErr error
		price, opErr = r.inner.GetTicker(ctx, market)
		return opErr
	})
	return price, err
}

func (r *retrying) GetBalance(ctx context.Context, currency string) (types.Balance, error) {
	var bal types.Balance
	err := Retry(ctx, r.cfg, func() error {
		var opErr error
		bal, opErr = r.inner.GetBalance(ctx, currency)
		return opErr
	})
	return bal, err
}

func (r *retrying) GetOrders(ctx context.Context, market string) ([]types.Order, error) {
	var orders []types.Order
	err := Retry(ctx, r.cfg, func() error {
		var opErr error
		orders, opErr = r.inner.GetOrders(ctx, market)
		return opErr
	})
	return orders, err
}

func (r *retrying) PlaceMarketOrder(ctx context.Context, market string, side types.OrderSide, amount float64, clientID string) (types.Order, error) {
	return r.inner.PlaceMarketOrder(ctx, market, side, amount, clientID)
}

func (r *retrying) GetServerTime(ctx context.Context) (time.Time, error) {
	var ts time.Time
	err := Retry(ctx, r.cfg, func() error {
		var opErr error
		ts, opErr = r.inner.GetServerTime(ctx)
		return opErr
	})
	return ts, err
}

func (r *retrying) TakerFee(ctx context.Context, market string) (float64, error) {
	var fee float64
	err := Retry(ctx, r.cfg, func() error {
		var opErr error
		fee, opErr = r.inner.TakerFee(ctx, market)
		return opErr
	})
	return fee, err
}

// StreamTicker passes through to adapters that support it.
func (r *retrying) StreamTicker(ctx context.Context, market string) (<-chan float64, error) {
	if s, ok := r.inner.(TickerStreamer); ok {
		return s.StreamTicker(ctx, market)
	}
	return nil, &APIError{Kind: KindPermanent, Message: "adapter does not stream"}
}
