package backtest

import (
	"context"
	"sync"
	"time"

	"github.com/smartman0307/pycryptobot/internal/exchange"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

// replayExchange serves pre-chained candle series as if it were the live
// exchange, never revealing candles past the simulated clock. Balances are
// settled by the simulation after each fill; orders themselves are paper.
type replayExchange struct {
	market  string
	primary types.Granularity
	feeRate float64

	mu       sync.Mutex
	now      time.Time
	series   map[types.Granularity][]types.Candle
	balances map[string]float64
}

func newReplayExchange(market string, primary types.Granularity, feeRate float64) *replayExchange {
	return &replayExchange{
		market:   market,
		primary:  primary,
		feeRate:  feeRate,
		series:   make(map[types.Granularity][]types.Candle),
		balances: make(map[string]float64),
	}
}

func (r *replayExchange) addSeries(s *types.PriceSeries) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series[s.Granularity] = s.Candles
}

// advance moves the simulated market time forward to the given candle open.
func (r *replayExchange) advance(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *replayExchange) setBalance(currency string, amount float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[currency] = amount
}

func (r *replayExchange) balance(currency string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[currency]
}

func (r *replayExchange) Name() string {
	return "replay"
}

func (r *replayExchange) GetHistoricalData(_ context.Context, market string, granularity types.Granularity, start, end time.Time) ([]types.Candle, error) {
	if market != r.market {
		return nil, exchange.NewAPIError(r.Name(), 0, "", "unknown market "+market, exchange.KindPermanent)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	candles := r.series[granularity]
	if end.After(r.now) {
		end = r.now
	}
	out := make([]types.Candle, 0, len(candles))
	for _, c := range candles {
		if c.Timestamp.Before(start) || c.Timestamp.After(end) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *replayExchange) GetTicker(_ context.Context, market string) (float64, error) {
	if market != r.market {
		return 0, exchange.NewAPIError(r.Name(), 0, "", "unknown market "+market, exchange.KindPermanent)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var price float64
	for _, c := range r.series[r.primary] {
		if c.Timestamp.After(r.now) {
			break
		}
		price = c.Close
	}
	if price <= 0 {
		return 0, exchange.NewAPIError(r.Name(), 0, "", "no price at simulated time", exchange.KindPermanent)
	}
	return price, nil
}

func (r *replayExchange) GetBalance(_ context.Context, currency string) (types.Balance, error) {
	return types.Balance{Currency: currency, Available: r.balance(currency)}, nil
}

func (r *replayExchange) GetOrders(context.Context, string) ([]types.Order, error) {
	return nil, nil
}

// PlaceMarketOrder is never reached: the simulation runs the engine in
// paper mode, which fills orders without touching the exchange.
func (r *replayExchange) PlaceMarketOrder(_ context.Context, _ string, _ types.OrderSide, _ float64, _ string) (types.Order, error) {
	return types.Order{}, exchange.NewAPIError(r.Name(), 0, "", "replay exchange does not place orders", exchange.KindPermanent)
}

func (r *replayExchange) GetServerTime(context.Context) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now, nil
}

func (r *replayExchange) TakerFee(context.Context, string) (float64, error) {
	return r.feeRate, nil
}

var _ exchange.Exchange = (*replayExchange)(nil)
