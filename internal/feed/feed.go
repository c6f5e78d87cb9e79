// Package feed keeps the latest traded price warm in the background so ticks
// do not block on a REST round trip. Readers fall back to a direct query
// when the cache goes stale.
package feed

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/smartman0307/pycryptobot/internal/exchange"
)

// DefaultStaleAfter is how old a cached price may be before readers bypass
// the cache.
const DefaultStaleAfter = 30 * time.Second

// pollInterval paces REST polling for adapters without a stream.
const pollInterval = 5 * time.Second

// Feed caches the market's last traded price.
type Feed struct {
	ex         exchange.Exchange
	market     string
	staleAfter time.Duration
	limiter    *rate.Limiter

	mu      sync.RWMutex
	price   float64
	updated time.Time
}

// New creates a feed for one market. staleAfter <= 0 takes the default.
func New(ex exchange.Exchange, market string, staleAfter time.Duration) *Feed {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Feed{
		ex:         ex,
		market:     market,
		staleAfter: staleAfter,
		limiter:    rate.NewLimiter(rate.Every(pollInterval), 1),
	}
}

// Run keeps the cache warm until the context is cancelled. Streaming
// adapters push prices; the rest are polled. Stream drops fall back to
// polling until the next reconnect attempt.
func (f *Feed) Run(ctx context.Context) {
	streamer, canStream := f.ex.(exchange.TickerStreamer)
	for ctx.Err() == nil {
		if canStream {
			if err := f.consumeStream(ctx, streamer); err == nil {
				continue
			}
		}
		f.pollOnce(ctx)
	}
}

func (f *Feed) consumeStream(ctx context.Context, streamer exchange.TickerStreamer) error {
	prices, err := streamer.StreamTicker(ctx, f.market)
	if err != nil {
		return err
	}
	for price := range prices {
		f.set(price)
	}
	return nil
}

func (f *Feed) pollOnce(ctx context.Context) {
	if err := f.limiter.Wait(ctx); err != nil {
		return
	}
	price, err := f.ex.GetTicker(ctx, f.market)
	if err != nil {
		return
	}
	f.set(price)
}

func (f *Feed) set(price float64) {
	f.mu.Lock()
	f.price = price
	f.updated = time.Now()
	f.mu.Unlock()
}

// Price returns the cached price while it is fresh; otherwise it queries the
// exchange directly.
func (f *Feed) Price(ctx context.Context) (float64, error) {
	f.mu.RLock()
	price, updated := f.price, f.updated
	f.mu.RUnlock()

	if !updated.IsZero() && time.Since(updated) < f.staleAfter {
		return price, nil
	}

	fresh, err := f.ex.GetTicker(ctx, f.market)
	if err != nil {
		return 0, err
	}
	f.set(fresh)
	return fresh, nil
}

// Age returns how old the cached price is, or false when nothing is cached.
func (f *Feed) Age() (time.Duration, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.updated.IsZero() {
		return 0, false
	}
	return time.Since(f.updated), true
}
