package feed

import (
	"context"
	"testing"
	"time"

	"github.com/smartman0307/pycryptobot/internal/exchange"
)

// tickerStub only implements the calls the feed makes.
type tickerStub struct {
	exchange.Exchange
	price float64
	calls int
}

func (s *tickerStub) GetTicker(ctx context.Context, market string) (float64, error) {
	s.calls++
	return s.price, nil
}

func TestPriceUsesFreshCache(t *testing.T) {
	stub := &tickerStub{price: 101}
	f := New(stub, "BTC-USD", time.Minute)
	f.set(100)

	price, err := f.Price(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if price != 100 {
		t.Errorf("expected cached price 100, got %f", price)
	}
	if stub.calls != 0 {
		t.Errorf("fresh cache should not hit the exchange, got %d calls", stub.calls)
	}
}

func TestStaleCacheFallsBackToDirectQuery(t *testing.T) {
	stub := &tickerStub{price: 105}
	f := New(stub, "BTC-USD", 10*time.Millisecond)
	f.set(100)
	time.Sleep(20 * time.Millisecond)

	price, err := f.Price(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if price != 105 {
		t.Errorf("stale cache should requery, got %f", price)
	}
	if stub.calls != 1 {
		t.Errorf("expected 1 direct query, got %d", stub.calls)
	}

	if age, ok := f.Age(); !ok || age > time.Second {
		t.Errorf("direct query should refresh the cache, age=%v ok=%v", age, ok)
	}
}

func TestEmptyCacheQueriesDirectly(t *testing.T) {
	stub := &tickerStub{price: 99}
	f := New(stub, "BTC-USD", time.Minute)

	price, err := f.Price(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if price != 99 || stub.calls != 1 {
		t.Errorf("empty cache should query once: price=%f calls=%d", price, stub.calls)
	}
}
