package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// fakeSource serves pages out of one continuous in-memory candle run, with
// optional holes.
type fakeSource struct {
	candles []types.Candle
	skip    map[int]bool // indexes withheld, to simulate exchange-side holes
	calls   int
}

func newFakeSource(g types.Granularity, n int) *fakeSource {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]types.Candle, n)
	for i := range candles {
		price := 50.0 + float64(i)*0.25
		candles[i] = types.Candle{
			Timestamp: start.Add(time.Duration(i) * g.Duration()),
			Open:      price, High: price + 1, Low: price - 1, Close: price, Volume: 10,
		}
	}
	return &fakeSource{candles: candles, skip: map[int]bool{}}
}

func (f *fakeSource) GetHistoricalData(ctx context.Context, market string, g types.Granularity, start, end time.Time) ([]types.Candle, error) {
	f.calls++
	var out []types.Candle
	for i, c := range f.candles {
		if f.skip[i] || c.Timestamp.Before(start) || c.Timestamp.After(end) {
			continue
		}
		out = append(out, c)
		if len(out) == 300 {
			break
		}
	}
	return out, nil
}

func TestChainStitchesMultiplePages(t *testing.T) {
	g := types.GranularityOneHour
	source := newFakeSource(g, 1000)
	chainer := NewChainer(source)

	start := source.candles[0].Timestamp
	end := source.candles[899].Timestamp

	series, err := chainer.Chain(context.Background(), "BTC-USD", g, start, end)
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if series.Len() != 900 {
		t.Errorf("expected 900 candles, got %d", series.Len())
	}
	if source.calls < 3 {
		t.Errorf("expected multiple pages, got %d calls", source.calls)
	}
	if err := series.Validate(); err != nil {
		t.Errorf("chained series should validate: %v", err)
	}
}

func TestChainMatchesSingleFetchOnOverlap(t *testing.T) {
	g := types.GranularityFifteenMinutes
	source := newFakeSource(g, 400)
	chainer := NewChainer(source)

	start := source.candles[0].Timestamp
	end := source.candles[249].Timestamp

	direct, err := source.GetHistoricalData(context.Background(), "BTC-USD", g, start, end)
	if err != nil {
		t.Fatal(err)
	}
	chained, err := chainer.Chain(context.Background(), "BTC-USD", g, start, end)
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}

	if len(direct) != chained.Len() {
		t.Fatalf("chained %d candles, direct fetch %d", chained.Len(), len(direct))
	}
	for i := range direct {
		if !direct[i].Timestamp.Equal(chained.Candles[i].Timestamp) || direct[i].Close != chained.Candles[i].Close {
			t.Fatalf("candle %d differs between chained and direct fetch", i)
		}
	}
}

func TestChainSurfacesGapAsIncompleteSeries(t *testing.T) {
	g := types.GranularityOneHour
	source := newFakeSource(g, 500)
	for i := 200; i < 205; i++ {
		source.skip[i] = true
	}
	chainer := NewChainer(source)

	_, err := chainer.Chain(context.Background(), "BTC-USD", g,
		source.candles[0].Timestamp, source.candles[499].Timestamp)
	if !errors.Is(err, types.ErrIncompleteSeries) {
		t.Errorf("expected ErrIncompleteSeries for a hole, got %v", err)
	}
}

func TestChainRejectsEmptyRange(t *testing.T) {
	g := types.GranularityOneHour
	source := newFakeSource(g, 10)
	chainer := NewChainer(source)

	// range entirely before the market existed
	end := source.candles[0].Timestamp.Add(-24 * time.Hour)
	start := end.Add(-48 * time.Hour)

	_, err := chainer.Chain(context.Background(), "BTC-USD", g, start, end)
	if !errors.Is(err, types.ErrIncompleteSeries) {
		t.Errorf("expected ErrIncompleteSeries for empty range, got %v", err)
	}
}

func TestChainLatestAlignsToGranularity(t *testing.T) {
	g := types.GranularityOneHour
	source := newFakeSource(g, 400)
	chainer := NewChainer(source)

	now := source.candles[399].Timestamp.Add(20 * time.Minute)
	series, err := chainer.ChainLatest(context.Background(), "BTC-USD", g, 300, now)
	if err != nil {
		t.Fatalf("ChainLatest: %v", err)
	}
	if series.Len() != 300 {
		t.Errorf("expected 300 candles, got %d", series.Len())
	}
	latest, _ := series.Latest()
	if !latest.Timestamp.Equal(source.candles[399].Timestamp) {
		t.Errorf("latest candle %s, want %s", latest.Timestamp, source.candles[399].Timestamp)
	}
}
