package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

func candlesFromCloses(closes []float64) []types.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]types.Candle, len(closes))
	for i, c := range closes {
		candles[i] = types.Candle{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100,
		}
	}
	return candles
}

func TestEMAInsufficientData(t *testing.T) {
	ema := NewEMA(12)
	_, err := ema.Calculate(candlesFromCloses([]float64{1, 2, 3}))
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestEMAConstantSeries(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 42.0
	}
	v, err := NewEMA(12).Calculate(candlesFromCloses(closes))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if math.Abs(v-42.0) > 1e-9 {
		t.Errorf("EMA of constant series = %f, want 42", v)
	}
}

func TestEMATracksTrend(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	data := candlesFromCloses(closes)

	fast, err := NewEMA(12).Calculate(data)
	if err != nil {
		t.Fatal(err)
	}
	slow, err := NewEMA(26).Calculate(data)
	if err != nil {
		t.Fatal(err)
	}
	if fast <= slow {
		t.Errorf("in a steady uptrend fast EMA (%f) should exceed slow EMA (%f)", fast, slow)
	}
}

func TestEMADeterministic(t *testing.T) {
	closes := []float64{10, 11, 13, 12, 14, 15, 13, 16, 17, 16, 18, 19, 20, 19, 21}
	data := candlesFromCloses(closes)

	a, err := NewEMA(12).Calculate(data)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewEMA(12).Calculate(data)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("same window should give same value: %f vs %f", a, b)
	}
}

func TestSMAKnownValue(t *testing.T) {
	v, err := NewSMA(4).Calculate(candlesFromCloses([]float64{1, 2, 3, 4, 5, 6}))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(v-4.5) > 1e-9 {
		t.Errorf("SMA(4) over last four of 1..6 = %f, want 4.5", v)
	}
}
