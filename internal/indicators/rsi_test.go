package indicators

import (
	"errors"
	"testing"
)

func TestRSIInsufficientData(t *testing.T) {
	_, err := NewRSI(14).Calculate(candlesFromCloses([]float64{1, 2, 3, 4, 5}))
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestRSIAllGainsSaturates(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	v, err := NewRSI(14).Calculate(candlesFromCloses(closes))
	if err != nil {
		t.Fatal(err)
	}
	if v < 99.9 {
		t.Errorf("RSI of monotonic gains = %f, want ~100", v)
	}
}

func TestRSIAllLossesSaturates(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}
	v, err := NewRSI(14).Calculate(candlesFromCloses(closes))
	if err != nil {
		t.Fatal(err)
	}
	if v > 0.1 {
		t.Errorf("RSI of monotonic losses = %f, want ~0", v)
	}
}

func TestRSIFlatSeriesIsNeutral(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	v, err := NewRSI(14).Calculate(candlesFromCloses(closes))
	if err != nil {
		t.Fatal(err)
	}
	if v != 50 {
		t.Errorf("RSI of flat series = %f, want 50", v)
	}
}

func TestRSIBounded(t *testing.T) {
	closes := []float64{44, 44.3, 44.1, 43.6, 44.3, 44.8, 45.1, 45.4, 45.4, 45.9, 46.1, 45.9, 46.3, 46.1, 46.3, 46, 46.4, 46.2, 45.6, 46.2, 46.2, 46}
	v, err := NewRSI(14).Calculate(candlesFromCloses(closes))
	if err != nil {
		t.Fatal(err)
	}
	if v <= 0 || v >= 100 {
		t.Errorf("RSI out of bounds: %f", v)
	}
	if v < 50 {
		t.Errorf("mostly-gaining series should read above 50, got %f", v)
	}
}

func TestStochRSIBounded(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
	}
	v, err := NewStochRSI(14).Calculate(candlesFromCloses(closes))
	if err != nil {
		t.Fatal(err)
	}
	if v < 0 || v > 100 {
		t.Errorf("StochRSI out of bounds: %f", v)
	}
}

func TestWilliamsRBounds(t *testing.T) {
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	v, err := NewWilliamsR(14).Calculate(candlesFromCloses(rising))
	if err != nil {
		t.Fatal(err)
	}
	if v < -100 || v > 0 {
		t.Errorf("WilliamsR out of range: %f", v)
	}
	if v < -20 {
		t.Errorf("close at the top of the range should read near 0, got %f", v)
	}
}
