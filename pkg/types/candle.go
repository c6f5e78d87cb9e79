package types

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Candle represents one OHLCV bar.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// ErrIncompleteSeries marks a candle series with missing or malformed bars.
// Callers must treat the data as unusable rather than fill the holes.
var ErrIncompleteSeries = errors.New("incomplete price series")

// PriceSeries is an ascending run of candles for one market at one granularity.
type PriceSeries struct {
	Market      string      `json:"market"`
	Granularity Granularity `json:"granularity"`
	Candles     []Candle    `json:"candles"`
}

// Validate checks the series invariants: timestamps strictly increasing with
// constant spacing equal to the granularity, no duplicates. Any violation is
// reported as ErrIncompleteSeries with the offending position.
func (s *PriceSeries) Validate() error {
	step := s.Granularity.Duration()
	if step <= 0 {
		return fmt.Errorf("%w: invalid granularity %d", ErrIncompleteSeries, int(s.Granularity))
	}
	for i := 1; i < len(s.Candles); i++ {
		prev := s.Candles[i-1].Timestamp
		cur := s.Candles[i].Timestamp
		switch d := cur.Sub(prev); {
		case d == 0:
			return fmt.Errorf("%w: duplicate candle at %s", ErrIncompleteSeries, cur.UTC().Format(time.RFC3339))
		case d < 0:
			return fmt.Errorf("%w: timestamps out of order at %s", ErrIncompleteSeries, cur.UTC().Format(time.RFC3339))
		case d != step:
			return fmt.Errorf("%w: gap between %s and %s (expected %s spacing)",
				ErrIncompleteSeries, prev.UTC().Format(time.RFC3339), cur.UTC().Format(time.RFC3339), step)
		}
	}
	return nil
}

// Len returns the number of candles in the series.
func (s *PriceSeries) Len() int {
	return len(s.Candles)
}

// Latest returns the most recent candle, or false when the series is empty.
func (s *PriceSeries) Latest() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}

// Closes returns the close prices in series order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		closes[i] = c.Close
	}
	return closes
}

// Window returns the trailing n candles (all of them when n exceeds the length).
func (s *PriceSeries) Window(n int) []Candle {
	if n >= len(s.Candles) {
		return s.Candles
	}
	return s.Candles[len(s.Candles)-n:]
}

// UpTo returns a copy of the series truncated at the given index (exclusive).
// Used by the simulator to expose only the candles seen so far.
func (s *PriceSeries) UpTo(idx int) PriceSeries {
	if idx > len(s.Candles) {
		idx = len(s.Candles)
	}
	return PriceSeries{
		Market:      s.Market,
		Granularity: s.Granularity,
		Candles:     s.Candles[:idx],
	}
}

// Normalize sorts candles ascending and drops duplicate timestamps, keeping
// the last occurrence. Page-chained fetches overlap at the seams.
func (s *PriceSeries) Normalize() {
	sort.SliceStable(s.Candles, func(i, j int) bool {
		return s.Candles[i].Timestamp.Before(s.Candles[j].Timestamp)
	})
	out := s.Candles[:0]
	for _, c := range s.Candles {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(c.Timestamp) {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	s.Candles = out
}
