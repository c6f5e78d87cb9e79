package indicators

import (
	"fmt"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// StochRSI applies the stochastic oscillator formula to the RSI series,
// locating the current RSI inside its own recent range (0-100).
type StochRSI struct {
	rsi    *RSI
	period int
}

// NewStochRSI creates a StochRSI indicator. period is used for both the
// underlying RSI and the stochastic window.
func NewStochRSI(period int) *StochRSI {
	return &StochRSI{rsi: NewRSI(period), period: period}
}

// Calculate returns the StochRSI over the latest candle.
func (s *StochRSI) Calculate(data []types.Candle) (float64, error) {
	if len(data) < s.GetRequiredPeriods() {
		return 0, fmt.Errorf("%w for StochRSI(%d): need %d candles, have %d", ErrInsufficientData, s.period, s.GetRequiredPeriods(), len(data))
	}

	rsiValues, err := s.rsi.Values(data)
	if err != nil {
		return 0, err
	}

	window := rsiValues[len(rsiValues)-s.period:]
	lowest, highest := window[0], window[0]
	for _, v := range window[1:] {
		if v < lowest {
			lowest = v
		}
		if v > highest {
			highest = v
		}
	}

	if highest == lowest {
		return 50, nil
	}
	current := rsiValues[len(rsiValues)-1]
	return (current - lowest) / (highest - lowest) * 100, nil
}

// GetRequiredPeriods returns the minimum number of candles needed: a full
// RSI warm-up plus a full stochastic window of defined RSI values.
func (s *StochRSI) GetRequiredPeriods() int {
	return s.rsi.GetRequiredPeriods() + s.period - 1
}

// GetName returns the indicator name.
func (s *StochRSI) GetName() string {
	return fmt.Sprintf("StochRSI(%d)", s.period)
}
