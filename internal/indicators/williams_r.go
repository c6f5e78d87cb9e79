package indicators

import (
	"fmt"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// WilliamsR is the Williams %R oscillator: where the close sits inside the
// recent high-low range, scaled to -100..0.
type WilliamsR struct {
	period int
}

// NewWilliamsR creates a Williams %R indicator for the given period.
func NewWilliamsR(period int) *WilliamsR {
	return &WilliamsR{period: period}
}

// Calculate returns the Williams %R over the latest candle.
func (w *WilliamsR) Calculate(data []types.Candle) (float64, error) {
	if len(data) < w.period {
		return 0, fmt.Errorf("%w for WilliamsR(%d): have %d candles", ErrInsufficientData, w.period, len(data))
	}

	window := data[len(data)-w.period:]
	highest, lowest := window[0].High, window[0].Low
	for _, c := range window[1:] {
		if c.High > highest {
			highest = c.High
		}
		if c.Low < lowest {
			lowest = c.Low
		}
	}

	if highest == lowest {
		return -50, nil
	}
	latest := data[len(data)-1].Close
	return (highest - latest) / (highest - lowest) * -100, nil
}

// GetRequiredPeriods returns the minimum number of candles needed.
func (w *WilliamsR) GetRequiredPeriods() int {
	return w.period
}

// GetName returns the indicator name.
func (w *WilliamsR) GetName() string {
	return fmt.Sprintf("WilliamsR(%d)", w.period)
}
