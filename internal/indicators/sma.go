package indicators

import (
	"fmt"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// SMA is the Simple Moving Average of close prices.
type SMA struct {
	period int
}

// NewSMA creates an SMA indicator for the given period.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

// Calculate returns the SMA over the latest window.
func (s *SMA) Calculate(data []types.Candle) (float64, error) {
	if len(data) < s.period {
		return 0, fmt.Errorf("%w for SMA(%d): have %d candles", ErrInsufficientData, s.period, len(data))
	}

	sum := 0.0
	for i := len(data) - s.period; i < len(data); i++ {
		sum += data[i].Close
	}
	return sum / float64(s.period), nil
}

// GetRequiredPeriods returns the minimum number of candles needed.
func (s *SMA) GetRequiredPeriods() int {
	return s.period
}

// GetName returns the indicator name.
func (s *SMA) GetName() string {
	return fmt.Sprintf("SMA(%d)", s.period)
}
