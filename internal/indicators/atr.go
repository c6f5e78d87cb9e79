package indicators

import (
	"fmt"
	"math"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// ATR is the Average True Range with Wilder smoothing, a volatility measure
// in price units.
type ATR struct {
	period int
}

// NewATR creates an ATR indicator for the given period.
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

// Calculate returns the ATR over the latest candle.
func (a *ATR) Calculate(data []types.Candle) (float64, error) {
	if len(data) < a.period+1 {
		return 0, fmt.Errorf("%w for ATR(%d): need %d candles, have %d", ErrInsufficientData, a.period, a.period+1, len(data))
	}

	atr := 0.0
	for i := 1; i <= a.period; i++ {
		atr += trueRange(data[i], data[i-1])
	}
	atr /= float64(a.period)

	n := float64(a.period)
	for i := a.period + 1; i < len(data); i++ {
		atr = (atr*(n-1) + trueRange(data[i], data[i-1])) / n
	}
	return atr, nil
}

func trueRange(current, previous types.Candle) float64 {
	hl := current.High - current.Low
	hc := math.Abs(current.High - previous.Close)
	lc := math.Abs(current.Low - previous.Close)
	return math.Max(hl, math.Max(hc, lc))
}

// GetRequiredPeriods returns the minimum number of candles needed.
func (a *ATR) GetRequiredPeriods() int {
	return a.period + 1
}

// GetName returns the indicator name.
func (a *ATR) GetName() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}
