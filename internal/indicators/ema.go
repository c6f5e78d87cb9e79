// Package indicators implements the technical indicators the strategy reads.
// Every calculator is a pure function of the candle window it is given: the
// same window always produces the same value, and a window shorter than the
// warm-up returns an explicit insufficient-data error instead of a guess.
package indicators

import (
	"errors"
	"fmt"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// ErrInsufficientData is returned while an indicator's warm-up is unmet.
var ErrInsufficientData = errors.New("insufficient data")

// EMA is the Exponential Moving Average of close prices.
type EMA struct {
	period int
	alpha  float64
}

// NewEMA creates an EMA indicator for the given period.
func NewEMA(period int) *EMA {
	return &EMA{
		period: period,
		alpha:  2.0 / float64(period+1),
	}
}

// Calculate returns the EMA over the latest candle.
func (e *EMA) Calculate(data []types.Candle) (float64, error) {
	values, err := e.Values(data)
	if err != nil {
		return 0, err
	}
	return values[len(values)-1], nil
}

// Values returns the EMA series aligned to data. Entries before index
// period-1 are zero; the first defined value is the SMA seed.
func (e *EMA) Values(data []types.Candle) ([]float64, error) {
	if len(data) < e.period {
		return nil, fmt.Errorf("%w for EMA(%d): have %d candles", ErrInsufficientData, e.period, len(data))
	}

	values := make([]float64, len(data))
	sum := 0.0
	for i := 0; i < e.period; i++ {
		sum += data[i].Close
	}
	values[e.period-1] = sum / float64(e.period)

	for i := e.period; i < len(data); i++ {
		values[i] = data[i].Close*e.alpha + values[i-1]*(1-e.alpha)
	}
	return values, nil
}

// GetRequiredPeriods returns the minimum number of candles needed.
func (e *EMA) GetRequiredPeriods() int {
	return e.period
}

// GetName returns the indicator name.
func (e *EMA) GetName() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}
