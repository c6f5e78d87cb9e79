package indicators

import (
	"fmt"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// RSI is the Relative Strength Index with Wilder smoothing, bounded 0-100.
type RSI struct {
	period int
}

// NewRSI creates an RSI indicator for the given period.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// Calculate returns the RSI over the latest candle.
func (r *RSI) Calculate(data []types.Candle) (float64, error) {
	values, err := r.Values(data)
	if err != nil {
		return 0, err
	}
	return values[len(values)-1], nil
}

// Values returns the RSI series aligned to data. Entries before index
// period are zero.
func (r *RSI) Values(data []types.Candle) ([]float64, error) {
	if len(data) < r.period+1 {
		return nil, fmt.Errorf("%w for RSI(%d): need %d candles, have %d", ErrInsufficientData, r.period, r.period+1, len(data))
	}

	values := make([]float64, len(data))

	var avgGain, avgLoss float64
	for i := 1; i <= r.period; i++ {
		change := data[i].Close - data[i-1].Close
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(r.period)
	avgLoss /= float64(r.period)
	values[r.period] = rsiFromAverages(avgGain, avgLoss)

	n := float64(r.period)
	for i := r.period + 1; i < len(data); i++ {
		change := data[i].Close - data[i-1].Close
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*(n-1) + gain) / n
		avgLoss = (avgLoss*(n-1) + loss) / n
		values[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return values, nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// GetRequiredPeriods returns the minimum number of candles needed.
func (r *RSI) GetRequiredPeriods() int {
	return r.period + 1
}

// GetName returns the indicator name.
func (r *RSI) GetName() string {
	return fmt.Sprintf("RSI(%d)", r.period)
}
