package indicators

import (
	"fmt"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// MACDValue is one point of the MACD line alongside its signal line.
type MACDValue struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD is the Moving Average Convergence Divergence indicator: the spread
// between a fast and a slow EMA, with an EMA signal line over that spread.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal int
	alpha  float64
}

// NewMACD creates a MACD indicator. The conventional setup is (12, 26, 9).
func NewMACD(fastPeriod, slowPeriod, signalPeriod int) *MACD {
	return &MACD{
		fast:   NewEMA(fastPeriod),
		slow:   NewEMA(slowPeriod),
		signal: signalPeriod,
		alpha:  2.0 / float64(signalPeriod+1),
	}
}

// Calculate returns the MACD value over the latest candle.
func (m *MACD) Calculate(data []types.Candle) (MACDValue, error) {
	values, err := m.Values(data)
	if err != nil {
		return MACDValue{}, err
	}
	return values[len(values)-1], nil
}

// Values returns the MACD series aligned to data. Entries before the warm-up
// index are zero.
func (m *MACD) Values(data []types.Candle) ([]MACDValue, error) {
	if len(data) < m.GetRequiredPeriods() {
		return nil, fmt.Errorf("%w for MACD: need %d candles, have %d", ErrInsufficientData, m.GetRequiredPeriods(), len(data))
	}

	fast, err := m.fast.Values(data)
	if err != nil {
		return nil, err
	}
	slow, err := m.slow.Values(data)
	if err != nil {
		return nil, err
	}

	slowStart := m.slow.GetRequiredPeriods() - 1
	values := make([]MACDValue, len(data))

	// seed the signal line with an SMA of the first signal-period spreads
	seedEnd := slowStart + m.signal
	sum := 0.0
	for i := slowStart; i < seedEnd; i++ {
		values[i].MACD = fast[i] - slow[i]
		sum += values[i].MACD
	}
	values[seedEnd-1].Signal = sum / float64(m.signal)
	values[seedEnd-1].Histogram = values[seedEnd-1].MACD - values[seedEnd-1].Signal

	for i := seedEnd; i < len(data); i++ {
		values[i].MACD = fast[i] - slow[i]
		values[i].Signal = values[i].MACD*m.alpha + values[i-1].Signal*(1-m.alpha)
		values[i].Histogram = values[i].MACD - values[i].Signal
	}
	return values, nil
}

// GetRequiredPeriods returns the minimum number of candles needed.
func (m *MACD) GetRequiredPeriods() int {
	return m.slow.GetRequiredPeriods() + m.signal
}

// GetName returns the indicator name.
func (m *MACD) GetName() string {
	return "MACD"
}
