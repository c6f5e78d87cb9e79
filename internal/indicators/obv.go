package indicators

import (
	"fmt"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// OBVValue is the on-balance volume plus its percent change over the last
// candle.
type OBVValue struct {
	OBV       float64
	ChangePct float64
}

// OBV is On-Balance Volume: cumulative volume signed by the close-to-close
// direction.
type OBV struct{}

// NewOBV creates an OBV indicator.
func NewOBV() *OBV {
	return &OBV{}
}

// Calculate returns the OBV over the latest candle.
func (o *OBV) Calculate(data []types.Candle) (OBVValue, error) {
	if len(data) < o.GetRequiredPeriods() {
		return OBVValue{}, fmt.Errorf("%w for OBV: need %d candles, have %d", ErrInsufficientData, o.GetRequiredPeriods(), len(data))
	}

	obv, prev := 0.0, 0.0
	for i := 1; i < len(data); i++ {
		prev = obv
		switch {
		case data[i].Close > data[i-1].Close:
			obv += data[i].Volume
		case data[i].Close < data[i-1].Close:
			obv -= data[i].Volume
		}
	}

	changePct := 0.0
	if prev != 0 {
		changePct = (obv - prev) / prev * 100
	}
	return OBVValue{OBV: obv, ChangePct: changePct}, nil
}

// GetRequiredPeriods returns the minimum number of candles needed.
func (o *OBV) GetRequiredPeriods() int {
	return 3
}

// GetName returns the indicator name.
func (o *OBV) GetName() string {
	return "OBV"
}
