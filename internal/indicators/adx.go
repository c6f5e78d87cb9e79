package indicators

import (
	"fmt"
	"math"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// ADXValue carries the trend-strength reading and its directional parts.
type ADXValue struct {
	ADX     float64
	PlusDI  float64
	MinusDI float64
}

// ADX is the Average Directional Index (0-100). Readings above 20 suggest a
// trending market regardless of direction.
type ADX struct {
	period int
}

// NewADX creates an ADX indicator for the given period.
func NewADX(period int) *ADX {
	return &ADX{period: period}
}

// Calculate returns the ADX over the latest candle.
func (a *ADX) Calculate(data []types.Candle) (ADXValue, error) {
	if len(data) < a.GetRequiredPeriods() {
		return ADXValue{}, fmt.Errorf("%w for ADX(%d): need %d candles, have %d", ErrInsufficientData, a.period, a.GetRequiredPeriods(), len(data))
	}

	n := float64(a.period)

	// Wilder-smoothed true range and directional movement
	var trSum, plusDMSum, minusDMSum float64
	for i := 1; i <= a.period; i++ {
		tr, plusDM, minusDM := directionalMovement(data[i], data[i-1])
		trSum += tr
		plusDMSum += plusDM
		minusDMSum += minusDM
	}

	dxAt := func(trS, plusS, minusS float64) (float64, float64, float64) {
		if trS == 0 {
			return 0, 0, 0
		}
		plusDI := plusS / trS * 100
		minusDI := minusS / trS * 100
		sum := plusDI + minusDI
		if sum == 0 {
			return 0, plusDI, minusDI
		}
		return math.Abs(plusDI-minusDI) / sum * 100, plusDI, minusDI
	}

	dx, plusDI, minusDI := dxAt(trSum, plusDMSum, minusDMSum)
	adx := dx
	dxCount := 1

	for i := a.period + 1; i < len(data); i++ {
		tr, plusDM, minusDM := directionalMovement(data[i], data[i-1])
		trSum = trSum - trSum/n + tr
		plusDMSum = plusDMSum - plusDMSum/n + plusDM
		minusDMSum = minusDMSum - minusDMSum/n + minusDM

		dx, plusDI, minusDI = dxAt(trSum, plusDMSum, minusDMSum)
		dxCount++
		if dxCount <= a.period {
			// still averaging the first ADX value
			adx += dx
			if dxCount == a.period {
				adx /= n
			}
		} else {
			adx = (adx*(n-1) + dx) / n
		}
	}

	return ADXValue{ADX: adx, PlusDI: plusDI, MinusDI: minusDI}, nil
}

func directionalMovement(current, previous types.Candle) (tr, plusDM, minusDM float64) {
	tr = trueRange(current, previous)
	upMove := current.High - previous.High
	downMove := previous.Low - current.Low
	if upMove > downMove && upMove > 0 {
		plusDM = upMove
	}
	if downMove > upMove && downMove > 0 {
		minusDM = downMove
	}
	return tr, plusDM, minusDM
}

// GetRequiredPeriods returns the minimum number of candles needed: one DI
// warm-up plus a full DX averaging window.
func (a *ADX) GetRequiredPeriods() int {
	return a.period*2 + 1
}

// GetName returns the indicator name.
func (a *ADX) GetName() string {
	return fmt.Sprintf("ADX(%d)", a.period)
}
