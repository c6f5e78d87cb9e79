package strategy

import (
	"fmt"

	"github.com/smartman0307/pycryptobot/internal/indicators"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

// SmartSwitch picks the candle granularity from the hourly trend: a bull
// reading trades on fast candles, otherwise the standard interval. It only
// ever switches while the position is flat, and the engine consults it
// strictly after the tick's decision is finalized.
type SmartSwitch struct {
	enabled  bool
	fast     types.Granularity
	standard types.Granularity
}

// NewSmartSwitch creates the granularity controller.
func NewSmartSwitch(enabled bool) *SmartSwitch {
	return &SmartSwitch{
		enabled:  enabled,
		fast:     types.GranularityFifteenMinutes,
		standard: types.GranularityOneHour,
	}
}

// Enabled reports whether switching is active.
func (s *SmartSwitch) Enabled() bool {
	return s.enabled
}

// Evaluate returns the granularity the next tick should use. While holding,
// the current granularity is frozen regardless of the trend.
func (s *SmartSwitch) Evaluate(pos types.Position, hourlyBull bool, current types.Granularity) (types.Granularity, bool) {
	if !s.enabled || pos.Holding() {
		return current, false
	}

	target := s.standard
	if hourlyBull {
		target = s.fast
	}
	return target, target != current
}

// HourlyBull reads the 1h EMA trend used as the switch input. The series
// must be hourly candles.
func HourlyBull(series *types.PriceSeries) (bool, error) {
	if series.Granularity != types.GranularityOneHour {
		return false, fmt.Errorf("hourly trend check needs 1h candles, got %s", series.Granularity)
	}
	snap := indicators.Analyze(series, indicators.Config{})
	if !snap.Has(indicators.KeyEMA) {
		return false, fmt.Errorf("%w for hourly trend", indicators.ErrInsufficientData)
	}
	return snap.EMAFastAboveSlow, nil
}
