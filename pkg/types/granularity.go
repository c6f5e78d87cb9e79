package types

import (
	"fmt"
	"strconv"
	"time"
)

// Granularity is a candle interval expressed in seconds.
type Granularity int

const (
	GranularityOneMinute      Granularity = 60
	GranularityFiveMinutes    Granularity = 300
	GranularityFifteenMinutes Granularity = 900
	GranularityOneHour        Granularity = 3600
	GranularitySixHours       Granularity = 21600
	GranularityOneDay         Granularity = 86400
)

// SupportedGranularities lists every interval the engine accepts, ascending.
var SupportedGranularities = []Granularity{
	GranularityOneMinute,
	GranularityFiveMinutes,
	GranularityFifteenMinutes,
	GranularityOneHour,
	GranularitySixHours,
	GranularityOneDay,
}

// ParseGranularity parses an interval from config: the short form ("1m",
// "15m", "1h") or a bare seconds value ("3600").
func ParseGranularity(raw string) (Granularity, error) {
	for _, s := range SupportedGranularities {
		if raw == s.String() {
			return s, nil
		}
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		g := Granularity(seconds)
		for _, s := range SupportedGranularities {
			if g == s {
				return g, nil
			}
		}
	}
	return 0, fmt.Errorf("unsupported granularity %q", raw)
}

// Duration returns the candle interval as a time.Duration.
func (g Granularity) Duration() time.Duration {
	return time.Duration(g) * time.Second
}

// Seconds returns the raw interval length.
func (g Granularity) Seconds() int {
	return int(g)
}

func (g Granularity) String() string {
	switch g {
	case GranularityOneMinute:
		return "1m"
	case GranularityFiveMinutes:
		return "5m"
	case GranularityFifteenMinutes:
		return "15m"
	case GranularityOneHour:
		return "1h"
	case GranularitySixHours:
		return "6h"
	case GranularityOneDay:
		return "1d"
	default:
		return fmt.Sprintf("%ds", int(g))
	}
}
