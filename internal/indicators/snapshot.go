package indicators

import (
	"time"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// Indicator keys used in Snapshot.Missing and Decision signals.
const (
	KeyEMA       = "ema"
	KeyMACD      = "macd"
	KeyRSI       = "rsi"
	KeyStochRSI  = "stochrsi"
	KeyWilliamsR = "williamsr"
	KeyADX       = "adx"
	KeyATR       = "atr"
	KeyOBV       = "obv"
	KeySMA       = "sma"
)

// Config holds the indicator periods. Zero values take the defaults.
type Config struct {
	EMAFast    int `json:"ema_fast" yaml:"ema_fast"`
	EMASlow    int `json:"ema_slow" yaml:"ema_slow"`
	MACDSignal int `json:"macd_signal" yaml:"macd_signal"`
	RSIPeriod  int `json:"rsi_period" yaml:"rsi_period"`
	ADXPeriod  int `json:"adx_period" yaml:"adx_period"`
	ATRPeriod  int `json:"atr_period" yaml:"atr_period"`
	SMAFast    int `json:"sma_fast" yaml:"sma_fast"`
	SMASlow    int `json:"sma_slow" yaml:"sma_slow"`
}

// DefaultConfig returns the conventional periods: EMA 12/26, MACD signal 9,
// oscillators 14, golden cross SMAs 50/200.
func DefaultConfig() Config {
	return Config{
		EMAFast:    12,
		EMASlow:    26,
		MACDSignal: 9,
		RSIPeriod:  14,
		ADXPeriod:  14,
		ATRPeriod:  14,
		SMAFast:    50,
		SMASlow:    200,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.EMAFast == 0 {
		c.EMAFast = d.EMAFast
	}
	if c.EMASlow == 0 {
		c.EMASlow = d.EMASlow
	}
	if c.MACDSignal == 0 {
		c.MACDSignal = d.MACDSignal
	}
	if c.RSIPeriod == 0 {
		c.RSIPeriod = d.RSIPeriod
	}
	if c.ADXPeriod == 0 {
		c.ADXPeriod = d.ADXPeriod
	}
	if c.ATRPeriod == 0 {
		c.ATRPeriod = d.ATRPeriod
	}
	if c.SMAFast == 0 {
		c.SMAFast = d.SMAFast
	}
	if c.SMASlow == 0 {
		c.SMASlow = d.SMASlow
	}
	return c
}

// Snapshot is the full indicator reading for the latest candle of a window.
// Indicators whose warm-up is unmet are listed in Missing and left zero;
// consumers must not act on them.
type Snapshot struct {
	Timestamp time.Time
	Close     float64
	CloseHigh float64 // highest close in the window

	EMAFast          float64
	EMASlow          float64
	EMAFastAboveSlow bool
	EMACrossUp       bool
	EMACrossDown     bool

	MACD            float64
	MACDSignal      float64
	MACDHistogram   float64
	MACDAboveSignal bool
	MACDCrossUp     bool
	MACDCrossDown   bool

	RSI       float64
	StochRSI  float64
	WilliamsR float64
	ADX       ADXValue
	ATR       float64
	OBV       OBVValue

	SMAFast     float64
	SMASlow     float64
	GoldenCross bool

	Missing []string
}

// Complete reports whether every indicator had enough data.
func (s Snapshot) Complete() bool {
	return len(s.Missing) == 0
}

// Has reports whether the named indicator is available in this snapshot.
func (s Snapshot) Has(key string) bool {
	for _, m := range s.Missing {
		if m == key {
			return false
		}
	}
	return true
}

// Signals flattens the snapshot into the audit map stored on a Decision.
func (s Snapshot) Signals() map[string]float64 {
	out := map[string]float64{"close": s.Close, "close_high": s.CloseHigh}
	if s.Has(KeyEMA) {
		out["ema_fast"] = s.EMAFast
		out["ema_slow"] = s.EMASlow
	}
	if s.Has(KeyMACD) {
		out["macd"] = s.MACD
		out["macd_signal"] = s.MACDSignal
	}
	if s.Has(KeyRSI) {
		out["rsi"] = s.RSI
	}
	if s.Has(KeyStochRSI) {
		out["stochrsi"] = s.StochRSI
	}
	if s.Has(KeyWilliamsR) {
		out["williamsr"] = s.WilliamsR
	}
	if s.Has(KeyADX) {
		out["adx"] = s.ADX.ADX
	}
	if s.Has(KeyATR) {
		out["atr"] = s.ATR
	}
	if s.Has(KeyOBV) {
		out["obv"] = s.OBV.OBV
		out["obv_pc"] = s.OBV.ChangePct
	}
	if s.Has(KeySMA) {
		out["sma_fast"] = s.SMAFast
		out["sma_slow"] = s.SMASlow
	}
	return out
}

// Analyze computes the snapshot for the latest candle of the series. It is
// deterministic: the same series and config always yield the same snapshot.
func Analyze(series *types.PriceSeries, cfg Config) Snapshot {
	cfg = cfg.withDefaults()
	data := series.Candles
	snap := Snapshot{}
	if len(data) == 0 {
		snap.Missing = []string{KeyEMA, KeyMACD, KeyRSI, KeyStochRSI, KeyWilliamsR, KeyADX, KeyATR, KeyOBV, KeySMA}
		return snap
	}

	latest := data[len(data)-1]
	snap.Timestamp = latest.Timestamp
	snap.Close = latest.Close
	for _, c := range data {
		if c.Close > snap.CloseHigh {
			snap.CloseHigh = c.Close
		}
	}

	miss := func(key string) { snap.Missing = append(snap.Missing, key) }

	// EMA pair plus edge-triggered cross flags; the cross needs the previous
	// candle's values too
	fastEMA, errFast := NewEMA(cfg.EMAFast).Values(data)
	slowEMA, errSlow := NewEMA(cfg.EMASlow).Values(data)
	if errFast != nil || errSlow != nil || len(data) < cfg.EMASlow+1 {
		miss(KeyEMA)
	} else {
		last, prev := len(data)-1, len(data)-2
		snap.EMAFast = fastEMA[last]
		snap.EMASlow = slowEMA[last]
		snap.EMAFastAboveSlow = fastEMA[last] > slowEMA[last]
		wasAbove := fastEMA[prev] > slowEMA[prev]
		snap.EMACrossUp = snap.EMAFastAboveSlow && !wasAbove
		snap.EMACrossDown = !snap.EMAFastAboveSlow && wasAbove
	}

	macd := NewMACD(cfg.EMAFast, cfg.EMASlow, cfg.MACDSignal)
	if macdValues, err := macd.Values(data); err != nil || len(data) < macd.GetRequiredPeriods()+1 {
		miss(KeyMACD)
	} else {
		last, prev := len(data)-1, len(data)-2
		snap.MACD = macdValues[last].MACD
		snap.MACDSignal = macdValues[last].Signal
		snap.MACDHistogram = macdValues[last].Histogram
		snap.MACDAboveSignal = macdValues[last].MACD > macdValues[last].Signal
		wasAbove := macdValues[prev].MACD > macdValues[prev].Signal
		snap.MACDCrossUp = snap.MACDAboveSignal && !wasAbove
		snap.MACDCrossDown = !snap.MACDAboveSignal && wasAbove
	}

	if v, err := NewRSI(cfg.RSIPeriod).Calculate(data); err != nil {
		miss(KeyRSI)
	} else {
		snap.RSI = v
	}
	if v, err := NewStochRSI(cfg.RSIPeriod).Calculate(data); err != nil {
		miss(KeyStochRSI)
	} else {
		snap.StochRSI = v
	}
	if v, err := NewWilliamsR(cfg.RSIPeriod).Calculate(data); err != nil {
		miss(KeyWilliamsR)
	} else {
		snap.WilliamsR = v
	}
	if v, err := NewADX(cfg.ADXPeriod).Calculate(data); err != nil {
		miss(KeyADX)
	} else {
		snap.ADX = v
	}
	if v, err := NewATR(cfg.ATRPeriod).Calculate(data); err != nil {
		miss(KeyATR)
	} else {
		snap.ATR = v
	}
	if v, err := NewOBV().Calculate(data); err != nil {
		miss(KeyOBV)
	} else {
		snap.OBV = v
	}

	smaFast, errFastSMA := NewSMA(cfg.SMAFast).Calculate(data)
	smaSlow, errSlowSMA := NewSMA(cfg.SMASlow).Calculate(data)
	if errFastSMA != nil || errSlowSMA != nil {
		miss(KeySMA)
	} else {
		snap.SMAFast = smaFast
		snap.SMASlow = smaSlow
		snap.GoldenCross = smaFast > smaSlow
	}

	return snap
}
