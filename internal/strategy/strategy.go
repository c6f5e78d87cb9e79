// Package strategy holds the trading decision state machine: one decision
// per tick, FLAT or HOLDING, with configurable buy gates and sell triggers.
package strategy

import (
	"fmt"
	"strings"
	"time"

	"github.com/smartman0307/pycryptobot/internal/indicators"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

// Config are the decision gates. Zero values keep every gate active with its
// default threshold.
type Config struct {
	// Buy gates
	DisableBuyEMA      bool    `json:"disable_buy_ema" yaml:"disable_buy_ema"`
	DisableBuyMACD     bool    `json:"disable_buy_macd" yaml:"disable_buy_macd"`
	DisableBuyNearHigh bool    `json:"disable_buy_near_high" yaml:"disable_buy_near_high"`
	NoBuyNearHighPcnt  float64 `json:"no_buy_near_high_pcnt" yaml:"no_buy_near_high_pcnt"`
	DisableBullOnly    bool    `json:"disable_bull_only" yaml:"disable_bull_only"`

	// Sell triggers
	SellAtLoss    bool    `json:"sell_at_loss" yaml:"sell_at_loss"`
	NoSellMinPcnt float64 `json:"no_sell_min_pcnt" yaml:"no_sell_min_pcnt"`
	NoSellMaxPcnt float64 `json:"no_sell_max_pcnt" yaml:"no_sell_max_pcnt"`
	SellUpperPcnt float64 `json:"sell_upper_pcnt" yaml:"sell_upper_pcnt"`
	SellLowerPcnt float64 `json:"sell_lower_pcnt" yaml:"sell_lower_pcnt"`

	// TakerFee is the flat fee rate used for margin math.
	TakerFee float64 `json:"taker_fee" yaml:"taker_fee"`
}

// DefaultNoBuyNearHighPcnt blocks buys within this percent of the window's
// closing high when the guard is active.
const DefaultNoBuyNearHighPcnt = 3.0

// Forecast is an advisory projection from an external model. It can veto a
// buy but never produce one.
type Forecast struct {
	ProjectedPrice float64
	Confidence     float64
}

// Strategy evaluates one market's indicator snapshots into decisions.
type Strategy struct {
	market string
	cfg    Config
}

// New creates a strategy for one market.
func New(market string, cfg Config) *Strategy {
	if cfg.NoBuyNearHighPcnt == 0 {
		cfg.NoBuyNearHighPcnt = DefaultNoBuyNearHighPcnt
	}
	return &Strategy{market: market, cfg: cfg}
}

// SetTakerFee updates the fee rate used for margin calculations, typically
// after the live rate has been fetched from the exchange.
func (s *Strategy) SetTakerFee(rate float64) {
	if rate >= 0 && rate < 1 {
		s.cfg.TakerFee = rate
	}
}

// Decide evaluates one tick. It never emits a SELL while flat or a BUY while
// holding, so at most one state transition can follow from it.
func (s *Strategy) Decide(snap indicators.Snapshot, pos types.Position, tick int, now time.Time, forecast *Forecast) types.Decision {
	d := types.Decision{
		Tick:      tick,
		Timestamp: now,
		Market:    s.market,
		Action:    types.ActionWait,
		Price:     snap.Close,
		Signals:   snap.Signals(),
		Missing:   snap.Missing,
	}

	if pos.Holding() {
		s.decideSell(&d, snap, pos)
	} else {
		s.decideBuy(&d, snap, forecast)
	}
	return d
}

func (s *Strategy) decideBuy(d *types.Decision, snap indicators.Snapshot, forecast *Forecast) {
	if missing := s.missingBuyInputs(snap); len(missing) > 0 {
		d.Reason = "insufficient data: " + strings.Join(missing, ", ")
		return
	}

	if !s.cfg.DisableBullOnly && !snap.GoldenCross {
		d.Reason = "bull market gate: SMA fast below slow"
		return
	}

	signals := make([]string, 0, 2)
	if !s.cfg.DisableBuyEMA {
		if !snap.EMACrossUp {
			d.Reason = "no EMA cross up"
			return
		}
		signals = append(signals, "EMA cross up")
	}
	if !s.cfg.DisableBuyMACD {
		if !snap.MACDAboveSignal {
			d.Reason = "MACD below signal"
			return
		}
		signals = append(signals, "MACD above signal")
	}
	if len(signals) == 0 {
		d.Reason = "all buy signals disabled"
		return
	}

	if !s.cfg.DisableBuyNearHigh {
		threshold := snap.CloseHigh * (1 - s.cfg.NoBuyNearHighPcnt/100)
		if snap.Close > threshold {
			d.Reason = fmt.Sprintf("price %.2f within %.1f%% of closing high %.2f", snap.Close, s.cfg.NoBuyNearHighPcnt, snap.CloseHigh)
			return
		}
	}

	if forecast != nil && forecast.ProjectedPrice > 0 && forecast.ProjectedPrice < snap.Close && forecast.Confidence >= 0.5 {
		d.Reason = fmt.Sprintf("forecast advises down move to %.2f", forecast.ProjectedPrice)
		return
	}

	d.Action = types.ActionBuy
	d.Reason = strings.Join(signals, " + ")
}

func (s *Strategy) decideSell(d *types.Decision, snap indicators.Snapshot, pos types.Position) {
	margin := pos.Margin(snap.Close, s.cfg.TakerFee)
	d.Signals["margin_pct"] = margin

	// Loss failsafe runs before any suppression.
	if s.cfg.SellLowerPcnt != 0 && margin < s.cfg.SellLowerPcnt {
		d.Action = types.ActionSell
		d.Reason = fmt.Sprintf("loss failsafe: margin %.2f%% below %.2f%%", margin, s.cfg.SellLowerPcnt)
		return
	}

	if s.inNoSellBand(margin) {
		d.Reason = fmt.Sprintf("margin %.2f%% inside no-sell band [%.2f%%, %.2f%%]", margin, s.cfg.NoSellMinPcnt, s.cfg.NoSellMaxPcnt)
		return
	}

	if s.cfg.SellUpperPcnt > 0 && margin > s.cfg.SellUpperPcnt {
		d.Action = types.ActionSell
		d.Reason = fmt.Sprintf("profit target: margin %.2f%% above %.2f%%", margin, s.cfg.SellUpperPcnt)
		return
	}

	exit := snap.Has(indicators.KeyEMA) && snap.EMACrossDown
	if exit && snap.Has(indicators.KeyMACD) {
		exit = !snap.MACDAboveSignal
	}
	if !exit {
		d.Reason = "holding: no exit signal"
		return
	}

	if !s.cfg.SellAtLoss && margin <= 0 {
		d.Reason = fmt.Sprintf("sell at loss disabled (margin %.2f%%)", margin)
		return
	}

	d.Action = types.ActionSell
	d.Reason = fmt.Sprintf("EMA cross down (margin %.2f%%)", margin)
}

func (s *Strategy) inNoSellBand(margin float64) bool {
	if s.cfg.NoSellMinPcnt == 0 && s.cfg.NoSellMaxPcnt == 0 {
		return false
	}
	return margin >= s.cfg.NoSellMinPcnt && margin <= s.cfg.NoSellMaxPcnt
}

// missingBuyInputs returns the indicators the active buy gates need but the
// snapshot could not provide.
func (s *Strategy) missingBuyInputs(snap indicators.Snapshot) []string {
	var missing []string
	if !s.cfg.DisableBuyEMA && !snap.Has(indicators.KeyEMA) {
		missing = append(missing, indicators.KeyEMA)
	}
	if !s.cfg.DisableBuyMACD && !snap.Has(indicators.KeyMACD) {
		missing = append(missing, indicators.KeyMACD)
	}
	if !s.cfg.DisableBullOnly && !snap.Has(indicators.KeySMA) {
		missing = append(missing, indicators.KeySMA)
	}
	return missing
}
