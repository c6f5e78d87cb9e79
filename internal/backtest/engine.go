// Package backtest replays a candle series through the live tick engine
// with paper fills, producing the same decision stream live trading would
// have made.
package backtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/smartman0307/pycryptobot/internal/bot"
	"github.com/smartman0307/pycryptobot/internal/clock"
	"github.com/smartman0307/pycryptobot/internal/config"
	"github.com/smartman0307/pycryptobot/internal/state"
	"github.com/smartman0307/pycryptobot/internal/strategy"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

// Config holds simulation parameters.
type Config struct {
	// Quote is the starting quote currency balance.
	Quote float64

	// FeeRate is the taker fee applied to both sides of every fill.
	FeeRate float64

	Strategy strategy.Config

	// SmartSwitch enables hourly-trend granularity switching during the
	// replay. It needs an Hourly series unless the replayed series is
	// itself hourly.
	SmartSwitch bool

	// Hourly is an optional pre-chained 1h series the granularity switch
	// reads its trend from.
	Hourly *types.PriceSeries
}

// Summary is the outcome of one simulation run.
type Summary struct {
	Market       string              `json:"market"`
	Granularity  types.Granularity   `json:"granularity"`
	Ticks        int                 `json:"ticks"`
	Decisions    []types.Decision    `json:"decisions,omitempty"`
	Trades       []types.TradeRecord `json:"trades"`
	WinningCount int                 `json:"winning_count"`
	LosingCount  int                 `json:"losing_count"`
	WinRate      float64             `json:"win_rate"`

	StartQuote     float64 `json:"start_quote"`
	EndQuote       float64 `json:"end_quote"`
	TotalReturnPct float64 `json:"total_return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`

	// BuyHoldReturnPct is the benchmark of buying at the first close and
	// holding to the last.
	BuyHoldReturnPct float64 `json:"buy_hold_return_pct"`

	// OpenPosition is set when the run ends still holding. Its unrealized
	// value at the final close is included in EndQuote.
	OpenPosition *types.Position `json:"open_position,omitempty"`

	// InsufficientData means the series never warmed the indicators up,
	// so no decision other than WAIT was possible.
	InsufficientData bool `json:"insufficient_data"`

	// FinalGranularity is the granularity the engine ended the run on. It
	// differs from Granularity only when smart switching moved it.
	FinalGranularity types.Granularity `json:"final_granularity"`
}

// Engine replays one market's candles through the tick engine.
type Engine struct {
	market string
	cfg    Config
}

// NewEngine creates a simulation engine for one market.
func NewEngine(market string, cfg Config) *Engine {
	if cfg.Quote <= 0 {
		cfg.Quote = 1000
	}
	return &Engine{market: market, cfg: cfg}
}

// Run replays the series candle by candle through the same engine that
// drives live trading, against a replay exchange that only ever reveals
// history up to the simulated clock. Each tick sees the candles up to and
// including its own, paper fills land at that candle's close, and at most
// one transition happens per tick. Replaying the same series twice yields
// identical output.
func (e *Engine) Run(series *types.PriceSeries) (*Summary, error) {
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("series validation failed: %w", err)
	}

	summary := &Summary{
		Market:           e.market,
		Granularity:      series.Granularity,
		FinalGranularity: series.Granularity,
		StartQuote:       e.cfg.Quote,
		EndQuote:         e.cfg.Quote,
	}
	if series.Len() == 0 {
		summary.InsufficientData = true
		return summary, nil
	}

	baseCcy, quoteCcy, err := types.SplitMarket(e.market)
	if err != nil {
		return nil, err
	}

	// Switching alternates between 15m and 1h candles, so the replay needs
	// data at both: the replayed series on the fast interval plus the
	// hourly cache the trend is read from.
	if e.cfg.SmartSwitch {
		if series.Granularity != types.GranularityFifteenMinutes || e.cfg.Hourly == nil {
			return nil, fmt.Errorf("granularity switching needs a 15m series plus an hourly cache")
		}
	}

	replay := newReplayExchange(e.market, series.Granularity, e.cfg.FeeRate)
	replay.addSeries(series)
	if e.cfg.Hourly != nil {
		replay.addSeries(e.cfg.Hourly)
	}
	replay.setBalance(quoteCcy, e.cfg.Quote)

	stateDir, err := os.MkdirTemp("", "backtest-state-")
	if err != nil {
		return nil, fmt.Errorf("create simulation state dir: %w", err)
	}
	defer os.RemoveAll(stateDir)

	clk := clock.NewSimulated(series.Candles[0].Timestamp)
	eng, err := bot.NewEngine(e.botConfig(series.Granularity), bot.Deps{
		Exchange: replay,
		Clock:    clk,
		Store:    state.NewStore(filepath.Join(stateDir, "position.json"), e.market),
	})
	if err != nil {
		return nil, fmt.Errorf("build simulation engine: %w", err)
	}

	ctx := context.Background()
	peak := e.cfg.Quote
	sawComplete := false
	prev := eng.Position()

	for i := 0; i < series.Len(); i++ {
		candle := series.Candles[i]
		clk.Set(candle.Timestamp)
		replay.advance(candle.Timestamp)

		d, err := eng.Tick(ctx)
		if err != nil {
			return nil, fmt.Errorf("tick %d: %w", i, err)
		}
		summary.Decisions = append(summary.Decisions, d)
		if len(d.Missing) == 0 {
			sawComplete = true
		}

		pos := eng.Position()
		switch {
		case !prev.Holding() && pos.Holding():
			// The buy spent the full quote balance on the paper fill.
			replay.setBalance(baseCcy, pos.EntrySize)
			replay.setBalance(quoteCcy, 0)

		case prev.Holding() && !pos.Holding():
			exitPrice := d.Price
			proceeds := prev.EntrySize * exitPrice * (1 - e.cfg.FeeRate)
			replay.setBalance(quoteCcy, proceeds)
			replay.setBalance(baseCcy, 0)

			trade := types.TradeRecord{
				Market:     e.market,
				EntryTime:  prev.EntryTime,
				ExitTime:   candle.Timestamp,
				EntryPrice: prev.EntryPrice,
				ExitPrice:  exitPrice,
				Size:       prev.EntrySize,
				Fees:       (prev.EntryPrice + exitPrice) * prev.EntrySize * e.cfg.FeeRate,
				MarginPct:  prev.Margin(exitPrice, e.cfg.FeeRate),
			}
			summary.Trades = append(summary.Trades, trade)
			if trade.Profitable() {
				summary.WinningCount++
			} else {
				summary.LosingCount++
			}
		}
		prev = pos

		value := replay.balance(quoteCcy)
		if pos.Holding() {
			value = pos.EntrySize * candle.Close
		}
		if value > peak {
			peak = value
		}
		if peak > 0 {
			drawdown := (peak - value) / peak * 100
			if drawdown > summary.MaxDrawdownPct {
				summary.MaxDrawdownPct = drawdown
			}
		}
	}

	summary.Ticks = series.Len()
	summary.InsufficientData = !sawComplete
	summary.FinalGranularity = eng.Granularity()

	last := series.Candles[series.Len()-1]
	quote := replay.balance(quoteCcy)
	if prev.Holding() {
		open := prev
		summary.OpenPosition = &open
		quote = prev.EntrySize * last.Close * (1 - e.cfg.FeeRate)
	}
	summary.EndQuote = quote
	summary.TotalReturnPct = (quote - e.cfg.Quote) / e.cfg.Quote * 100

	first := series.Candles[0]
	if first.Close > 0 {
		summary.BuyHoldReturnPct = (last.Close - first.Close) / first.Close * 100
	}

	if n := len(summary.Trades); n > 0 {
		summary.WinRate = float64(summary.WinningCount) / float64(n) * 100
	}

	return summary, nil
}

// botConfig maps the simulation settings onto the engine's configuration.
// Trading stays in paper mode; buys commit the full quote balance.
func (e *Engine) botConfig(gran types.Granularity) *config.Config {
	s := e.cfg.Strategy
	return &config.Config{
		Market:      e.market,
		Granularity: gran.String(),
		SmartSwitch: e.cfg.SmartSwitch,
		Strategy: config.StrategyConfig{
			DisableBuyEMA:      s.DisableBuyEMA,
			DisableBuyMACD:     s.DisableBuyMACD,
			DisableBuyNearHigh: s.DisableBuyNearHigh,
			NoBuyNearHighPcnt:  s.NoBuyNearHighPcnt,
			DisableBullOnly:    s.DisableBullOnly,
			SellAtLoss:         s.SellAtLoss,
			NoSellMinPcnt:      s.NoSellMinPcnt,
			NoSellMaxPcnt:      s.NoSellMaxPcnt,
			SellUpperPcnt:      s.SellUpperPcnt,
			SellLowerPcnt:      s.SellLowerPcnt,
		},
		Simulation: &config.SimulationConfig{
			Quote:   e.cfg.Quote,
			FeeRate: e.cfg.FeeRate,
		},
	}
}
