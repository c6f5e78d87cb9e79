// Package bot runs the tick engine: one decision per candle close, one
// position per market, every transition persisted before the next tick.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smartman0307/pycryptobot/internal/clock"
	"github.com/smartman0307/pycryptobot/internal/config"
	"github.com/smartman0307/pycryptobot/internal/exchange"
	"github.com/smartman0307/pycryptobot/internal/feed"
	"github.com/smartman0307/pycryptobot/internal/history"
	"github.com/smartman0307/pycryptobot/internal/indicators"
	"github.com/smartman0307/pycryptobot/internal/logger"
	"github.com/smartman0307/pycryptobot/internal/monitoring"
	"github.com/smartman0307/pycryptobot/internal/notifications"
	"github.com/smartman0307/pycryptobot/internal/state"
	"github.com/smartman0307/pycryptobot/internal/storage"
	"github.com/smartman0307/pycryptobot/internal/strategy"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

const (
	// warmupCandles is how much history each tick analyzes. It comfortably
	// covers the slowest indicator warm-up.
	warmupCandles = 300

	// dustThreshold is the base balance below which a holding is treated
	// as residue rather than a position.
	dustThreshold = 1e-6

	// DefaultTakerFee is used when the exchange cannot report its fee rate.
	DefaultTakerFee = 0.005

	orderConfirmAttempts = 3
	orderConfirmDelay    = 2 * time.Second
)

// ErrHalted signals that the engine must stop rather than skip the tick.
var ErrHalted = errors.New("trading halted")

// Advisor supplies an optional price forecast consulted before buys.
type Advisor interface {
	Advise(ctx context.Context, market string) (*strategy.Forecast, error)
}

// Deps collects the engine's collaborators. Exchange and Store are
// required, the rest are optional.
type Deps struct {
	Exchange exchange.Exchange
	Clock    clock.Clock
	Store    *state.Store
	Ledger   *storage.Ledger
	Feed     *feed.Feed
	Advisor  Advisor
	Logger   *logger.Logger
	Notifier notifications.Notifier
	Health   *monitoring.HealthChecker
}

// Engine evaluates one market once per candle close. It owns the position
// state machine: FLAT and HOLDING, with at most one transition per tick.
type Engine struct {
	cfg      *config.Config
	ex       exchange.Exchange
	chainer  *history.Chainer
	strat    *strategy.Strategy
	smartSw  *strategy.SmartSwitch
	clk      clock.Clock
	store    *state.Store
	ledger   *storage.Ledger
	feed     *feed.Feed
	advisor  Advisor
	logger   *logger.Logger
	notifier notifications.Notifier
	health   *monitoring.HealthChecker

	market     string
	baseCcy    string
	quoteCcy   string
	indicators indicators.Config

	confirmAttempts int
	confirmDelay    time.Duration

	mu           sync.RWMutex
	granularity  types.Granularity
	position     types.Position
	feeRate      float64
	tick         int
	lastDecision types.Decision
}

// NewEngine builds an engine from config and collaborators, loading the
// persisted position. A corrupt state file is a startup failure, not
// something to silently reset.
func NewEngine(cfg *config.Config, deps Deps) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot configuration is required")
	}
	if deps.Exchange == nil {
		return nil, fmt.Errorf("exchange is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("state store is required")
	}

	base, quote, err := types.SplitMarket(cfg.Market)
	if err != nil {
		return nil, err
	}

	if deps.Clock == nil {
		deps.Clock = clock.NewReal()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.Noop{}
	}

	// A simulation block is authoritative for the fee, zero included.
	// Live runs start from the default and let Reconcile read the real rate.
	feeRate := DefaultTakerFee
	if cfg.Simulation != nil {
		feeRate = cfg.Simulation.FeeRate
	}

	stratCfg := strategy.Config{
		DisableBuyEMA:      cfg.Strategy.DisableBuyEMA,
		DisableBuyMACD:     cfg.Strategy.DisableBuyMACD,
		DisableBuyNearHigh: cfg.Strategy.DisableBuyNearHigh,
		NoBuyNearHighPcnt:  cfg.Strategy.NoBuyNearHighPcnt,
		DisableBullOnly:    cfg.Strategy.DisableBullOnly,
		SellAtLoss:         cfg.Strategy.SellAtLoss,
		NoSellMinPcnt:      cfg.Strategy.NoSellMinPcnt,
		NoSellMaxPcnt:      cfg.Strategy.NoSellMaxPcnt,
		SellUpperPcnt:      cfg.Strategy.SellUpperPcnt,
		SellLowerPcnt:      cfg.Strategy.SellLowerPcnt,
		TakerFee:           feeRate,
	}

	e := &Engine{
		cfg:         cfg,
		ex:          deps.Exchange,
		chainer:     history.NewChainer(deps.Exchange),
		strat:       strategy.New(cfg.Market, stratCfg),
		smartSw:     strategy.NewSmartSwitch(cfg.SmartSwitch),
		clk:         deps.Clock,
		store:       deps.Store,
		ledger:      deps.Ledger,
		feed:        deps.Feed,
		advisor:     deps.Advisor,
		logger:      deps.Logger,
		notifier:    deps.Notifier,
		health:      deps.Health,
		market:      cfg.Market,
		baseCcy:     base,
		quoteCcy:    quote,
		indicators:  indicators.DefaultConfig(),
		granularity: cfg.GranularityOrDefault(),
		feeRate:     feeRate,

		confirmAttempts: orderConfirmAttempts,
		confirmDelay:    orderConfirmDelay,
	}

	pos, err := deps.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load position state: %w", err)
	}
	e.position = pos

	return e, nil
}

// Tick runs one evaluation cycle. A failure anywhere skips the tick; the
// position is never left half-transitioned.
func (e *Engine) Tick(ctx context.Context) (d types.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panic: %v", r)
			e.logError("tick", err)
			monitoring.RecordSkippedTick(e.market, "panic")
		}
	}()

	now := e.clk.Now()
	gran := e.Granularity()

	series, err := e.chainer.ChainLatest(ctx, e.market, gran, warmupCandles, now)
	if err != nil {
		e.logError("historical data", err)
		monitoring.RecordSkippedTick(e.market, "history")
		return types.Decision{}, err
	}

	price := e.currentPrice(ctx, &series)
	monitoring.UpdatePrice(e.market, price)

	snap := indicators.Analyze(&series, e.indicators)

	pos := e.Position()

	var fc *strategy.Forecast
	if e.advisor != nil && !pos.Holding() {
		// Advice is optional. A dead advisor never blocks trading.
		if advice, advErr := e.advisor.Advise(ctx, e.market); advErr == nil {
			fc = advice
		}
	}

	e.mu.RLock()
	tick := e.tick
	e.mu.RUnlock()

	d = e.strat.Decide(snap, pos, tick, now, fc)

	if e.ledger != nil {
		if recErr := e.ledger.RecordDecision(ctx, d); recErr != nil {
			e.logError("ledger", recErr)
		}
	}
	if e.logger != nil {
		e.logger.LogDecision(d, pos)
	}
	if pos.Holding() {
		monitoring.UpdateMargin(e.market, pos.Margin(price, e.feeRate))
	}

	switch d.Action {
	case types.ActionBuy:
		if execErr := e.executeBuy(ctx, &d, now); execErr != nil {
			e.logError("buy", execErr)
			monitoring.RecordSkippedTick(e.market, "order")
			if errors.Is(execErr, ErrHalted) {
				return d, execErr
			}
			if e.cfg.HaltOnNoFunds && exchange.IsInsufficientFunds(execErr) {
				return d, fmt.Errorf("%w: %v", ErrHalted, execErr)
			}
		}
	case types.ActionSell:
		if execErr := e.executeSell(ctx, &d, now); execErr != nil {
			e.logError("sell", execErr)
			monitoring.RecordSkippedTick(e.market, "order")
		}
	}

	e.evaluateSmartSwitch(ctx, gran, &series)

	e.mu.Lock()
	e.tick++
	e.lastDecision = d
	e.mu.Unlock()

	monitoring.RecordTick(e.market)
	if e.health != nil {
		e.health.RecordTick(price)
	}

	return d, nil
}

// currentPrice prefers the live feed, falling back to the latest close.
func (e *Engine) currentPrice(ctx context.Context, series *types.PriceSeries) float64 {
	if e.feed != nil {
		if price, err := e.feed.Price(ctx); err == nil && price > 0 {
			return price
		}
	}
	if latest, ok := series.Latest(); ok {
		return latest.Close
	}
	return 0
}

func (e *Engine) evaluateSmartSwitch(ctx context.Context, gran types.Granularity, series *types.PriceSeries) {
	if !e.smartSw.Enabled() {
		return
	}

	pos := e.Position()
	if pos.Holding() {
		return
	}

	hourly := series
	if gran != types.GranularityOneHour {
		chained, err := e.chainer.ChainLatest(ctx, e.market, types.GranularityOneHour, warmupCandles, e.clk.Now())
		if err != nil {
			e.logError("smart switch", err)
			return
		}
		hourly = &chained
	}

	bull, err := strategy.HourlyBull(hourly)
	if err != nil {
		return
	}

	next, changed := e.smartSw.Evaluate(pos, bull, gran)
	if !changed {
		return
	}

	e.mu.Lock()
	e.granularity = next
	e.mu.Unlock()

	if e.logger != nil {
		e.logger.LogGranularityChange(gran, next)
	}
}

// Granularity returns the granularity the next tick will trade at.
func (e *Engine) Granularity() types.Granularity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.granularity
}

// Position returns a copy of the current position.
func (e *Engine) Position() types.Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.position
}

// LastDecision returns the most recent decision, if any.
func (e *Engine) LastDecision() (types.Decision, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastDecision, e.lastDecision.Timestamp != (time.Time{})
}

// Market returns the traded market identifier.
func (e *Engine) Market() string {
	return e.market
}

// setPosition persists the new position before publishing it. Persistence
// failure aborts the transition.
func (e *Engine) setPosition(pos types.Position) error {
	pos.Market = e.market
	pos.UpdatedAt = e.clk.Now()
	if err := e.store.Save(pos); err != nil {
		return fmt.Errorf("failed to persist position: %w", err)
	}
	e.mu.Lock()
	e.position = pos
	e.mu.Unlock()
	return nil
}

func (e *Engine) logError(context string, err error) {
	if e.logger != nil {
		e.logger.LogError(context, err)
	}
	if e.health != nil {
		e.health.RecordError(fmt.Sprintf("%s: %v", context, err))
	}
	monitoring.RecordError(context)
}

func newClientOrderID() string {
	return uuid.NewString()
}
