package bot

import (
	"context"
	"fmt"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// Reconcile aligns the persisted position with what the exchange actually
// holds. The exchange is the source of truth: a stored HOLDING with no base
// balance resets to FLAT, and a base balance with no stored position is
// adopted as a holding. Called once before the first tick.
func (e *Engine) Reconcile(ctx context.Context) error {
	if fee, err := e.ex.TakerFee(ctx, e.market); err == nil && fee > 0 {
		e.mu.Lock()
		e.feeRate = fee
		e.mu.Unlock()
		e.strat.SetTakerFee(fee)
	}

	base, err := e.ex.GetBalance(ctx, e.baseCcy)
	if err != nil {
		if e.health != nil {
			e.health.SetConnected(false)
		}
		return fmt.Errorf("failed to read %s balance: %w", e.baseCcy, err)
	}
	quote, err := e.ex.GetBalance(ctx, e.quoteCcy)
	if err != nil {
		if e.health != nil {
			e.health.SetConnected(false)
		}
		return fmt.Errorf("failed to read %s balance: %w", e.quoteCcy, err)
	}
	if e.health != nil {
		e.health.SetConnected(true)
	}

	pos := e.Position()
	holdsBase := base.Available > dustThreshold

	switch {
	case pos.Holding() && !holdsBase:
		// The position was closed behind our back, likely a manual sell.
		if e.logger != nil {
			e.logger.Warning("stored position %s has no %s balance on exchange, resetting to FLAT", pos.EntryOrderID, e.baseCcy)
		}
		return e.setPosition(types.Position{State: types.PositionFlat})

	case !pos.Holding() && holdsBase && quote.Available < minQuoteFunds:
		// Base held and no quote to trade with: treat the balance as an
		// open position bought outside this process.
		entry := e.inferEntry(ctx, base.Available)
		if e.logger != nil {
			e.logger.Warning("adopting exchange holding of %.8f %s at inferred entry %.2f", base.Available, e.baseCcy, entry.EntryPrice)
		}
		return e.setPosition(entry)
	}

	return nil
}

// inferEntry reconstructs a position from the most recent filled buy, or
// failing that the current ticker price.
func (e *Engine) inferEntry(ctx context.Context, size float64) types.Position {
	pos := types.Position{
		State:     types.PositionHolding,
		EntrySize: size,
		EntryTime: e.clk.Now(),
	}

	if orders, err := e.ex.GetOrders(ctx, e.market); err == nil {
		for _, o := range orders {
			if o.Side == types.OrderSideBuy && o.Status == types.OrderStatusFilled {
				pos.EntryOrderID = o.ID
				pos.EntryPrice = o.Price
				pos.EntryTime = o.CreatedAt
				break
			}
		}
	}

	if pos.EntryPrice <= 0 {
		if price, err := e.ex.GetTicker(ctx, e.market); err == nil {
			pos.EntryPrice = price
		}
	}

	return pos
}
