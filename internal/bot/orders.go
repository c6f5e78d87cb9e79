package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/smartman0307/pycryptobot/internal/exchange"
	"github.com/smartman0307/pycryptobot/internal/monitoring"
	"github.com/smartman0307/pycryptobot/internal/notifications"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

// minQuoteFunds is the smallest quote amount worth submitting as a buy.
const minQuoteFunds = 10.0

func (e *Engine) executeBuy(ctx context.Context, d *types.Decision, now time.Time) error {
	funds := e.cfg.BuyAmount
	if funds <= 0 {
		balance, err := e.ex.GetBalance(ctx, e.quoteCcy)
		if err != nil {
			return fmt.Errorf("failed to read %s balance: %w", e.quoteCcy, err)
		}
		funds = balance.Available
	}
	if funds < minQuoteFunds {
		if e.cfg.HaltOnNoFunds {
			return fmt.Errorf("%w: buy signal with only %.2f %s available", ErrHalted, funds, e.quoteCcy)
		}
		if e.logger != nil {
			e.logger.Warning("buy signal with only %.2f %s available, skipping", funds, e.quoteCcy)
		}
		return nil
	}

	order, err := e.submitOrder(ctx, types.OrderSideBuy, funds, d.Price)
	if err != nil {
		return err
	}
	if order.Status != types.OrderStatusFilled {
		if e.logger != nil {
			e.logger.Warning("buy order %s not confirmed filled (status %s), position unchanged", order.ID, order.Status)
		}
		return nil
	}

	entryPrice := order.Price
	if entryPrice <= 0 {
		entryPrice = d.Price
	}
	size := order.Size
	if size <= 0 {
		size = funds * (1 - e.feeRate) / entryPrice
	}

	pos := types.Position{
		State:        types.PositionHolding,
		EntryOrderID: order.ID,
		EntryPrice:   entryPrice,
		EntrySize:    size,
		EntryTime:    now,
	}
	if err := e.setPosition(pos); err != nil {
		return err
	}

	e.recordOrder(ctx, order)
	monitoring.RecordTrade(e.market, string(types.OrderSideBuy), funds)
	if e.logger != nil {
		e.logger.LogTradeExecution(types.OrderSideBuy, order.ID, size, entryPrice, funds)
	}
	if err := notifications.NotifyTrade(e.notifier, e.market, types.OrderSideBuy, entryPrice, size); err != nil {
		e.logError("notification", err)
	}
	return nil
}

func (e *Engine) executeSell(ctx context.Context, d *types.Decision, now time.Time) error {
	pos := e.Position()
	if !pos.Holding() || pos.EntrySize <= 0 {
		return fmt.Errorf("sell with no open position")
	}

	order, err := e.submitOrder(ctx, types.OrderSideSell, pos.EntrySize, d.Price)
	if err != nil {
		return err
	}
	if order.Status != types.OrderStatusFilled {
		if e.logger != nil {
			e.logger.Warning("sell order %s not confirmed filled (status %s), position unchanged", order.ID, order.Status)
		}
		return nil
	}

	exitPrice := order.Price
	if exitPrice <= 0 {
		exitPrice = d.Price
	}
	marginPct := pos.Margin(exitPrice, e.feeRate)

	if err := e.setPosition(types.Position{State: types.PositionFlat}); err != nil {
		return err
	}

	trade := types.TradeRecord{
		Market:     e.market,
		EntryTime:  pos.EntryTime,
		ExitTime:   now,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		Size:       pos.EntrySize,
		Fees:       (pos.EntryPrice + exitPrice) * pos.EntrySize * e.feeRate,
		MarginPct:  marginPct,
	}
	e.recordOrder(ctx, order)
	if e.ledger != nil {
		if err := e.ledger.RecordTrade(ctx, trade); err != nil {
			e.logError("ledger", err)
		}
	}

	monitoring.RecordTrade(e.market, string(types.OrderSideSell), exitPrice*pos.EntrySize)
	if e.logger != nil {
		e.logger.LogTradeExecution(types.OrderSideSell, order.ID, pos.EntrySize, exitPrice, exitPrice*pos.EntrySize)
		e.logger.LogTradeClosed(pos.EntryPrice, exitPrice, marginPct)
	}
	if err := notifications.NotifyTrade(e.notifier, e.market, types.OrderSideSell, exitPrice, pos.EntrySize); err != nil {
		e.logError("notification", err)
	}
	return nil
}

// submitOrder places a market order, or fabricates a paper fill at the
// decision price when live trading is off. Every submission carries a fresh
// client order ID; if the outcome is uncertain the ID is looked up in the
// order history rather than the order re-placed.
func (e *Engine) submitOrder(ctx context.Context, side types.OrderSide, amount, price float64) (types.Order, error) {
	clientID := newClientOrderID()

	if !e.cfg.Live {
		return e.paperFill(side, amount, price, clientID), nil
	}

	order, err := e.ex.PlaceMarketOrder(ctx, e.market, side, amount, clientID)
	if err != nil {
		if exchange.IsInsufficientFunds(err) {
			return types.Order{}, fmt.Errorf("insufficient funds for %s: %w", side, err)
		}
		// The order may have landed before the failure. Check before
		// declaring it lost; never re-place under a fresh ID.
		if found, ok := e.lookupOrder(ctx, clientID); ok {
			order = found
		} else {
			return types.Order{}, fmt.Errorf("failed to place %s order: %w", side, err)
		}
	}

	// Market orders usually fill immediately. Poll briefly when the
	// exchange reports the order still open or in an unknown state.
	for attempt := 0; attempt < e.confirmAttempts && order.Status != types.OrderStatusFilled && order.Status != types.OrderStatusRejected; attempt++ {
		select {
		case <-ctx.Done():
			return order, ctx.Err()
		case <-time.After(e.confirmDelay):
		}
		if found, ok := e.lookupOrder(ctx, clientID); ok {
			order = found
		}
	}

	return order, nil
}

// lookupOrder searches the order history for the client order ID.
func (e *Engine) lookupOrder(ctx context.Context, clientID string) (types.Order, bool) {
	orders, err := e.ex.GetOrders(ctx, e.market)
	if err != nil {
		e.logError("order lookup", err)
		return types.Order{}, false
	}
	for _, o := range orders {
		if o.ClientOrderID == clientID {
			return o, true
		}
	}
	return types.Order{}, false
}

// paperFill simulates an immediate market fill at the given price.
func (e *Engine) paperFill(side types.OrderSide, amount, price float64, clientID string) types.Order {
	size := amount
	if side == types.OrderSideBuy {
		size = amount * (1 - e.feeRate) / price
	}
	fee := amount * e.feeRate
	if side == types.OrderSideSell {
		fee = amount * price * e.feeRate
	}
	return types.Order{
		ID:            "paper-" + clientID,
		ClientOrderID: clientID,
		Market:        e.market,
		Side:          side,
		Size:          size,
		Price:         price,
		Fee:           fee,
		Status:        types.OrderStatusFilled,
		CreatedAt:     e.clk.Now(),
	}
}

func (e *Engine) recordOrder(ctx context.Context, order types.Order) {
	if e.ledger == nil {
		return
	}
	if err := e.ledger.RecordOrder(ctx, order); err != nil {
		e.logError("ledger", err)
	}
}
