package bybit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// GetBalance returns the unified account funds for one coin.
func (c *Client) GetBalance(ctx context.Context, currency string) (types.Balance, error) {
	params := map[string]interface{}{
		"accountType": "UNIFIED",
		"coin":        currency,
	}
	var result struct {
		List []struct {
			Coin []struct {
				Coin          string `json:"coin"`
				WalletBalance string `json:"walletBalance"`
				Locked        string `json:"locked"`
			} `json:"coin"`
		} `json:"list"`
	}
	err := c.call(ctx, params, func(s *bybit_api.BybitClientRequest, ctx context.Context) (*bybit_api.ServerResponse, error) {
		return s.GetAccountWallet(ctx)
	}, &result)
	if err != nil {
		return types.Balance{}, err
	}

	for _, account := range result.List {
		for _, coin := range account.Coin {
			if coin.Coin != currency {
				continue
			}
			locked := parseFloat(coin.Locked)
			return types.Balance{
				Currency:  currency,
				Available: parseFloat(coin.WalletBalance) - locked,
				Hold:      locked,
			}, nil
		}
	}
	return types.Balance{Currency: currency}, nil
}

type orderRow struct {
	OrderID      string `json:"orderId"`
	OrderLinkID  string `json:"orderLinkId"`
	Symbol       string `json:"symbol"`
	Side         string `json:"side"`
	OrderStatus  string `json:"orderStatus"`
	CumExecQty   string `json:"cumExecQty"`
	CumExecValue string `json:"cumExecValue"`
	CumExecFee   string `json:"cumExecFee"`
	CreatedTime  string `json:"createdTime"`
}

func (r orderRow) toOrder() types.Order {
	size := parseFloat(r.CumExecQty)
	value := parseFloat(r.CumExecValue)
	price := 0.0
	if size > 0 {
		price = value / size
	}

	var status types.OrderStatus
	switch r.OrderStatus {
	case "Filled":
		status = types.OrderStatusFilled
	case "New", "PartiallyFilled", "Created", "Untriggered":
		status = types.OrderStatusOpen
	case "Rejected", "Cancelled", "Deactivated":
		status = types.OrderStatusRejected
	default:
		status = types.OrderStatusUnknown
	}

	side := types.OrderSideBuy
	if r.Side == "Sell" {
		side = types.OrderSideSell
	}

	createdMs, _ := strconv.ParseInt(r.CreatedTime, 10, 64)
	return types.Order{
		ID:            r.OrderID,
		ClientOrderID: r.OrderLinkID,
		Market:        r.Symbol,
		Side:          side,
		Size:          size,
		Price:         price,
		Fee:           parseFloat(r.CumExecFee),
		Status:        status,
		CreatedAt:     time.UnixMilli(createdMs).UTC(),
	}
}

// GetOrders returns the market's order history, most recent first.
func (c *Client) GetOrders(ctx context.Context, market string) ([]types.Order, error) {
	params := map[string]interface{}{
		"category": "spot",
		"symbol":   market,
		"limit":    50,
	}
	var result struct {
		List []orderRow `json:"list"`
	}
	err := c.call(ctx, params, func(s *bybit_api.BybitClientRequest, ctx context.Context) (*bybit_api.ServerResponse, error) {
		return s.GetOrderHistory(ctx)
	}, &result)
	if err != nil {
		return nil, err
	}

	orders := make([]types.Order, 0, len(result.List))
	for _, row := range result.List {
		orders = append(orders, row.toOrder())
	}
	return orders, nil
}

// PlaceMarketOrder submits a spot market order. Buys are sized in quote
// currency, sells in base, via the marketUnit switch.
func (c *Client) PlaceMarketOrder(ctx context.Context, market string, side types.OrderSide, amount float64, clientID string) (types.Order, error) {
	apiSide := "Buy"
	marketUnit := "quoteCoin"
	if side == types.OrderSideSell {
		apiSide = "Sell"
		marketUnit = "baseCoin"
	}

	params := map[string]interface{}{
		"category":    "spot",
		"symbol":      market,
		"side":        apiSide,
		"orderType":   "Market",
		"qty":         strconv.FormatFloat(amount, 'f', 8, 64),
		"marketUnit":  marketUnit,
		"orderLinkId": clientID,
	}

	var result struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	}
	err := c.call(ctx, params, func(s *bybit_api.BybitClientRequest, ctx context.Context) (*bybit_api.ServerResponse, error) {
		return s.PlaceOrder(ctx)
	}, &result)
	if err != nil {
		return types.Order{}, err
	}
	if result.OrderID == "" {
		return types.Order{}, fmt.Errorf("order accepted without an id")
	}

	// Fills settle asynchronously; the order history confirms execution.
	return types.Order{
		ID:            result.OrderID,
		ClientOrderID: clientID,
		Market:        market,
		Side:          side,
		Status:        types.OrderStatusOpen,
		CreatedAt:     time.Now().UTC(),
	}, nil
}
