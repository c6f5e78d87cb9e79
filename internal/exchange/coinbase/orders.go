package coinbase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

type orderResponse struct {
	ID            string `json:"id"`
	ClientOID     string `json:"client_oid"`
	ProductID     string `json:"product_id"`
	Side          string `json:"side"`
	FilledSize    string `json:"filled_size"`
	ExecutedValue string `json:"executed_value"`
	FillFees      string `json:"fill_fees"`
	Status        string `json:"status"`
	DoneReason    string `json:"done_reason"`
	CreatedAt     string `json:"created_at"`
}

func (o orderResponse) toOrder() types.Order {
	size, _ := strconv.ParseFloat(o.FilledSize, 64)
	value, _ := strconv.ParseFloat(o.ExecutedValue, 64)
	fee, _ := strconv.ParseFloat(o.FillFees, 64)
	created, _ := time.Parse(time.RFC3339, o.CreatedAt)

	price := 0.0
	if size > 0 {
		price = value / size
	}

	var status types.OrderStatus
	switch o.Status {
	case "done":
		if o.DoneReason == "" || o.DoneReason == "filled" {
			status = types.OrderStatusFilled
		} else {
			status = types.OrderStatusRejected
		}
	case "open", "pending", "active":
		status = types.OrderStatusOpen
	case "rejected":
		status = types.OrderStatusRejected
	default:
		status = types.OrderStatusUnknown
	}

	return types.Order{
		ID:            o.ID,
		ClientOrderID: o.ClientOID,
		Market:        o.ProductID,
		Side:          types.OrderSide(o.Side),
		Size:          size,
		Price:         price,
		Fee:           fee,
		Status:        status,
		CreatedAt:     created.UTC(),
	}
}

// GetOrders returns the market's order history, most recent first. An empty
// history is a normal result.
func (c *Client) GetOrders(ctx context.Context, market string) ([]types.Order, error) {
	q := url.Values{}
	q.Set("product_id", market)
	q.Set("status", "all")
	q.Set("limit", "100")

	var rows []orderResponse
	if err := c.do(ctx, http.MethodGet, "/orders?"+q.Encode(), nil, true, &rows); err != nil {
		return nil, err
	}

	orders := make([]types.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toOrder())
	}
	return orders, nil
}

// PlaceMarketOrder submits a market order. Buys spend quote funds, sells
// release base size.
func (c *Client) PlaceMarketOrder(ctx context.Context, market string, side types.OrderSide, amount float64, clientID string) (types.Order, error) {
	body := map[string]string{
		"type":       "market",
		"side":       string(side),
		"product_id": market,
		"client_oid": clientID,
	}
	switch side {
	case types.OrderSideBuy:
		body["funds"] = strconv.FormatFloat(amount, 'f', 2, 64)
	case types.OrderSideSell:
		body["size"] = strconv.FormatFloat(amount, 'f', 8, 64)
	default:
		return types.Order{}, fmt.Errorf("unsupported order side %q", side)
	}

	var placed orderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", body, true, &placed); err != nil {
		return types.Order{}, err
	}

	order := placed.toOrder()
	if order.ClientOrderID == "" {
		order.ClientOrderID = clientID
	}
	// Market orders settle asynchronously; a fresh submission is open until
	// the order history confirms the fill.
	if order.Status == "" {
		order.Status = types.OrderStatusOpen
	}
	return order, nil
}
