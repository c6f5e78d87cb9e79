package types

import "time"

// OrderSide is the direction of a market order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderStatus is the lifecycle state of an order as reported by the exchange.
// StatusUnknown means the outcome could not be confirmed; it is never treated
// as filled.
type OrderStatus string

const (
	OrderStatusOpen     OrderStatus = "open"
	OrderStatusFilled   OrderStatus = "filled"
	OrderStatusRejected OrderStatus = "rejected"
	OrderStatusUnknown  OrderStatus = "unknown"
)

// Order is a normalized exchange order.
type Order struct {
	ID            string      `json:"id"`
	ClientOrderID string      `json:"client_order_id,omitempty"`
	Market        string      `json:"market"`
	Side          OrderSide   `json:"side"`
	Size          float64     `json:"size"`
	Price         float64     `json:"price"`
	Fee           float64     `json:"fee"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Balance is the funds held in one currency.
type Balance struct {
	Currency  string  `json:"currency"`
	Available float64 `json:"available"`
	Hold      float64 `json:"hold"`
}
