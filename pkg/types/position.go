package types

import "time"

// PositionState says whether the engine currently holds the base asset.
type PositionState string

const (
	PositionFlat    PositionState = "FLAT"
	PositionHolding PositionState = "HOLDING"
)

// Position is the single open position the engine manages per market. It is
// persisted after every transition and reconciled against the exchange on
// restart.
type Position struct {
	Market       string        `json:"market"`
	State        PositionState `json:"state"`
	EntryOrderID string        `json:"entry_order_id,omitempty"`
	EntryPrice   float64       `json:"entry_price,omitempty"`
	EntrySize    float64       `json:"entry_size,omitempty"`
	EntryTime    time.Time     `json:"entry_time,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Holding reports whether the position is open.
func (p Position) Holding() bool {
	return p.State == PositionHolding
}

// Margin returns the percent gain at the given price, net of taker fees on
// both the entry and the hypothetical exit.
func (p Position) Margin(price, feeRate float64) float64 {
	if p.State != PositionHolding || p.EntryPrice <= 0 {
		return 0
	}
	cost := p.EntryPrice * (1 + feeRate)
	proceeds := price * (1 - feeRate)
	return (proceeds - cost) / cost * 100
}
