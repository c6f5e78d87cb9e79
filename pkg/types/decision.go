package types

import "time"

// Action is the outcome of one tick's evaluation. Exactly one is emitted per
// tick.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionWait Action = "WAIT"
)

// Decision is the audit record for one tick: what the engine chose, at what
// price, and the indicator values it saw.
type Decision struct {
	Tick      int                `json:"tick"`
	Timestamp time.Time          `json:"timestamp"`
	Market    string             `json:"market"`
	Action    Action             `json:"action"`
	Price     float64            `json:"price"`
	Reason    string             `json:"reason"`
	Signals   map[string]float64 `json:"signals,omitempty"`
	Missing   []string           `json:"missing,omitempty"`
}

// TradeRecord is one closed round trip, as written to the ledger.
type TradeRecord struct {
	Market     string    `json:"market"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Size       float64   `json:"size"`
	Fees       float64   `json:"fees"`
	MarginPct  float64   `json:"margin_pct"`
}

// Profitable reports whether the trade closed above break even.
func (t *TradeRecord) Profitable() bool {
	return t.MarginPct > 0
}
