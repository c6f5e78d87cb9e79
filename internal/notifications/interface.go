package notifications

import "github.com/smartman0307/pycryptobot/pkg/types"

// Notifier defines the interface for notification services
type Notifier interface {
	// SendAlert sends an alert with the specified level and message
	SendAlert(level, message string) error
}

// NotifyTrade sends a formatted trade notification through the notifier.
func NotifyTrade(n Notifier, market string, side types.OrderSide, price, size float64) error {
	if n == nil {
		return nil
	}
	return n.SendAlert("TRADE", FormatTrade(market, side, price, size))
}

// Noop is a Notifier that discards every alert.
type Noop struct{}

func (Noop) SendAlert(level, message string) error { return nil }
