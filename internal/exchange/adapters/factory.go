// Package adapters constructs concrete exchange clients from configuration.
package adapters

import (
	"fmt"

	"github.com/smartman0307/pycryptobot/internal/exchange"
	"github.com/smartman0307/pycryptobot/internal/exchange/binance"
	"github.com/smartman0307/pycryptobot/internal/exchange/bybit"
	"github.com/smartman0307/pycryptobot/internal/exchange/coinbase"
)

// Credentials selects and authenticates one exchange connection.
type Credentials struct {
	Exchange   string
	APIKey     string
	APISecret  string
	Passphrase string // coinbase only
	BaseURL    string // override for tests and regional endpoints
	Testnet    bool   // bybit only

	// Retry overrides the default transient-failure retry policy. Zero
	// value means the default bounds.
	Retry exchange.RetryConfig
}

// New builds the adapter named in the credentials and wraps its read calls
// in the retry policy. An unknown exchange name is a configuration error,
// fatal at startup.
func New(creds Credentials) (exchange.Exchange, error) {
	var ex exchange.Exchange
	switch creds.Exchange {
	case "coinbase":
		ex = coinbase.NewClient(coinbase.Config{
			APIKey:     creds.APIKey,
			APISecret:  creds.APISecret,
			Passphrase: creds.Passphrase,
			BaseURL:    creds.BaseURL,
		})
	case "binance":
		ex = binance.NewClient(creds.APIKey, creds.APISecret, creds.BaseURL)
	case "bybit":
		ex = bybit.NewClient(bybit.Config{
			APIKey:    creds.APIKey,
			APISecret: creds.APISecret,
			Testnet:   creds.Testnet,
		})
	default:
		return nil, fmt.Errorf("unknown exchange %q (supported: coinbase, binance, bybit)", creds.Exchange)
	}
	return exchange.WithRetry(ex, creds.Retry), nil
}
