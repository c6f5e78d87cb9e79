// Package bybit adapts the Bybit V5 unified trading API to the exchange
// interface. Spot category only.
package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/smartman0307/pycryptobot/internal/exchange"
)

// Config holds the credentials and environment for a Bybit connection.
type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool
}

// Client implements the exchange interface for Bybit spot.
type Client struct {
	httpClient *bybit_api.Client
}

// NewClient creates a Bybit client against mainnet or testnet.
func NewClient(cfg Config) *Client {
	baseURL := bybit_api.MAINNET
	if cfg.Testnet {
		baseURL = bybit_api.TESTNET
	}
	return &Client{
		httpClient: bybit_api.NewBybitHttpClient(
			cfg.APIKey,
			cfg.APISecret,
			bybit_api.WithBaseURL(baseURL),
		),
	}
}

// Name returns the adapter identifier.
func (c *Client) Name() string {
	return "bybit"
}

// Bybit retCodes the adapter classifies specially.
const (
	retCodeInvalidAPIKey  = 10003
	retCodeSignatureError = 10004
	retCodeBadTimestamp   = 10002
	retCodeRateLimited    = 10006
	retCodeNoBalance      = 110007
	retCodeSpotNoBalance  = 170131
)

func (c *Client) classify(retCode int, retMsg string) error {
	kind := exchange.KindPermanent
	switch retCode {
	case retCodeRateLimited:
		kind = exchange.KindTransient
	case retCodeBadTimestamp:
		kind = exchange.KindClockSkew
	case retCodeInvalidAPIKey, retCodeSignatureError:
		kind = exchange.KindAuth
	case retCodeNoBalance, retCodeSpotNoBalance:
		kind = exchange.KindInsufficientFunds
	}
	return exchange.NewAPIError(c.Name(), 0, strconv.Itoa(retCode), retMsg, kind)
}

// call runs one authenticated V5 request and decodes the result payload.
func (c *Client) call(ctx context.Context, params map[string]interface{},
	invoke func(*bybit_api.BybitClientRequest, context.Context) (*bybit_api.ServerResponse, error), out interface{}) error {

	resp, err := invoke(c.httpClient.NewUtaBybitServiceWithParams(params), ctx)
	if err != nil {
		return fmt.Errorf("bybit request: %w", err)
	}
	if resp.RetCode != 0 {
		return c.classify(resp.RetCode, resp.RetMsg)
	}
	if out == nil {
		return nil
	}

	raw, err := json.Marshal(resp.Result)
	if err != nil {
		return fmt.Errorf("remarshal result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
