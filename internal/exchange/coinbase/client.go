// Package coinbase implements the exchange interface against the Coinbase
// Exchange REST API with hand-signed requests, plus a websocket ticker feed.
package coinbase

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/smartman0307/pycryptobot/internal/exchange"
)

const (
	// DefaultBaseURL is the production REST endpoint.
	DefaultBaseURL = "https://api.exchange.coinbase.com"
	// DefaultWebsocketURL is the production market data feed.
	DefaultWebsocketURL = "wss://ws-feed.exchange.coinbase.com"

	requestTimeout = 30 * time.Second
)

// Config holds the credentials and endpoints for a Coinbase connection.
type Config struct {
	APIKey       string
	APISecret    string
	Passphrase   string
	BaseURL      string
	WebsocketURL string
}

// Client is a Coinbase Exchange API client.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu         sync.Mutex
	timeOffset time.Duration // server time minus local time
}

// NewClient creates a Coinbase client. Credentials may be empty for
// public-data-only use (historical candles, ticker, server time).
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.WebsocketURL == "" {
		cfg.WebsocketURL = DefaultWebsocketURL
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Name returns the adapter identifier.
func (c *Client) Name() string {
	return "coinbase"
}

// do executes one API call and decodes the JSON response into out. Private
// endpoints are signed; a clock-skew rejection triggers a time resync and a
// single re-signed retry.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, private bool, out interface{}) error {
	err := c.doOnce(ctx, method, path, body, private, out)
	if exchange.IsClockSkew(err) {
		if syncErr := c.syncServerTime(ctx); syncErr != nil {
			return fmt.Errorf("resync server time after skew rejection: %w", syncErr)
		}
		return c.doOnce(ctx, method, path, body, private, out)
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, body interface{}, private bool, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "pycryptobot")

	if private {
		if err := c.sign(req, method, path, payload); err != nil {
			return err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("coinbase %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return c.apiError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// sign attaches the CB-ACCESS-* authentication headers. The signature is an
// HMAC-SHA256 of timestamp+method+path+body keyed with the base64-decoded
// secret, per the exchange's signing scheme.
func (c *Client) sign(req *http.Request, method, path string, body []byte) error {
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return exchange.NewAPIError(c.Name(), 0, "", "missing API credentials", exchange.KindAuth)
	}

	secret, err := base64.StdEncoding.DecodeString(c.cfg.APISecret)
	if err != nil {
		return exchange.NewAPIError(c.Name(), 0, "", "API secret is not valid base64", exchange.KindAuth)
	}

	c.mu.Lock()
	ts := time.Now().Add(c.timeOffset)
	c.mu.Unlock()
	timestamp := strconv.FormatInt(ts.Unix(), 10)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp + method + path))
	mac.Write(body)

	req.Header.Set("CB-ACCESS-KEY", c.cfg.APIKey)
	req.Header.Set("CB-ACCESS-SIGN", base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	req.Header.Set("CB-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("CB-ACCESS-PASSPHRASE", c.cfg.Passphrase)
	return nil
}

func (c *Client) apiError(status int, raw []byte) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &body)
	if body.Message == "" {
		body.Message = strings.TrimSpace(string(raw))
	}

	kind := exchange.ClassifyHTTPStatus(status)
	msg := strings.ToLower(body.Message)
	switch {
	case strings.Contains(msg, "timestamp expired"):
		kind = exchange.KindClockSkew
	case strings.Contains(msg, "insufficient funds"):
		kind = exchange.KindInsufficientFunds
	case strings.Contains(msg, "invalid api key"), strings.Contains(msg, "invalid signature"), strings.Contains(msg, "invalid passphrase"):
		kind = exchange.KindAuth
	}
	return exchange.NewAPIError(c.Name(), status, "", body.Message, kind)
}

// GetServerTime returns the exchange clock.
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	var body struct {
		Epoch float64 `json:"epoch"`
	}
	if err := c.do(ctx, http.MethodGet, "/time", nil, false, &body); err != nil {
		return time.Time{}, err
	}
	sec, frac := int64(body.Epoch), body.Epoch-float64(int64(body.Epoch))
	return time.Unix(sec, int64(frac*1e9)).UTC(), nil
}

func (c *Client) syncServerTime(ctx context.Context) error {
	serverTime, err := c.GetServerTime(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.timeOffset = serverTime.Sub(time.Now())
	c.mu.Unlock()
	return nil
}
