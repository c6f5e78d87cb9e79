package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smartman0307/pycryptobot/pkg/types"
)

// Config represents the complete configuration for the trading bot
type Config struct {
	// Exchange configuration
	Exchange ExchangeConfig `json:"exchange" yaml:"exchange"`

	// Market and granularity
	Market      string `json:"market" yaml:"market"`
	Granularity string `json:"granularity" yaml:"granularity"`

	// Trading strategy configuration
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`

	// Smart granularity switching
	SmartSwitch bool `json:"smart_switch" yaml:"smart_switch"`

	// Quote currency amount committed per buy. Zero means the full
	// available quote balance.
	BuyAmount float64 `json:"buy_amount" yaml:"buy_amount"`

	// Live enables real order placement. Off by default.
	Live bool `json:"live" yaml:"live"`

	// HaltOnNoFunds stops the engine when a buy is rejected for lack of
	// quote balance instead of skipping the tick.
	HaltOnNoFunds bool `json:"halt_on_no_funds" yaml:"halt_on_no_funds"`

	// PriceStaleAfterSec is how old a cached ticker price may grow before
	// ticks query the exchange directly. Zero takes the default.
	PriceStaleAfterSec int `json:"price_stale_after_sec,omitempty" yaml:"price_stale_after_sec,omitempty"`

	// Retry bounds the backoff applied to transient exchange failures.
	Retry *RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`

	// Simulation settings
	Simulation *SimulationConfig `json:"simulation,omitempty" yaml:"simulation,omitempty"`

	// Persistence paths
	StateFile  string `json:"state_file" yaml:"state_file"`
	LedgerPath string `json:"ledger_path" yaml:"ledger_path"`

	// Control plane and monitoring ports. Zero disables the listener.
	ControlPort int `json:"control_port" yaml:"control_port"`
	MetricsPort int `json:"metrics_port" yaml:"metrics_port"`

	// Optional forecast advisor endpoint
	ForecastURL string `json:"forecast_url,omitempty" yaml:"forecast_url,omitempty"`

	// Notification configuration (optional)
	Notifications *NotificationConfig `json:"notifications,omitempty" yaml:"notifications,omitempty"`

	// Console logging in addition to the session log file
	ConsoleLog bool `json:"console_log" yaml:"console_log"`
}

// ExchangeConfig holds exchange selection and credentials
type ExchangeConfig struct {
	Name       string `json:"name" yaml:"name"`
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APISecret  string `json:"api_secret,omitempty" yaml:"api_secret,omitempty"`
	Passphrase string `json:"passphrase,omitempty" yaml:"passphrase,omitempty"`
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Testnet    bool   `json:"testnet" yaml:"testnet"`
}

// StrategyConfig holds the buy and sell gate flags
type StrategyConfig struct {
	DisableBuyEMA      bool    `json:"disable_buy_ema" yaml:"disable_buy_ema"`
	DisableBuyMACD     bool    `json:"disable_buy_macd" yaml:"disable_buy_macd"`
	DisableBuyNearHigh bool    `json:"disable_buy_near_high" yaml:"disable_buy_near_high"`
	NoBuyNearHighPcnt  float64 `json:"no_buy_near_high_pcnt" yaml:"no_buy_near_high_pcnt"`
	DisableBullOnly    bool    `json:"disable_bull_only" yaml:"disable_bull_only"`

	SellAtLoss    bool    `json:"sell_at_loss" yaml:"sell_at_loss"`
	NoSellMinPcnt float64 `json:"no_sell_min_pcnt" yaml:"no_sell_min_pcnt"`
	NoSellMaxPcnt float64 `json:"no_sell_max_pcnt" yaml:"no_sell_max_pcnt"`
	SellUpperPcnt float64 `json:"sell_upper_pcnt" yaml:"sell_upper_pcnt"`
	SellLowerPcnt float64 `json:"sell_lower_pcnt" yaml:"sell_lower_pcnt"`
}

// SimulationConfig holds backtest settings
type SimulationConfig struct {
	Start    string  `json:"start,omitempty" yaml:"start,omitempty"`
	End      string  `json:"end,omitempty" yaml:"end,omitempty"`
	DataFile string  `json:"data_file,omitempty" yaml:"data_file,omitempty"`
	Quote    float64 `json:"quote" yaml:"quote"`
	FeeRate  float64 `json:"fee_rate" yaml:"fee_rate"`
}

// RetryConfig bounds transient-failure retries on exchange calls
type RetryConfig struct {
	MaxRetries      int `json:"max_retries" yaml:"max_retries"`
	InitialDelaySec int `json:"initial_delay_sec" yaml:"initial_delay_sec"`
	MaxDelaySec     int `json:"max_delay_sec" yaml:"max_delay_sec"`
}

// NotificationConfig holds notification settings
type NotificationConfig struct {
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	TelegramToken string `json:"telegram_token,omitempty" yaml:"telegram_token,omitempty"`
	TelegramChat  string `json:"telegram_chat,omitempty" yaml:"telegram_chat,omitempty"`
}

// Load loads configuration from a JSON or YAML file, applies environment
// overrides for credentials, then defaults and validation.
func Load(configFile string) (*Config, error) {
	if !strings.ContainsAny(configFile, "/\\") {
		configFile = filepath.Join("configs", configFile)
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides pulls credentials from the environment so they never
// have to live in the config file.
func (c *Config) applyEnvOverrides() {
	prefix := strings.ToUpper(c.Exchange.Name)
	if prefix == "" {
		return
	}
	if v := os.Getenv(prefix + "_API_KEY"); v != "" {
		c.Exchange.APIKey = v
	}
	if v := os.Getenv(prefix + "_API_SECRET"); v != "" {
		c.Exchange.APISecret = v
	}
	if v := os.Getenv(prefix + "_API_PASSPHRASE"); v != "" {
		c.Exchange.Passphrase = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		if c.Notifications == nil {
			c.Notifications = &NotificationConfig{Enabled: true}
		}
		c.Notifications.TelegramToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" && c.Notifications != nil {
		c.Notifications.TelegramChat = v
	}
}

// setDefaults sets default values for missing configuration
func (c *Config) setDefaults() {
	if c.Exchange.Name == "" {
		c.Exchange.Name = "coinbase"
	}
	if c.Granularity == "" {
		c.Granularity = "1h"
	}
	if c.Strategy.NoBuyNearHighPcnt == 0 {
		c.Strategy.NoBuyNearHighPcnt = 3.0
	}
	if c.StateFile == "" {
		c.StateFile = filepath.Join("data", "position.json")
	}
	if c.LedgerPath == "" {
		c.LedgerPath = filepath.Join("data", "ledger.db")
	}
	if c.Simulation != nil && c.Simulation.Quote == 0 {
		c.Simulation.Quote = 1000.0
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Market == "" {
		return fmt.Errorf("market is required")
	}

	switch strings.ToLower(c.Exchange.Name) {
	case "coinbase", "binance", "bybit":
	default:
		return fmt.Errorf("unsupported exchange %q", c.Exchange.Name)
	}

	if _, err := types.ParseGranularity(c.Granularity); err != nil {
		return err
	}

	if c.BuyAmount < 0 {
		return fmt.Errorf("buy amount cannot be negative")
	}

	s := c.Strategy
	if s.NoBuyNearHighPcnt < 0 {
		return fmt.Errorf("no_buy_near_high_pcnt cannot be negative")
	}
	if s.NoSellMinPcnt > 0 || s.NoSellMaxPcnt < 0 {
		return fmt.Errorf("no-sell band must satisfy min <= 0 <= max")
	}
	if s.NoSellMinPcnt != 0 || s.NoSellMaxPcnt != 0 {
		if s.NoSellMinPcnt > s.NoSellMaxPcnt {
			return fmt.Errorf("no_sell_min_pcnt must not exceed no_sell_max_pcnt")
		}
	}
	if s.SellLowerPcnt > 0 {
		return fmt.Errorf("sell_lower_pcnt must be negative or zero")
	}
	if s.SellUpperPcnt < 0 {
		return fmt.Errorf("sell_upper_pcnt must be positive or zero")
	}

	if c.Live && c.Exchange.APIKey == "" {
		return fmt.Errorf("live trading requires API credentials")
	}

	if c.PriceStaleAfterSec < 0 {
		return fmt.Errorf("price_stale_after_sec cannot be negative")
	}
	if r := c.Retry; r != nil {
		if r.MaxRetries < 0 || r.InitialDelaySec < 0 || r.MaxDelaySec < 0 {
			return fmt.Errorf("retry bounds cannot be negative")
		}
	}

	if c.Simulation != nil {
		if c.Simulation.Quote <= 0 {
			return fmt.Errorf("simulation quote balance must be greater than 0")
		}
		if c.Simulation.FeeRate < 0 || c.Simulation.FeeRate >= 1 {
			return fmt.Errorf("simulation fee rate must be in [0, 1)")
		}
	}

	return nil
}

// GranularityOrDefault returns the parsed granularity. Validate must have
// accepted the config first.
func (c *Config) GranularityOrDefault() types.Granularity {
	g, err := types.ParseGranularity(c.Granularity)
	if err != nil {
		return types.GranularityOneHour
	}
	return g
}
