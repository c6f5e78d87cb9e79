package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadJSONConfig(t *testing.T) {
	path := writeConfig(t, "bot.json", `{
		"exchange": {"name": "coinbase"},
		"market": "BTC-USD",
		"granularity": "15m",
		"strategy": {"sell_at_loss": true, "sell_upper_pcnt": 3.0}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "BTC-USD", cfg.Market)
	assert.Equal(t, "coinbase", cfg.Exchange.Name)
	assert.Equal(t, 900, cfg.GranularityOrDefault().Seconds())
	assert.True(t, cfg.Strategy.SellAtLoss)
	assert.Equal(t, 3.0, cfg.Strategy.SellUpperPcnt)
}

func TestLoadYAMLConfig(t *testing.T) {
	path := writeConfig(t, "bot.yaml", `
exchange:
  name: bybit
  testnet: true
market: BTCUSDT
granularity: 1h
smart_switch: true
strategy:
  disable_buy_near_high: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bybit", cfg.Exchange.Name)
	assert.True(t, cfg.Exchange.Testnet)
	assert.True(t, cfg.SmartSwitch)
	assert.True(t, cfg.Strategy.DisableBuyNearHigh)
}

func TestDefaultsApplied(t *testing.T) {
	path := writeConfig(t, "bot.json", `{"market": "ETH-USD"}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "coinbase", cfg.Exchange.Name)
	assert.Equal(t, "1h", cfg.Granularity)
	assert.Equal(t, 3.0, cfg.Strategy.NoBuyNearHighPcnt)
	assert.NotEmpty(t, cfg.StateFile)
	assert.NotEmpty(t, cfg.LedgerPath)
}

func TestEnvCredentialOverride(t *testing.T) {
	t.Setenv("BYBIT_API_KEY", "env-key")
	t.Setenv("BYBIT_API_SECRET", "env-secret")

	path := writeConfig(t, "bot.json", `{
		"exchange": {"name": "bybit", "api_key": "file-key"},
		"market": "BTCUSDT"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Exchange.APIKey)
	assert.Equal(t, "env-secret", cfg.Exchange.APISecret)
}

func TestValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing market", `{"exchange": {"name": "coinbase"}}`},
		{"unknown exchange", `{"exchange": {"name": "kraken"}, "market": "BTC-USD"}`},
		{"bad granularity", `{"market": "BTC-USD", "granularity": "7m"}`},
		{"inverted band", `{"market": "BTC-USD", "strategy": {"no_sell_min_pcnt": 2, "no_sell_max_pcnt": 5}}`},
		{"positive lower", `{"market": "BTC-USD", "strategy": {"sell_lower_pcnt": 2}}`},
		{"live without creds", `{"market": "BTC-USD", "live": true}`},
		{"bad sim fee", `{"market": "BTC-USD", "simulation": {"quote": 100, "fee_rate": 1.5}}`},
		{"negative retry", `{"market": "BTC-USD", "retry": {"max_retries": -1}}`},
		{"negative staleness", `{"market": "BTC-USD", "price_stale_after_sec": -5}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, "bot.json", tc.body)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
