package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/smartman0307/pycryptobot/internal/backtest"
	"github.com/smartman0307/pycryptobot/internal/config"
	"github.com/smartman0307/pycryptobot/internal/exchange"
	"github.com/smartman0307/pycryptobot/internal/exchange/adapters"
	"github.com/smartman0307/pycryptobot/internal/history"
	"github.com/smartman0307/pycryptobot/internal/strategy"
	"github.com/smartman0307/pycryptobot/pkg/data"
	"github.com/smartman0307/pycryptobot/pkg/reporting"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

func main() {
	var (
		configFile = flag.String("config", "config.json", "Configuration file (JSON or YAML)")
		envFile    = flag.String("env", ".env", "Environment file path")
		csvOut     = flag.String("csv", "", "Write trades CSV to this path")
		jsonOut    = flag.String("json", "", "Write summary JSON to this path")
		xlsxOut    = flag.String("xlsx", "", "Write summary workbook to this path")
	)
	flag.Parse()

	if err := loadEnvFile(*envFile); err != nil {
		log.Printf("Warning: could not load env file (%v), using process environment", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Simulation == nil {
		cfg.Simulation = &config.SimulationConfig{Quote: 1000}
	}

	fmt.Printf("📈 Simulating %s at %s\n", cfg.Market, cfg.GranularityOrDefault())

	series, err := loadSeries(cfg)
	if err != nil {
		log.Fatalf("Failed to load candles: %v", err)
	}
	if series.Len() == 0 {
		log.Fatalf("No candles in the requested range")
	}
	fmt.Printf("🕯  Loaded %d candles (%s .. %s)\n", series.Len(),
		series.Candles[0].Timestamp.Format("2006-01-02 15:04"),
		series.Candles[series.Len()-1].Timestamp.Format("2006-01-02 15:04"))

	simCfg := backtest.Config{
		Quote:       cfg.Simulation.Quote,
		FeeRate:     cfg.Simulation.FeeRate,
		SmartSwitch: cfg.SmartSwitch,
		Strategy: strategy.Config{
			DisableBuyEMA:      cfg.Strategy.DisableBuyEMA,
			DisableBuyMACD:     cfg.Strategy.DisableBuyMACD,
			DisableBuyNearHigh: cfg.Strategy.DisableBuyNearHigh,
			NoBuyNearHighPcnt:  cfg.Strategy.NoBuyNearHighPcnt,
			DisableBullOnly:    cfg.Strategy.DisableBullOnly,
			SellAtLoss:         cfg.Strategy.SellAtLoss,
			NoSellMinPcnt:      cfg.Strategy.NoSellMinPcnt,
			NoSellMaxPcnt:      cfg.Strategy.NoSellMaxPcnt,
			SellUpperPcnt:      cfg.Strategy.SellUpperPcnt,
			SellLowerPcnt:      cfg.Strategy.SellLowerPcnt,
		},
	}

	if cfg.SmartSwitch {
		hourly, err := loadHourlyCache(cfg, &series)
		if err != nil {
			log.Printf("Warning: granularity switching disabled, no hourly candles: %v", err)
			simCfg.SmartSwitch = false
		} else {
			simCfg.Hourly = hourly
		}
	}

	summary, err := backtest.NewEngine(cfg.Market, simCfg).Run(&series)
	if err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	reporting.OutputConsole(summary)

	if *csvOut != "" {
		if err := reporting.WriteTradesCSV(summary, *csvOut); err != nil {
			log.Fatalf("Failed to write CSV: %v", err)
		}
		fmt.Printf("💾 Trades CSV: %s\n", *csvOut)
	}
	if *jsonOut != "" {
		if err := reporting.WriteSummaryJSON(summary, *jsonOut); err != nil {
			log.Fatalf("Failed to write JSON: %v", err)
		}
		fmt.Printf("💾 Summary JSON: %s\n", *jsonOut)
	}
	if *xlsxOut != "" {
		if err := reporting.WriteSummaryXLSX(summary, *xlsxOut); err != nil {
			log.Fatalf("Failed to write workbook: %v", err)
		}
		fmt.Printf("💾 Workbook: %s\n", *xlsxOut)
	}
}

// loadSeries reads candles from the configured CSV file, or chains them
// from the exchange's historical data endpoint.
func loadSeries(cfg *config.Config) (types.PriceSeries, error) {
	gran := cfg.GranularityOrDefault()
	sim := cfg.Simulation

	if sim.DataFile != "" {
		return data.NewCSVProvider().LoadSeries(sim.DataFile, cfg.Market, gran)
	}

	ex, err := newAdapter(cfg)
	if err != nil {
		return types.PriceSeries{}, err
	}

	end := time.Now().UTC().Truncate(gran.Duration())
	start := end.Add(-30 * 24 * time.Hour)
	if sim.Start != "" {
		if start, err = time.Parse(time.RFC3339, sim.Start); err != nil {
			return types.PriceSeries{}, fmt.Errorf("invalid simulation start: %w", err)
		}
	}
	if sim.End != "" {
		if end, err = time.Parse(time.RFC3339, sim.End); err != nil {
			return types.PriceSeries{}, fmt.Errorf("invalid simulation end: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	return history.NewChainer(ex).Chain(ctx, cfg.Market, gran, start, end)
}

// loadHourlyCache chains the 1h series granularity switching reads its
// trend from, covering the replayed span plus indicator warm-up.
func loadHourlyCache(cfg *config.Config, series *types.PriceSeries) (*types.PriceSeries, error) {
	if series.Granularity != types.GranularityFifteenMinutes {
		return nil, fmt.Errorf("switching runs on 15m candles, config has %s", series.Granularity)
	}
	if cfg.Simulation.DataFile != "" {
		return nil, fmt.Errorf("CSV-fed simulations carry no hourly data")
	}

	ex, err := newAdapter(cfg)
	if err != nil {
		return nil, err
	}

	start := series.Candles[0].Timestamp.Add(-300 * time.Hour)
	end := series.Candles[series.Len()-1].Timestamp.Truncate(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	hourly, err := history.NewChainer(ex).Chain(ctx, cfg.Market, types.GranularityOneHour, start, end)
	if err != nil {
		return nil, err
	}
	return &hourly, nil
}

func newAdapter(cfg *config.Config) (exchange.Exchange, error) {
	return adapters.New(adapters.Credentials{
		Exchange:   strings.ToLower(cfg.Exchange.Name),
		APIKey:     cfg.Exchange.APIKey,
		APISecret:  cfg.Exchange.APISecret,
		Passphrase: cfg.Exchange.Passphrase,
		BaseURL:    cfg.Exchange.BaseURL,
		Testnet:    cfg.Exchange.Testnet,
	})
}

func loadEnvFile(envFile string) error {
	if _, err := os.Stat(envFile); err == nil {
		return godotenv.Load(envFile)
	}
	return fmt.Errorf("env file %s not found", envFile)
}
