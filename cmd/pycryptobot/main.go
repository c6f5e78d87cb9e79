package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/smartman0307/pycryptobot/internal/bot"
	"github.com/smartman0307/pycryptobot/internal/config"
	"github.com/smartman0307/pycryptobot/internal/control"
	"github.com/smartman0307/pycryptobot/internal/exchange"
	"github.com/smartman0307/pycryptobot/internal/exchange/adapters"
	"github.com/smartman0307/pycryptobot/internal/feed"
	"github.com/smartman0307/pycryptobot/internal/forecast"
	"github.com/smartman0307/pycryptobot/internal/logger"
	"github.com/smartman0307/pycryptobot/internal/monitoring"
	"github.com/smartman0307/pycryptobot/internal/notifications"
	"github.com/smartman0307/pycryptobot/internal/state"
	"github.com/smartman0307/pycryptobot/internal/storage"
)

func main() {
	var (
		configFile = flag.String("config", "config.json", "Configuration file (JSON or YAML)")
		live       = flag.Bool("live", false, "Place real orders (overrides config)")
		envFile    = flag.String("env", ".env", "Environment file path")
	)
	flag.Parse()

	if err := loadEnvFile(*envFile); err != nil {
		log.Printf("Warning: could not load env file (%v), using process environment", err)
	}

	fmt.Println("🚀 PyCryptoBot starting...")

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *live {
		cfg.Live = true
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Config invalid for live trading: %v", err)
		}
	}
	if !cfg.Live {
		fmt.Println("📋 Paper trading mode: orders are simulated, market data is real")
	}

	creds := adapters.Credentials{
		Exchange:   strings.ToLower(cfg.Exchange.Name),
		APIKey:     cfg.Exchange.APIKey,
		APISecret:  cfg.Exchange.APISecret,
		Passphrase: cfg.Exchange.Passphrase,
		BaseURL:    cfg.Exchange.BaseURL,
		Testnet:    cfg.Exchange.Testnet,
	}
	if r := cfg.Retry; r != nil {
		creds.Retry = exchange.RetryConfig{
			MaxRetries:    r.MaxRetries,
			InitialDelay:  time.Duration(r.InitialDelaySec) * time.Second,
			MaxDelay:      time.Duration(r.MaxDelaySec) * time.Second,
			BackoffFactor: 2.0,
			Jitter:        true,
		}
	}
	ex, err := adapters.New(creds)
	if err != nil {
		log.Fatalf("Failed to create exchange: %v", err)
	}

	sessionLog, err := logger.NewLogger(cfg.Market, cfg.GranularityOrDefault(), cfg.ConsoleLog)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer sessionLog.Close()

	ledger, err := storage.Open(cfg.LedgerPath)
	if err != nil {
		log.Fatalf("Failed to open ledger: %v", err)
	}
	defer ledger.Close()

	deps := bot.Deps{
		Exchange: ex,
		Store:    state.NewStore(cfg.StateFile, cfg.Market),
		Ledger:   ledger,
		Feed:     feed.New(ex, cfg.Market, time.Duration(cfg.PriceStaleAfterSec)*time.Second),
		Logger:   sessionLog,
		Health:   monitoring.NewHealthChecker(),
	}
	if cfg.ForecastURL != "" {
		deps.Advisor = forecast.NewClient(cfg.ForecastURL)
	}
	if n := cfg.Notifications; n != nil && n.Enabled && n.TelegramToken != "" {
		deps.Notifier = notifications.NewTelegramNotifier(n.TelegramToken, n.TelegramChat)
	}

	engine, err := bot.NewEngine(cfg, deps)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	runner := bot.NewRunner(engine)

	if deps.Notifier != nil {
		if err := deps.Notifier.SendAlert("INFO", fmt.Sprintf("Bot started: %s on %s", cfg.Market, ex.Name())); err != nil {
			sessionLog.LogError("notification", err)
		}
		defer deps.Notifier.SendAlert("INFO", fmt.Sprintf("Bot stopped: %s", cfg.Market))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.ControlPort > 0 {
		srv := control.NewServer(engine, runner, deps.Health)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.ControlPort); err != nil {
				sessionLog.LogError("control plane", err)
			}
		}()
		fmt.Printf("🛰  Control plane on :%d (/status, /stop, /health, /metrics)\n", cfg.ControlPort)
	}

	if cfg.MetricsPort > 0 && cfg.MetricsPort != cfg.ControlPort {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", monitoring.NewMetricsHandler())
			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				sessionLog.LogError("metrics listener", err)
			}
		}()
		fmt.Printf("📈 Metrics on :%d/metrics\n", cfg.MetricsPort)
	}

	fmt.Printf("📊 Trading %s on %s at %s\n", cfg.Market, ex.Name(), cfg.GranularityOrDefault())
	fmt.Printf("📝 Session log: %s\n", sessionLog.GetLogPath())

	runDone := make(chan error, 1)
	go func() {
		runDone <- runner.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		fmt.Println("\n🛑 Shutdown signal received, stopping at tick boundary...")
		runner.Stop()
		<-runner.Done()
	case err := <-runDone:
		if err != nil && err != context.Canceled {
			log.Fatalf("Trading loop failed: %v", err)
		}
	}

	fmt.Println("✅ Bot stopped")
}

func loadEnvFile(envFile string) error {
	if _, err := os.Stat(envFile); err == nil {
		return godotenv.Load(envFile)
	}
	return fmt.Errorf("env file %s not found", envFile)
}
