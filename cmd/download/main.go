package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/smartman0307/pycryptobot/internal/exchange/adapters"
	"github.com/smartman0307/pycryptobot/internal/history"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

// Downloads historical candles into CSV files that the backtest command
// can replay (timestamp, open, high, low, close, volume).
func main() {
	var (
		exchangeName = flag.String("exchange", "coinbase", "Exchange to download from (coinbase, binance, bybit)")
		markets      = flag.String("markets", "BTC-USD", "Comma-separated list of markets")
		granularity  = flag.String("granularity", "1h", "Candle granularity (1m, 5m, 15m, 1h, 6h, 1d)")
		startDate    = flag.String("start", "", "Start date (YYYY-MM-DD), default 90 days ago")
		endDate      = flag.String("end", "", "End date (YYYY-MM-DD), default now")
		outdir       = flag.String("outdir", "data/historical", "Directory to write CSV files")
		output       = flag.String("output", "", "Explicit output file (single market only)")
		envFile      = flag.String("env", ".env", "Environment file path")
	)
	flag.Parse()

	if _, err := os.Stat(*envFile); err == nil {
		if err := godotenv.Load(*envFile); err != nil {
			log.Printf("Warning: could not load env file: %v", err)
		}
	}

	gran, err := types.ParseGranularity(*granularity)
	if err != nil {
		log.Fatalf("Invalid granularity: %v", err)
	}

	end := time.Now().UTC().Truncate(gran.Duration())
	start := end.Add(-90 * 24 * time.Hour)
	if *startDate != "" {
		if start, err = time.Parse("2006-01-02", *startDate); err != nil {
			log.Fatalf("Invalid start date: %v", err)
		}
	}
	if *endDate != "" {
		if end, err = time.Parse("2006-01-02", *endDate); err != nil {
			log.Fatalf("Invalid end date: %v", err)
		}
	}

	name := strings.ToLower(strings.TrimSpace(*exchangeName))
	prefix := strings.ToUpper(name)
	ex, err := adapters.New(adapters.Credentials{
		Exchange:   name,
		APIKey:     os.Getenv(prefix + "_API_KEY"),
		APISecret:  os.Getenv(prefix + "_API_SECRET"),
		Passphrase: os.Getenv(prefix + "_API_PASSPHRASE"),
	})
	if err != nil {
		log.Fatalf("Failed to create exchange client: %v", err)
	}

	var marketList []string
	for _, m := range strings.Split(*markets, ",") {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			marketList = append(marketList, m)
		}
	}
	if len(marketList) == 0 {
		log.Fatalf("No markets given")
	}
	if *output != "" && len(marketList) > 1 {
		log.Fatalf("-output only works with a single market")
	}

	chainer := history.NewChainer(ex)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	for _, market := range marketList {
		outPath := *output
		if outPath == "" {
			outPath = filepath.Join(*outdir, market, gran.String(), "candles.csv")
		}
		downloadOne(ctx, chainer, market, gran, start, end, outPath)
	}
}

func downloadOne(ctx context.Context, chainer *history.Chainer, market string, gran types.Granularity, start, end time.Time, outPath string) {
	fmt.Printf("\n📊 Downloading %s candles for %s\n", gran, market)
	fmt.Printf("📅 Period: %s to %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))

	series, err := chainer.Chain(ctx, market, gran, start, end)
	if err != nil {
		log.Fatalf("Failed to download %s: %v", market, err)
	}
	if series.Len() == 0 {
		log.Fatalf("No candles returned for %s in the requested range", market)
	}
	fmt.Printf("✅ Downloaded %d candles\n", series.Len())

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	if err := saveToCSV(series, outPath); err != nil {
		log.Fatalf("Failed to save %s: %v", market, err)
	}
	fmt.Printf("💾 Saved to %s\n", outPath)
}

func saveToCSV(series types.PriceSeries, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, c := range series.Candles {
		row := []string{
			strconv.FormatInt(c.Timestamp.Unix(), 10),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return w.Error()
}
