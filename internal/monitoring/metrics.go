package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Tick metrics
	ticksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pycryptobot_ticks_total",
			Help: "Total number of trading ticks processed",
		},
		[]string{"market"},
	)

	ticksSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pycryptobot_ticks_skipped_total",
			Help: "Total number of ticks skipped, by reason",
		},
		[]string{"market", "reason"},
	)

	// Trading metrics
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pycryptobot_trades_total",
			Help: "Total number of trades executed",
		},
		[]string{"market", "side"},
	)

	tradeAmount = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pycryptobot_trade_amount",
			Help:    "Distribution of trade amounts in quote currency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"market"},
	)

	// Market data metrics
	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pycryptobot_current_price",
			Help: "Last observed price of the trading market",
		},
		[]string{"market"},
	)

	positionMargin = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pycryptobot_position_margin_pct",
			Help: "Unrealized margin of the open position in percent",
		},
		[]string{"market"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pycryptobot_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(ticksTotal)
	prometheus.MustRegister(ticksSkipped)
	prometheus.MustRegister(tradesTotal)
	prometheus.MustRegister(tradeAmount)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(positionMargin)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordTick records a completed trading tick
func RecordTick(market string) {
	ticksTotal.WithLabelValues(market).Inc()
}

// RecordSkippedTick records a tick that produced no decision
func RecordSkippedTick(market, reason string) {
	ticksSkipped.WithLabelValues(market, reason).Inc()
}

// RecordTrade records a trade metric
func RecordTrade(market, side string, amount float64) {
	tradesTotal.WithLabelValues(market, side).Inc()
	tradeAmount.WithLabelValues(market).Observe(amount)
}

// UpdatePrice updates the current price metric
func UpdatePrice(market string, price float64) {
	currentPrice.WithLabelValues(market).Set(price)
}

// UpdateMargin updates the unrealized margin metric
func UpdateMargin(market string, marginPct float64) {
	positionMargin.WithLabelValues(market).Set(marginPct)
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
