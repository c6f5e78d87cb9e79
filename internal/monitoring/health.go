package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// maxTickAge is how stale the last tick may be before the bot is reported
// degraded. Covers the longest supported granularity plus slack.
const maxTickAge = 25 * time.Hour

// HealthChecker aggregates exchange connectivity and tick liveness for the
// /health endpoint.
type HealthChecker struct {
	mu          sync.RWMutex
	lastTick    time.Time
	lastPrice   float64
	isConnected bool
	errors      []string
}

// HealthStatus is the /health response body.
type HealthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	LastTick    time.Time `json:"last_tick,omitempty"`
	LastPrice   float64   `json:"last_price,omitempty"`
	IsConnected bool      `json:"is_connected"`
	Uptime      string    `json:"uptime"`
	Errors      []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

// SetConnected marks the exchange connection state.
func (h *HealthChecker) SetConnected(connected bool) {
	h.mu.Lock()
	h.isConnected = connected
	h.mu.Unlock()
}

// RecordTick records a completed tick and the price it observed. A clean
// tick clears the error window.
func (h *HealthChecker) RecordTick(price float64) {
	h.mu.Lock()
	h.lastTick = time.Now()
	h.lastPrice = price
	h.errors = nil
	h.mu.Unlock()
}

// RecordError appends to the error window, keeping the most recent ten.
func (h *HealthChecker) RecordError(msg string) {
	h.mu.Lock()
	if len(h.errors) >= 10 {
		h.errors = h.errors[1:]
	}
	h.errors = append(h.errors, msg)
	h.mu.Unlock()
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	report := HealthStatus{
		Status:      "healthy",
		Timestamp:   time.Now(),
		LastTick:    h.lastTick,
		LastPrice:   h.lastPrice,
		IsConnected: h.isConnected,
		Uptime:      time.Since(startTime).String(),
		Errors:      append([]string(nil), h.errors...),
	}
	h.mu.RUnlock()

	code := http.StatusOK
	switch {
	case len(report.Errors) > 0:
		report.Status = "unhealthy"
		code = http.StatusInternalServerError
	case !report.IsConnected,
		!report.LastTick.IsZero() && time.Since(report.LastTick) > maxTickAge:
		report.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(report)
}
