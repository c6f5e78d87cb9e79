// Package control exposes the running bot over HTTP: status inspection,
// health, metrics, and a graceful stop.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/smartman0307/pycryptobot/internal/monitoring"
	"github.com/smartman0307/pycryptobot/pkg/types"
)

// Bot is the view of the engine the control plane needs.
type Bot interface {
	Market() string
	Granularity() types.Granularity
	Position() types.Position
	LastDecision() (types.Decision, bool)
}

// Stopper requests a graceful stop that takes effect at the next tick
// boundary.
type Stopper interface {
	Stop()
}

// StatusResponse is the payload of GET /status.
type StatusResponse struct {
	Market       string          `json:"market"`
	Granularity  string          `json:"granularity"`
	Position     types.Position  `json:"position"`
	LastDecision *types.Decision `json:"last_decision,omitempty"`
	Uptime       string          `json:"uptime"`
}

// Server serves the control endpoints.
type Server struct {
	bot     Bot
	stopper Stopper
	health  *monitoring.HealthChecker
	started time.Time
	httpSrv *http.Server
}

// NewServer builds a control server around the bot. health may be nil.
func NewServer(bot Bot, stopper Stopper, health *monitoring.HealthChecker) *Server {
	return &Server{
		bot:     bot,
		stopper: stopper,
		health:  health,
		started: time.Now(),
	}
}

// Handler returns the control plane mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/stop", s.handleStop)
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	if s.health != nil {
		mux.Handle("/health", s.health)
	}
	return mux
}

// ListenAndServe serves the control plane on the port until the context is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := StatusResponse{
		Market:      s.bot.Market(),
		Granularity: s.bot.Granularity().String(),
		Position:    s.bot.Position(),
		Uptime:      time.Since(s.started).Round(time.Second).String(),
	}
	if d, ok := s.bot.LastDecision(); ok {
		resp.LastDecision = &d
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleStop acknowledges immediately; the trading loop exits at its next
// tick boundary, never mid transition.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.stopper.Stop()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "stopping"})
}
