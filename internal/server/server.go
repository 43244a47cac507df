// Package server exposes the dashboard over HTTP and WebSocket.
//
// Routes:
//   - GET /              embedded single-page dashboard
//   - GET /api/coins     selectable tickers and the default selection
//   - GET /api/dashboard one-shot view for ?coin=TICKER
//   - GET /ws            live view stream with coin-selection messages
//   - GET /healthz       liveness probe
//
// The page itself is an out-of-scope collaborator: it feeds the JSON figure
// specs to its charting library and renders whatever view the service ships.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"cryptodash/internal/coins"
	"cryptodash/internal/dashboard"
)

// Server is the HTTP front of the dashboard service.
type Server struct {
	svc        *dashboard.Service
	dispatcher *dashboard.Dispatcher
	mux        *http.ServeMux
	httpServer *http.Server
}

// New creates a server listening on addr, backed by the given presenter and
// dispatcher.
func New(addr string, svc *dashboard.Service, dispatcher *dashboard.Dispatcher) *Server {
	mux := http.NewServeMux()

	s := &Server{
		svc:        svc,
		dispatcher: dispatcher,
		mux:        mux,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/coins", s.handleCoins)
	mux.HandleFunc("/api/dashboard", s.handleDashboard)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)

	return s
}

// Handler returns the route multiplexer, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexPage)
}

func (s *Server) handleCoins(w http.ResponseWriter, r *http.Request) {
	registry := s.svc.Registry()
	writeJSON(w, http.StatusOK, map[string]any{
		"tickers": registry.Tickers(),
		"default": registry.Default(),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("coin")
	if ticker == "" {
		ticker = s.svc.Registry().Default()
	}

	view, err := s.svc.Snapshot(r.Context(), ticker, s.dispatcher.Tick())
	if err != nil {
		if errors.Is(err, coins.ErrUnknownTicker) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("ticker", ticker).Msg("snapshot failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON serializes v and reports encoding failures in the log; by then
// the status line is already on the wire, so there is nothing else to do.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
