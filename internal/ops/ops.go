// Package ops serves the operational HTTP surface: liveness, last cycle
// status and Prometheus metrics. Read-only, intended for localhost or an
// internal network.
package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"asx-auto-trader/internal/logger"
	"asx-auto-trader/internal/metrics"
	"asx-auto-trader/internal/portfolio"
	"asx-auto-trader/internal/types"
)

type Server struct {
	server   *http.Server
	registry *metrics.Registry
	book     *portfolio.Book
	started  time.Time

	mu   sync.RWMutex
	last *types.CycleResult
}

// New builds the ops server on addr. registry and book may be nil; the
// matching endpoints then report an empty payload instead of failing.
func New(addr string, registry *metrics.Registry, book *portfolio.Book) *Server {
	if addr == "" {
		addr = ":9614"
	}

	s := &Server{
		registry: registry,
		book:     book,
		started:  time.Now(),
	}

	router := mux.NewRouter()
	router.Use(s.loggingMiddleware)
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	if registry != nil {
		router.Handle("/metrics", registry.Handler()).Methods(http.MethodGet)
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// SetLastCycle records the most recent cycle result for /status.
func (s *Server) SetLastCycle(result *types.CycleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = result
}

// Start blocks in ListenAndServe until Shutdown or a listener error.
func (s *Server) Start() error {
	logger.Info(context.Background(), "Ops server listening", "addr", s.server.Addr)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info(ctx, "Ops server shutting down")
	return s.server.Shutdown(ctx)
}

func (s *Server) Addr() string { return s.server.Addr }

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

type statusPayload struct {
	LastCycle     *types.CycleResult   `json:"last_cycle"`
	Positions     []portfolio.Position `json:"positions"`
	OpenPositions int                  `json:"open_positions"`
	Exposure      float64              `json:"exposure"`
	RealizedPnL   float64              `json:"realized_pnl"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()

	payload := statusPayload{LastCycle: last, Positions: []portfolio.Position{}}
	if s.book != nil {
		payload.Positions = s.book.Snapshot()
		payload.OpenPositions = s.book.Open()
		payload.Exposure = s.book.Exposure()
		payload.RealizedPnL = s.book.RealizedPnL()
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		logger.Debug(r.Context(), "Ops request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.code,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.ErrorWithErr(context.Background(), "Failed to encode ops response", err)
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
