// Package httpapi exposes the in-memory store over a small read-only
// JSON API on localhost, so dashboards and scripts can query the
// current driving figures without talking to the remote service.
package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"ganhos/internal/core"
	"ganhos/internal/state"
)

type Server struct {
	http.Server
	store        *state.Store
	ready        func() bool
	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server. The
// ready func reports whether the initial load has completed; nil means
// always ready.
func NewServer(addr string, store *state.Store, ready func() bool) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store: store,
		ready: ready,
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/v1/summary", s.withRequestLog(s.handleSummary))
	mux.HandleFunc("/v1/indicators", s.withRequestLog(s.handleIndicators))
	mux.HandleFunc("/v1/revenues", s.withRequestLog(s.handleRevenues))
	mux.HandleFunc("/v1/expenses", s.withRequestLog(s.handleExpenses))
	mux.HandleFunc("/v1/goal", s.withRequestLog(s.handleGoal))
	mux.HandleFunc("/v1/goal/history", s.withRequestLog(s.handleGoalHistory))

	return s
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRequestLog adds security headers, a request id, and request
// logging. Writes are rejected; the API is read-only.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			writeError(w, http.StatusMethodNotAllowed, "read-only API")
			return
		}

		requestID := generateRequestID()
		ctx := r.Context()

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Request-ID", requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil && !s.ready() {
		writeError(w, http.StatusServiceUnavailable, "initial load pending")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleSummary returns the dashboard totals for the active filter,
// plus the store's load status.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	totals, err := s.store.Dashboard(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "dashboard fetch failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, struct {
		Totals      core.DashboardTotals `json:"totals"`
		Period      core.Period          `json:"period"`
		Filter      core.Filter          `json:"filter"`
		LastUpdated time.Time            `json:"last_updated"`
		Loading     bool                 `json:"loading"`
		Error       string               `json:"error,omitempty"`
	}{
		Totals:      totals,
		Period:      snap.Period,
		Filter:      snap.Filter,
		LastUpdated: snap.LastUpdated,
		Loading:     snap.Loading,
		Error:       snap.Err,
	})
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	ind, err := s.store.Indicators(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "indicators fetch failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ind)
}

func (s *Server) handleRevenues(w http.ResponseWriter, r *http.Request) {
	revenues := s.store.FilteredRevenues()
	if revenues == nil {
		revenues = []core.Revenue{}
	}
	writeJSON(w, http.StatusOK, revenues)
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	expenses := s.store.FilteredExpenses()
	if expenses == nil {
		expenses = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleGoal(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	if snap.Goal == nil {
		writeError(w, http.StatusNotFound, "no goal for the current month")
		return
	}
	g := *snap.Goal
	writeJSON(w, http.StatusOK, struct {
		core.MonthlyGoal
		Progress string `json:"progress"`
	}{
		MonthlyGoal: g,
		Progress:    g.Progress().StringFixed(2),
	})
}

func (s *Server) handleGoalHistory(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	history := snap.GoalHistory
	if history == nil {
		history = []core.GoalHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, history)
}
