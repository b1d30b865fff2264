package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/quakewatch/internal/domain"
	"github.com/couchcryptid/quakewatch/internal/store"
)

// SnapshotSource exposes the current store snapshot.
type SnapshotSource interface {
	Snapshot() store.Snapshot
}

// Server exposes health, readiness, metrics and status HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /status routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, snapshots SnapshotSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /status", handleStatus(snapshots))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// statusResponse summarizes the current snapshot.
type statusResponse struct {
	State     store.State     `json:"state"`
	Selector  domain.Selector `json:"selector"`
	Title     string          `json:"title,omitempty"`
	Count     int             `json:"count"`
	Max       string          `json:"max"`
	Average   string          `json:"average"`
	Buckets   []domain.Bucket `json:"buckets"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func handleStatus(snapshots SnapshotSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := snapshots.Snapshot()
		stats := domain.ComputeStats(snap.Collection.Features)

		resp := statusResponse{
			State:    snap.State,
			Selector: snap.Selector,
			Title:    snap.Collection.Title,
			Count:    stats.Count,
			Max:      stats.MaxLabel(),
			Average:  stats.AverageLabel(),
			Buckets:  domain.Bucketize(snap.Collection.Features),
		}
		if snap.HasData {
			updated := snap.UpdatedAt
			resp.UpdatedAt = &updated
		}
		if snap.Err != nil {
			resp.Error = snap.Err.Error()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp) //nolint:errcheck // best-effort status response
	}
}
