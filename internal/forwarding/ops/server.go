// Package ops exposes the operational surface: /health and /metrics.
// The agent itself has no product-facing API.
package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aqslabs/forwarder/internal/forwarding/pipeline"
)

// StatusReporter provides a pipeline snapshot for health checks.
type StatusReporter interface {
	Status() pipeline.Status
}

// Server serves health and metrics over HTTP.
type Server struct {
	reporter StatusReporter
	server   *http.Server
}

// NewServer creates the ops server on the given port.
func NewServer(reporter StatusReporter, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		reporter: reporter,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.reporter.Status()

	w.Header().Set("Content-Type", "application/json")
	if !status.Running {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(status)
}
