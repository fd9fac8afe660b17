package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weinmann-emt/robotcode/internal/workspace"
)

// ObservabilityServer serves Prometheus metrics and a health endpoint.
type ObservabilityServer struct {
	addr   string
	ws     *workspace.Workspace
	server *http.Server
}

type healthStatus struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
}

func NewObservabilityServer(addr string, ws *workspace.Workspace) *ObservabilityServer {
	return &ObservabilityServer{addr: addr, ws: ws}
}

func (s *ObservabilityServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{
			Status:    "up",
			Documents: len(s.ws.Namespaces()),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	})

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	slog.Info("observability server starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
