// # internal/shared/observability/server.go
package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusFunc supplies the health payload (graph size, cache state, ...).
type StatusFunc func() map[string]any

type Server struct {
	addr   string
	status StatusFunc
	server *http.Server
}

func NewServer(addr string, status StatusFunc) *Server {
	return &Server{addr: addr, status: status}
}

func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{"status": "up"}
		if s.status != nil {
			for k, v := range s.status() {
				payload[k] = v
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
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

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
