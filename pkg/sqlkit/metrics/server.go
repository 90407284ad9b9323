package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GetHandler exposes the Prometheus registry behind m on /metrics.
func GetHandler(m Manager) http.Handler {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer

	if mm, ok := m.(*metricsManager); ok {
		gatherer = mm.registry
	}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return router
}

type serverLogger interface {
	Logf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Server serves GetHandler on a dedicated port.
type Server struct {
	port int
	srv  *http.Server
}

func NewServer(port int, m Manager) *Server {
	return &Server{
		port: port,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           GetHandler(m),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run blocks until the server stops. A clean Shutdown is not reported as an error.
func (s *Server) Run(l serverLogger) error {
	l.Logf("Starting metrics server on port: %d", s.port)

	err := s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		l.Errorf("error while listening to metrics server, err: %v", err)
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
