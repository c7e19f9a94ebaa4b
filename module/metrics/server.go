package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	_ "net/http/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const metricsEndpoint = "/metrics"

// Server is the http server that will be serving the /metrics request for prometheus
type Server struct {
	server *http.Server
	log    zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a server for the specified port, port 0 picks a free one.
// It responds to the `/metrics` endpoint with the content of gatherer.
// Nothing listens until Ready is called.
func NewServer(log zerolog.Logger, port uint, gatherer prometheus.Gatherer, enableProfilerEndpoint bool) *Server {
	addr := ":" + strconv.Itoa(int(port))
	log = log.With().Str("component", "metrics_server").Logger()

	mux := http.NewServeMux()
	mux.Handle(metricsEndpoint, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	if enableProfilerEndpoint {
		mux.Handle("/debug/pprof/", http.DefaultServeMux)
	}

	return &Server{
		server: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		log:    log,
	}
}

// Handler returns the http handler of the server
func (m *Server) Handler() http.Handler {
	return m.server.Handler
}

// Addr returns the address the server listens on, empty until Ready closed
// or if the port could not be bound
func (m *Server) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// Ready returns a channel that will close once the server is listening, or
// once binding the port failed.
func (m *Server) Ready() <-chan struct{} {
	ready := make(chan struct{})
	go func() {
		ln, err := net.Listen("tcp", m.server.Addr)
		if err != nil {
			m.log.Err(err).Str("address", m.server.Addr).Msg("could not start metrics server")
			close(ready)
			return
		}
		m.mu.Lock()
		m.listener = ln
		m.mu.Unlock()

		m.log.Info().Str("address", ln.Addr().String()).Str("endpoint", metricsEndpoint).Msg("metrics server started")
		close(ready)

		if err := m.server.Serve(ln); err != nil {
			// http.ErrServerClosed is returned when Close or Shutdown is called
			if errors.Is(err, http.ErrServerClosed) {
				m.log.Debug().Err(err).Msg("metrics server shutdown")
			} else {
				m.log.Err(err).Msg("error shutting down metrics server")
			}
		}
	}()
	return ready
}

// Done returns a channel that will close when shutdown is complete.
func (m *Server) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = m.server.Shutdown(ctx)
		cancel()
		close(done)
	}()
	return done
}
