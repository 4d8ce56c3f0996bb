package server

import (
	"net"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/toyamagu-2021/argocd-exporter/internal/errors"
)

// Server exposes the metrics registry over HTTP. It never triggers a
// poll; it only renders whatever the registry currently holds.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	addr       string
	logger     *logrus.Logger
}

// New creates the exposition server for the given gatherer and port
func New(gatherer prometheus.Gatherer, port int, logger *logrus.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	addr := net.JoinHostPort("", strconv.Itoa(port))
	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		addr:   addr,
		logger: logger,
	}
}

// Listen binds the listen port. A bind failure is fatal to the caller:
// the exporter is useless without its exposition endpoint.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.NewBindError("failed to bind "+s.addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound listener address. Only valid after Listen.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Serve accepts connections until Close is called. The
// http.ErrServerClosed returned on shutdown is swallowed.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.NewInternalError("Serve called before Listen", nil)
	}

	s.logger.WithField("addr", s.Addr()).Info("Serving metrics on /metrics")

	if err := s.httpServer.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		return errors.NewInternalError("metrics server failed", err)
	}
	return nil
}

// Close stops the server immediately, dropping in-flight requests
func (s *Server) Close() error {
	return s.httpServer.Close()
}
