package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Server exposes /metrics. An empty address disables it.
type Server struct {
	addr     string
	srv      *http.Server
	listener net.Listener
	tracer   *trace.TracerProvider
	wg       sync.WaitGroup
}

func NewServer(addr string, gatherer prometheus.Gatherer, tracer *trace.TracerProvider) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &Server{
		addr:   addr,
		tracer: tracer,
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s.addr == "" {
		return nil
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithField("object", "MetricsServer").WithError(err).Error("metrics server failed")
		}
	}()
	log.WithField("object", "MetricsServer").WithField("addr", ln.Addr().String()).Info("metrics server started")
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.listener != nil {
		err = s.srv.Shutdown(ctx)
		s.wg.Wait()
	}
	if s.tracer != nil {
		err = errors.Join(err, s.tracer.Shutdown(ctx))
	}
	return err
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
