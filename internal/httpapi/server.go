// internal/httpapi/server.go
package httpapi

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"github.com/tamzrod/bridge-vaults-exporter/internal/snapshot"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

// Server exposes the published snapshot. Scrapes only read the Store;
// they never trigger collection.
type Server struct {
	addr       string
	httpServer *http.Server
	store      *snapshot.Store
	gatherer   prometheus.Gatherer
	log        *zap.Logger
}

type Options struct {
	Addr        string
	MetricsPath string
	Store       *snapshot.Store
	Gatherer    prometheus.Gatherer // optional self-metrics
	Log         *zap.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("httpapi: store required")
	}
	if opts.Addr == "" {
		opts.Addr = ":10000"
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	s := &Server{
		addr:     opts.Addr,
		store:    opts.Store,
		gatherer: opts.Gatherer,
		log:      opts.Log,
	}

	router := mux.NewRouter()
	router.HandleFunc(opts.MetricsPath, s.handleMetrics).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens and serves until ctx is done.
// A clean shutdown returns nil.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.log.Info("http listening", zap.String("addr", ln.Addr().String()))

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(sctx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ---- HANDLERS ----

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer

	if err := snapshot.Encode(&buf, s.store.Current()); err != nil {
		s.log.Error("encode snapshot", zap.Error(err))
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}

	if s.gatherer != nil {
		families, err := s.gatherer.Gather()
		if err != nil {
			// partial self-metrics are still useful
			s.log.Warn("gather self-metrics", zap.Error(err))
		}
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
				s.log.Error("encode self-metrics", zap.Error(err))
				http.Error(w, "encode failed", http.StatusInternalServerError)
				return
			}
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store.Current().GeneratedAt.IsZero() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
