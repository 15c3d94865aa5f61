package live

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/vsync/internal/errors"
)

// DefaultShutdownTimeout bounds graceful shutdown in Run.
const DefaultShutdownTimeout = 5 * time.Second

// ServerOptions configures a Server.
type ServerOptions struct {
	// Addr is the listen address, e.g. "localhost:7331".
	Addr string

	// Hub is the stream served at /ws.
	Hub *Hub

	// Gatherer, when set, is served at /metrics.
	Gatherer prometheus.Gatherer

	// Logger receives server lifecycle events.
	Logger *slog.Logger
}

// Server exposes a Hub over HTTP:
//
//	GET /         current document as HTML
//	GET /ws       mutation frame stream
//	GET /metrics  Prometheus metrics
//	GET /healthz  liveness
type Server struct {
	opts       ServerOptions
	router     chi.Router
	httpServer *http.Server
}

// NewServer creates a server and its routes.
func NewServer(opts ServerOptions) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.With(middleware.NoCache).Get("/", s.handleIndex)
	r.Get("/ws", opts.Hub.HandleWebSocket)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	s.router = r
	return s
}

const page = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="vsync-seq" content="%d"><title>vsync</title></head>
<body>%s</body>
</html>
`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, page, s.opts.Hub.Seq(), s.opts.Hub.HTML())
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("server running", "addr", s.opts.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		s.opts.Hub.Close()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return errors.New("E180").Wrap(err)
		}
		return nil
	case err := <-errCh:
		if err != nil {
			return errors.New("E180").WithDetail(err.Error()).Wrap(err)
		}
		return nil
	}
}
