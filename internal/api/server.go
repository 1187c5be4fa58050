// Package api serves the document processing tasks over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/a3tai/docindex/internal/tasks"
)

const (
	// HealthMessage is the body of the health check response
	HealthMessage = "Backend server is running!"

	// formOverhead is the room left for form fields and multipart framing on
	// top of the uploaded files
	formOverhead = 1 << 20

	// maxJSONBody bounds the body of the regex endpoint
	maxJSONBody = 64 << 10

	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Options configures a Server
type Options struct {
	// MaxFileSize bounds each uploaded file in bytes
	MaxFileSize int64
	// AllowedOrigins lists the CORS origins; "*" allows any
	AllowedOrigins []string
	// RateLimit is the number of API requests accepted per second; zero
	// disables limiting
	RateLimit float64
	// RateBurst is the number of requests accepted at once
	RateBurst int
}

// Server is the HTTP front end of the task processor
type Server struct {
	opts      Options
	processor tasks.Processor
	logger    *slog.Logger
	limiter   *rate.Limiter
	handler   http.Handler
}

// NewServer creates a server that runs requests through processor
func NewServer(opts Options, processor tasks.Processor, logger *slog.Logger) *Server {
	s := &Server{
		opts:      opts,
		processor: processor,
		logger:    logger,
	}
	if opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(opts.RateBurst, 1))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.Handle("POST /api/generate-regex", s.limit(http.HandlerFunc(s.handleGenerateRegex)))
	mux.Handle("POST /api/process/{taskId}", s.limit(http.HandlerFunc(s.handleProcess)))

	s.handler = s.requestID(s.accessLog(s.cors(mux)))
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
