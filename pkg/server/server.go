// Package server exposes a voiceprint store over HTTP: a JSON API for
// enrollment and identification, plus a WebSocket endpoint for streaming
// identification.
package server

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/haivivi/voiceid/pkg/voiceprint"
)

// Server wraps a voiceprint store with an HTTP API.
type Server struct {
	store     *voiceprint.Store
	extractor voiceprint.Extractor // optional; nil disables audio input
	threshold float32              // default identify threshold
	logger    *slog.Logger
	mux       *http.ServeMux
}

// Options configures a Server.
type Options struct {
	// Extractor enables endpoints that accept raw audio. Nil restricts
	// the API to precomputed embeddings.
	Extractor voiceprint.Extractor

	// Threshold is the identify threshold used when a request does not
	// carry its own. Defaults to 0.5.
	Threshold float32

	// Logger receives request and error logs. Defaults to slog.Default.
	Logger *slog.Logger
}

// New creates a Server over the given store.
func New(store *voiceprint.Store, opts *Options) *Server {
	s := &Server{
		store:     store,
		threshold: 0.5,
		logger:    slog.Default(),
		mux:       http.NewServeMux(),
	}
	if opts != nil {
		if opts.Extractor != nil {
			s.extractor = opts.Extractor
		}
		if opts.Threshold != 0 {
			s.threshold = opts.Threshold
		}
		if opts.Logger != nil {
			s.logger = opts.Logger
		}
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /v1/speakers", s.handleList)
	s.mux.HandleFunc("POST /v1/speakers", s.handleRegister)
	s.mux.HandleFunc("POST /v1/speakers/batch", s.handleBatchRegister)
	s.mux.HandleFunc("GET /v1/speakers/{id}", s.handleGet)
	s.mux.HandleFunc("DELETE /v1/speakers/{id}", s.handleUnregister)
	s.mux.HandleFunc("POST /v1/identify", s.handleIdentify)
	s.mux.HandleFunc("GET /v1/stream", s.handleStream)
}

// ServeHTTP implements http.Handler with request logging.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lw := &loggingWriter{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(lw, r)
	s.logger.Info("request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", lw.status,
		"duration", time.Since(start),
	)
}

// ListenAndServe runs the server on addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		err := <-errc
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// loggingWriter records the response status for the request log.
type loggingWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack lets the WebSocket upgrade take over the connection.
func (w *loggingWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("server: response writer does not support hijacking")
	}
	return h.Hijack()
}
