package api

import (
	"context"
	"net/http"
	"time"

	"github.com/textlift/textlift/application"
	"github.com/textlift/textlift/domain/admission"
	"github.com/textlift/textlift/infrastructure/config"
	"github.com/textlift/textlift/infrastructure/logging"
	"github.com/textlift/textlift/infrastructure/telemetry"
)

// Server wires the extraction service to HTTP. Construction takes the
// already-built collaborators; the server owns only routing, middleware and
// request/response translation.
type Server struct {
	cfg       config.Config
	cache     *admission.Cache[application.Result]
	limiter   *admission.Limiter
	extractor *application.Extractor
	metrics   *telemetry.MetricsProvider

	httpServer *http.Server
}

// NewServer assembles the HTTP server. metrics may be nil.
func NewServer(cfg config.Config, cache *admission.Cache[application.Result], limiter *admission.Limiter, extractor *application.Extractor, metrics *telemetry.MetricsProvider) *Server {
	s := &Server{
		cfg:       cfg,
		cache:     cache,
		limiter:   limiter,
		extractor: extractor,
		metrics:   metrics,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Handler(),
		ReadTimeout:       cfg.ReadTimeout(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the full middleware-wrapped route tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /extract-text", s.handleExtract)
	mux.HandleFunc("POST /extract-text/batch", s.handleExtractBatch)
	mux.HandleFunc("GET /cache/stats", s.handleCacheStats)
	mux.HandleFunc("DELETE /cache/clear", s.handleCacheClear)

	var h http.Handler = mux
	h = withRateLimit(s.limiter, s.metrics, h)
	h = withMetrics(s.metrics, h)
	h = withAccessLog(h)
	h = withCORS(h)
	h = withRequestID(h)
	return h
}

// ListenAndServe starts serving and blocks until the listener closes.
func (s *Server) ListenAndServe() error {
	logging.Info().
		Add(logging.Component("http")).
		Add(logging.Str("addr", s.httpServer.Addr)).
		Msg("server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info().
		Add(logging.Component("http")).
		Msg("server shutting down")
	return s.httpServer.Shutdown(ctx)
}
