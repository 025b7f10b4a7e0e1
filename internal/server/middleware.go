package server

import (
	"net/http"
	"time"

	"github.com/lumilabs/healthd/internal/constants"
	"github.com/lumilabs/healthd/internal/server/middleware"
)

// quietPaths are the high-frequency supervisor probes, logged at debug
var quietPaths = map[string]bool{
	constants.PathHealth: true,
	constants.PathReady:  true,
}

// applyMiddleware applies the complete middleware chain to the handler
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	// Apply middleware chain in reverse order
	handler = s.rateLimiter.Middleware(handler)
	handler = middleware.RequestSizeLimitMiddleware(s.config().Server.MaxRequestSize)(handler)
	handler = s.metricsMiddleware(handler)
	handler = middleware.RecoveryMiddleware(s.logger.Logger)(handler)
	handler = middleware.LoggingMiddleware(s.logger.Logger, quietPaths)(handler)
	return handler
}

// metricsMiddleware records request metrics for every endpoint
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		s.metrics.ActiveConnections.Inc()
		defer s.metrics.ActiveConnections.Dec()

		wrapped := middleware.NewResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		s.metrics.RecordRequest(r.Method, r.URL.Path, wrapped.StatusCode(), time.Since(start), wrapped.Written())
	})
}
