package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lumilabs/healthd/internal/constants"
	"github.com/lumilabs/healthd/internal/health"
)

// livenessHandler answers the supervisor's liveness probe. The body is
// precomputed: the handler allocates nothing, touches no dependency, and
// returns the same bytes on every call.
func (s *Server) livenessHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.StartSpan(r.Context(), "liveness_probe")
	defer span.End()

	s.sendRawJSON(w, http.StatusOK, s.livenessBody)
	s.metrics.RecordProbe("liveness", true)
}

// readinessHandler reports whether this instance should receive traffic
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.StartSpan(r.Context(), "readiness_probe")
	defer span.End()

	ready, checks := s.registry.Ready(ctx)
	s.metrics.RecordProbe("readiness", ready)

	if ready {
		s.sendJSONResponse(w, http.StatusOK, health.ReadinessResponse{
			Status: health.StatusReady,
			Checks: checks,
		})
		return
	}

	s.sendJSONResponse(w, http.StatusServiceUnavailable, health.ReadinessResponse{
		Status: health.StatusNotReady,
		Checks: checks,
	})

	if s.registry.Draining() {
		s.logger.Debug("Readiness refused: draining")
	} else {
		s.logger.Warn("Readiness check failed",
			zap.Strings("failed", health.FailedChecks(checks)),
		)
	}
}

// detailsHandler serves the diagnostic snapshot
func (s *Server) detailsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.StartSpan(r.Context(), "health_details")
	defer span.End()

	svc := s.config().Service
	status := health.Status{
		Status:      health.StatusOK,
		Timestamp:   time.Now().UTC(),
		Service:     svc.Name,
		Version:     svc.Version,
		Environment: svc.Environment,
		Uptime:      s.registry.Uptime().String(),
		GoVersion:   health.GoVersion(),
		Checks:      s.registry.RunChecks(ctx),
		System:      health.CollectSystemStats(),
	}

	s.sendJSONResponse(w, http.StatusOK, status)
}

// contractHandler serves the validated OpenAPI contract document
func (s *Server) contractHandler(w http.ResponseWriter, r *http.Request) {
	s.sendRawJSON(w, http.StatusOK, s.contractJSON)
}

// docsHandler serves a JSON index of the probe surface
func (s *Server) docsHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.sendErrorResponse(w, http.StatusNotFound, "not found")
		return
	}

	_, span := s.tracer.StartSpan(r.Context(), "documentation")
	defer span.End()

	svc := s.config().Service
	doc := struct {
		Service     string            `json:"service"`
		Version     string            `json:"version"`
		Environment string            `json:"environment"`
		Endpoints   map[string]string `json:"endpoints"`
	}{
		Service:     svc.Name,
		Version:     svc.Version,
		Environment: svc.Environment,
		Endpoints: map[string]string{
			"liveness":  constants.PathHealth,
			"readiness": constants.PathReady,
			"details":   constants.PathDetails,
			"contract":  constants.PathOpenAPI,
			"metrics":   constants.PathMetrics,
		},
	}

	s.sendJSONResponse(w, http.StatusOK, doc)
}
