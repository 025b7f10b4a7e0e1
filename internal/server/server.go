package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lumilabs/healthd/internal/config"
	"github.com/lumilabs/healthd/internal/constants"
	"github.com/lumilabs/healthd/internal/health"
	"github.com/lumilabs/healthd/internal/observability"
	"github.com/lumilabs/healthd/internal/security"
)

// Server hosts the probe surface: liveness, readiness, diagnostics, the
// contract document, and a separate metrics listener.
type Server struct {
	cfg        atomic.Pointer[config.Config]
	configFile string

	server        *http.Server
	metricsServer *http.Server

	registry    *health.Registry
	rateLimiter *security.RateLimiter

	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer

	contractJSON []byte
	livenessBody []byte
	stopStats    chan struct{}
}

// New creates a probe server from the given configuration. configFile is
// the path the configuration was loaded from, used by hot reload; empty
// if configuration came from flags and environment only.
func New(cfg *config.Config, configFile string) (*Server, error) {
	logger, err := observability.NewLogger(cfg.Observability.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	tracer, err := observability.NewTracer(cfg.Observability.Tracing, cfg.Service)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	doc, contractJSON, err := loadContract(context.Background())
	if err != nil {
		return nil, err
	}
	// The published contract must cover the probe paths we serve.
	for _, path := range []string{constants.PathHealth, constants.PathReady, constants.PathDetails} {
		if doc.Paths.Find(path) == nil {
			return nil, fmt.Errorf("contract document is missing path %s", path)
		}
	}

	livenessBody, err := json.Marshal(health.LivenessResponse{Status: health.StatusOK})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize liveness payload: %w", err)
	}

	s := &Server{
		configFile:   configFile,
		registry:     health.NewRegistry(constants.CheckTimeout),
		rateLimiter:  security.NewRateLimiter(cfg.RateLimit),
		logger:       logger,
		metrics:      observability.NewMetrics(),
		tracer:       tracer,
		contractJSON: contractJSON,
		livenessBody: livenessBody,
		stopStats:    make(chan struct{}),
	}
	s.cfg.Store(cfg)

	// Built-in check: the active configuration must stay valid across
	// hot reloads.
	if err := s.registry.Register("config", func(ctx context.Context) error {
		return s.config().Validate()
	}); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Server) config() *config.Config {
	return s.cfg.Load()
}

// Registry returns the readiness check registry, so hosts can attach
// dependency checks before Start.
func (s *Server) Registry() *health.Registry {
	return s.registry
}

// Handler builds the main listener's handler: probe routes plus the
// middleware chain. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Go 1.22+ patterns: {$} pins the exact path so the liveness route
	// does not swallow its subtree, and GET also matches HEAD.
	mux.HandleFunc("GET "+constants.PathHealth+"{$}", s.livenessHandler)
	mux.HandleFunc("GET "+constants.PathReady, s.readinessHandler)
	mux.HandleFunc("GET "+constants.PathDetails, s.detailsHandler)
	mux.HandleFunc("GET "+constants.PathOpenAPI, s.contractHandler)
	mux.HandleFunc("/", s.docsHandler)

	return s.applyMiddleware(mux)
}

// Start runs both listeners and blocks until a shutdown signal arrives,
// then drains and shuts down gracefully.
func (s *Server) Start() error {
	cfg := s.config()

	s.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:        s.Handler(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	s.logger.Info("Starting server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("service", cfg.Service.Name),
		zap.String("version", cfg.Service.Version),
		zap.String("environment", cfg.Service.Environment),
	)

	s.metrics.SetHealthStatus(true)
	s.metrics.StartSystemStatsLoop(constants.SystemStatsInterval, s.stopStats)

	if cfg.Observability.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Observability.Metrics.Path, s.metrics.Handler())
		s.metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Server.MetricsPort),
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		s.logger.Info("Starting metrics server",
			zap.String("port", cfg.Server.MetricsPort),
		)
		go func() {
			if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return s.shutdown()
}

// shutdown drains and stops both listeners. Readiness flips to 503 first
// and stays there for DrainDelay so supervisors pull the instance from
// rotation before connections stop being accepted. Liveness keeps
// answering 200 throughout: the process is still alive.
func (s *Server) shutdown() error {
	cfg := s.config()

	s.logger.Info("Shutting down: draining",
		zap.Duration("drain_delay", cfg.Server.DrainDelay),
	)
	s.registry.SetDraining(true)
	s.metrics.SetHealthStatus(false)
	time.Sleep(cfg.Server.DrainDelay)

	close(s.stopStats)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	if s.metricsServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.logger.Info("Shutting down metrics server...")
			if err := s.metricsServer.Shutdown(ctx); err != nil {
				s.logger.Error("Failed to shutdown metrics server", zap.Error(err))
				errChan <- fmt.Errorf("metrics server shutdown: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.logger.Info("Shutting down main server...")
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to shutdown main server", zap.Error(err))
			errChan <- fmt.Errorf("main server shutdown: %w", err)
		}
	}()

	wg.Wait()
	close(errChan)

	if err := s.tracer.Shutdown(context.Background()); err != nil {
		s.logger.Warn("Failed to shutdown tracer", zap.Error(err))
	}
	_ = s.logger.Sync()

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// Name implements hotreload.Reloadable
func (s *Server) Name() string {
	return "server"
}

// Reload re-reads the configuration file and applies the runtime-safe
// subset: log level and rate limits. Listener settings need a restart
// and are kept from the running configuration.
func (s *Server) Reload(ctx context.Context) error {
	if s.configFile == "" {
		return nil
	}

	cfg, err := config.LoadConfig(s.configFile, nil)
	if err != nil {
		return fmt.Errorf("config reload rejected: %w", err)
	}

	old := s.config()
	if cfg.Server != old.Server {
		s.logger.Warn("Ignoring server settings change on reload; restart required")
		cfg.Server = old.Server
	}

	s.logger.SetLevel(cfg.Observability.Logging.Level)
	s.rateLimiter.UpdateConfig(cfg.RateLimit)
	s.cfg.Store(cfg)

	s.logger.Info("Configuration reloaded",
		zap.String("log_level", cfg.Observability.Logging.Level),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
	)
	return nil
}
