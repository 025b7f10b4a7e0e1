package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/lumilabs/healthd/internal/config"
	"github.com/lumilabs/healthd/internal/hotreload"
	"github.com/lumilabs/healthd/internal/server"
)

func main() {
	configFile := pflag.String("config", "", "Path to configuration file (YAML or JSON)")
	envFile := pflag.String("env-file", "", "Path to .env file (optional; missing file is not an error)")

	// Server configuration
	host := pflag.String("host", "0.0.0.0", "Host to bind the probe server on")
	port := pflag.String("port", "8000", "Port to bind the probe server on")
	metricsPort := pflag.String("metrics-port", "9090", "Port to bind the metrics server on")
	readTimeout := pflag.Duration("read-timeout", 5*time.Second, "HTTP server read timeout")
	writeTimeout := pflag.Duration("write-timeout", 5*time.Second, "HTTP server write timeout")
	idleTimeout := pflag.Duration("idle-timeout", 60*time.Second, "HTTP server idle timeout")
	shutdownTimeout := pflag.Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")
	drainDelay := pflag.Duration("drain-delay", 3*time.Second, "How long readiness reports not-ready before listeners stop")

	// Service identity
	serviceName := pflag.String("service-name", "lumi-agent", "Service name reported in health details")
	serviceVersion := pflag.String("service-version", "0.5.0", "Service version reported in health details")
	environment := pflag.String("environment", "development", "Deployment environment: development, staging, production, test")

	// Observability
	logLevel := pflag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat := pflag.String("log-format", "json", "Log format: json, console")
	tracingEnabled := pflag.Bool("tracing-enabled", false, "Enable OpenTelemetry tracing")

	// Rate limiting
	rateLimitEnabled := pflag.Bool("rate-limit-enabled", false, "Enable rate limiting on the non-probe surface")
	rateLimitRPS := pflag.Int("rate-limit-rps", 50, "Rate limit requests per second per client")

	// Hot reload
	hotReload := pflag.Bool("hot-reload", false, "Reload runtime-safe settings when the config file changes")
	hotReloadDebounce := pflag.Duration("hot-reload-debounce", 500*time.Millisecond, "Debounce time for hot reload events")

	pflag.Usage = printUsage
	pflag.Parse()

	// Load .env before reading the environment, mirroring the deployment
	// convention. A missing default .env is fine; an explicit one is not.
	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("Failed to load env file %s: %v", *envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cliFlags := &config.CLIFlags{
		Host:              host,
		Port:              port,
		MetricsPort:       metricsPort,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ShutdownTimeout:   shutdownTimeout,
		DrainDelay:        drainDelay,
		ServiceName:       serviceName,
		ServiceVersion:    serviceVersion,
		Environment:       environment,
		LogLevel:          logLevel,
		LogFormat:         logFormat,
		TracingEnabled:    tracingEnabled,
		RateLimitEnabled:  rateLimitEnabled,
		RateLimitRPS:      rateLimitRPS,
		HotReload:         hotReload,
		HotReloadDebounce: hotReloadDebounce,
	}

	// Load configuration with precedence (CLI > Env > File > Defaults)
	cfg, err := config.LoadConfig(*configFile, cliFlags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	probeServer, err := server.New(cfg, *configFile)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	var hotReloadManager *hotreload.Manager
	if cfg.HotReload.Enabled && *configFile != "" {
		hotReloadManager, err = hotreload.NewManager()
		if err != nil {
			log.Fatalf("Failed to create hot reload manager: %v", err)
		}
		hotReloadManager.SetDebounceTime(cfg.HotReload.Debounce)

		if err := hotReloadManager.AddWatch(*configFile); err != nil {
			log.Fatalf("Failed to watch config file: %v", err)
		}
		hotReloadManager.Register(probeServer)

		if err := hotReloadManager.Start(); err != nil {
			log.Fatalf("Failed to start hot reload: %v", err)
		}
		log.Printf("Hot reload enabled for %s", *configFile)
	}

	if err := probeServer.Start(); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	if hotReloadManager != nil {
		if err := hotReloadManager.Shutdown(context.Background()); err != nil {
			log.Printf("Failed to shutdown hot reload manager: %v", err)
		}
	}
}

// printUsage prints the usage information
func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nProbe server for the lumi-agent deployment. Serves liveness,\n")
	fmt.Fprintf(os.Stderr, "readiness and diagnostic endpoints for container supervisors.\n")
	fmt.Fprintf(os.Stderr, "\nFlags:\n")
	pflag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nEnvironment variables (LUMI_HEALTHD_*):\n")
	fmt.Fprintf(os.Stderr, "  LUMI_HEALTHD_HOST, LUMI_HEALTHD_PORT, LUMI_HEALTHD_METRICS_PORT\n")
	fmt.Fprintf(os.Stderr, "  LUMI_HEALTHD_SERVICE_NAME, LUMI_HEALTHD_SERVICE_VERSION, LUMI_HEALTHD_ENVIRONMENT\n")
	fmt.Fprintf(os.Stderr, "  LUMI_HEALTHD_LOG_LEVEL, LUMI_HEALTHD_LOG_FORMAT, LUMI_HEALTHD_RATE_LIMIT_ENABLED\n")
	fmt.Fprintf(os.Stderr, "  LUMI_HEALTHD_HOT_RELOAD, LUMI_HEALTHD_HOT_RELOAD_DEBOUNCE\n")
	fmt.Fprintf(os.Stderr, "\nExample usage:\n")
	fmt.Fprintf(os.Stderr, "  %s --port 8000 --environment production\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s --config ./healthd.yaml --hot-reload\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  LUMI_HEALTHD_PORT=8001 %s\n", os.Args[0])
}
