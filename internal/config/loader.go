package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/lumilabs/healthd/internal/constants"
)

// LoadConfig loads configuration with precedence:
// 1. Explicit CLI flags (highest priority)
// 2. Environment variables
// 3. Configuration file values
// 4. Default configuration values (lowest priority)
func LoadConfig(configFile string, flags *CLIFlags) (*Config, error) {
	// Start with default configuration
	config := DefaultConfig()

	// Load from configuration file if provided
	if configFile != "" {
		if err := loadFromFile(configFile, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Load from environment variables
	loadFromEnv(config)

	// Override with explicitly set CLI flags
	overrideWithCLI(config, flags)

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// CLIFlags contains CLI flag values that can override configuration
type CLIFlags struct {
	Host              *string
	Port              *string
	MetricsPort       *string
	ReadTimeout       *time.Duration
	WriteTimeout      *time.Duration
	IdleTimeout       *time.Duration
	ShutdownTimeout   *time.Duration
	DrainDelay        *time.Duration
	ServiceName       *string
	ServiceVersion    *string
	Environment       *string
	LogLevel          *string
	LogFormat         *string
	TracingEnabled    *bool
	RateLimitEnabled  *bool
	RateLimitRPS      *int
	HotReload         *bool
	HotReloadDebounce *time.Duration
}

// loadFromFile unmarshals a YAML or JSON file over the current config,
// so file values replace defaults and omitted keys keep them.
func loadFromFile(filePath string, config *Config) error {
	if !filepath.IsAbs(filePath) {
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			return fmt.Errorf("failed to get absolute path for %s: %w", filePath, err)
		}
		filePath = absPath
	}

	data, err := os.ReadFile(filePath) // #nosec G304 - operator supplied path
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	ext := filepath.Ext(filePath)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	case ".json":
		err = json.Unmarshal(data, config)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(config *Config) {
	// Server configuration
	if val := os.Getenv(constants.EnvHost); val != "" {
		config.Server.Host = val
	}
	if val := os.Getenv(constants.EnvPort); val != "" {
		config.Server.Port = val
	}
	if val := os.Getenv(constants.EnvMetricsPort); val != "" {
		config.Server.MetricsPort = val
	}
	if val := os.Getenv(constants.EnvReadTimeout); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.Server.ReadTimeout = duration
		}
	}
	if val := os.Getenv(constants.EnvWriteTimeout); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.Server.WriteTimeout = duration
		}
	}
	if val := os.Getenv(constants.EnvIdleTimeout); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.Server.IdleTimeout = duration
		}
	}
	if val := os.Getenv(constants.EnvMaxRequestSize); val != "" {
		if size, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.Server.MaxRequestSize = size
		}
	}
	if val := os.Getenv(constants.EnvShutdownTimeout); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.Server.ShutdownTimeout = duration
		}
	}
	if val := os.Getenv(constants.EnvDrainDelay); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.Server.DrainDelay = duration
		}
	}

	// Service identity
	if val := os.Getenv(constants.EnvServiceName); val != "" {
		config.Service.Name = val
	}
	if val := os.Getenv(constants.EnvServiceVersion); val != "" {
		config.Service.Version = val
	}
	if val := os.Getenv(constants.EnvEnvironment); val != "" {
		config.Service.Environment = val
	}

	// Observability
	if val := os.Getenv(constants.EnvLogLevel); val != "" {
		config.Observability.Logging.Level = val
	}
	if val := os.Getenv(constants.EnvLogFormat); val != "" {
		config.Observability.Logging.Format = val
	}
	if val := os.Getenv(constants.EnvTracingEnabled); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			config.Observability.Tracing.Enabled = enabled
		}
	}

	// Rate limiting
	if val := os.Getenv(constants.EnvRateLimitEnabled); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			config.RateLimit.Enabled = enabled
		}
	}
	if val := os.Getenv(constants.EnvRateLimitRPS); val != "" {
		if rps, err := strconv.Atoi(val); err == nil {
			config.RateLimit.RequestsPerSecond = rps
		}
	}

	// Hot reload
	if val := os.Getenv(constants.EnvHotReload); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			config.HotReload.Enabled = enabled
		}
	}
	if val := os.Getenv(constants.EnvHotReloadDebounce); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.HotReload.Debounce = duration
		}
	}
}

// overrideWithCLI overrides configuration with CLI flag values.
// Only explicitly set flags override other configuration sources.
func overrideWithCLI(config *Config, flags *CLIFlags) {
	if flags == nil {
		return
	}

	if flags.Host != nil && flagChanged("host") {
		config.Server.Host = *flags.Host
	}
	if flags.Port != nil && flagChanged("port") {
		config.Server.Port = *flags.Port
	}
	if flags.MetricsPort != nil && flagChanged("metrics-port") {
		config.Server.MetricsPort = *flags.MetricsPort
	}
	if flags.ReadTimeout != nil && flagChanged("read-timeout") {
		config.Server.ReadTimeout = *flags.ReadTimeout
	}
	if flags.WriteTimeout != nil && flagChanged("write-timeout") {
		config.Server.WriteTimeout = *flags.WriteTimeout
	}
	if flags.IdleTimeout != nil && flagChanged("idle-timeout") {
		config.Server.IdleTimeout = *flags.IdleTimeout
	}
	if flags.ShutdownTimeout != nil && flagChanged("shutdown-timeout") {
		config.Server.ShutdownTimeout = *flags.ShutdownTimeout
	}
	if flags.DrainDelay != nil && flagChanged("drain-delay") {
		config.Server.DrainDelay = *flags.DrainDelay
	}
	if flags.ServiceName != nil && flagChanged("service-name") {
		config.Service.Name = *flags.ServiceName
	}
	if flags.ServiceVersion != nil && flagChanged("service-version") {
		config.Service.Version = *flags.ServiceVersion
	}
	if flags.Environment != nil && flagChanged("environment") {
		config.Service.Environment = *flags.Environment
	}
	if flags.LogLevel != nil && flagChanged("log-level") {
		config.Observability.Logging.Level = *flags.LogLevel
	}
	if flags.LogFormat != nil && flagChanged("log-format") {
		config.Observability.Logging.Format = *flags.LogFormat
	}
	if flags.TracingEnabled != nil && flagChanged("tracing-enabled") {
		config.Observability.Tracing.Enabled = *flags.TracingEnabled
	}
	if flags.RateLimitEnabled != nil && flagChanged("rate-limit-enabled") {
		config.RateLimit.Enabled = *flags.RateLimitEnabled
	}
	if flags.RateLimitRPS != nil && flagChanged("rate-limit-rps") {
		config.RateLimit.RequestsPerSecond = *flags.RateLimitRPS
	}
	if flags.HotReload != nil && flagChanged("hot-reload") {
		config.HotReload.Enabled = *flags.HotReload
	}
	if flags.HotReloadDebounce != nil && flagChanged("hot-reload-debounce") {
		config.HotReload.Debounce = *flags.HotReloadDebounce
	}
}

// flagChanged reports whether a registered pflag was set on the command line
func flagChanged(name string) bool {
	f := pflag.Lookup(name)
	return f != nil && f.Changed
}
