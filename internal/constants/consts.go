package constants

import "time"

// Environment variable constants
const (
	EnvHost              = "LUMI_HEALTHD_HOST"
	EnvPort              = "LUMI_HEALTHD_PORT"
	EnvMetricsPort       = "LUMI_HEALTHD_METRICS_PORT"
	EnvReadTimeout       = "LUMI_HEALTHD_READ_TIMEOUT"
	EnvWriteTimeout      = "LUMI_HEALTHD_WRITE_TIMEOUT"
	EnvIdleTimeout       = "LUMI_HEALTHD_IDLE_TIMEOUT"
	EnvMaxRequestSize    = "LUMI_HEALTHD_MAX_REQUEST_SIZE"
	EnvShutdownTimeout   = "LUMI_HEALTHD_SHUTDOWN_TIMEOUT"
	EnvDrainDelay        = "LUMI_HEALTHD_DRAIN_DELAY"
	EnvServiceName       = "LUMI_HEALTHD_SERVICE_NAME"
	EnvServiceVersion    = "LUMI_HEALTHD_SERVICE_VERSION"
	EnvEnvironment       = "LUMI_HEALTHD_ENVIRONMENT"
	EnvLogLevel          = "LUMI_HEALTHD_LOG_LEVEL"
	EnvLogFormat         = "LUMI_HEALTHD_LOG_FORMAT"
	EnvTracingEnabled    = "LUMI_HEALTHD_TRACING_ENABLED"
	EnvRateLimitEnabled  = "LUMI_HEALTHD_RATE_LIMIT_ENABLED"
	EnvRateLimitRPS      = "LUMI_HEALTHD_RATE_LIMIT_RPS"
	EnvHotReload         = "LUMI_HEALTHD_HOT_RELOAD"
	EnvHotReloadDebounce = "LUMI_HEALTHD_HOT_RELOAD_DEBOUNCE"
)

// Probe path constants
const (
	PathHealth  = "/api/v1/health/"
	PathReady   = "/api/v1/health/ready"
	PathDetails = "/api/v1/health/details"
	PathOpenAPI = "/openapi.json"
	PathMetrics = "/metrics"
	PathDocs    = "/"
)

// HTTP header constants
const (
	HeaderContentType   = "Content-Type"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXRealIP       = "X-Real-IP"
)

// Content type constants
const (
	ContentTypeJSON = "application/json"
)

// Rate limiting headers
const (
	HeaderXRateLimitLimit     = "X-RateLimit-Limit"
	HeaderXRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRetryAfter          = "Retry-After"
)

// Environment name constants (mirrors the deployment tiers)
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Rate limiter internal constants
const (
	// RateLimitCleanupInterval is the interval for cleaning up rate limit cache
	RateLimitCleanupInterval = 5 * time.Minute
	// RateLimitMaxCacheSize is the maximum size of the rate limit cache
	RateLimitMaxCacheSize = 10000
)

// Server timeout constants (internal use only - not user configurable)
const (
	// ServerMaxRequestSize is the maximum request body size (1MB; probes carry no body)
	ServerMaxRequestSize = 1 << 20
	// CheckTimeout is the per-check timeout for readiness checks
	CheckTimeout = 2 * time.Second
	// SystemStatsInterval is the refresh interval for system metric gauges
	SystemStatsInterval = 10 * time.Second
)
