package config

import (
	"errors"
	"time"
)

// RateLimitConfig guards the non-probe surface (docs, details, contract
// document) against abusive clients. Liveness and readiness are always
// exempt: a throttled supervisor probe reads as an unhealthy instance.
type RateLimitConfig struct {
	Enabled           bool          `json:"enabled" yaml:"enabled"`
	RequestsPerSecond int           `json:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int           `json:"burst_size" yaml:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
	MaxCacheSize      int           `json:"max_cache_size" yaml:"max_cache_size"`
}

// DefaultRateLimitConfig returns default rate limiting configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           false,
		RequestsPerSecond: 50,
		BurstSize:         100,
		CleanupInterval:   5 * time.Minute,
		MaxCacheSize:      10000,
	}
}

// Validate validates rate limiting configuration
func (r *RateLimitConfig) Validate() error {
	if !r.Enabled {
		return nil
	}

	var errs []error
	if r.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("requests_per_second must be positive"))
	}
	if r.BurstSize <= 0 {
		errs = append(errs, errors.New("burst_size must be positive"))
	}
	if r.CleanupInterval < 0 {
		errs = append(errs, errors.New("cleanup_interval must be non-negative"))
	}
	if r.MaxCacheSize < 0 {
		errs = append(errs, errors.New("max_cache_size must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
