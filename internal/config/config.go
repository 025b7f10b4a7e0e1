package config

import (
	"errors"
	"fmt"
)

// Config represents the unified configuration structure
type Config struct {
	Server        ServerConfig        `json:"server" yaml:"server"`
	Service       ServiceConfig       `json:"service" yaml:"service"`
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
	RateLimit     RateLimitConfig     `json:"rate_limit" yaml:"rate_limit"`
	HotReload     HotReloadConfig     `json:"hot_reload" yaml:"hot_reload"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server:        DefaultServerConfig(),
		Service:       DefaultServiceConfig(),
		Observability: DefaultObservabilityConfig(),
		RateLimit:     DefaultRateLimitConfig(),
		HotReload:     DefaultHotReloadConfig(),
	}
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	var errs []error

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := c.Service.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("service: %w", err))
	}
	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observability: %w", err))
	}
	if err := c.RateLimit.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("rate_limit: %w", err))
	}
	if err := c.HotReload.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("hot_reload: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
