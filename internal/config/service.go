package config

import (
	"errors"
	"fmt"
)

// ServiceConfig identifies the deployment this probe surface reports for.
// Name, version and environment are echoed in the health details payload
// so operators can tell which instance answered.
type ServiceConfig struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	Environment string `json:"environment" yaml:"environment"`
}

// DefaultServiceConfig returns default service identity configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        "lumi-agent",
		Version:     "0.5.0",
		Environment: "development",
	}
}

// Validate validates the service configuration
func (s *ServiceConfig) Validate() error {
	var errs []error

	if s.Name == "" {
		errs = append(errs, errors.New("name cannot be empty"))
	}
	if s.Version == "" {
		errs = append(errs, errors.New("version cannot be empty"))
	}

	validEnvs := map[string]bool{
		"development": true, "staging": true, "production": true, "test": true,
	}
	if !validEnvs[s.Environment] {
		errs = append(errs, fmt.Errorf("invalid environment: %s, must be one of: development, staging, production, test", s.Environment))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
