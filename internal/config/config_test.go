package config

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig() is not valid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default",
			mutate: func(c *Config) {},
		},
		{
			name:    "invalid server",
			mutate:  func(c *Config) { c.Server.Port = "not-a-port" },
			wantErr: "server:",
		},
		{
			name:    "invalid service",
			mutate:  func(c *Config) { c.Service.Environment = "prod" },
			wantErr: "service:",
		},
		{
			name:    "invalid logging",
			mutate:  func(c *Config) { c.Observability.Logging.Level = "verbose" },
			wantErr: "observability:",
		},
		{
			name: "invalid rate limit",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = true
				c.RateLimit.RequestsPerSecond = 0
			},
			wantErr: "rate_limit:",
		},
		{
			name:    "invalid hot reload",
			mutate:  func(c *Config) { c.HotReload.Debounce = -1 },
			wantErr: "hot_reload:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Host = ""
	cfg.Service.Name = ""
	cfg.Observability.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}

	for _, want := range []string{"server:", "service:", "observability:"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error missing %q section: %v", want, err)
		}
	}
}
