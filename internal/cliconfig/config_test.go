package cliconfig

import (
	"errors"
	"testing"
	"time"

	"github.com/hwctl/stepperd/internal/domain"
)

func TestDefaultConfig_MatchesReference(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ButtonPollInterval != time.Millisecond {
		t.Errorf("ButtonPollInterval = %v, want 1ms", cfg.ButtonPollInterval)
	}
	if cfg.StepInterval != 2048*time.Microsecond {
		t.Errorf("StepInterval = %v, want 2.048ms", cfg.StepInterval)
	}
	if cfg.Driver != DriverPeriph {
		t.Errorf("Driver = %q, want %q", cfg.Driver, DriverPeriph)
	}
	if cfg.StatusAddr != "" {
		t.Errorf("StatusAddr = %q, want disabled by default", cfg.StatusAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config fails validation: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"sim driver", func(c *Config) { c.Driver = DriverSim }, true},
		{"rpio driver", func(c *Config) { c.Driver = DriverRpio }, true},
		{"unknown driver", func(c *Config) { c.Driver = "firmata" }, false},
		{"zero poll interval", func(c *Config) { c.ButtonPollInterval = 0 }, false},
		{"negative step interval", func(c *Config) { c.StepInterval = -time.Millisecond }, false},
		{"negative pin", func(c *Config) { c.ButtonPin = -1 }, false},
		{"button shares coil pin", func(c *Config) { c.ButtonPin = c.CoilPins[0] }, false},
		{"duplicate coil pins", func(c *Config) { c.CoilPins[3] = c.CoilPins[0] }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
