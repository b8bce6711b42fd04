package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/hwctl/stepperd/internal/domain"
)

// FileConfig mirrors Config but uses strings for durations and
// pointers for values whose zero is meaningful, to make TOML friendly.
type FileConfig struct {
	Driver             string `toml:"driver"`
	ButtonPin          *int   `toml:"button_pin"`
	IndicatorPin       *int   `toml:"indicator_pin"`
	CoilPins           []int  `toml:"coil_pins"`
	ButtonPollInterval string `toml:"button_poll_interval"`
	StepInterval       string `toml:"step_interval"`
	StatusAddr         string `toml:"status_addr"`
	Debug              *bool  `toml:"debug"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.stepperd/config.toml if the user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".stepperd", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("driver", fc.Driver, &cfg.Driver)
	s.setString("status-addr", fc.StatusAddr, &cfg.StatusAddr)
	s.setPin("button-pin", fc.ButtonPin, &cfg.ButtonPin)
	s.setPin("indicator-pin", fc.IndicatorPin, &cfg.IndicatorPin)
	s.setBool("debug", fc.Debug, &cfg.Debug)

	if len(fc.CoilPins) > 0 && !changed["coil-pins"] {
		if len(fc.CoilPins) != domain.NumPhases {
			return fmt.Errorf("%w: coil_pins needs %d entries, got %d", domain.ErrInvalidConfig, domain.NumPhases, len(fc.CoilPins))
		}
		copy(cfg.CoilPins[:], fc.CoilPins)
	}

	if err := s.setDuration("button-poll-interval", fc.ButtonPollInterval, &cfg.ButtonPollInterval); err != nil {
		return err
	}
	if err := s.setDuration("step-interval", fc.StepInterval, &cfg.StepInterval); err != nil {
		return err
	}

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
