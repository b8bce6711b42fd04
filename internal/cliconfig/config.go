// Package cliconfig holds the command-line configuration for the
// stepperd daemon: built-in defaults that reproduce the reference
// wiring, an optional TOML file, and flag overrides. With no file and
// no flags the daemon runs entirely on compile-time defaults.
package cliconfig

import (
	"fmt"
	"time"

	"github.com/hwctl/stepperd/internal/domain"
)

// Drivers selectable via the driver setting.
const (
	DriverPeriph = "periph"
	DriverRpio   = "rpio"
	DriverSim    = "sim"
)

// Reference timer periods: the button is sampled every millisecond,
// and a 28BYJ-48 full step takes 2.048ms.
const (
	DefaultButtonPollInterval = time.Millisecond
	DefaultStepInterval       = 2048 * time.Microsecond
)

// Config holds CLI configuration for stepperd.
type Config struct {
	Driver string

	ButtonPin    int
	IndicatorPin int
	CoilPins     [domain.NumPhases]int

	ButtonPollInterval time.Duration
	StepInterval       time.Duration

	// StatusAddr enables the HTTP status server when non-empty.
	StatusAddr string

	Debug bool
}

// DefaultConfig returns a Config with default values: periph.io
// driver, the reference periods, and the standard ULN2003 hat wiring
// (BCM numbering).
func DefaultConfig() Config {
	return Config{
		Driver:             DriverPeriph,
		ButtonPin:          17,
		IndicatorPin:       27,
		CoilPins:           [domain.NumPhases]int{6, 13, 19, 26},
		ButtonPollInterval: DefaultButtonPollInterval,
		StepInterval:       DefaultStepInterval,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverPeriph, DriverRpio, DriverSim:
	default:
		return fmt.Errorf("%w: unknown driver %q", domain.ErrInvalidConfig, c.Driver)
	}

	if c.ButtonPollInterval <= 0 {
		return fmt.Errorf("%w: button poll interval must be positive", domain.ErrInvalidConfig)
	}
	if c.StepInterval <= 0 {
		return fmt.Errorf("%w: step interval must be positive", domain.ErrInvalidConfig)
	}

	seen := map[int]string{}
	claim := func(pin int, name string) error {
		if pin < 0 {
			return fmt.Errorf("%w: %s pin %d is negative", domain.ErrInvalidConfig, name, pin)
		}
		if prev, ok := seen[pin]; ok {
			return fmt.Errorf("%w: %s and %s share pin %d", domain.ErrInvalidConfig, prev, name, pin)
		}
		seen[pin] = name
		return nil
	}

	if err := claim(c.ButtonPin, "button"); err != nil {
		return err
	}
	if err := claim(c.IndicatorPin, "indicator"); err != nil {
		return err
	}
	for i, pin := range c.CoilPins {
		if err := claim(pin, fmt.Sprintf("coil %d", i+1)); err != nil {
			return err
		}
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setPin sets a pin number if non-negative and flag not changed. Pin 0
// is a valid BCM pin, so only negative values mean "unset".
func (s *configSetter) setPin(flag string, value *int, dst *int) {
	if value == nil || *value < 0 || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}
