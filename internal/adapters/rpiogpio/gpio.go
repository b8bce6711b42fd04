// Package rpiogpio adapts stianeikeland/go-rpio to the ports.GPIO
// capability. It drives /dev/gpiomem directly and only works on a
// Raspberry Pi; select it with the "rpio" driver setting.
package rpiogpio

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/hwctl/stepperd/internal/domain"
	"github.com/hwctl/stepperd/internal/ports"
)

// GPIO opens pins through the go-rpio memory-mapped register interface.
type GPIO struct{}

// New maps the GPIO registers. The mapping is shared by every pin and
// released by Close.
func New() (*GPIO, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpiogpio: open gpio memory: %w", err)
	}
	return &GPIO{}, nil
}

// OpenInput configures the pin as an input with a pull-up, matching
// the reference button wiring (released reads high).
func (g *GPIO) OpenInput(pin int) (ports.InputPin, error) {
	p := rpio.Pin(pin)
	p.Input()
	p.PullUp()
	return &inputPin{p: p}, nil
}

// OpenOutput configures the pin as an output driven to initial.
func (g *GPIO) OpenOutput(pin int, initial domain.Level) (ports.OutputPin, error) {
	p := rpio.Pin(pin)
	p.Output()
	p.Write(toRpio(initial))
	return &outputPin{p: p}, nil
}

// Close unmaps the GPIO registers.
func (g *GPIO) Close() error {
	return rpio.Close()
}

func toRpio(l domain.Level) rpio.State {
	if l == domain.LevelHigh {
		return rpio.High
	}
	return rpio.Low
}

func fromRpio(s rpio.State) domain.Level {
	if s == rpio.High {
		return domain.LevelHigh
	}
	return domain.LevelLow
}

type inputPin struct {
	p rpio.Pin
}

// Read samples the line. Register reads cannot fail once the memory is
// mapped, so the error is always nil here.
func (i *inputPin) Read() (domain.Level, error) {
	return fromRpio(i.p.Read()), nil
}

// Close drops the pull-up; the register mapping itself is shared and
// released by GPIO.Close.
func (i *inputPin) Close() error {
	i.p.PullOff()
	return nil
}

type outputPin struct {
	p rpio.Pin
}

func (o *outputPin) Write(level domain.Level) error {
	o.p.Write(toRpio(level))
	return nil
}

// Close reverts the pin to an input so it stops driving the line.
func (o *outputPin) Close() error {
	o.p.Input()
	return nil
}
