// Package periphgpio adapts the periph.io host GPIO stack to the
// ports.GPIO capability. It is the default driver on Linux SBCs.
package periphgpio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/hwctl/stepperd/internal/domain"
	"github.com/hwctl/stepperd/internal/ports"
)

// GPIO opens pins through the periph.io pin registry.
type GPIO struct{}

// New initializes the periph.io host drivers and returns the adapter.
func New() (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periphgpio: host init: %w", err)
	}
	return &GPIO{}, nil
}

// OpenInput configures the pin as an input with a pull-up, matching
// the reference button wiring (released reads high).
func (g *GPIO) OpenInput(pin int) (ports.InputPin, error) {
	p, err := byNumber(pin)
	if err != nil {
		return nil, err
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("periphgpio: configure %s as input: %w", p.Name(), err)
	}
	return &inputPin{p: p}, nil
}

// OpenOutput configures the pin as an output driven to initial.
func (g *GPIO) OpenOutput(pin int, initial domain.Level) (ports.OutputPin, error) {
	p, err := byNumber(pin)
	if err != nil {
		return nil, err
	}
	if err := p.Out(toPeriph(initial)); err != nil {
		return nil, fmt.Errorf("periphgpio: configure %s as output: %w", p.Name(), err)
	}
	return &outputPin{p: p}, nil
}

// Close releases the adapter. periph.io keeps host drivers loaded for
// the process lifetime, so there is nothing to undo here.
func (g *GPIO) Close() error {
	return nil
}

func byNumber(pin int) (gpio.PinIO, error) {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
	if p == nil {
		return nil, fmt.Errorf("periphgpio: no pin GPIO%d on this host", pin)
	}
	return p, nil
}

func toPeriph(l domain.Level) gpio.Level {
	if l == domain.LevelHigh {
		return gpio.High
	}
	return gpio.Low
}

func fromPeriph(l gpio.Level) domain.Level {
	if l == gpio.High {
		return domain.LevelHigh
	}
	return domain.LevelLow
}

type inputPin struct {
	p gpio.PinIO
}

// Read samples the line. periph.io reads cannot fail once the pin is
// configured, so the error is always nil here.
func (i *inputPin) Read() (domain.Level, error) {
	return fromPeriph(i.p.Read()), nil
}

func (i *inputPin) Close() error {
	return i.p.Halt()
}

type outputPin struct {
	p gpio.PinIO
}

func (o *outputPin) Write(level domain.Level) error {
	return o.p.Out(toPeriph(level))
}

func (o *outputPin) Close() error {
	return o.p.Halt()
}
