// Package simgpio is an in-memory GPIO adapter. It backs the "sim"
// driver for running the daemon on machines without a GPIO controller,
// and gives tests a scriptable board: input levels can be set, output
// levels observed, and failures injected per pin.
package simgpio

import (
	"fmt"
	"sync"

	"github.com/hwctl/stepperd/internal/domain"
	"github.com/hwctl/stepperd/internal/ports"
)

// GPIO is a simulated GPIO controller. The zero value is not usable;
// call New.
type GPIO struct {
	mu       sync.Mutex
	inputs   map[int]domain.Level
	outputs  map[int]domain.Level
	readErr  map[int]error
	writeErr map[int]error
	openErr  map[int]error
	closeErr map[int]error
	open     map[int]bool
	closed   bool
}

// New creates a simulated controller. All input pins read
// domain.LevelHigh (button released) until SetLevel is called.
func New() *GPIO {
	return &GPIO{
		inputs:   make(map[int]domain.Level),
		outputs:  make(map[int]domain.Level),
		readErr:  make(map[int]error),
		writeErr: make(map[int]error),
		openErr:  make(map[int]error),
		closeErr: make(map[int]error),
		open:     make(map[int]bool),
	}
}

// SetLevel sets the level an input pin will read. Used to press and
// release the simulated button.
func (g *GPIO) SetLevel(pin int, level domain.Level) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inputs[pin] = level
}

// OutputLevel returns the last level written to an output pin.
func (g *GPIO) OutputLevel(pin int) domain.Level {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outputs[pin]
}

// FailRead makes every Read on the pin return err (nil clears it).
func (g *GPIO) FailRead(pin int, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.readErr[pin] = err
}

// FailWrite makes every Write on the pin return err (nil clears it).
func (g *GPIO) FailWrite(pin int, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writeErr[pin] = err
}

// FailOpen makes opening the pin return err (nil clears it).
func (g *GPIO) FailOpen(pin int, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.openErr[pin] = err
}

// FailClose makes closing the pin return err (nil clears it).
func (g *GPIO) FailClose(pin int, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closeErr[pin] = err
}

// Opened reports whether the pin is currently open.
func (g *GPIO) Opened(pin int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open[pin]
}

// OpenInput opens a simulated input pin.
func (g *GPIO) OpenInput(pin int) (ports.InputPin, error) {
	if err := g.checkOpen(pin); err != nil {
		return nil, err
	}
	return &inputPin{gpio: g, pin: pin}, nil
}

// OpenOutput opens a simulated output pin at the given initial level.
func (g *GPIO) OpenOutput(pin int, initial domain.Level) (ports.OutputPin, error) {
	if err := g.checkOpen(pin); err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.outputs[pin] = initial
	g.mu.Unlock()
	return &outputPin{gpio: g, pin: pin}, nil
}

// Close releases the simulated controller.
func (g *GPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func (g *GPIO) checkOpen(pin int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return fmt.Errorf("simgpio: controller closed")
	}
	if err := g.openErr[pin]; err != nil {
		return err
	}
	if g.open[pin] {
		return fmt.Errorf("simgpio: pin %d already open", pin)
	}
	g.open[pin] = true
	return nil
}

func (g *GPIO) closePin(pin int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.open[pin] {
		return fmt.Errorf("simgpio: pin %d not open", pin)
	}
	g.open[pin] = false
	return g.closeErr[pin]
}

type inputPin struct {
	gpio *GPIO
	pin  int
}

func (p *inputPin) Read() (domain.Level, error) {
	p.gpio.mu.Lock()
	defer p.gpio.mu.Unlock()
	if err := p.gpio.readErr[p.pin]; err != nil {
		return domain.LevelHigh, err
	}
	level, ok := p.gpio.inputs[p.pin]
	if !ok {
		return domain.LevelHigh, nil
	}
	return level, nil
}

func (p *inputPin) Close() error {
	return p.gpio.closePin(p.pin)
}

type outputPin struct {
	gpio *GPIO
	pin  int
}

func (p *outputPin) Write(level domain.Level) error {
	p.gpio.mu.Lock()
	defer p.gpio.mu.Unlock()
	if err := p.gpio.writeErr[p.pin]; err != nil {
		return err
	}
	p.gpio.outputs[p.pin] = level
	return nil
}

func (p *outputPin) Close() error {
	return p.gpio.closePin(p.pin)
}
