package stepperd

import (
	"github.com/hwctl/stepperd/internal/app"
	"github.com/hwctl/stepperd/internal/ports"
)

// Option configures optional behavior of a Stepperd.
type Option func(*options)

// options holds the optional configuration for a Stepperd instance.
type options struct {
	logger  ports.Logger
	gpio    ports.GPIO
	emitter app.EventEmitter
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{}
}

// WithLogger sets the structured logger. Without it, logs are
// discarded.
func WithLogger(logger ports.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithGPIO injects a GPIO capability, overriding the configured
// driver. The caller keeps ownership: Run will not close an injected
// controller.
func WithGPIO(gpio ports.GPIO) Option {
	return func(o *options) {
		o.gpio = gpio
	}
}

// WithEmitter registers an observer for lifecycle and motor state
// changes. It is called from the dispatch loop and must be fast.
func WithEmitter(emitter app.EventEmitter) Option {
	return func(o *options) {
		o.emitter = emitter
	}
}
