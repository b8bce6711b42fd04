package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hwctl/stepperd/internal/domain"
	"github.com/hwctl/stepperd/internal/ports"
	"github.com/hwctl/stepperd/internal/sched"
)

// Config holds the pin assignments and timer periods for the drive
// controller. Pin numbers use the GPIO controller's native numbering.
type Config struct {
	ButtonPin    int
	IndicatorPin int
	// CoilPins are the driver board inputs IN1..IN4, in order.
	CoilPins [domain.NumPhases]int

	// ButtonPollInterval is the button sampling period.
	ButtonPollInterval time.Duration
	// StepInterval is the motor full-step period.
	StepInterval time.Duration
}

// Controller is the lifecycle controller: it owns every pin handle and
// the event source, wires the poller and sequencer to the two timers,
// and runs the dispatch loop until a fatal error or an external
// termination request.
type Controller struct {
	cfg       Config
	gpio      ports.GPIO
	logger    ports.Logger
	emitter   EventEmitter
	lifecycle *Lifecycle

	state     domain.MotorState
	mux       *sched.Mux
	button    ports.InputPin
	indicator ports.OutputPin
	coils     [domain.NumPhases]ports.OutputPin
	sequencer *Sequencer
}

// NewController creates a controller over the given GPIO capability.
// Nothing is opened until Run.
func NewController(cfg Config, gpio ports.GPIO, logger ports.Logger, emitter EventEmitter) *Controller {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &Controller{
		cfg:       cfg,
		gpio:      gpio,
		logger:    logger,
		emitter:   emitter,
		lifecycle: NewLifecycle(logger, emitter),
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.lifecycle.State()
}

// Run drives the full lifecycle: initialize peripherals and timers,
// dispatch until the context is canceled or a fatal condition occurs,
// then release everything best-effort. It returns nil on a graceful
// shutdown, a domain.ErrInitialization-wrapped error if startup
// failed, and a domain.ErrFatalRuntime-wrapped error if the run loop
// died.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.lifecycle.TransitionTo(StateInitializing, "startup"); err != nil {
		return err
	}

	if err := c.initPeripherals(); err != nil {
		c.lifecycle.TransitionTo(StateShuttingDown, err.Error())
		c.teardown()
		c.lifecycle.TransitionTo(StateTerminated, "initialization failed")
		return err
	}

	c.lifecycle.TransitionTo(StateRunning, "peripherals ready")

	runErr := c.dispatch(ctx)

	reason := "termination requested"
	if runErr != nil {
		reason = runErr.Error()
	}
	c.lifecycle.TransitionTo(StateShuttingDown, reason)
	c.teardown()
	c.lifecycle.TransitionTo(StateTerminated, "resources released")

	return runErr
}

// dispatch blocks in the event source and runs handlers until a fatal
// handler error, a wait failure, or context cancellation. Termination
// is observed between dispatch calls, so at most one more handler may
// run after a termination request.
func (c *Controller) dispatch(ctx context.Context) error {
	for {
		if err := c.mux.WaitAndDispatch(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("termination requested")
				return nil
			}
			c.logger.Error("run loop stopped", ports.Err(err))
			if errors.Is(err, domain.ErrFatalRuntime) {
				return err
			}
			return fmt.Errorf("%w: %v", domain.ErrFatalRuntime, err)
		}
	}
}

// initPeripherals opens the button, indicator and coil pins and
// registers both timers. Any single failure aborts startup; whatever
// was opened is released by the caller's teardown.
func (c *Controller) initPeripherals() error {
	c.logger.Info("opening button pin", ports.Int("pin", c.cfg.ButtonPin))
	button, err := c.gpio.OpenInput(c.cfg.ButtonPin)
	if err != nil {
		return fmt.Errorf("%w: open button pin %d: %v", domain.ErrInitialization, c.cfg.ButtonPin, err)
	}
	c.button = button

	c.logger.Info("opening indicator pin", ports.Int("pin", c.cfg.IndicatorPin))
	indicator, err := c.gpio.OpenOutput(c.cfg.IndicatorPin, domain.IndicatorOff)
	if err != nil {
		return fmt.Errorf("%w: open indicator pin %d: %v", domain.ErrInitialization, c.cfg.IndicatorPin, err)
	}
	c.indicator = indicator

	for i, pin := range c.cfg.CoilPins {
		c.logger.Info("opening coil pin", ports.Int("coil", i+1), ports.Int("pin", pin))
		coil, err := c.gpio.OpenOutput(pin, domain.CoilIdle)
		if err != nil {
			return fmt.Errorf("%w: open coil %d pin %d: %v", domain.ErrInitialization, i+1, pin, err)
		}
		c.coils[i] = coil
	}

	poller := NewButtonPoller(c.button, c.indicator, &c.state, c.logger, c.emitter)
	c.sequencer = NewSequencer(c.coils, &c.state, c.logger, c.emitter)

	c.mux = sched.New()
	if _, err := c.mux.Register(c.cfg.ButtonPollInterval, poller.Tick); err != nil {
		return fmt.Errorf("%w: button poll timer: %v", domain.ErrInitialization, err)
	}
	if _, err := c.mux.Register(c.cfg.StepInterval, c.sequencer.Tick); err != nil {
		return fmt.Errorf("%w: motor step timer: %v", domain.ErrInitialization, err)
	}

	return nil
}

// teardown releases every resource opened so far, best-effort: a close
// failure is logged and does not stop the remaining steps. Each handle
// is cleared so nothing is released twice or used after release.
func (c *Controller) teardown() {
	c.logger.Info("releasing peripherals")

	if c.mux != nil {
		c.mux.Close()
		c.mux = nil
	}

	for i, coil := range c.coils {
		if coil == nil {
			continue
		}
		// Leave the coil de-energized before giving up the line.
		if err := coil.Write(domain.CoilIdle); err != nil {
			c.logger.Warn("could not idle coil pin", ports.Int("coil", i+1), ports.Err(err))
		}
		if err := coil.Close(); err != nil {
			c.logger.Warn("could not close coil pin", ports.Int("coil", i+1), ports.Err(err))
		}
		c.coils[i] = nil
	}

	if c.indicator != nil {
		if err := c.indicator.Write(domain.IndicatorOff); err != nil {
			c.logger.Warn("could not turn off indicator pin", ports.Err(err))
		}
		if err := c.indicator.Close(); err != nil {
			c.logger.Warn("could not close indicator pin", ports.Err(err))
		}
		c.indicator = nil
	}

	if c.button != nil {
		if err := c.button.Close(); err != nil {
			c.logger.Warn("could not close button pin", ports.Err(err))
		}
		c.button = nil
	}
}
