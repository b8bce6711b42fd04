package stepperd

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	logAdapter "github.com/hwctl/stepperd/internal/adapters/log"
	"github.com/hwctl/stepperd/internal/adapters/periphgpio"
	"github.com/hwctl/stepperd/internal/adapters/rpiogpio"
	"github.com/hwctl/stepperd/internal/adapters/simgpio"
	"github.com/hwctl/stepperd/internal/app"
	"github.com/hwctl/stepperd/internal/cliconfig"
	"github.com/hwctl/stepperd/internal/domain"
	"github.com/hwctl/stepperd/internal/ports"
	"github.com/hwctl/stepperd/internal/status"
)

// Config holds the configuration for the stepper drive.
// Use DefaultConfig() to get a Config with the reference wiring.
type Config = cliconfig.Config

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// Stepperd is a stepper motor drive that can be embedded in other
// applications. Use New() to create an instance, then Run() to drive
// the motor.
type Stepperd struct {
	cfg        Config
	opts       options
	logger     ports.Logger
	gpio       ports.GPIO
	ownsGPIO   bool
	controller *app.Controller
	status     *status.Server

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
}

// Snapshot is a point-in-time view of the drive.
type Snapshot struct {
	State     string `json:"state"`
	IsTurning bool   `json:"is_turning"`
	StepIndex int    `json:"step_index"`
	Steps     uint64 `json:"steps"`
}

// New creates a new drive with the given configuration. Nothing
// touches the hardware until Run, except opening the GPIO controller
// itself. Returns an error if configuration is invalid or the
// configured GPIO driver cannot be opened.
func New(cfg Config, opts ...Option) (*Stepperd, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var logger ports.Logger
	if o.logger != nil {
		logger = o.logger
	} else {
		logger = logAdapter.NewNoopLogger()
	}

	gpio := o.gpio
	ownsGPIO := false
	if gpio == nil {
		var err error
		gpio, err = openDriver(cfg.Driver)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInitialization, err)
		}
		ownsGPIO = true
	}

	// The status server doubles as the snapshot collector behind
	// Status(); it only listens when Config.StatusAddr is set.
	statusSrv := status.NewServer(logger)
	emitters := []app.EventEmitter{statusSrv}
	if o.emitter != nil {
		emitters = append(emitters, o.emitter)
	}

	appCfg := app.Config{
		ButtonPin:          cfg.ButtonPin,
		IndicatorPin:       cfg.IndicatorPin,
		CoilPins:           cfg.CoilPins,
		ButtonPollInterval: cfg.ButtonPollInterval,
		StepInterval:       cfg.StepInterval,
	}
	controller := app.NewController(appCfg, gpio, logger, multiEmitter(emitters))

	return &Stepperd{
		cfg:        cfg,
		opts:       o,
		logger:     logger,
		gpio:       gpio,
		ownsGPIO:   ownsGPIO,
		controller: controller,
		status:     statusSrv,
	}, nil
}

// Run drives the motor until the context is canceled or a fatal
// condition stops the loop, and releases every resource before
// returning. A drive runs at most once.
func (s *Stepperd) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	s.started = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The status server (if any) has no reason to outlive the
		// control loop.
		defer cancel()
		return s.controller.Run(ctx)
	})
	if s.cfg.StatusAddr != "" {
		g.Go(func() error {
			return s.status.ListenAndServe(ctx, s.cfg.StatusAddr)
		})
	}

	err := g.Wait()

	if s.ownsGPIO {
		if cerr := s.gpio.Close(); cerr != nil {
			s.logger.Warn("could not close gpio controller", ports.Err(cerr))
		}
	}
	return err
}

// Stop requests a graceful shutdown of a running drive. Run unwinds
// through teardown and returns nil. Stop returns domain.ErrNotRunning
// if the drive was never started; stopping an already-stopped drive is
// a no-op.
func (s *Stepperd) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return domain.ErrNotRunning
	}
	s.cancel()
	return nil
}

// Status returns a point-in-time snapshot of the drive: lifecycle
// state, turning flag, step index and the step total for this run.
func (s *Stepperd) Status() Snapshot {
	snap := s.status.Snapshot()
	return Snapshot{
		State:     snap.State,
		IsTurning: snap.IsTurning,
		StepIndex: snap.StepIndex,
		Steps:     snap.Steps,
	}
}

// State returns the controller's lifecycle state as a string.
func (s *Stepperd) State() string {
	return s.controller.State().String()
}

// openDriver opens the configured GPIO backend.
func openDriver(driver string) (ports.GPIO, error) {
	switch driver {
	case cliconfig.DriverPeriph:
		return periphgpio.New()
	case cliconfig.DriverRpio:
		return rpiogpio.New()
	case cliconfig.DriverSim:
		return simgpio.New(), nil
	default:
		return nil, fmt.Errorf("unknown gpio driver %q", driver)
	}
}

// multiEmitter fans events out to every registered emitter.
type multiEmitter []app.EventEmitter

func (m multiEmitter) OnStateChange(previous, current app.State, reason string) {
	for _, e := range m {
		e.OnStateChange(previous, current, reason)
	}
}

func (m multiEmitter) OnMotor(snapshot domain.MotorSnapshot) {
	for _, e := range m {
		e.OnMotor(snapshot)
	}
}
