package app

import (
	"fmt"

	"github.com/hwctl/stepperd/internal/domain"
	"github.com/hwctl/stepperd/internal/ports"
)

// ButtonPoller samples the push button on every tick of the short poll
// timer and derives the turning state. Debouncing is the polling
// period itself: the raw level is sampled every tick rather than
// reacting to edges, so contact noise shorter than a period is never
// observed twice.
type ButtonPoller struct {
	button    ports.InputPin
	indicator ports.OutputPin
	state     *domain.MotorState
	logger    ports.Logger
	emitter   EventEmitter

	pressed bool // last derived state, for logging transitions only
}

// NewButtonPoller creates a poller over an opened button input and
// indicator output sharing the controller's motor state.
func NewButtonPoller(button ports.InputPin, indicator ports.OutputPin, state *domain.MotorState, logger ports.Logger, emitter EventEmitter) *ButtonPoller {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &ButtonPoller{
		button:    button,
		indicator: indicator,
		state:     state,
		logger:    logger,
		emitter:   emitter,
	}
}

// Tick samples the button once. Released: turning stops, the step
// index resets to 0 and the indicator goes off. Pressed: turning
// starts, the step index is left alone and the indicator goes on.
//
// The indicator is written every tick whether or not the state
// changed; the write is idempotent. A button read failure is fatal: a
// stuck input must not leave the motor driving current unattended, so
// the error terminates the run loop instead of being retried.
func (p *ButtonPoller) Tick() error {
	level, err := p.button.Read()
	if err != nil {
		p.logger.Error("could not read button pin", ports.Err(err))
		return fmt.Errorf("%w: button read: %v", domain.ErrFatalRuntime, err)
	}

	if level == domain.ButtonReleased {
		changed := p.pressed
		p.pressed = false
		p.state.IsTurning = false
		p.state.StepIndex = 0
		p.writeIndicator(domain.IndicatorOff)
		if changed {
			p.logger.Debug("button released, motor stopped")
			p.emitter.OnMotor(domain.MotorSnapshot{IsTurning: false, StepIndex: 0})
		}
	} else {
		changed := !p.pressed
		p.pressed = true
		p.state.IsTurning = true
		p.writeIndicator(domain.IndicatorOn)
		if changed {
			p.logger.Debug("button pressed, motor turning", ports.Int("step_index", p.state.StepIndex))
			p.emitter.OnMotor(domain.MotorSnapshot{IsTurning: true, StepIndex: p.state.StepIndex})
		}
	}

	return nil
}

// writeIndicator drives the indicator LED. Failures are logged and
// dropped; the indicator is advisory and never worth stopping the
// motor over.
func (p *ButtonPoller) writeIndicator(level domain.Level) {
	if err := p.indicator.Write(level); err != nil {
		p.logger.Warn("could not write indicator pin", ports.Err(err))
	}
}
