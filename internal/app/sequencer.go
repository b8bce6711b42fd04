package app

import (
	"github.com/hwctl/stepperd/internal/domain"
	"github.com/hwctl/stepperd/internal/ports"
)

// Sequencer advances the motor one full step per tick of the motor
// timer. While turning it energizes exactly one coil per the fixed
// phase table; while stopped it writes the idle pattern so no coil is
// left drawing current with the rotor stationary.
//
// The sequencer never reads the button and never mutates IsTurning; it
// only reads the shared state and advances StepIndex.
type Sequencer struct {
	coils   [domain.NumPhases]ports.OutputPin
	state   *domain.MotorState
	logger  ports.Logger
	emitter EventEmitter

	steps uint64 // total steps driven this run
}

// NewSequencer creates a sequencer over the four opened coil outputs
// (IN1..IN4 of the driver board, in order) sharing the controller's
// motor state.
func NewSequencer(coils [domain.NumPhases]ports.OutputPin, state *domain.MotorState, logger ports.Logger, emitter EventEmitter) *Sequencer {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &Sequencer{
		coils:   coils,
		state:   state,
		logger:  logger,
		emitter: emitter,
	}
}

// Steps returns the number of steps driven since the run started.
func (s *Sequencer) Steps() uint64 {
	return s.steps
}

// Tick drives one motor timer period. Coil writes are best-effort: a
// failed write is logged and the sequence keeps going, matching the
// reference drive.
func (s *Sequencer) Tick() error {
	if !s.state.IsTurning {
		s.writePattern(domain.IdlePattern)
		return nil
	}

	phase := s.state.Advance()
	s.logger.Debug("step", ports.Int("phase", phase))
	s.writePattern(domain.PhaseTable[phase])
	s.steps++

	s.emitter.OnMotor(domain.MotorSnapshot{
		IsTurning: true,
		StepIndex: s.state.StepIndex,
		Steps:     s.steps,
	})
	return nil
}

func (s *Sequencer) writePattern(pattern [domain.NumPhases]domain.Level) {
	for i, level := range pattern {
		if err := s.coils[i].Write(level); err != nil {
			s.logger.Warn("could not write coil pin",
				ports.Int("coil", i+1),
				ports.Err(err),
			)
		}
	}
}
