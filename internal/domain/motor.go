package domain

// NumPhases is the number of coil patterns in one full-step cycle of a
// 4-phase stepper motor.
const NumPhases = 4

// Level is a two-valued GPIO line level.
type Level int

const (
	LevelLow Level = iota
	LevelHigh
)

// String returns a human-readable representation of the level.
func (l Level) String() string {
	switch l {
	case LevelLow:
		return "Low"
	case LevelHigh:
		return "High"
	default:
		return "Unknown"
	}
}

// Polarity convention for the reference wiring: a ULN2003 driver board
// with active-low inputs, an active-low indicator LED, and a push
// button that reads high through a pull-up while released. The mapping
// is fixed by the pin wiring, never derived at runtime.
const (
	// CoilEnergized drives current through a motor coil.
	CoilEnergized = LevelLow
	// CoilIdle leaves a motor coil de-energized.
	CoilIdle = LevelHigh
	// IndicatorOn lights the indicator LED.
	IndicatorOn = LevelLow
	// IndicatorOff turns the indicator LED off.
	IndicatorOff = LevelHigh
	// ButtonReleased is the level read while the button is not pressed.
	ButtonReleased = LevelHigh
)

// PhaseTable is the single-coil full-step sequence: phase k energizes
// coil k (0-based) and idles the other three. This is deliberately not
// the two-coil overlap sequence; the reference drive uses one coil per
// step.
var PhaseTable = [NumPhases][NumPhases]Level{
	{CoilEnergized, CoilIdle, CoilIdle, CoilIdle},
	{CoilIdle, CoilEnergized, CoilIdle, CoilIdle},
	{CoilIdle, CoilIdle, CoilEnergized, CoilIdle},
	{CoilIdle, CoilIdle, CoilIdle, CoilEnergized},
}

// IdlePattern de-energizes all four coils. Written whenever the motor
// is commanded to stop, so no coil is left heating while stationary.
var IdlePattern = [NumPhases]Level{CoilIdle, CoilIdle, CoilIdle, CoilIdle}

// MotorState is the shared state of the drive. It is owned by the
// lifecycle controller and touched only from the single dispatching
// goroutine, so it needs no locking.
type MotorState struct {
	// IsTurning reports whether motor ticks should advance the coil
	// sequence. Set by the button poller, read by the sequencer.
	IsTurning bool

	// StepIndex is the current phase in [0, NumPhases). Advanced by the
	// sequencer while turning; reset to 0 when the button is released
	// so every press starts the sequence from phase 0.
	StepIndex int
}

// Advance returns the phase to drive for this tick and moves StepIndex
// to the next phase modulo NumPhases.
func (s *MotorState) Advance() int {
	phase := s.StepIndex
	s.StepIndex = (s.StepIndex + 1) % NumPhases
	return phase
}

// MotorSnapshot is an immutable copy of the drive state published to
// observers after each change.
type MotorSnapshot struct {
	IsTurning bool   `json:"is_turning"`
	StepIndex int    `json:"step_index"`
	Steps     uint64 `json:"steps"`
}
