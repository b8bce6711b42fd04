package app

import (
	"fmt"
	"sync"

	"github.com/hwctl/stepperd/internal/domain"
	"github.com/hwctl/stepperd/internal/ports"
)

// State represents the lifecycle state of the drive controller.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateRunning
	StateShuttingDown
	StateTerminated
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateInitializing:
		return "Initializing"
	case StateRunning:
		return "Running"
	case StateShuttingDown:
		return "ShuttingDown"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// EventEmitter receives lifecycle and motor state changes. Implementations
// must be fast; OnMotor is called from the dispatch loop.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
	OnMotor(snapshot domain.MotorSnapshot)
}

// nopEmitter discards all events.
type nopEmitter struct{}

func (nopEmitter) OnStateChange(previous, current State, reason string) {}
func (nopEmitter) OnMotor(snapshot domain.MotorSnapshot)                {}

// Lifecycle manages the state machine for the drive controller.
//
// Valid transitions:
//
//	Uninitialized → Initializing
//	Initializing  → Running | ShuttingDown
//	Running       → ShuttingDown
//	ShuttingDown  → Terminated
type Lifecycle struct {
	mu      sync.RWMutex
	state   State
	logger  ports.Logger
	emitter EventEmitter
}

// NewLifecycle creates a new lifecycle manager in StateUninitialized.
func NewLifecycle(logger ports.Logger, emitter EventEmitter) *Lifecycle {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &Lifecycle{
		state:   StateUninitialized,
		logger:  logger,
		emitter: emitter,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo attempts to transition to a new state.
// Returns domain.ErrInvalidTransition if the transition is not valid.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state

	valid := false
	switch oldState {
	case StateUninitialized:
		valid = newState == StateInitializing
	case StateInitializing:
		valid = newState == StateRunning || newState == StateShuttingDown
	case StateRunning:
		valid = newState == StateShuttingDown
	case StateShuttingDown:
		valid = newState == StateTerminated
	case StateTerminated:
		// Terminal; the process exits from here.
	}
	if !valid {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, oldState, newState)
	}

	l.state = newState
	l.mu.Unlock()

	// Emit event outside of lock
	l.emitter.OnStateChange(oldState, newState, reason)

	l.logger.Info("state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)

	return nil
}
