package domain

import "errors"

// Domain errors represent error conditions in the stepperd domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrInitialization is returned when opening a pin or registering a
	// timer fails during startup. Startup is abandoned and resources
	// opened so far are released best-effort.
	ErrInitialization = errors.New("stepperd: initialization failed")

	// ErrFatalRuntime is returned when the run loop hits an
	// unrecoverable condition (button read failure or event source
	// wait failure). The loop stops; nothing is retried.
	ErrFatalRuntime = errors.New("stepperd: fatal runtime condition")

	// ErrRegistration is returned when a periodic timer cannot be
	// created or armed.
	ErrRegistration = errors.New("stepperd: timer registration failed")

	// ErrInvalidTransition is returned when a lifecycle transition is
	// not allowed from the current state.
	ErrInvalidTransition = errors.New("stepperd: invalid lifecycle transition")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("stepperd: invalid configuration")

	// ErrAlreadyRunning is returned when Run() is called on an instance
	// that has already been started.
	ErrAlreadyRunning = errors.New("stepperd: already running")

	// ErrNotRunning is returned when Stop() is called on an instance
	// that was never started.
	ErrNotRunning = errors.New("stepperd: not running")
)
