package ports

import "github.com/hwctl/stepperd/internal/domain"

// InputPin is an opened GPIO line configured for reading.
type InputPin interface {
	// Read samples the current line level.
	Read() (domain.Level, error)

	// Close releases the line. The pin must not be used after Close;
	// Close is called at most once per pin.
	Close() error
}

// OutputPin is an opened GPIO line configured for driving.
type OutputPin interface {
	// Write drives the line to the given level. Writing the current
	// level again is valid and has no observable effect.
	Write(domain.Level) error

	// Close releases the line. The pin must not be used after Close;
	// Close is called at most once per pin.
	Close() error
}

// GPIO opens logical pins on the host's GPIO controller. Pin numbers
// follow the controller's native numbering (BCM numbers on a Raspberry
// Pi).
//
// Separate input and output handle types keep a read-only line from
// ever being driven and vice versa.
type GPIO interface {
	// OpenInput configures the pin for reading with the board's
	// default pull (pull-up for the reference button wiring).
	OpenInput(pin int) (InputPin, error)

	// OpenOutput configures the pin for driving and sets it to the
	// given initial level before returning.
	OpenOutput(pin int, initial domain.Level) (OutputPin, error)

	// Close releases the controller itself. Individual pins are closed
	// separately, before the controller.
	Close() error
}
