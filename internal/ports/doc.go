// Package ports defines the interfaces (ports) that connect the
// application layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the
// boundaries between the application core and the outside world. They
// define what the application needs from external systems without
// specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [GPIO]: Opens input and output pins on the host's GPIO controller
//   - [InputPin], [OutputPin]: Read and drive a single opened line
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/app, internal/sched) depends only on
// these interfaces. Infrastructure adapters (internal/adapters)
// implement them with concrete implementations (periph.io, go-rpio,
// in-memory simulator, zerolog).
package ports
