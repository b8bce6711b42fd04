package app

import (
	"sync"

	"github.com/hwctl/stepperd/internal/domain"
	"github.com/hwctl/stepperd/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// mockEmitter records lifecycle and motor events for testing.
type mockEmitter struct {
	mu     sync.Mutex
	states []stateChangeEvent
	motor  []domain.MotorSnapshot
}

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

func (m *mockEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, stateChangeEvent{previous, current, reason})
}

func (m *mockEmitter) OnMotor(snapshot domain.MotorSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.motor = append(m.motor, snapshot)
}

func (m *mockEmitter) StateChanges() []stateChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChangeEvent{}, m.states...)
}
