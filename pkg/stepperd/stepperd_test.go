package stepperd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hwctl/stepperd/internal/adapters/simgpio"
	"github.com/hwctl/stepperd/internal/domain"
)

func simConfig() Config {
	cfg := DefaultConfig()
	cfg.Driver = "sim"
	cfg.ButtonPollInterval = time.Millisecond
	cfg.StepInterval = 2 * time.Millisecond
	return cfg
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := simConfig()
	cfg.Driver = "bogus"

	if _, err := New(cfg); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("New() = %v, want ErrInvalidConfig", err)
	}
}

func TestRun_GracefulOnCancel(t *testing.T) {
	d, err := New(simConfig())
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil on cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if d.State() != "Terminated" {
		t.Errorf("State() = %q, want Terminated", d.State())
	}
}

func TestRun_OnlyOnce(t *testing.T) {
	d, err := New(simConfig())
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)

	if err := d.Run(ctx); !errors.Is(err, domain.ErrAlreadyRunning) {
		t.Errorf("second Run() = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	<-done
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func TestStop_BeforeRun(t *testing.T) {
	d, err := New(simConfig())
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	if err := d.Stop(); !errors.Is(err, domain.ErrNotRunning) {
		t.Errorf("Stop() before Run = %v, want ErrNotRunning", err)
	}
}

func TestStop_ShutsDownRunningDrive(t *testing.T) {
	d, err := New(simConfig())
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()
	waitUntil(t, 2*time.Second, func() bool { return d.State() == "Running" }, "drive running")

	if err := d.Stop(); err != nil {
		t.Fatalf("Stop() = %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil after Stop", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after Stop")
	}

	if d.State() != "Terminated" {
		t.Errorf("State() = %q, want Terminated", d.State())
	}
	// Stopping an already-stopped drive is a no-op.
	if err := d.Stop(); err != nil {
		t.Errorf("second Stop() = %v, want nil", err)
	}
}

func TestStatus_TracksMotor(t *testing.T) {
	cfg := simConfig()
	g := simgpio.New()
	d, err := New(cfg, WithGPIO(g))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	if got := d.Status().State; got != "Uninitialized" {
		t.Errorf("Status().State before Run = %q, want Uninitialized", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	waitUntil(t, 2*time.Second, func() bool { return d.Status().State == "Running" }, "drive running")

	g.SetLevel(cfg.ButtonPin, domain.LevelLow) // press
	waitUntil(t, 2*time.Second, func() bool {
		s := d.Status()
		return s.IsTurning && s.Steps > 0
	}, "motor turning with steps counted")

	g.SetLevel(cfg.ButtonPin, domain.LevelHigh) // release
	waitUntil(t, 2*time.Second, func() bool {
		s := d.Status()
		return !s.IsTurning && s.StepIndex == 0
	}, "release resetting the sequence")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return")
	}

	if got := d.Status(); got.State != "Terminated" || got.Steps == 0 {
		t.Errorf("final Status() = %+v, want Terminated with steps preserved", got)
	}
}

func TestRun_InjectedGPIONotClosed(t *testing.T) {
	g := simgpio.New()
	d, err := New(simConfig(), WithGPIO(g))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return")
	}

	// The injected controller still accepts opens: Run released the
	// pins but left the controller itself to its owner.
	if _, err := g.OpenInput(2); err != nil {
		t.Errorf("injected gpio unusable after Run: %v", err)
	}
}
