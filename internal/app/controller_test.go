package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hwctl/stepperd/internal/adapters/simgpio"
	"github.com/hwctl/stepperd/internal/domain"
)

func testConfig() Config {
	return Config{
		ButtonPin:          testButtonPin,
		IndicatorPin:       testIndicatorPin,
		CoilPins:           testCoilPins,
		ButtonPollInterval: time.Millisecond,
		StepInterval:       2 * time.Millisecond,
	}
}

func TestController_GracefulShutdown(t *testing.T) {
	g := simgpio.New()
	c := NewController(testConfig(), g, mockLogger{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	// Let the loop dispatch a few ticks, then request termination.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil on termination request", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after termination request")
	}

	if c.State() != StateTerminated {
		t.Errorf("state = %v, want Terminated", c.State())
	}
	for _, pin := range []int{testButtonPin, testIndicatorPin, testCoilPins[0], testCoilPins[1], testCoilPins[2], testCoilPins[3]} {
		if g.Opened(pin) {
			t.Errorf("pin %d still open after shutdown", pin)
		}
	}
}

func TestController_PressAndReleaseDrivesCoils(t *testing.T) {
	g := simgpio.New()
	c := NewController(testConfig(), g, mockLogger{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	waitFor := func(cond func() bool, msg string) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if cond() {
				return
			}
			time.Sleep(time.Millisecond)
		}
		t.Fatal(msg)
	}

	waitFor(func() bool { return c.State() == StateRunning }, "controller never reached Running")

	// Press: the indicator comes on and some coil energizes.
	g.SetLevel(testButtonPin, domain.LevelLow)
	waitFor(func() bool { return g.OutputLevel(testIndicatorPin) == domain.IndicatorOn },
		"indicator never came on after press")
	waitFor(func() bool {
		for _, pin := range testCoilPins {
			if g.OutputLevel(pin) == domain.CoilEnergized {
				return true
			}
		}
		return false
	}, "no coil energized while turning")

	// Release: the indicator goes off and all coils idle.
	g.SetLevel(testButtonPin, domain.ButtonReleased)
	waitFor(func() bool { return g.OutputLevel(testIndicatorPin) == domain.IndicatorOff },
		"indicator never went off after release")
	waitFor(func() bool {
		for _, pin := range testCoilPins {
			if g.OutputLevel(pin) == domain.CoilEnergized {
				return false
			}
		}
		return true
	}, "coils still energized after release")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return")
	}
}

func TestController_ButtonReadFailureStopsLoop(t *testing.T) {
	// Scenario D: a button read failure terminates the run loop.
	g := simgpio.New()
	g.FailRead(testButtonPin, errors.New("bus fault"))
	c := NewController(testConfig(), g, mockLogger{}, nil)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, domain.ErrFatalRuntime) {
			t.Errorf("Run() = %v, want ErrFatalRuntime", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not terminate on button read failure")
	}

	if c.State() != StateTerminated {
		t.Errorf("state = %v, want Terminated", c.State())
	}
}

func TestController_InitFailureReleasesOpenedPins(t *testing.T) {
	g := simgpio.New()
	// The third coil pin refuses to open; everything opened before it
	// must still be released.
	g.FailOpen(testCoilPins[2], errors.New("pin claimed"))
	c := NewController(testConfig(), g, mockLogger{}, nil)

	err := c.Run(context.Background())
	if !errors.Is(err, domain.ErrInitialization) {
		t.Fatalf("Run() = %v, want ErrInitialization", err)
	}
	if c.State() != StateTerminated {
		t.Errorf("state = %v, want Terminated", c.State())
	}

	for _, pin := range []int{testButtonPin, testIndicatorPin, testCoilPins[0], testCoilPins[1]} {
		if g.Opened(pin) {
			t.Errorf("pin %d still open after failed init", pin)
		}
	}
}

func TestController_TeardownContinuesPastCloseFailure(t *testing.T) {
	g := simgpio.New()
	// The first coil's close fails; the rest must still be released.
	g.FailClose(testCoilPins[0], errors.New("stuck"))
	c := NewController(testConfig(), g, mockLogger{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil (teardown errors are logged, not propagated)", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return")
	}

	for _, pin := range []int{testButtonPin, testIndicatorPin, testCoilPins[1], testCoilPins[2], testCoilPins[3]} {
		if g.Opened(pin) {
			t.Errorf("pin %d still open after teardown", pin)
		}
	}
}

func TestController_CoilsIdleAfterShutdown(t *testing.T) {
	g := simgpio.New()
	c := NewController(testConfig(), g, mockLogger{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	// Keep the button pressed so coils are energized when termination hits.
	g.SetLevel(testButtonPin, domain.LevelLow)
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return")
	}

	for i, pin := range testCoilPins {
		if g.OutputLevel(pin) != domain.CoilIdle {
			t.Errorf("coil %d left at %v after shutdown, want idle", i+1, g.OutputLevel(pin))
		}
	}
}
