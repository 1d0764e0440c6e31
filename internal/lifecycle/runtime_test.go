package lifecycle

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type testComponent struct {
	name      string
	startErr  error
	stopErr   error
	events    *[]string
	startCall int
	stopCall  int
}

func (c *testComponent) Start(context.Context) error {
	c.startCall++
	*c.events = append(*c.events, "start:"+c.name)
	return c.startErr
}

func (c *testComponent) Stop(context.Context) error {
	c.stopCall++
	*c.events = append(*c.events, "stop:"+c.name)
	return c.stopErr
}

func newRuntime(components ...*testComponent) *Runtime {
	r := NewRuntime()
	for _, c := range components {
		r.Register(c.name, c)
	}
	return r
}

func TestRuntimeStartStopOrder(t *testing.T) {
	t.Parallel()

	var events []string
	runtime := newRuntime(
		&testComponent{name: "metrics", events: &events},
		&testComponent{name: "admin", events: &events},
		&testComponent{name: "poller", events: &events},
	)
	if err := runtime.Start(context.Background()); err != nil {
		t.Fatalf("start runtime: %v", err)
	}
	if err := runtime.Stop(context.Background()); err != nil {
		t.Fatalf("stop runtime: %v", err)
	}

	expected := []string{
		"start:metrics", "start:admin", "start:poller",
		"stop:poller", "stop:admin", "stop:metrics",
	}
	if !reflect.DeepEqual(events, expected) {
		t.Fatalf("unexpected order: got %v want %v", events, expected)
	}

	// A second stop has nothing left to stop.
	if err := runtime.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if len(events) != len(expected) {
		t.Fatalf("components stopped twice: %v", events)
	}
}

func TestRuntimeStartFailureStopsStartedComponents(t *testing.T) {
	t.Parallel()

	var events []string
	startErr := errors.New("address already in use")
	c1 := &testComponent{name: "admin", events: &events}
	c2 := &testComponent{name: "metrics", events: &events, startErr: startErr}
	c3 := &testComponent{name: "poller", events: &events}

	err := newRuntime(c1, c2, c3).Start(context.Background())
	if !errors.Is(err, startErr) || !strings.Contains(err.Error(), "start metrics") {
		t.Fatalf("unexpected start error: %v", err)
	}
	if c1.stopCall != 1 || c2.stopCall != 0 || c3.startCall != 0 {
		t.Fatalf("unexpected calls: c1.stop=%d c2.stop=%d c3.start=%d", c1.stopCall, c2.stopCall, c3.startCall)
	}
	expected := []string{"start:admin", "start:metrics", "stop:admin"}
	if !reflect.DeepEqual(events, expected) {
		t.Fatalf("unexpected events: %v", events)
	}
}

func TestRuntimeStopJoinsErrors(t *testing.T) {
	t.Parallel()

	var events []string
	errA := errors.New("a")
	errB := errors.New("b")
	runtime := newRuntime(
		&testComponent{name: "one", events: &events, stopErr: errA},
		&testComponent{name: "two", events: &events, stopErr: errB},
	)
	if err := runtime.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	err := runtime.Stop(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected both stop errors, got %v", err)
	}
}

func TestRegisterIgnoresNil(t *testing.T) {
	t.Parallel()

	r := NewRuntime()
	r.Register("nothing", nil)
	if len(r.components) != 0 {
		t.Fatalf("nil component registered")
	}
}
