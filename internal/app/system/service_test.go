package system

import (
	"context"
	"fmt"
	"testing"
)

type recordedService struct {
	name     string
	events   *[]string
	startErr error
	stopErr  error
}

func (s recordedService) Name() string { return s.name }

func (s recordedService) Start(context.Context) error {
	*s.events = append(*s.events, "start:"+s.name)
	return s.startErr
}

func (s recordedService) Stop(context.Context) error {
	*s.events = append(*s.events, "stop:"+s.name)
	return s.stopErr
}

func TestManagerStartStopOrder(t *testing.T) {
	var events []string
	m := NewManager()
	for _, name := range []string{"a", "b", "c"} {
		if err := m.Register(recordedService{name: name, events: &events}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start:a", "start:b", "start:c", "stop:c", "stop:b", "stop:a"}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, events)
		}
	}
}

func TestManagerRejectsDuplicateNames(t *testing.T) {
	var events []string
	m := NewManager()
	if err := m.Register(recordedService{name: "a", events: &events}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := m.Register(recordedService{name: "a", events: &events}); err == nil {
		t.Fatal("expected error for duplicate name")
	}
}

func TestManagerRollsBackOnStartFailure(t *testing.T) {
	var events []string
	m := NewManager()
	_ = m.Register(recordedService{name: "a", events: &events})
	_ = m.Register(recordedService{name: "b", events: &events, startErr: fmt.Errorf("boom")})
	_ = m.Register(recordedService{name: "c", events: &events})

	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected start failure")
	}

	want := []string{"start:a", "start:b", "stop:a"}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, events)
		}
	}
}

func TestManagerRegisterAfterStart(t *testing.T) {
	var events []string
	m := NewManager()
	_ = m.Register(recordedService{name: "a", events: &events})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Register(recordedService{name: "b", events: &events}); err == nil {
		t.Fatal("expected error registering after start")
	}
}

func TestManagerStartTwiceIsNoop(t *testing.T) {
	var events []string
	m := NewManager()
	_ = m.Register(recordedService{name: "a", events: &events})
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected a single start event, got %v", events)
	}
}
