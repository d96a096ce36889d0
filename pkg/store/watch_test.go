package store

import (
	"context"
	"testing"
	"time"

	"tableflip.dev/studyplan/pkg/planner"
)

func TestPersistenceWatchEmitsStateChanges(t *testing.T) {
	p, err := Load(Dir(t.TempDir()))
	if err != nil {
		t.Fatalf("load persistence: %v", err)
	}
	// Create the state directory up front so its writes are attributed.
	if err := p.SaveState("u1", planner.Default()); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := p.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Allow watcher goroutine to subscribe to directories before storing.
	time.Sleep(50 * time.Millisecond)

	if err := p.SaveState("u1", planner.Default().SetGoal(90)); err != nil {
		t.Fatalf("save state: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Type == EventInvalidated {
				return
			}
			if uid, ok := evt.UserID(); ok {
				if uid != "u1" {
					t.Fatalf("expected user 'u1', got %q", uid)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for state change event")
		}
	}
}

func TestEventThrottleCoalesces(t *testing.T) {
	th := newEventThrottle(20 * time.Millisecond)
	defer th.Stop()

	got := make(chan Event, 8)
	send := func(ev Event) { got <- ev }
	for i := 0; i < 5; i++ {
		th.Enqueue(Event{Type: EventKeyChanged, Key: "state/u1"}, send)
	}

	select {
	case ev := <-got:
		if ev.Key != "state/u1" {
			t.Fatalf("unexpected key %q", ev.Key)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for flush")
	}
	select {
	case ev := <-got:
		t.Fatalf("expected a single event, got extra %+v", ev)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestEventThrottleInvalidatesFirst(t *testing.T) {
	th := newEventThrottle(10 * time.Millisecond)
	defer th.Stop()

	got := make(chan Event, 8)
	send := func(ev Event) { got <- ev }
	th.Enqueue(Event{Type: EventKeyChanged, Key: "state/a"}, send)
	th.Enqueue(Event{Type: EventKeyChanged, Key: "theme"}, send)
	th.Enqueue(Event{Type: EventInvalidated}, send)
	th.Enqueue(Event{Type: EventKeyChanged, Key: "state/a"}, send)

	var evs []Event
	for len(evs) < 3 {
		select {
		case ev := <-got:
			evs = append(evs, ev)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d events", len(evs))
		}
	}
	if evs[0].Type != EventInvalidated {
		t.Fatalf("expected invalidation first, got %+v", evs[0])
	}
	if evs[1].Key != "state/a" || evs[2].Key != "theme" {
		t.Fatalf("unexpected keys %+v", evs[1:])
	}
}
