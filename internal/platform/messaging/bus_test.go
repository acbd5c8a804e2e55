package messaging

import (
	"context"
	"testing"
	"time"

	"hireloop/internal/shared/events"
)

func TestBusDeliversToSubscriber(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Envelope, 1)
	if err := bus.Subscribe(ctx, "scheduling.meeting-events", "audit", func(_ context.Context, envelope events.Envelope) error {
		received <- envelope
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	envelope := events.Envelope{EventID: "evt-1", EventType: "meeting_requested", EntityID: "meet-1"}
	if err := bus.Publish(context.Background(), "scheduling.meeting-events", envelope); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-received:
		if got.EventID != "evt-1" || got.EventType != "meeting_requested" {
			t.Fatalf("unexpected envelope %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not receive the published envelope")
	}
}

func TestBusTopicsAreIsolated(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Envelope, 1)
	if err := bus.Subscribe(ctx, "scheduling.meeting-events", "audit", func(_ context.Context, envelope events.Envelope) error {
		received <- envelope
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	if err := bus.Publish(context.Background(), "identity.session-events", events.Envelope{EventID: "evt-other"}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-received:
		t.Fatalf("subscriber received envelope %q from a foreign topic", got.EventID)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBusRemovesSubscriberOnCancel(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())

	if err := bus.Subscribe(ctx, "scheduling.meeting-events", "audit", func(context.Context, events.Envelope) error {
		return nil
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for {
		bus.mu.RLock()
		remaining := len(bus.subscribers["scheduling.meeting-events"])
		bus.mu.RUnlock()
		if remaining == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscriber not removed after cancel, %d remaining", remaining)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
