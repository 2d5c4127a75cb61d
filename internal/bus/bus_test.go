package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("connection.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindConnectionUpdate, Instance: "main", Timestamp: time.Now(), Payload: "test"})

	select {
	case evt := <-ch:
		if evt.Kind != KindConnectionUpdate {
			t.Errorf("got kind %q, want %q", evt.Kind, KindConnectionUpdate)
		}
		if evt.Instance != "main" {
			t.Errorf("got instance %q, want main", evt.Instance)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestEmitStampsTimestamp(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("messages.", 1)
	defer unsub()

	b.Emit(KindMessagesUpsert, "main", "payload")

	select {
	case evt := <-ch:
		if evt.Timestamp.IsZero() {
			t.Error("emitted event has zero timestamp")
		}
		if evt.Instance != "main" || evt.Payload != "payload" {
			t.Errorf("event = %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("wa.", 10)
	defer unsub()

	b.Publish(Event{Kind: KindMessagesUpsert})
	b.Publish(Event{Kind: KindWAMessage})

	select {
	case evt := <-ch:
		if evt.Kind != KindWAMessage {
			t.Errorf("got kind %q, want %q", evt.Kind, KindWAMessage)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// Ensure the domain event was not delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// Expected: no more events.
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("messages.", 10)
	unsub()

	b.Publish(Event{Kind: KindMessagesUpsert})

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// Expected.
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("test.", 1)
	defer unsub()

	// Fill buffer.
	b.Publish(Event{Kind: "test.one"})
	// This should be dropped (non-blocking).
	b.Publish(Event{Kind: "test.two"})

	evt := <-ch
	if evt.Kind != "test.one" {
		t.Errorf("got %q, want test.one", evt.Kind)
	}
}
