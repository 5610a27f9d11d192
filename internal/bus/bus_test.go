package bus

import (
	"testing"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()

	ch, unsub := b.Subscribe("notifications.", 4)
	defer unsub()

	b.Publish(Event{Topic: "notifications.user-1", Payload: 1})
	b.Publish(Event{Topic: "messages.conv-1", Payload: 2})

	select {
	case evt := <-ch:
		if evt.Topic != "notifications.user-1" {
			t.Errorf("topic = %q, want %q", evt.Topic, "notifications.user-1")
		}
	default:
		t.Fatal("expected a delivered event")
	}

	select {
	case evt := <-ch:
		t.Fatalf("unexpected second event: %+v", evt)
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()

	ch, unsub := b.Subscribe("notifications.", 4)
	unsub()

	b.Publish(Event{Topic: "notifications.user-1"})

	select {
	case evt := <-ch:
		t.Fatalf("event delivered after unsubscribe: %+v", evt)
	default:
	}

	// Double unsubscribe must not panic.
	unsub()
}

func TestFullSubscriberDrops(t *testing.T) {
	b := New()

	ch, unsub := b.Subscribe("n.", 1)
	defer unsub()

	b.Publish(Event{Topic: "n.a"})
	b.Publish(Event{Topic: "n.b"})

	if got := len(ch); got != 1 {
		t.Errorf("buffered events = %d, want 1 (second publish should drop)", got)
	}
}
