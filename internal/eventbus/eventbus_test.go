package eventbus

import (
	"testing"
	"time"

	"github.com/proxysheets/proxycore/internal/events"
)

func TestPublish_SingleWakeupPerBurst(t *testing.T) {
	b := New()
	sub := b.Subscribe()

	for i := 0; i < 5; i++ {
		b.Publish(events.Event{Kind: events.Cached, URL: "u"})
	}

	select {
	case <-sub.Wake():
	case <-time.After(time.Second):
		t.Fatal("expected a pending wakeup")
	}

	// A second wakeup must not be pending: the burst coalesced into one.
	select {
	case <-sub.Wake():
		t.Fatal("expected no second pending wakeup before Drain")
	default:
	}

	batch, overflowed := sub.Drain()
	if overflowed {
		t.Error("did not expect overflow")
	}
	if len(batch) != 5 {
		t.Fatalf("expected 5 batched events, got %d", len(batch))
	}
}

func TestDrain_EmptyWhenNothingPublished(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	batch, overflowed := sub.Drain()
	if len(batch) != 0 || overflowed {
		t.Fatalf("expected empty drain, got %v, %v", batch, overflowed)
	}
}

func TestOverflow_DropsOldestAndMarksOverflow(t *testing.T) {
	b := New()
	sub := b.Subscribe()

	for i := 0; i < MaxQueueDepth+10; i++ {
		b.Publish(events.Event{Kind: events.Cached, URL: "u"})
	}

	batch, overflowed := sub.Drain()
	if !overflowed {
		t.Fatal("expected overflow to be reported")
	}
	if len(batch) != MaxQueueDepth {
		t.Fatalf("expected queue capped at %d, got %d", MaxQueueDepth, len(batch))
	}
}

func TestMultipleSubscribers_EachGetOwnQueue(t *testing.T) {
	b := New()
	s1 := b.Subscribe()
	s2 := b.Subscribe()

	b.Publish(events.Event{Kind: events.Cached, URL: "u1"})

	b1, _ := s1.Drain()
	b2, _ := s2.Drain()
	if len(b1) != 1 || len(b2) != 1 {
		t.Fatalf("expected both subscribers to receive the event, got %d and %d", len(b1), len(b2))
	}
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	b := New()
	s1 := b.Subscribe()
	s1.Unsubscribe()

	b.Publish(events.Event{Kind: events.Cached, URL: "u1"})

	batch, _ := s1.Drain()
	if len(batch) != 0 {
		t.Fatalf("expected no events after unsubscribe, got %d", len(batch))
	}
}
