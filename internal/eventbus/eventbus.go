// Package eventbus implements the process-wide image-cache event bus:
// edge-triggered wakeup, a bounded per-subscriber queue, burst
// coalescing, and an overflow marker on queue saturation.
package eventbus

import (
	"sync"

	"github.com/proxysheets/proxycore/internal/events"
)

// MaxQueueDepth is the bound past which a subscriber's undrained queue
// starts dropping the oldest events in favor of a single overflow
// marker.
const MaxQueueDepth = 1024

// Bus is a publisher of image-cache change events. It implements
// events.Publisher.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
}

type subscriber struct {
	mu         sync.Mutex
	queue      []events.Event
	overflowed bool
	wake       chan struct{} // capacity 1: the edge-triggered wakeup signal
}

// New constructs an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Subscription is a registered listener's handle: Wake fires once per
// dispatch cycle regardless of how many events batched into it; Drain
// empties the queue for this subscriber.
type Subscription struct {
	bus *Bus
	id  int
}

// Subscribe registers a new subscriber and returns its handle.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = &subscriber{wake: make(chan struct{}, 1)}
	return &Subscription{bus: b, id: id}
}

// Unsubscribe removes a subscriber.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs, s.id)
}

// Wake returns the channel the subscriber should select on. A single
// pending signal represents "there is at least one batch to drain";
// repeated publishes before the subscriber drains do not queue
// additional wakeups (the bus coalesces bursts).
func (s *Subscription) Wake() <-chan struct{} {
	s.bus.mu.Lock()
	sub, ok := s.bus.subs[s.id]
	s.bus.mu.Unlock()
	if !ok {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return sub.wake
}

// Drain empties and returns the subscriber's queue. An overflow is
// represented by the queue having been truncated and the returned
// overflowed flag being true; the flag is reset by this Drain.
func (s *Subscription) Drain() (batch []events.Event, overflowed bool) {
	s.bus.mu.Lock()
	sub, ok := s.bus.subs[s.id]
	s.bus.mu.Unlock()
	if !ok {
		return nil, false
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	batch = sub.queue
	overflowed = sub.overflowed
	sub.queue = nil
	sub.overflowed = false
	return batch, overflowed
}

// Publish dispatches e to every registered subscriber. Events for the
// same URL are observed in the order they occurred; across URLs,
// observed order matches the wall-clock of the triggering operation.
// Each subscriber's queue is independent.
func (b *Bus) Publish(e events.Event) {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(e)
	}
}

func (s *subscriber) deliver(e events.Event) {
	s.mu.Lock()
	if len(s.queue) >= MaxQueueDepth {
		// Drop the oldest event to make room; a single overflow marker
		// is delivered on the next Drain instead of every dropped event.
		s.queue = s.queue[1:]
		s.overflowed = true
	}
	s.queue = append(s.queue, e)
	s.mu.Unlock()

	// Edge-triggered, coalescing wakeup: a non-blocking send means a
	// subscriber that hasn't drained yet sees exactly one pending signal
	// no matter how many events batched into it.
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
