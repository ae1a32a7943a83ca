// Package events defines the image-cache change event shared by the
// image cache (the producer) and the event bus (the distributor).
package events

import "time"

// Kind classifies an image-cache mutation.
type Kind int

const (
	// Cached marks a successful image cache write.
	Cached Kind = iota
	// Removed marks an eviction or explicit removal.
	Removed
)

// Event is a single image-cache change notification.
type Event struct {
	Kind      Kind
	URL       string
	Timestamp time.Time
}

// Publisher is implemented by anything that can emit cache-mutation
// events. The image cache depends on this interface, not the concrete
// event bus, so the two packages don't form an import cycle.
type Publisher interface {
	Publish(Event)
}
