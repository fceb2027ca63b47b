package events

// Kind is the type of change produced by the discussion store.
type Kind string

const (
	DiscussionCreated Kind = "discussion_created"
	DiscussionUpdated Kind = "discussion_updated"
	DiscussionDeleted Kind = "discussion_deleted"
)

// Event describes one mutation of the discussions collection. Only the id is
// carried; consumers reload the full record set from the store.
type Event struct {
	Kind         Kind
	DiscussionID string
}

// Bus is a lightweight in-process pub-sub implementation backed by a buffered
// channel. One consumer (the snapshot hub) drains it; producers never block.
type Bus struct {
	ch chan Event
}

// NewBus creates a bus with the given buffer size.
func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan Event, buffer)}
}

// Publish attempts to enqueue the event without blocking.
// Returns true if published, false if the buffer is full.
func (b *Bus) Publish(evt Event) bool {
	select {
	case b.ch <- evt:
		return true
	default:
		return false
	}
}

// Subscribe returns a read-only channel for the consumer.
func (b *Bus) Subscribe() <-chan Event {
	return b.ch
}
