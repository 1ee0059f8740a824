package eventbus

import (
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/tabstrip/internal/logx"
	"pkt.systems/tabstrip/schema"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventOrder carries order or membership changes.
	EventOrder EventType = "order"
	// EventActive carries active selection changes.
	EventActive EventType = "active"
	// EventTab carries in-place tab state updates.
	EventTab EventType = "tab"
)

// Event represents a renderer-facing notification emitted by the tab store.
type Event struct {
	Type   EventType
	Order  schema.OrderChangedEvent
	Active schema.ActiveChangedEvent
	Tab    schema.TabUpdatedEvent
}

// Bus fans out store notifications to subscribers.
type Bus struct {
	mu    sync.Mutex
	subs  map[chan Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	return &Bus{
		subs:  make(map[chan Event]struct{}),
		log:   logx.OrDefault(logger),
		depth: 256,
	}
}

// Subscribe registers a subscriber and returns its channel and a cancel func.
// Cancel is safe to call more than once.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()
	b.log.Debug("eventbus subscribe", "subs", count)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			remaining := len(b.subs)
			b.mu.Unlock()
			close(ch)
			b.log.Debug("eventbus unsubscribe", "subs", remaining)
		})
	}
}

// OnOrderChanged publishes an order event.
func (b *Bus) OnOrderChanged(event schema.OrderChangedEvent) {
	b.publish(Event{Type: EventOrder, Order: event})
}

// OnActiveChanged publishes an active selection event.
func (b *Bus) OnActiveChanged(event schema.ActiveChangedEvent) {
	b.publish(Event{Type: EventActive, Active: event})
}

// OnTabUpdated publishes a tab state event.
func (b *Bus) OnTabUpdated(event schema.TabUpdatedEvent) {
	b.publish(Event{Type: EventTab, Tab: event})
}

func (b *Bus) publish(event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.subs) == 0 {
		return
	}
	dropped := 0
	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.log.Trace("eventbus dropped", "type", event.Type, "count", dropped)
	}
}
