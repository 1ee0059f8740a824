package httpapi

import (
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/tabstrip/internal/logx"
	"pkt.systems/tabstrip/schema"
)

// Stream event types.
const (
	StreamSnapshot = "snapshot"
	StreamOrder    = "order"
	StreamActive   = "active"
	StreamTab      = "tab"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq       uint64                 `json:"seq"`
	Type      string                 `json:"type"`
	Reason    schema.OrderReason     `json:"reason,omitempty"`
	Session   schema.SessionID       `json:"session,omitempty"`
	Order     []schema.SessionID     `json:"order,omitempty"`
	Tabs      []schema.TabSnapshot   `json:"tabs,omitempty"`
	Previous  schema.SessionID       `json:"previous,omitempty"`
	Active    schema.SessionID       `json:"active,omitempty"`
	Tab       *schema.TabSnapshot    `json:"tab,omitempty"`
	Snapshot  *schema.TabBarSnapshot `json:"snapshot,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Hub numbers store notifications, keeps a bounded history for replay, and
// broadcasts them to stream subscribers.
type Hub struct {
	mu          sync.Mutex
	seq         uint64
	history     []StreamEvent
	subs        map[chan StreamEvent]struct{}
	historySize int
	log         pslog.Logger
	now         func() time.Time
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int, logger pslog.Logger) *Hub {
	if historySize <= 0 {
		historySize = 1000
	}
	return &Hub{
		subs:        make(map[chan StreamEvent]struct{}),
		historySize: historySize,
		log:         logx.OrDefault(logger),
		now:         time.Now,
	}
}

// OnOrderChanged implements core.EventSink.
func (h *Hub) OnOrderChanged(event schema.OrderChangedEvent) {
	h.log.Trace("hub order event", "reason", event.Reason, "session", event.Session, "count", len(event.Order))
	h.publish(StreamEvent{
		Type:    StreamOrder,
		Reason:  event.Reason,
		Session: event.Session,
		Order:   event.Order,
		Tabs:    event.Tabs,
	})
}

// OnActiveChanged implements core.EventSink.
func (h *Hub) OnActiveChanged(event schema.ActiveChangedEvent) {
	h.log.Trace("hub active event", "previous", event.Previous, "active", event.Active)
	h.publish(StreamEvent{
		Type:     StreamActive,
		Previous: event.Previous,
		Active:   event.Active,
	})
}

// OnTabUpdated implements core.EventSink.
func (h *Hub) OnTabUpdated(event schema.TabUpdatedEvent) {
	h.log.Trace("hub tab event", "session", event.Tab.SessionID, "loading", event.Tab.Loading)
	tab := event.Tab
	h.publish(StreamEvent{
		Type:    StreamTab,
		Session: tab.SessionID,
		Tab:     &tab,
	})
}

// Subscribe registers a subscriber. It returns the sequence number of the
// last event published before the subscription; every event delivered on the
// channel has a higher sequence number.
func (h *Hub) Subscribe() (<-chan StreamEvent, func(), uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan StreamEvent, 256)
	h.subs[ch] = struct{}{}
	seq := h.seq
	h.log.Info("hub subscribe", "subs", len(h.subs), "seq", seq)
	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			remaining := len(h.subs)
			h.mu.Unlock()
			h.log.Info("hub unsubscribe", "subs", remaining)
		})
	}
	return ch, unsub, seq
}

// Replay returns retained events with after < seq <= upTo.
func (h *Hub) Replay(after, upTo uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := make([]StreamEvent, 0, len(h.history))
	for _, event := range h.history {
		if event.Seq > after && event.Seq <= upTo {
			events = append(events, event)
		}
	}
	h.log.Debug("hub replay", "after", after, "count", len(events))
	return events
}

// Seq returns the sequence number of the last published event.
func (h *Hub) Seq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

func (h *Hub) publish(event StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	event.Seq = h.seq
	event.Timestamp = h.now()
	h.history = append(h.history, event)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}
	dropped := 0
	for sub := range h.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.log.Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}
