package ipc

import (
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/tabstrip/internal/logx"
	"pkt.systems/tabstrip/schema"
)

// Inbox is the in-process inbound command stream. Producers post without
// blocking; each subscriber receives every command in posting order.
type Inbox struct {
	mu    sync.Mutex
	subs  map[chan schema.Command]struct{}
	depth int
	log   pslog.Logger
}

// NewInbox constructs an inbox with the given per-subscriber buffer depth.
func NewInbox(depth int, logger pslog.Logger) *Inbox {
	if depth <= 0 {
		depth = schema.DefaultInboxDepth
	}
	return &Inbox{
		subs:  make(map[chan schema.Command]struct{}),
		depth: depth,
		log:   logx.OrDefault(logger),
	}
}

// Subscribe registers a consumer. The returned cancel func closes the channel
// and is safe to call more than once.
func (i *Inbox) Subscribe() (<-chan schema.Command, func()) {
	if i == nil {
		return nil, func() {}
	}
	ch := make(chan schema.Command, i.depth)
	i.mu.Lock()
	i.subs[ch] = struct{}{}
	count := len(i.subs)
	i.mu.Unlock()
	i.log.Debug("inbox subscribe", "subs", count)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			i.mu.Lock()
			delete(i.subs, ch)
			remaining := len(i.subs)
			close(ch)
			i.mu.Unlock()
			i.log.Debug("inbox unsubscribe", "subs", remaining)
		})
	}
}

// Post enqueues cmd for every subscriber. It reports false when nobody is
// subscribed or a subscriber buffer was full.
func (i *Inbox) Post(cmd schema.Command) bool {
	if i == nil {
		return false
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.subs) == 0 {
		logx.WithCommand(i.log, cmd).Warn("inbox post dropped", "reason", "no subscribers")
		return false
	}
	delivered := true
	for sub := range i.subs {
		select {
		case sub <- cmd:
		default:
			delivered = false
		}
	}
	if !delivered {
		logx.WithCommand(i.log, cmd).Warn("inbox post dropped", "reason", "full")
	}
	return delivered
}

// Subscribers returns the number of active subscriptions.
func (i *Inbox) Subscribers() int {
	if i == nil {
		return 0
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.subs)
}
