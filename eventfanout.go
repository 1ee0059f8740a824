package tabstrip

import (
	"pkt.systems/pslog"
	"pkt.systems/tabstrip/core"
	"pkt.systems/tabstrip/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnOrderChanged(event schema.OrderChangedEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnOrderChanged(event)
	}
}

func (f eventFanout) OnActiveChanged(event schema.ActiveChangedEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnActiveChanged(event)
	}
}

func (f eventFanout) OnTabUpdated(event schema.TabUpdatedEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnTabUpdated(event)
	}
}

// loggingSink records store notifications at debug level.
type loggingSink struct {
	log pslog.Logger
}

func (s loggingSink) OnOrderChanged(event schema.OrderChangedEvent) {
	s.log.Debug("tabs order changed", "reason", event.Reason, "session", event.Session, "count", len(event.Order))
}

func (s loggingSink) OnActiveChanged(event schema.ActiveChangedEvent) {
	s.log.Debug("tabs active changed", "previous", event.Previous, "active", event.Active)
}

func (s loggingSink) OnTabUpdated(event schema.TabUpdatedEvent) {
	s.log.Trace("tabs tab updated", "session", event.Tab.SessionID, "title", event.Tab.Title, "loading", event.Tab.Loading)
}
