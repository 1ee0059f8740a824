package core

import "pkt.systems/tabstrip/schema"

// EventSink receives order, selection, and tab state notifications from the store.
type EventSink interface {
	OnOrderChanged(event schema.OrderChangedEvent)
	OnActiveChanged(event schema.ActiveChangedEvent)
	OnTabUpdated(event schema.TabUpdatedEvent)
}
