package httpapi

import (
	"testing"

	"pkt.systems/tabstrip/core"
	"pkt.systems/tabstrip/schema"
)

func tabRecord(id schema.SessionID) schema.TabRecord {
	return schema.TabRecord{
		SessionID: id,
		Target:    schema.Target{Type: schema.TargetInternal, Page: "home"},
		Title:     string(id),
		Type:      schema.TargetInternal,
	}
}

func TestHubNumbersStoreEvents(t *testing.T) {
	hub := NewHub(10, nil)
	store := core.NewStore(core.StoreDeps{EventSink: hub})
	ch, unsubscribe, seq := hub.Subscribe()
	defer unsubscribe()
	if seq != 0 {
		t.Fatalf("expected empty hub seq 0, got %d", seq)
	}
	if err := store.Insert(tabRecord("A")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	first := <-ch
	second := <-ch
	if first.Type != StreamOrder || first.Reason != schema.OrderInserted || first.Seq != 1 {
		t.Fatalf("unexpected first event: %+v", first)
	}
	if second.Type != StreamActive || second.Active != "A" || second.Seq != 2 {
		t.Fatalf("unexpected second event: %+v", second)
	}
	if hub.Seq() != 2 {
		t.Fatalf("expected seq 2, got %d", hub.Seq())
	}
}

func TestHubReplayWindow(t *testing.T) {
	hub := NewHub(3, nil)
	for i := 0; i < 5; i++ {
		hub.OnActiveChanged(schema.ActiveChangedEvent{Active: schema.SessionID("s")})
	}
	events := hub.Replay(0, hub.Seq())
	if len(events) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(events))
	}
	if events[0].Seq != 3 || events[2].Seq != 5 {
		t.Fatalf("unexpected retained range: %d..%d", events[0].Seq, events[2].Seq)
	}
	events = hub.Replay(3, 4)
	if len(events) != 1 || events[0].Seq != 4 {
		t.Fatalf("expected only seq 4, got %+v", events)
	}
}

func TestHubTabUpdatedCarriesSnapshot(t *testing.T) {
	hub := NewHub(0, nil)
	ch, unsubscribe, _ := hub.Subscribe()
	defer unsubscribe()
	hub.OnTabUpdated(schema.TabUpdatedEvent{Tab: schema.TabSnapshot{SessionID: "s1", Title: "docs", Loading: false}})
	event := <-ch
	if event.Type != StreamTab || event.Session != "s1" || event.Tab == nil || event.Tab.Title != "docs" {
		t.Fatalf("unexpected tab event: %+v", event)
	}
}

func TestHubUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(0, nil)
	ch, unsubscribe, _ := hub.Subscribe()
	unsubscribe()
	unsubscribe()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	hub.OnActiveChanged(schema.ActiveChangedEvent{Active: "s1"})
}
