package core

import (
	"pkt.systems/tabstrip/schema"
)

// tab tracks the state of a single open session.
type tab struct {
	record schema.TabRecord
}

func newTab(rec schema.TabRecord) *tab {
	if rec.Type == "" {
		rec.Type = rec.Target.Type
	}
	return &tab{record: rec}
}

// Snapshot returns a renderer-friendly view of the tab.
func (t *tab) Snapshot(position int, active bool) schema.TabSnapshot {
	return schema.SnapshotOf(t.record, position, active)
}

// apply replaces the mutable session state and reports whether anything changed.
// The session id is fixed for the lifetime of the tab.
func (t *tab) apply(rec schema.TabRecord) bool {
	rec.SessionID = t.record.SessionID
	if rec.Type == "" {
		rec.Type = rec.Target.Type
	}
	if rec.Type == "" {
		rec.Type = t.record.Type
	}
	if rec.Target.Type == "" {
		rec.Target = t.record.Target
	}
	if rec == t.record {
		return false
	}
	t.record = rec
	return true
}
