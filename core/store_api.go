package core

import "pkt.systems/tabstrip/schema"

// TabStore is the tab ordering and selection surface used by routers and renderers.
type TabStore interface {
	Insert(rec schema.TabRecord) error
	InsertAt(rec schema.TabRecord, index int) error
	Remove(id schema.SessionID) (schema.TabRecord, error)
	Update(rec schema.TabRecord) error
	SetActive(id schema.SessionID) error
	MoveTo(id schema.SessionID, index int) error
	Step(offset int) (schema.SessionID, bool)
	Resolve(pos schema.Position) (schema.SessionID, bool)

	Active() schema.SessionID
	Order() []schema.SessionID
	Record(id schema.SessionID) (schema.TabRecord, bool)
	Len() int
	Snapshot() schema.TabBarSnapshot
}

var _ TabStore = (*Store)(nil)
