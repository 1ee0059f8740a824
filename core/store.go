package core

import (
	"fmt"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/tabstrip/internal/logx"
	"pkt.systems/tabstrip/schema"
)

// Store is the authoritative tab order and active selection.
//
// Every mutation leaves the order sequence and the record map with identical
// membership, and keeps exactly one active tab while the set is non-empty.
// Failed mutations change nothing. Notifications are delivered after the
// lock is released and only for state that actually changed.
type Store struct {
	sink   EventSink
	logger pslog.Logger
	mu     sync.Mutex
	tabs   map[schema.SessionID]*tab
	order  []schema.SessionID
	active schema.SessionID
}

// NewStore constructs an empty tab store.
func NewStore(deps StoreDeps) *Store {
	return &Store{
		sink:   deps.EventSink,
		logger: logx.OrDefault(deps.Logger),
		tabs:   make(map[schema.SessionID]*tab),
	}
}

// pending collects notifications while the lock is held.
type pending struct {
	order  *schema.OrderChangedEvent
	active *schema.ActiveChangedEvent
	update *schema.TabUpdatedEvent
}

// Insert appends a tab at the end of the order.
func (s *Store) Insert(rec schema.TabRecord) error {
	return s.insert(rec, -1)
}

// InsertAt inserts a tab at index, clamped to [0, len].
func (s *Store) InsertAt(rec schema.TabRecord, index int) error {
	if index < 0 {
		index = 0
	}
	return s.insert(rec, index)
}

func (s *Store) insert(rec schema.TabRecord, index int) error {
	if err := schema.ValidateSessionID(rec.SessionID); err != nil {
		return err
	}
	log := logx.WithSession(s.logger, rec.SessionID)

	s.mu.Lock()
	if _, ok := s.tabs[rec.SessionID]; ok {
		s.mu.Unlock()
		log.Error("store tab insert rejected", "err", schema.ErrDuplicateSession)
		return fmt.Errorf("%w: %s", schema.ErrDuplicateSession, rec.SessionID)
	}
	if index < 0 {
		index = len(s.order)
	}
	index = clampIndex(index, len(s.order))
	s.tabs[rec.SessionID] = newTab(rec)
	s.order = insertAt(s.order, index, rec.SessionID)
	var out pending
	if s.active == "" {
		out.active = s.setActiveLocked(rec.SessionID)
	}
	out.order = s.orderEventLocked(schema.OrderInserted, rec.SessionID)
	count := len(s.order)
	s.mu.Unlock()

	s.emit(out)
	log.Debug("store tab inserted", "position", index, "count", count)
	return nil
}

// Remove drops a tab and its record. When the removed tab was active, focus
// moves to the tab that now occupies the same position, else to the new last
// tab, else to nothing.
func (s *Store) Remove(id schema.SessionID) (schema.TabRecord, error) {
	log := logx.WithSession(s.logger, id)

	s.mu.Lock()
	t := s.tabs[id]
	index := indexOf(s.order, id)
	if t == nil || index == -1 {
		s.mu.Unlock()
		log.Debug("store tab remove failed", "err", schema.ErrTabNotFound)
		return schema.TabRecord{}, fmt.Errorf("%w: %s", schema.ErrTabNotFound, id)
	}
	delete(s.tabs, id)
	s.order = removeAt(s.order, index)
	var out pending
	if s.active == id {
		next := schema.SessionID("")
		if i := replacementIndex(index, len(s.order)); i >= 0 {
			next = s.order[i]
		}
		out.active = s.setActiveLocked(next)
	}
	out.order = s.orderEventLocked(schema.OrderRemoved, id)
	active := s.active
	count := len(s.order)
	s.mu.Unlock()

	s.emit(out)
	log.Debug("store tab removed", "position", index, "count", count, "active", active)
	return t.record, nil
}

// Update replaces the session state (title, icon, loading, target) of an open tab.
func (s *Store) Update(rec schema.TabRecord) error {
	s.mu.Lock()
	t := s.tabs[rec.SessionID]
	if t == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", schema.ErrTabNotFound, rec.SessionID)
	}
	var out pending
	if t.apply(rec) {
		snapshot := t.Snapshot(indexOf(s.order, rec.SessionID), s.active == rec.SessionID)
		out.update = &schema.TabUpdatedEvent{Tab: snapshot}
	}
	s.mu.Unlock()

	s.emit(out)
	if out.update != nil {
		logx.WithSession(s.logger, rec.SessionID).Trace("store tab updated", "loading", rec.Loading)
	}
	return nil
}

// SetActive marks id as the active tab. Selecting the active tab again succeeds without notifying.
func (s *Store) SetActive(id schema.SessionID) error {
	s.mu.Lock()
	if _, ok := s.tabs[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", schema.ErrTabNotFound, id)
	}
	out := pending{active: s.setActiveLocked(id)}
	s.mu.Unlock()

	s.emit(out)
	if out.active != nil {
		logx.WithSession(s.logger, id).Debug("store tab activated", "previous", out.active.Previous)
	}
	return nil
}

// MoveTo relocates id to index, clamped to [0, len-1]. Other tabs keep their
// relative order and the active selection is unchanged.
func (s *Store) MoveTo(id schema.SessionID, index int) error {
	s.mu.Lock()
	from := indexOf(s.order, id)
	if from == -1 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", schema.ErrTabNotFound, id)
	}
	to := clampIndex(index, len(s.order)-1)
	var out pending
	if from != to {
		s.order = moveTo(s.order, from, to)
		out.order = s.orderEventLocked(schema.OrderMoved, id)
	}
	s.mu.Unlock()

	s.emit(out)
	if out.order != nil {
		logx.WithSession(s.logger, id).Debug("store tab moved", "from", from, "to", to)
	}
	return nil
}

// Step moves the active selection by offset with wraparound and returns the
// newly active id. It misses when there is no active tab.
func (s *Store) Step(offset int) (schema.SessionID, bool) {
	s.mu.Lock()
	current := indexOf(s.order, s.active)
	if s.active == "" || current == -1 {
		s.mu.Unlock()
		return "", false
	}
	next := s.order[cyclicIndex(current, offset, len(s.order))]
	out := pending{active: s.setActiveLocked(next)}
	s.mu.Unlock()

	s.emit(out)
	return next, true
}

// Resolve returns the id at a 1-based position or the last id. It misses on
// out-of-range positions and on an empty set.
func (s *Store) Resolve(pos schema.Position) (schema.SessionID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return "", false
	}
	if pos.Last {
		return s.order[len(s.order)-1], true
	}
	if pos.Index < 1 || pos.Index > len(s.order) {
		return "", false
	}
	return s.order[pos.Index-1], true
}

// Active returns the active session id, or empty when no tabs are open.
func (s *Store) Active() schema.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Order returns a copy of the order sequence.
func (s *Store) Order() []schema.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.SessionID(nil), s.order...)
}

// Record returns the record for id.
func (s *Store) Record(id schema.SessionID) (schema.TabRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tabs[id]
	if t == nil {
		return schema.TabRecord{}, false
	}
	return t.record, true
}

// Len returns the number of open tabs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Snapshot returns the ordered tab list and active id.
func (s *Store) Snapshot() schema.TabBarSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schema.TabBarSnapshot{
		Tabs:   s.snapshotsLocked(),
		Active: s.active,
	}
}

func (s *Store) setActiveLocked(id schema.SessionID) *schema.ActiveChangedEvent {
	if s.active == id {
		return nil
	}
	event := &schema.ActiveChangedEvent{Previous: s.active, Active: id}
	s.active = id
	return event
}

func (s *Store) orderEventLocked(reason schema.OrderReason, id schema.SessionID) *schema.OrderChangedEvent {
	return &schema.OrderChangedEvent{
		Reason:  reason,
		Session: id,
		Order:   append([]schema.SessionID(nil), s.order...),
		Tabs:    s.snapshotsLocked(),
	}
}

func (s *Store) snapshotsLocked() []schema.TabSnapshot {
	tabs := make([]schema.TabSnapshot, 0, len(s.order))
	for i, id := range s.order {
		t := s.tabs[id]
		if t == nil {
			continue
		}
		tabs = append(tabs, t.Snapshot(i, id == s.active))
	}
	return tabs
}

func (s *Store) emit(out pending) {
	if s.sink == nil {
		return
	}
	if out.order != nil {
		s.sink.OnOrderChanged(*out.order)
	}
	if out.active != nil {
		s.sink.OnActiveChanged(*out.active)
	}
	if out.update != nil {
		s.sink.OnTabUpdated(*out.update)
	}
}
