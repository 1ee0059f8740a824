package schema

// TabSnapshot is a read-only view of one tab for renderers.
type TabSnapshot struct {
	SessionID SessionID  `json:"session_id"`
	Title     string     `json:"title"`
	Type      TargetType `json:"type"`
	Icon      string     `json:"icon,omitempty"`
	Loading   bool       `json:"loading"`
	Active    bool       `json:"active"`
	Position  int        `json:"position"`
}

// TabBarSnapshot is the ordered tab list plus the active session.
type TabBarSnapshot struct {
	Tabs   []TabSnapshot `json:"tabs"`
	Active SessionID     `json:"active,omitempty"`
}

// SnapshotOf builds the render view of a record at position.
func SnapshotOf(rec TabRecord, position int, active bool) TabSnapshot {
	return TabSnapshot{
		SessionID: rec.SessionID,
		Title:     rec.Title,
		Type:      rec.Type,
		Icon:      rec.Icon,
		Loading:   rec.Loading,
		Active:    active,
		Position:  position,
	}
}

// Find returns the snapshot for id.
func (s TabBarSnapshot) Find(id SessionID) (TabSnapshot, bool) {
	for _, tab := range s.Tabs {
		if tab.SessionID == id {
			return tab, true
		}
	}
	return TabSnapshot{}, false
}
