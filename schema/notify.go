package schema

// OrderReason describes why the order sequence changed.
type OrderReason string

const (
	// OrderInserted indicates a tab was added.
	OrderInserted OrderReason = "inserted"
	// OrderRemoved indicates a tab was removed.
	OrderRemoved OrderReason = "removed"
	// OrderMoved indicates a tab changed position.
	OrderMoved OrderReason = "moved"
)

// OrderChangedEvent reports a change to order or membership.
type OrderChangedEvent struct {
	Reason  OrderReason   `json:"reason"`
	Session SessionID     `json:"session_id"`
	Order   []SessionID   `json:"order"`
	Tabs    []TabSnapshot `json:"tabs"`
}

// ActiveChangedEvent reports a change of the active pointer.
// Active is empty when the tab set became empty.
type ActiveChangedEvent struct {
	Previous SessionID `json:"previous,omitempty"`
	Active   SessionID `json:"active,omitempty"`
}

// TabUpdatedEvent reports an in-place change of a tab's title, icon, or loading state.
type TabUpdatedEvent struct {
	Tab TabSnapshot `json:"tab"`
}
