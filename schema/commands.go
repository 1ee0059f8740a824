package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandName identifies an inbound tab command.
type CommandName string

// User and system commands.
const (
	CommandOpenNewTab     CommandName = "open-new-tab"
	CommandOpenTargetTab  CommandName = "open-target-tab"
	CommandCloseActiveTab CommandName = "close-active-tab"
	CommandCloseTab       CommandName = "close-tab"
	CommandGotoTab        CommandName = "goto-tab"
	CommandNextTab        CommandName = "next-tab"
	CommandPreviousTab    CommandName = "previous-tab"
	CommandSelectTab      CommandName = "select-tab"
	CommandReorderTab     CommandName = "reorder-tab"
)

// Session lifecycle callbacks from the session manager.
const (
	CommandSessionOpened  CommandName = "session-opened"
	CommandSessionClosed  CommandName = "session-closed"
	CommandSessionUpdated CommandName = "session-updated"
)

// Lifecycle reports whether n is a session lifecycle callback. Lifecycle
// callbacks are only accepted from the in-process session manager.
func (n CommandName) Lifecycle() bool {
	switch n {
	case CommandSessionOpened, CommandSessionClosed, CommandSessionUpdated:
		return true
	}
	return false
}

// Command is one event on the inbound command stream.
type Command struct {
	Name     CommandName
	Session  SessionID
	Position Position
	Index    int
	Target   *Target
	Record   *TabRecord
}

// Position addresses a tab by 1-based index or as the last tab.
type Position struct {
	Index int
	Last  bool
}

// LastPosition addresses the last tab in order.
var LastPosition = Position{Last: true}

// PositionAt returns the position for a 1-based index.
func PositionAt(index int) Position {
	return Position{Index: index}
}

// ParsePosition parses a 1-based index or the literal "last".
// Out-of-range indexes parse fine; they miss at lookup time.
func ParsePosition(raw string) (Position, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "last" {
		return LastPosition, nil
	}
	index, err := strconv.Atoi(trimmed)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, raw)
	}
	return PositionAt(index), nil
}

func (p Position) String() string {
	if p.Last {
		return "last"
	}
	return strconv.Itoa(p.Index)
}
