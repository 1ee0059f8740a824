package schema

import "errors"

var (
	// ErrDuplicateSession indicates an insert with a session id that is already open.
	ErrDuplicateSession = errors.New("session already open")
	// ErrTabNotFound indicates a requested tab could not be found.
	ErrTabNotFound = errors.New("tab not found")
	// ErrNoActiveTab indicates an operation needed an active tab and none exists.
	ErrNoActiveTab = errors.New("no active tab")
	// ErrInvalidCommand indicates a malformed or unknown command.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrInvalidPosition indicates a tab position that is neither an index nor "last".
	ErrInvalidPosition = errors.New("invalid tab position")
	// ErrInvalidTarget indicates a target that cannot be opened.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrInvalidSession indicates an empty or malformed session id.
	ErrInvalidSession = errors.New("invalid session id")
)
