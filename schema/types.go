package schema

// SessionID identifies a browsing session. It is unique among live tabs.
type SessionID string

// TargetType distinguishes internal pages from external destinations.
type TargetType string

const (
	// TargetInternal is a page served by the shell itself.
	TargetInternal TargetType = "internal"
	// TargetExternal is an external URL.
	TargetExternal TargetType = "external"
)

// Target is the destination a session displays.
type Target struct {
	Type TargetType `json:"type"`
	Page string     `json:"page,omitempty"`
	URL  string     `json:"url,omitempty"`
}

// TabRecord is the per-tab payload owned by the session manager.
type TabRecord struct {
	SessionID SessionID  `json:"session_id"`
	Target    Target     `json:"target"`
	Title     string     `json:"title"`
	Type      TargetType `json:"type"`
	Icon      string     `json:"icon,omitempty"`
	Loading   bool       `json:"loading"`
}
