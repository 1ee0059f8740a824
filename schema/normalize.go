package schema

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// ParseTarget parses a destination such as "internal:home", "about:blank",
// or "https://example.com". A bare host is treated as an https URL.
func ParseTarget(raw string) (Target, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Target{}, ErrInvalidTarget
	}
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"internal:", "about:"} {
		if strings.HasPrefix(lower, prefix) {
			page := strings.TrimSpace(trimmed[len(prefix):])
			if page == "" || strings.ContainsAny(page, " \t/") {
				return Target{}, fmt.Errorf("%w: %q", ErrInvalidTarget, raw)
			}
			return Target{Type: TargetInternal, Page: strings.ToLower(page)}, nil
		}
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidTarget, raw)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return Target{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidTarget, parsed.Scheme)
	}
	return Target{Type: TargetExternal, URL: parsed.String()}, nil
}

// String renders the target in the form accepted by ParseTarget.
func (t Target) String() string {
	if t.Type == TargetInternal {
		return "internal:" + t.Page
	}
	return t.URL
}

// ValidateSessionID ensures a session id is non-empty and has no whitespace or control characters.
func ValidateSessionID(id SessionID) error {
	raw := string(id)
	if raw == "" {
		return ErrInvalidSession
	}
	for _, r := range raw {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return ErrInvalidSession
		}
	}
	return nil
}
