package schema

import (
	"errors"
	"time"
)

// ServiceConfig defines defaults and limits for the tab core and its collaborators.
type ServiceConfig struct {
	NewTabTarget Target
	InitialTabs  []Target
	InboxDepth   int
	TitleMax     int
	TitleSuffix  string
	LoadDelay    time.Duration
}

// DefaultNewTabTarget is opened by a new tab request without a target.
var DefaultNewTabTarget = Target{Type: TargetInternal, Page: "home"}

// DefaultInboxDepth is the default command stream buffer.
const DefaultInboxDepth = 256

// DefaultTitleMax is the default maximum rendered title length.
const DefaultTitleMax = 24

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	if cfg.NewTabTarget.Type == "" {
		cfg.NewTabTarget = DefaultNewTabTarget
	}
	if cfg.InboxDepth <= 0 {
		cfg.InboxDepth = DefaultInboxDepth
	}
	// Each initial tab posts session-opened and session-updated during Start.
	if need := 2 * len(cfg.InitialTabs); cfg.InboxDepth < need {
		cfg.InboxDepth = need
	}
	if cfg.TitleMax <= 0 {
		cfg.TitleMax = DefaultTitleMax
	}
	if cfg.TitleSuffix == "" {
		cfg.TitleSuffix = "…"
	}
	if cfg.LoadDelay < 0 {
		cfg.LoadDelay = 0
	}
	if cfg.TitleMax <= len([]rune(cfg.TitleSuffix)) {
		return ServiceConfig{}, errors.New("title max must exceed suffix length")
	}
	return cfg, nil
}
