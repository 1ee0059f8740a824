package schema

import (
	"errors"
	"testing"
)

func TestValidateSessionID(t *testing.T) {
	cases := []struct {
		name  string
		id    SessionID
		valid bool
	}{
		{"uuid", "8a3e1c52-0f4b-4d7e-9d1c-2c9b7f0a1e33", true},
		{"short", "a", true},
		{"empty", "", false},
		{"space", "a b", false},
		{"tab", "a\tb", false},
		{"newline", "a\n", false},
	}

	for _, tc := range cases {
		err := ValidateSessionID(tc.id)
		if tc.valid && err != nil {
			t.Fatalf("case %q expected valid, got error: %v", tc.name, err)
		}
		if !tc.valid && err == nil {
			t.Fatalf("case %q expected error, got nil", tc.name)
		}
	}
}

func TestParseTarget(t *testing.T) {
	cases := []struct {
		raw  string
		want Target
	}{
		{"internal:home", Target{Type: TargetInternal, Page: "home"}},
		{"about:Settings", Target{Type: TargetInternal, Page: "settings"}},
		{"https://example.com/a", Target{Type: TargetExternal, URL: "https://example.com/a"}},
		{"example.com", Target{Type: TargetExternal, URL: "https://example.com"}},
		{"http://localhost:8080", Target{Type: TargetExternal, URL: "http://localhost:8080"}},
	}
	for _, tc := range cases {
		got, err := ParseTarget(tc.raw)
		if err != nil {
			t.Fatalf("ParseTarget(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseTarget(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
		again, err := ParseTarget(got.String())
		if err != nil || again != got {
			t.Fatalf("round trip %q: got %+v err %v", got.String(), again, err)
		}
	}
}

func TestParseTargetRejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "internal:", "ftp://example.com", "internal:a b"} {
		if _, err := ParseTarget(raw); !errors.Is(err, ErrInvalidTarget) {
			t.Fatalf("ParseTarget(%q) expected ErrInvalidTarget, got %v", raw, err)
		}
	}
}

func TestParsePosition(t *testing.T) {
	pos, err := ParsePosition("last")
	if err != nil || !pos.Last {
		t.Fatalf("expected last position, got %+v err %v", pos, err)
	}
	pos, err = ParsePosition(" 3 ")
	if err != nil || pos.Last || pos.Index != 3 {
		t.Fatalf("expected index 3, got %+v err %v", pos, err)
	}
	pos, err = ParsePosition("0")
	if err != nil || pos.Index != 0 {
		t.Fatalf("expected index 0 to parse, got %+v err %v", pos, err)
	}
	if _, err := ParsePosition("first"); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestNormalizeServiceConfigDefaults(t *testing.T) {
	cfg, err := NormalizeServiceConfig(ServiceConfig{})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.NewTabTarget.Type != TargetInternal || cfg.NewTabTarget.Page != "home" {
		t.Fatalf("unexpected new tab target: %+v", cfg.NewTabTarget)
	}
	if cfg.InboxDepth != DefaultInboxDepth || cfg.TitleMax != DefaultTitleMax {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if _, err := NormalizeServiceConfig(ServiceConfig{TitleMax: 1, TitleSuffix: "..."}); err == nil {
		t.Fatalf("expected error for title max below suffix length")
	}
}

func TestCommandNameLifecycle(t *testing.T) {
	for _, name := range []CommandName{CommandSessionOpened, CommandSessionClosed, CommandSessionUpdated} {
		if !name.Lifecycle() {
			t.Fatalf("%s should be a lifecycle callback", name)
		}
	}
	for _, name := range []CommandName{CommandOpenNewTab, CommandCloseTab, CommandGotoTab, CommandReorderTab, "launch"} {
		if name.Lifecycle() {
			t.Fatalf("%s should not be a lifecycle callback", name)
		}
	}
}

func TestNormalizeServiceConfigFitsInitialTabsInInbox(t *testing.T) {
	tabs := make([]Target, 300)
	for i := range tabs {
		tabs[i] = DefaultNewTabTarget
	}
	cfg, err := NormalizeServiceConfig(ServiceConfig{InitialTabs: tabs})
	if err != nil {
		t.Fatalf("NormalizeServiceConfig: %v", err)
	}
	if cfg.InboxDepth != 600 {
		t.Fatalf("expected inbox depth 600, got %d", cfg.InboxDepth)
	}
	cfg, err = NormalizeServiceConfig(ServiceConfig{InitialTabs: tabs[:2], InboxDepth: 16})
	if err != nil {
		t.Fatalf("NormalizeServiceConfig: %v", err)
	}
	if cfg.InboxDepth != 16 {
		t.Fatalf("expected configured depth to be kept, got %d", cfg.InboxDepth)
	}
}
