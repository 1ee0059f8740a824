package tabbar

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"pkt.systems/tabstrip/schema"
)

func TestFormatTitle(t *testing.T) {
	cases := []struct {
		title  string
		max    int
		suffix string
		want   string
	}{
		{"short", 10, "…", "short"},
		{"exactly-ten", 11, "…", "exactly-ten"},
		{"a very long title", 8, "…", "a very …"},
		{"a very long title", 8, "...", "a ver..."},
		{"  padded  ", 10, "…", "padded"},
		{"abc", 0, "…", ""},
	}
	for _, tc := range cases {
		if got := formatTitle(tc.title, tc.max, tc.suffix); got != tc.want {
			t.Fatalf("formatTitle(%q, %d, %q) = %q, want %q", tc.title, tc.max, tc.suffix, got, tc.want)
		}
	}
}

func TestTabGlyph(t *testing.T) {
	if got := tabGlyph(schema.TabSnapshot{Loading: true}, "*"); got != "*" {
		t.Fatalf("expected spinner frame while loading, got %q", got)
	}
	if got := tabGlyph(schema.TabSnapshot{Type: schema.TargetExternal}, "*"); got != glyphExternal {
		t.Fatalf("expected external glyph, got %q", got)
	}
	if got := tabGlyph(schema.TabSnapshot{Type: schema.TargetInternal}, "*"); got != glyphInternal {
		t.Fatalf("expected internal glyph, got %q", got)
	}
}

func testStyles() Styles {
	return NewStyles(lipgloss.DefaultRenderer(), ThemeFor("outrun"))
}

func TestRenderBarFullWidth(t *testing.T) {
	snapshot := schema.TabBarSnapshot{
		Tabs: []schema.TabSnapshot{
			{SessionID: "a", Title: "alpha", Active: true},
			{SessionID: "b", Title: "beta"},
		},
		Active: "a",
	}
	line, start := renderBar(snapshot, 40, testStyles(), renderOptions{TitleMax: 10, TitleSuffix: "…"}, 0)
	if got := lipgloss.Width(line); got != 40 {
		t.Fatalf("expected width 40, got %d", got)
	}
	if start != 0 {
		t.Fatalf("expected window start 0, got %d", start)
	}
	if !strings.Contains(line, "alpha") || !strings.Contains(line, "beta") {
		t.Fatalf("expected both titles in %q", line)
	}
}

func TestRenderBarEmpty(t *testing.T) {
	line, _ := renderBar(schema.TabBarSnapshot{}, 20, testStyles(), renderOptions{TitleMax: 10}, 3)
	if !strings.Contains(line, "no tabs") {
		t.Fatalf("expected empty marker, got %q", line)
	}
	if got := lipgloss.Width(line); got != 20 {
		t.Fatalf("expected width 20, got %d", got)
	}
}

func TestRenderBarIndicators(t *testing.T) {
	var tabs []schema.TabSnapshot
	for _, id := range []schema.SessionID{"one", "two", "three", "four", "five"} {
		tabs = append(tabs, schema.TabSnapshot{SessionID: id, Title: string(id)})
	}
	opts := renderOptions{TitleMax: 10, TitleSuffix: "…"}

	line, _ := renderBar(schema.TabBarSnapshot{Tabs: tabs, Active: "one"}, 24, testStyles(), opts, 0)
	if strings.Contains(line, "<") || !strings.Contains(line, ">") {
		t.Fatalf("expected only right indicator, got %q", line)
	}
	if got := lipgloss.Width(line); got != 24 {
		t.Fatalf("expected width 24, got %d", got)
	}

	line, start := renderBar(schema.TabBarSnapshot{Tabs: tabs, Active: "five"}, 24, testStyles(), opts, 0)
	if !strings.Contains(line, "<") || strings.Contains(line, ">") {
		t.Fatalf("expected only left indicator, got %q", line)
	}
	if start == 0 {
		t.Fatalf("expected window to shift for last tab")
	}
	if !strings.Contains(line, "five") {
		t.Fatalf("expected active tab visible, got %q", line)
	}
}
