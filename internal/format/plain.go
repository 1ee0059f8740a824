package format

import (
	"fmt"
	"strings"

	"pkt.systems/tabstrip/schema"
)

// PlainRenderer formats tab bar snapshots as plain text lines.
type PlainRenderer struct {
	TitleMax    int
	TitleSuffix string
}

// NewPlainRenderer returns a renderer using the default title limits.
func NewPlainRenderer() *PlainRenderer {
	return &PlainRenderer{TitleMax: schema.DefaultTitleMax, TitleSuffix: "…"}
}

// FormatSnapshot renders one line per tab in order. The active tab is marked
// with "*", positions are 1-based to match goto-tab.
func (p *PlainRenderer) FormatSnapshot(snapshot schema.TabBarSnapshot) []string {
	if len(snapshot.Tabs) == 0 {
		return []string{"no tabs"}
	}
	lines := make([]string, 0, len(snapshot.Tabs))
	for i, tab := range snapshot.Tabs {
		marker := " "
		if tab.Active || tab.SessionID == snapshot.Active {
			marker = "*"
		}
		line := fmt.Sprintf("%s %2d  %s", marker, i+1, p.title(tab.Title))
		var tags []string
		if tab.Type != "" {
			tags = append(tags, string(tab.Type))
		}
		if tab.Loading {
			tags = append(tags, "loading")
		}
		if len(tags) > 0 {
			line += "  [" + strings.Join(tags, ", ") + "]"
		}
		lines = append(lines, line+"  "+string(tab.SessionID))
	}
	return lines
}

func (p *PlainRenderer) title(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		value = "untitled"
	}
	runes := []rune(value)
	if p.TitleMax <= 0 || len(runes) <= p.TitleMax {
		return value
	}
	suffix := []rune(p.TitleSuffix)
	keep := p.TitleMax - len(suffix)
	if keep < 1 {
		return string(runes[:p.TitleMax])
	}
	return string(runes[:keep]) + p.TitleSuffix
}
