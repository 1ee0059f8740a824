package tabbar

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"pkt.systems/tabstrip/schema"
)

const (
	glyphInternal = "◆"
	glyphExternal = "●"
)

type renderOptions struct {
	TitleMax    int
	TitleSuffix string
	Spinner     string
}

// formatTitle shortens title to max runes, ending with suffix when cut.
func formatTitle(title string, max int, suffix string) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(strings.TrimSpace(title))
	if len(runes) <= max {
		return string(runes)
	}
	keep := max - len([]rune(suffix))
	if keep <= 0 {
		return string(runes[:max])
	}
	return string(runes[:keep]) + suffix
}

// tabGlyph is the spinner frame while loading, else a type marker.
func tabGlyph(tab schema.TabSnapshot, spinnerFrame string) string {
	if tab.Loading && spinnerFrame != "" {
		return spinnerFrame
	}
	if tab.Type == schema.TargetExternal {
		return glyphExternal
	}
	return glyphInternal
}

func tabLabel(tab schema.TabSnapshot, opts renderOptions) string {
	title := tab.Title
	if strings.TrimSpace(title) == "" {
		title = string(tab.SessionID)
	}
	return " " + tabGlyph(tab, opts.Spinner) + " " + formatTitle(title, opts.TitleMax, opts.TitleSuffix) + " "
}

// renderBar renders the strip at exactly width cells and returns the window
// start to carry into the next render.
func renderBar(snapshot schema.TabBarSnapshot, width int, styles Styles, opts renderOptions, windowStart int) (string, int) {
	if width <= 0 {
		width = 80
	}
	var b strings.Builder
	if len(snapshot.Tabs) == 0 {
		b.WriteString(styles.Inactive.Render(" no tabs "))
		return finishLine(b.String(), width, styles), 0
	}

	labels := make([]string, len(snapshot.Tabs))
	widths := make([]int, len(snapshot.Tabs))
	activeIndex := 0
	for i, tab := range snapshot.Tabs {
		labels[i] = tabLabel(tab, opts)
		widths[i] = lipgloss.Width(labels[i])
		if tab.SessionID == snapshot.Active {
			activeIndex = i
		}
	}
	window := fitWindow(widths, activeIndex, windowStart, width)
	if window.leftHidden {
		b.WriteString(styles.Indicator.Render("<"))
	}
	for i := window.start; i < window.end; i++ {
		if snapshot.Tabs[i].SessionID == snapshot.Active {
			b.WriteString(styles.Active.Render(labels[i]))
		} else {
			b.WriteString(styles.Inactive.Render(labels[i]))
		}
	}
	if !window.rightHidden {
		return finishLine(b.String(), width, styles), window.start
	}
	line := truncate(b.String(), width-1)
	if pad := width - 1 - lipgloss.Width(line); pad > 0 {
		line += styles.Bar.Render(strings.Repeat(" ", pad))
	}
	return line + styles.Indicator.Render(">"), window.start
}

func finishLine(line string, width int, styles Styles) string {
	line = truncate(line, width)
	if pad := width - lipgloss.Width(line); pad > 0 {
		line += styles.Bar.Render(strings.Repeat(" ", pad))
	}
	return line
}

func truncate(line string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(line) <= width {
		return line
	}
	return lipgloss.NewStyle().Inline(true).MaxWidth(width).Render(line)
}
