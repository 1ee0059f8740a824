package tabbar

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DefaultTheme is used when no theme is configured.
const DefaultTheme = "outrun"

// Theme is the tab bar palette.
type Theme struct {
	Name       string
	BarBG      lipgloss.Color
	ActiveBG   lipgloss.Color
	ActiveFG   lipgloss.Color
	InactiveBG lipgloss.Color
	InactiveFG lipgloss.Color
	SpinnerFG  lipgloss.Color
	MutedFG    lipgloss.Color
}

var themes = map[string]Theme{
	"outrun": {
		Name:       "outrun",
		BarBG:      lipgloss.Color("#200838"),
		ActiveBG:   lipgloss.Color("#00e5ff"),
		ActiveFG:   lipgloss.Color("#0a0d17"),
		InactiveBG: lipgloss.Color("#200838"),
		InactiveFG: lipgloss.Color("#f0f1ff"),
		SpinnerFG:  lipgloss.Color("#6e88ff"),
		MutedFG:    lipgloss.Color("#9aa3b2"),
	},
	"gruvbox": {
		Name:       "gruvbox",
		BarBG:      lipgloss.Color("#3c3836"),
		ActiveBG:   lipgloss.Color("#fabd2f"),
		ActiveFG:   lipgloss.Color("#282828"),
		InactiveBG: lipgloss.Color("#3c3836"),
		InactiveFG: lipgloss.Color("#ebdbb2"),
		SpinnerFG:  lipgloss.Color("#83a598"),
		MutedFG:    lipgloss.Color("#928374"),
	},
	"tokyo-midnight": {
		Name:       "tokyo-midnight",
		BarBG:      lipgloss.Color("#1a1b26"),
		ActiveBG:   lipgloss.Color("#7aa2f7"),
		ActiveFG:   lipgloss.Color("#1a1b26"),
		InactiveBG: lipgloss.Color("#1a1b26"),
		InactiveFG: lipgloss.Color("#c0caf5"),
		SpinnerFG:  lipgloss.Color("#7aa2f7"),
		MutedFG:    lipgloss.Color("#7f85a3"),
	},
}

// ThemeNames returns the supported theme names.
func ThemeNames() []string {
	out := make([]string, 0, len(themes))
	for name := range themes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NormalizeTheme returns a canonical theme name if supported.
func NormalizeTheme(name string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	switch normalized {
	case "":
		return DefaultTheme, true
	case "outrun", "outrun-electric":
		return "outrun", true
	case "gruvbox":
		return "gruvbox", true
	case "tokyo-midnight", "tokyo":
		return "tokyo-midnight", true
	}
	return "", false
}

// ThemeFor returns the named theme, falling back to the default.
func ThemeFor(name string) Theme {
	if normalized, ok := NormalizeTheme(name); ok {
		return themes[normalized]
	}
	return themes[DefaultTheme]
}

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Bar       lipgloss.Style
	Active    lipgloss.Style
	Inactive  lipgloss.Style
	Indicator lipgloss.Style
	Spinner   lipgloss.Style
	Status    lipgloss.Style
}

// NewStyles builds styles for theme on renderer. A nil renderer uses the
// process default, which detects the local terminal.
func NewStyles(renderer *lipgloss.Renderer, theme Theme) Styles {
	if renderer == nil {
		renderer = lipgloss.DefaultRenderer()
	}
	return Styles{
		Bar: renderer.NewStyle().
			Background(theme.BarBG).
			Foreground(theme.InactiveFG),
		Active: renderer.NewStyle().
			Background(theme.ActiveBG).
			Foreground(theme.ActiveFG).
			Bold(true),
		Inactive: renderer.NewStyle().
			Background(theme.InactiveBG).
			Foreground(theme.InactiveFG),
		Indicator: renderer.NewStyle().
			Background(theme.BarBG).
			Foreground(theme.InactiveFG).
			Bold(true),
		Spinner: renderer.NewStyle().
			Foreground(theme.SpinnerFG),
		Status: renderer.NewStyle().
			Foreground(theme.MutedFG),
	}
}
