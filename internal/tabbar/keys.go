package tabbar

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the tab bar keybindings.
type KeyMap struct {
	NewTab      key.Binding
	CloseActive key.Binding
	CloseTab    key.Binding
	Goto        key.Binding
	GotoLast    key.Binding
	Next        key.Binding
	Previous    key.Binding
	Left        key.Binding
	Right       key.Binding
	MoveLeft    key.Binding
	MoveRight   key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default keybindings.
var DefaultKeyMap = KeyMap{
	NewTab: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("C-t", "new tab"),
	),
	CloseActive: key.NewBinding(
		key.WithKeys("ctrl+w"),
		key.WithHelp("C-w", "close tab"),
	),
	CloseTab: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "close selected"),
	),
	Goto: key.NewBinding(
		key.WithKeys("alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6", "alt+7", "alt+8"),
		key.WithHelp("M-1..8", "go to tab"),
	),
	GotoLast: key.NewBinding(
		key.WithKeys("alt+9"),
		key.WithHelp("M-9", "last tab"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab", "ctrl+pgdown"),
		key.WithHelp("tab", "next"),
	),
	Previous: key.NewBinding(
		key.WithKeys("shift+tab", "ctrl+pgup"),
		key.WithHelp("S-tab", "previous"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/→", "select"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("←/→", "select"),
	),
	MoveLeft: key.NewBinding(
		key.WithKeys("<"),
		key.WithHelp("</>", "move tab"),
	),
	MoveRight: key.NewBinding(
		key.WithKeys(">"),
		key.WithHelp("</>", "move tab"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NewTab, k.CloseActive, k.Next, k.Left, k.MoveLeft, k.Goto, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NewTab, k.CloseActive, k.CloseTab},
		{k.Next, k.Previous, k.Left, k.Right},
		{k.Goto, k.GotoLast, k.MoveLeft, k.MoveRight},
		{k.Quit},
	}
}
