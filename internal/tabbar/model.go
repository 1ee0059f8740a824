package tabbar

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"pkt.systems/tabstrip/internal/eventbus"
	"pkt.systems/tabstrip/schema"
)

// Source provides the current tab bar state.
type Source interface {
	Snapshot() schema.TabBarSnapshot
}

// Events provides store change notifications.
type Events interface {
	Subscribe() (<-chan eventbus.Event, func())
}

// Poster queues commands on the inbound stream.
type Poster interface {
	Post(cmd schema.Command) bool
}

// Config controls rendering.
type Config struct {
	Theme       string
	TitleMax    int
	TitleSuffix string
	HideHelp    bool
	Renderer    *lipgloss.Renderer
}

type storeChangedMsg struct {
	event eventbus.Event
	ok    bool
}

// Model is the bubbletea model for the tab bar. It never mutates tab state
// itself: key presses become commands on the inbound stream and the view
// follows store notifications.
type Model struct {
	cfg         Config
	keys        KeyMap
	styles      Styles
	source      Source
	poster      Poster
	events      <-chan eventbus.Event
	snapshot    schema.TabBarSnapshot
	spinner     spinner.Model
	help        help.Model
	width       int
	windowStart int
	status      string
}

// New constructs a tab bar model.
func New(cfg Config, source Source, events <-chan eventbus.Event, poster Poster) Model {
	if cfg.TitleMax <= 0 {
		cfg.TitleMax = schema.DefaultTitleMax
	}
	if cfg.TitleSuffix == "" {
		cfg.TitleSuffix = "…"
	}
	styles := NewStyles(cfg.Renderer, ThemeFor(cfg.Theme))
	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	m := Model{
		cfg:     cfg,
		keys:    DefaultKeyMap,
		styles:  styles,
		source:  source,
		poster:  poster,
		events:  events,
		spinner: sp,
		help:    help.New(),
		width:   80,
	}
	if source != nil {
		m.snapshot = source.Snapshot()
	}
	m.relayout()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForChange(m.events))
}

func waitForChange(events <-chan eventbus.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-events
		return storeChangedMsg{event: event, ok: ok}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case storeChangedMsg:
		if !msg.ok {
			return m, nil
		}
		if m.source != nil {
			m.snapshot = m.source.Snapshot()
		}
		m.relayout()
		return m, waitForChange(m.events)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.relayout()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	active := m.snapshot.Active
	index := m.activeIndex()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NewTab):
		m.post(schema.Command{Name: schema.CommandOpenNewTab})
	case key.Matches(msg, m.keys.CloseActive):
		m.post(schema.Command{Name: schema.CommandCloseActiveTab})
	case key.Matches(msg, m.keys.CloseTab):
		if active != "" {
			m.post(schema.Command{Name: schema.CommandCloseTab, Session: active})
		}
	case key.Matches(msg, m.keys.GotoLast):
		m.post(schema.Command{Name: schema.CommandGotoTab, Position: schema.LastPosition})
	case key.Matches(msg, m.keys.Goto):
		n, err := strconv.Atoi(strings.TrimPrefix(msg.String(), "alt+"))
		if err == nil {
			m.post(schema.Command{Name: schema.CommandGotoTab, Position: schema.PositionAt(n)})
		}
	case key.Matches(msg, m.keys.Next):
		m.post(schema.Command{Name: schema.CommandNextTab})
	case key.Matches(msg, m.keys.Previous):
		m.post(schema.Command{Name: schema.CommandPreviousTab})
	case key.Matches(msg, m.keys.Left):
		if index > 0 {
			m.post(schema.Command{Name: schema.CommandSelectTab, Session: m.snapshot.Tabs[index-1].SessionID})
		}
	case key.Matches(msg, m.keys.Right):
		if index >= 0 && index+1 < len(m.snapshot.Tabs) {
			m.post(schema.Command{Name: schema.CommandSelectTab, Session: m.snapshot.Tabs[index+1].SessionID})
		}
	case key.Matches(msg, m.keys.MoveLeft):
		if index > 0 {
			m.post(schema.Command{Name: schema.CommandReorderTab, Session: active, Index: index - 1})
		}
	case key.Matches(msg, m.keys.MoveRight):
		if index >= 0 && index+1 < len(m.snapshot.Tabs) {
			m.post(schema.Command{Name: schema.CommandReorderTab, Session: active, Index: index + 1})
		}
	}
	return m, nil
}

func (m *Model) post(cmd schema.Command) {
	if m.poster == nil || !m.poster.Post(cmd) {
		m.status = fmt.Sprintf("%s dropped", cmd.Name)
		return
	}
	m.status = ""
}

// relayout updates the window start so the active tab stays visible.
func (m *Model) relayout() {
	_, m.windowStart = renderBar(m.snapshot, m.width, m.styles, m.renderOptions(), m.windowStart)
}

func (m Model) activeIndex() int {
	for i, tab := range m.snapshot.Tabs {
		if tab.SessionID == m.snapshot.Active {
			return i
		}
	}
	return -1
}

// View implements tea.Model.
func (m Model) View() string {
	bar, _ := renderBar(m.snapshot, m.width, m.styles, m.renderOptions(), m.windowStart)
	lines := []string{bar, m.statusLine()}
	if !m.cfg.HideHelp {
		lines = append(lines, m.help.View(m.keys))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderOptions() renderOptions {
	return renderOptions{
		TitleMax:    m.cfg.TitleMax,
		TitleSuffix: m.cfg.TitleSuffix,
		Spinner:     m.spinner.View(),
	}
}

func (m Model) statusLine() string {
	if m.status != "" {
		return m.styles.Status.Render(m.status)
	}
	loading := 0
	for _, tab := range m.snapshot.Tabs {
		if tab.Loading {
			loading++
		}
	}
	text := fmt.Sprintf("%d tabs", len(m.snapshot.Tabs))
	if loading > 0 {
		return m.styles.Spinner.Render(m.spinner.View()) + m.styles.Status.Render(fmt.Sprintf(" %s, %d loading", text, loading))
	}
	return m.styles.Status.Render(text)
}

// Run runs the tab bar until the user quits or ctx ends.
func Run(ctx context.Context, cfg Config, source Source, bus Events, poster Poster, opts ...tea.ProgramOption) error {
	if bus == nil {
		return errors.New("tab bar requires an event source")
	}
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()
	model := New(cfg, source, events, poster)
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(model, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
