package sessions

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"pkt.systems/pslog"
	"pkt.systems/tabstrip/internal/logx"
	"pkt.systems/tabstrip/schema"
)

// ErrDropped indicates a lifecycle event could not be queued.
var ErrDropped = errors.New("session event dropped")

// ErrClosed indicates the manager no longer accepts requests.
var ErrClosed = errors.New("session manager closed")

// Poster queues lifecycle events on the inbound command stream.
type Poster interface {
	Post(cmd schema.Command) bool
}

// Config controls session creation.
type Config struct {
	NewTabTarget schema.Target
	LoadDelay    time.Duration
	Logger       pslog.Logger
}

// Manager is an in-memory session lifecycle. Open and close requests are
// answered asynchronously with session-opened, session-updated and
// session-closed commands.
type Manager struct {
	cfg    Config
	poster Poster
	log    pslog.Logger
	newID  func() schema.SessionID

	mu       sync.Mutex
	sessions map[schema.SessionID]schema.TabRecord
	timers   map[schema.SessionID]*time.Timer
	closed   bool
}

// NewManager constructs a session manager that reports through poster.
func NewManager(cfg Config, poster Poster) *Manager {
	if cfg.NewTabTarget.Type == "" {
		cfg.NewTabTarget = schema.DefaultNewTabTarget
	}
	return &Manager{
		cfg:      cfg,
		poster:   poster,
		log:      logx.OrDefault(cfg.Logger),
		newID:    func() schema.SessionID { return schema.SessionID(uuid.NewString()) },
		sessions: make(map[schema.SessionID]schema.TabRecord),
		timers:   make(map[schema.SessionID]*time.Timer),
	}
}

// RequestOpen starts a session for target, or the new-tab target when nil.
func (m *Manager) RequestOpen(ctx context.Context, target *schema.Target) error {
	dest := m.cfg.NewTabTarget
	if target != nil {
		dest = *target
	}
	id := m.newID()
	rec := schema.TabRecord{
		SessionID: id,
		Target:    dest,
		Title:     TitleFor(dest),
		Type:      dest.Type,
		Icon:      IconFor(dest),
		Loading:   true,
	}
	log := logx.WithSession(pslog.Ctx(ctx), id)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.sessions[id] = rec
	opened := rec
	if !m.poster.Post(schema.Command{Name: schema.CommandSessionOpened, Session: id, Record: &opened}) {
		delete(m.sessions, id)
		m.mu.Unlock()
		log.Warn("session open dropped")
		return ErrDropped
	}
	if m.cfg.LoadDelay > 0 {
		m.timers[id] = time.AfterFunc(m.cfg.LoadDelay, func() { m.finishLoad(id) })
		m.mu.Unlock()
	} else {
		m.mu.Unlock()
		m.finishLoad(id)
	}
	log.Info("session opened", "target", dest.String())
	return nil
}

// RequestClose ends a session. Unknown ids are still reported as closed so
// tabs opened by external session sources can be closed too.
func (m *Manager) RequestClose(ctx context.Context, id schema.SessionID) error {
	if err := schema.ValidateSessionID(id); err != nil {
		return err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if timer := m.timers[id]; timer != nil {
		timer.Stop()
		delete(m.timers, id)
	}
	delete(m.sessions, id)
	ok := m.poster.Post(schema.Command{Name: schema.CommandSessionClosed, Session: id})
	m.mu.Unlock()

	log := logx.WithSessionCtx(ctx, id)
	if !ok {
		log.Warn("session close dropped")
		return ErrDropped
	}
	log.Info("session closed")
	return nil
}

// Open returns the number of sessions opened and not yet closed.
func (m *Manager) Open() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops pending loads and rejects further requests.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for id, timer := range m.timers {
		timer.Stop()
		delete(m.timers, id)
	}
}

func (m *Manager) finishLoad(id schema.SessionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.timers, id)
	rec, ok := m.sessions[id]
	if !ok || m.closed {
		return
	}
	rec.Loading = false
	m.sessions[id] = rec
	updated := rec
	if !m.poster.Post(schema.Command{Name: schema.CommandSessionUpdated, Session: id, Record: &updated}) {
		logx.WithSession(m.log, id).Warn("session load update dropped")
		return
	}
	logx.WithSession(m.log, id).Debug("session loaded")
}

// TitleFor derives a tab title: the page name for internal targets, the host
// for external ones.
func TitleFor(target schema.Target) string {
	if target.Type == schema.TargetInternal {
		if target.Page == "" {
			return "New Tab"
		}
		return target.Page
	}
	parsed, err := url.Parse(target.URL)
	if err != nil || parsed.Hostname() == "" {
		return target.URL
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

// IconFor returns the favicon location for external targets.
func IconFor(target schema.Target) string {
	if target.Type != schema.TargetExternal {
		return ""
	}
	parsed, err := url.Parse(target.URL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return (&url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: "/favicon.ico"}).String()
}
