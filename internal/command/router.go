package command

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/tabstrip/core"
	"pkt.systems/tabstrip/internal/logx"
	"pkt.systems/tabstrip/schema"
)

// Stream is an inbound command source.
type Stream interface {
	Subscribe() (<-chan schema.Command, func())
}

// SessionLifecycle creates and destroys browsing sessions. Results are
// reported back asynchronously as session-opened and session-closed commands.
type SessionLifecycle interface {
	RequestOpen(ctx context.Context, target *schema.Target) error
	RequestClose(ctx context.Context, id schema.SessionID) error
}

// RouterConfig configures command routing.
type RouterConfig struct {
	Logger              pslog.Logger
	DisableAuditLogging bool
}

// Router maps inbound commands to tab store operations and session requests.
type Router struct {
	store    core.TabStore
	sessions SessionLifecycle
	cfg      RouterConfig
	log      pslog.Logger
}

// NewRouter constructs a command router.
func NewRouter(store core.TabStore, sessions SessionLifecycle, cfg RouterConfig) *Router {
	return &Router{
		store:    store,
		sessions: sessions,
		cfg:      cfg,
		log:      logx.OrDefault(cfg.Logger),
	}
}

// Handle executes a single command. Stale references and position misses are
// no-ops; a duplicate session-opened is returned as an error.
func (r *Router) Handle(ctx context.Context, cmd schema.Command) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	if r.store == nil {
		return errors.New("router has no tab store")
	}
	log := logx.WithCommand(r.log, cmd)
	ctx = logx.ContextWithCommand(pslog.ContextWithLogger(ctx, log), cmd.Name)
	if !r.cfg.DisableAuditLogging {
		log.Debug("audit command", "command_type", "tab")
	}

	switch cmd.Name {
	case schema.CommandOpenNewTab:
		return r.requestOpen(ctx, nil)
	case schema.CommandOpenTargetTab:
		if cmd.Target == nil {
			return fmt.Errorf("%w: %s without target", schema.ErrInvalidCommand, cmd.Name)
		}
		return r.requestOpen(ctx, cmd.Target)
	case schema.CommandCloseActiveTab:
		active := r.store.Active()
		if active == "" {
			log.Debug("router close ignored", "reason", "no active tab")
			return nil
		}
		return r.requestClose(ctx, active)
	case schema.CommandCloseTab:
		if _, ok := r.store.Record(cmd.Session); !ok {
			log.Debug("router close ignored", "reason", "stale session")
			return nil
		}
		return r.requestClose(ctx, cmd.Session)
	case schema.CommandGotoTab:
		id, ok := r.store.Resolve(cmd.Position)
		if !ok {
			log.Debug("router goto ignored", "reason", "position out of range", "count", r.store.Len())
			return nil
		}
		return r.ignoreStale(log, r.store.SetActive(id))
	case schema.CommandNextTab:
		return r.step(log, 1)
	case schema.CommandPreviousTab:
		return r.step(log, -1)
	case schema.CommandSelectTab:
		return r.ignoreStale(log, r.store.SetActive(cmd.Session))
	case schema.CommandReorderTab:
		return r.ignoreStale(log, r.store.MoveTo(cmd.Session, cmd.Index))
	case schema.CommandSessionOpened:
		if cmd.Record == nil {
			return fmt.Errorf("%w: %s without record", schema.ErrInvalidCommand, cmd.Name)
		}
		if err := r.store.Insert(*cmd.Record); err != nil {
			log.Error("router session insert failed", "err", err)
			return err
		}
		return nil
	case schema.CommandSessionClosed:
		if _, err := r.store.Remove(cmd.Session); err != nil {
			if errors.Is(err, schema.ErrTabNotFound) {
				log.Warn("router session close for unknown tab")
				return nil
			}
			return err
		}
		return nil
	case schema.CommandSessionUpdated:
		if cmd.Record == nil {
			return fmt.Errorf("%w: %s without record", schema.ErrInvalidCommand, cmd.Name)
		}
		return r.ignoreStale(log, r.store.Update(*cmd.Record))
	}
	log.Warn("router command rejected", "reason", "unknown")
	return fmt.Errorf("%w: %q", schema.ErrInvalidCommand, cmd.Name)
}

func (r *Router) step(log pslog.Logger, offset int) error {
	id, ok := r.store.Step(offset)
	if !ok {
		log.Debug("router step ignored", "reason", "no active tab")
		return nil
	}
	log.Trace("router step", "active", id)
	return nil
}

func (r *Router) ignoreStale(log pslog.Logger, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, schema.ErrTabNotFound) {
		log.Debug("router command ignored", "reason", "stale session")
		return nil
	}
	return err
}

func (r *Router) requestOpen(ctx context.Context, target *schema.Target) error {
	if r.sessions == nil {
		return errors.New("router has no session manager")
	}
	if err := r.sessions.RequestOpen(ctx, target); err != nil {
		pslog.Ctx(ctx).Warn("router open request failed", "err", err)
		return err
	}
	return nil
}

func (r *Router) requestClose(ctx context.Context, id schema.SessionID) error {
	if r.sessions == nil {
		return errors.New("router has no session manager")
	}
	ctx = logx.ContextWithSession(ctx, id)
	if err := r.sessions.RequestClose(ctx, id); err != nil {
		logx.WithSessionCtx(ctx, id).Warn("router close request failed", "err", err)
		return err
	}
	return nil
}

// Activate subscribes to stream and handles its commands one at a time in
// arrival order until the returned deactivate func is called or ctx ends.
// Deactivate unsubscribes and waits for the dispatch loop to exit. It is safe
// to call more than once, but must not be called from inside a handler.
func (r *Router) Activate(ctx context.Context, stream Stream) (func(), error) {
	if ctx == nil {
		return nil, errors.New("missing context")
	}
	if stream == nil {
		return nil, errors.New("missing command stream")
	}
	ch, unsubscribe := stream.Subscribe()
	if ch == nil {
		if unsubscribe != nil {
			unsubscribe()
		}
		return nil, errors.New("command stream refused subscription")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-loopCtx.Done():
				return
			case cmd, ok := <-ch:
				if !ok {
					return
				}
				r.dispatch(loopCtx, cmd)
			}
		}
	}()
	r.log.Info("router activated")

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if unsubscribe != nil {
				unsubscribe()
			}
			<-done
			r.log.Info("router deactivated")
		})
	}, nil
}

// Run activates the router and blocks until ctx is done.
func (r *Router) Run(ctx context.Context, stream Stream) error {
	deactivate, err := r.Activate(ctx, stream)
	if err != nil {
		return err
	}
	defer deactivate()
	<-ctx.Done()
	return nil
}

func (r *Router) dispatch(ctx context.Context, cmd schema.Command) {
	defer func() {
		if rec := recover(); rec != nil {
			logx.WithCommand(r.log, cmd).Error("router command panic", "panic", fmt.Sprint(rec))
		}
	}()
	if err := r.Handle(ctx, cmd); err != nil {
		logx.WithCommand(r.log, cmd).Warn("router command failed", "err", err)
	}
}
