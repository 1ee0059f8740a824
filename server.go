package tabstrip

import (
	"context"
	"errors"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/tabstrip/core"
	"pkt.systems/tabstrip/httpapi"
	"pkt.systems/tabstrip/internal/command"
	"pkt.systems/tabstrip/internal/eventbus"
	"pkt.systems/tabstrip/internal/ipc"
	"pkt.systems/tabstrip/internal/logx"
	"pkt.systems/tabstrip/internal/sessions"
	"pkt.systems/tabstrip/internal/tabbar"
	"pkt.systems/tabstrip/schema"
	"pkt.systems/tabstrip/sshserver"
)

// Server composes the tab core with its command socket, HTTP, and SSH front ends.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
	Surface() Surface
}

// Surface exposes the running core to in-process renderers.
type Surface struct {
	Store  core.TabStore
	Events *eventbus.Bus
	Inbox  *ipc.Inbox
	TabBar tabbar.Config
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Service             schema.ServiceConfig
	Socket              SocketConfig
	HTTP                httpapi.Config
	SSH                 sshserver.Config
	TabBar              tabbar.Config
	DisableAuditLogging bool
}

// SocketConfig configures the command socket. A negative AllowedUID accepts
// any local peer.
type SocketConfig struct {
	Path       string
	AllowedUID int
}

// ServerDeps captures optional dependencies.
type ServerDeps struct {
	Logger    pslog.Logger
	EventSink core.EventSink
	// Sessions replaces the built-in session manager.
	Sessions command.SessionLifecycle
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableSocket bool
	enableHTTP   bool
	enableSSH    bool
}

// WithSocket enables the unix command socket.
func WithSocket() ServerOption {
	return func(o *serverOptions) { o.enableSocket = true }
}

// WithHTTP enables the HTTP API.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// WithSSH enables the SSH tab bar.
func WithSSH() ServerOption {
	return func(o *serverOptions) { o.enableSSH = true }
}

// New constructs a composable tab bar server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	normalized, err := schema.NormalizeServiceConfig(cfg.Service)
	if err != nil {
		return nil, err
	}
	cfg.Service = normalized
	if cfg.TabBar.TitleMax <= 0 {
		cfg.TabBar.TitleMax = normalized.TitleMax
	}
	if cfg.TabBar.TitleSuffix == "" {
		cfg.TabBar.TitleSuffix = normalized.TitleSuffix
	}
	if options.enableSocket && cfg.Socket.Path == "" {
		return nil, errors.New("command socket path is required")
	}

	logger := logx.OrDefault(deps.Logger)
	bus := eventbus.New(logger)
	var hub *httpapi.Hub
	if options.enableHTTP {
		hub = httpapi.NewHub(cfg.HTTP.History, logger)
	}

	sinks := []core.EventSink{bus, loggingSink{log: logger}}
	if hub != nil {
		sinks = append(sinks, hub)
	}
	if deps.EventSink != nil {
		sinks = append(sinks, deps.EventSink)
	}
	store := core.NewStore(core.StoreDeps{
		EventSink: eventFanout{sinks: sinks},
		Logger:    logger,
	})
	inbox := ipc.NewInbox(cfg.Service.InboxDepth, logger)

	var manager *sessions.Manager
	lifecycle := deps.Sessions
	if lifecycle == nil {
		manager = sessions.NewManager(sessions.Config{
			NewTabTarget: cfg.Service.NewTabTarget,
			LoadDelay:    cfg.Service.LoadDelay,
			Logger:       logger,
		}, inbox)
		lifecycle = manager
	}
	router := command.NewRouter(store, lifecycle, command.RouterConfig{
		Logger:              logger,
		DisableAuditLogging: cfg.DisableAuditLogging,
	})

	srv := &compositeServer{
		cfg:       cfg,
		options:   options,
		store:     store,
		bus:       bus,
		inbox:     inbox,
		router:    router,
		lifecycle: lifecycle,
		manager:   manager,
	}
	if options.enableSocket {
		srv.socket = ipc.NewListener(ipc.Config{
			SocketPath: cfg.Socket.Path,
			AllowedUID: cfg.Socket.AllowedUID,
			Logger:     logger,
		}, inbox)
	}
	if options.enableHTTP {
		srv.httpSrv = httpapi.NewServer(cfg.HTTP, store, inbox, hub)
	}
	if options.enableSSH {
		keys, err := sshserver.LoadAuthorizedKeys(cfg.SSH.AuthorizedKeysPath, logger)
		if err != nil {
			return nil, err
		}
		srv.sshSrv = &sshserver.Server{
			Addr:        cfg.SSH.Addr,
			HostKeyPath: cfg.SSH.HostKeyPath,
			Keys:        keys,
			Source:      store,
			Events:      bus,
			Poster:      inbox,
			TabBar:      cfg.TabBar,
		}
	}
	return srv, nil
}

type compositeServer struct {
	cfg       ServerConfig
	options   serverOptions
	store     *core.Store
	bus       *eventbus.Bus
	inbox     *ipc.Inbox
	router    *command.Router
	lifecycle command.SessionLifecycle
	manager   *sessions.Manager
	socket    *ipc.Listener
	httpSrv   *httpapi.Server
	sshSrv    *sshserver.Server
	logger    pslog.Logger

	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	errCh      chan error
	deactivate func()
	started    bool
}

func (s *compositeServer) Surface() Surface {
	return Surface{
		Store:  s.store,
		Events: s.bus,
		Inbox:  s.inbox,
		TabBar: s.cfg.TabBar,
	}
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 3)
	s.logger = pslog.Ctx(s.ctx)
	deactivate, err := s.router.Activate(s.ctx, s.inbox)
	if err != nil {
		s.cancel()
		s.mu.Unlock()
		return err
	}
	s.deactivate = deactivate
	s.started = true
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"socket", s.options.enableSocket,
		"http", s.options.enableHTTP,
		"ssh", s.options.enableSSH,
		"socket_path", s.cfg.Socket.Path,
		"http_addr", s.cfg.HTTP.Addr,
		"http_base_path", s.cfg.HTTP.BasePath,
		"ssh_addr", s.cfg.SSH.Addr,
		"initial_tabs", len(s.cfg.Service.InitialTabs),
	)
	if s.socket != nil {
		go func() {
			if err := s.socket.ListenAndServe(s.ctx); err != nil {
				log.Error("command socket failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	if s.httpSrv != nil {
		go func() {
			if err := httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler()); err != nil {
				log.Error("http server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	if s.sshSrv != nil {
		go func() {
			if err := s.sshSrv.ListenAndServe(s.ctx); err != nil {
				log.Error("ssh server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	for i := range s.cfg.Service.InitialTabs {
		target := s.cfg.Service.InitialTabs[i]
		if err := s.lifecycle.RequestOpen(s.ctx, &target); err != nil {
			log.Warn("server initial tab failed", "target", target.String(), "err", err)
		}
	}
	return nil
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	deactivate := s.deactivate
	started := s.started
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if s.manager != nil {
		s.manager.Close()
	}
	if cancel != nil {
		cancel()
	}
	if deactivate != nil {
		deactivate()
	}
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-s.ctx.Done():
		log.Info("server stopped", "tabs", s.store.Len())
		return nil
	}
}
