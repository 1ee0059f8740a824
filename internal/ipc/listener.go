package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"pkt.systems/pslog"
	"pkt.systems/tabstrip/internal/command"
	"pkt.systems/tabstrip/internal/logx"
	"pkt.systems/tabstrip/schema"
)

const maxLineBytes = 64 * 1024

// Poster accepts parsed commands.
type Poster interface {
	Post(cmd schema.Command) bool
}

// Config controls the command socket.
type Config struct {
	SocketPath string
	// AllowedUID restricts peers by uid where the platform reports peer
	// credentials. Negative disables the check.
	AllowedUID int
	Logger     pslog.Logger
}

// Listener serves the command gRPC service on a unix socket and posts
// accepted commands to the inbox. Session lifecycle callbacks are refused.
type Listener struct {
	cfg    Config
	poster Poster
	logger pslog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewListener constructs a command socket listener.
func NewListener(cfg Config, poster Poster) *Listener {
	return &Listener{
		cfg:    cfg,
		poster: poster,
		logger: cfg.Logger,
	}
}

// ListenAndServe serves the socket until ctx is done.
func (l *Listener) ListenAndServe(ctx context.Context) error {
	if l.cfg.SocketPath == "" {
		return errors.New("command socket path is required")
	}
	if l.poster == nil {
		return errors.New("command socket requires an inbox")
	}
	if l.logger == nil {
		l.logger = pslog.Ctx(ctx)
	}
	if err := os.MkdirAll(filepath.Dir(l.cfg.SocketPath), 0o700); err != nil {
		return err
	}
	_ = os.Remove(l.cfg.SocketPath)

	listener, err := net.Listen("unix", l.cfg.SocketPath)
	if err != nil {
		return err
	}
	if err := os.Chmod(l.cfg.SocketPath, 0o600); err != nil {
		_ = listener.Close()
		return err
	}
	grpcServer := grpc.NewServer(
		grpc.Creds(peerCredentials{}),
		grpc.MaxRecvMsgSize(maxLineBytes),
		grpc.UnaryInterceptor(l.authorize),
	)
	grpcServer.RegisterService(&commandServiceDesc, commandService{listener: l})
	l.mu.Lock()
	l.listener = listener
	l.mu.Unlock()
	l.logger.Info("command socket listening", "socket", l.cfg.SocketPath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- grpcServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		grpcServer.GracefulStop()
		l.unbind()
		l.logger.Info("command socket stopped", "socket", l.cfg.SocketPath)
		return nil
	case err := <-errCh:
		l.unbind()
		return err
	}
}

// Addr returns the bound socket address, or nil before ListenAndServe binds.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

func (l *Listener) unbind() {
	l.mu.Lock()
	l.listener = nil
	l.mu.Unlock()
	_ = os.Remove(l.cfg.SocketPath)
}

func (l *Listener) log() pslog.Logger {
	return logx.OrDefault(l.logger)
}

// authorize enforces the peer uid recorded by peerCredentials.
func (l *Listener) authorize(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if l.cfg.AllowedUID < 0 {
		return handler(ctx, req)
	}
	var auth peerAuthInfo
	p, ok := peer.FromContext(ctx)
	if ok {
		auth, ok = p.AuthInfo.(peerAuthInfo)
	}
	switch {
	case !ok:
		l.log().Warn("command socket peer check failed", "err", "no peer credentials")
		return nil, status.Error(codes.PermissionDenied, "peer credentials unavailable")
	case auth.err != nil:
		l.log().Warn("command socket peer check failed", "err", auth.err)
		return nil, status.Error(codes.PermissionDenied, "peer credentials unavailable")
	case auth.uid >= 0 && auth.uid != l.cfg.AllowedUID:
		l.log().Warn("command socket peer rejected", "uid", auth.uid)
		return nil, status.Error(codes.PermissionDenied, "permission denied")
	}
	return handler(ctx, req)
}

func (l *Listener) post(line string) (string, error) {
	log := l.log()
	line = strings.TrimSpace(line)
	if line == "" || strings.ContainsAny(line, "\r\n") {
		return "", status.Error(codes.InvalidArgument, fmt.Sprintf("%v: expected a single line", schema.ErrInvalidCommand))
	}
	cmd, err := command.ParseExternal(line)
	if err != nil {
		log.Debug("command socket line rejected", "err", err)
		return "", status.Error(codes.InvalidArgument, err.Error())
	}
	log = logx.WithCommand(log, cmd)
	if !l.poster.Post(cmd) {
		log.Warn("command socket line dropped")
		return "", status.Error(codes.ResourceExhausted, "command dropped")
	}
	log.Trace("command socket line accepted")
	canonical, err := command.Format(cmd)
	if err != nil {
		return line, nil
	}
	return canonical, nil
}

type commandService struct {
	listener *Listener
}

func (s commandService) Post(_ context.Context, line *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	canonical, err := s.listener.post(line.GetValue())
	if err != nil {
		return nil, err
	}
	return wrapperspb.String(canonical), nil
}
