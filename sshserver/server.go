package sshserver

import (
	"context"
	"errors"
	"io"
	"net"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	gliderssh "github.com/gliderlabs/ssh"
	"golang.org/x/crypto/ssh"

	"pkt.systems/pslog"
	"pkt.systems/tabstrip/internal/tabbar"
)

// Server exposes the tab bar over SSH. Each pty session runs its own tab bar
// view over the shared store; key presses are posted as commands.
type Server struct {
	Addr        string
	HostKeyPath string
	Listener    net.Listener
	Keys        *AuthorizedKeys
	Source      tabbar.Source
	Events      tabbar.Events
	Poster      tabbar.Poster
	TabBar      tabbar.Config
	logger      pslog.Logger
}

// ListenAndServe starts the SSH server and shuts down on context cancellation.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.logger == nil {
		s.logger = pslog.Ctx(ctx)
	}
	if s.Keys == nil {
		return errors.New("authorized keys are required for SSH")
	}
	if s.Source == nil || s.Events == nil || s.Poster == nil {
		return errors.New("ssh server requires a tab source, events, and a poster")
	}

	signer, err := LoadOrCreateHostKey(pslog.ContextWithLogger(ctx, s.logger), s.HostKeyPath)
	if err != nil {
		return err
	}

	server := &gliderssh.Server{
		Addr:             s.Addr,
		Handler:          s.handleSession,
		PublicKeyHandler: s.handlePublicKey,
	}
	server.AddHostKey(signer)

	errCh := make(chan error, 1)
	go func() {
		if s.Listener != nil {
			errCh <- server.Serve(s.Listener)
			return
		}
		errCh <- server.ListenAndServe()
	}()
	s.logger.Info("ssh listening", "addr", s.listenAddr(), "keys", s.Keys.Len())

	select {
	case <-ctx.Done():
		_ = server.Close()
		s.logger.Info("ssh stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, gliderssh.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) listenAddr() string {
	if s.Listener != nil {
		return s.Listener.Addr().String()
	}
	return s.Addr
}

func (s *Server) handlePublicKey(ctx gliderssh.Context, key gliderssh.PublicKey) bool {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(ctx)
	}
	log = log.With("user", ctx.User(), "remote", remoteAddr(ctx), "fingerprint", ssh.FingerprintSHA256(key))
	if !s.Keys.Allows(key) {
		log.Warn("ssh pubkey rejected", "reason", "no matching key")
		return false
	}
	log.Info("ssh pubkey accepted")
	return true
}

func remoteAddr(ctx gliderssh.Context) string {
	if ctx == nil || ctx.RemoteAddr() == nil {
		return ""
	}
	return ctx.RemoteAddr().String()
}

func (s *Server) handleSession(sess gliderssh.Session) {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(sess.Context())
	}
	log = log.With("user", sess.User(), "remote", sess.RemoteAddr().String())
	if sshSession := sess.Context().SessionID(); sshSession != "" {
		log = log.With("ssh_session", sshSession)
	}
	ctx := pslog.ContextWithLogger(sess.Context(), log)

	pty, winCh, ok := sess.Pty()
	if !ok {
		log.Info("ssh session rejected", "reason", "pty required")
		_, _ = io.WriteString(sess, "pty required\n")
		return
	}

	log.Info("ssh session opened", "term", pty.Term)
	events, unsubscribe := s.Events.Subscribe()
	defer unsubscribe()

	renderer := lipgloss.NewRenderer(sess)
	renderer.SetColorProfile(colorProfile(pty.Term))
	cfg := s.TabBar
	cfg.Renderer = renderer

	model := tabbar.New(cfg, s.Source, events, s.Poster)
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(sess),
		tea.WithOutput(sess),
	)
	go forwardWindowSize(ctx, program, pty.Window, winCh)

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Warn("ssh session failed", "err", err)
	}
	log.Info("ssh session closed", "term", pty.Term)
}

func forwardWindowSize(ctx context.Context, program *tea.Program, initial gliderssh.Window, winCh <-chan gliderssh.Window) {
	program.Send(tea.WindowSizeMsg{Width: initial.Width, Height: initial.Height})
	for {
		select {
		case <-ctx.Done():
			return
		case win, ok := <-winCh:
			if !ok {
				return
			}
			program.Send(tea.WindowSizeMsg{Width: win.Width, Height: win.Height})
		}
	}
}
