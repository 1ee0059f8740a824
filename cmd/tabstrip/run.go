package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/tabstrip"
	"pkt.systems/tabstrip/httpapi"
	"pkt.systems/tabstrip/internal/appconfig"
	"pkt.systems/tabstrip/internal/tabbar"
	"pkt.systems/tabstrip/sshserver"
)

func newRunCmd() *cobra.Command {
	var cfgPath string
	var disableAuditTrails bool
	var headless bool
	var logFile string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the tab core with its front ends",
		Long: `Run the tab core. The command socket is always served; HTTP and SSH are
served when their addresses are configured. Unless --headless is set, the tab
bar is drawn in this terminal and logs go to --log-file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if disableAuditTrails {
				cfg.Logging.DisableAuditTrails = true
			}

			ctx := cmd.Context()
			if !headless {
				out, closeLog, err := openLogOutput(logFile)
				if err != nil {
					return err
				}
				defer closeLog()
				ctx = pslog.ContextWithLogger(ctx, pslog.LoggerFromEnv(
					pslog.WithEnvWriter(out),
					pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeStructured}),
				))
			}
			logger := pslog.Ctx(ctx)

			serverCfg, opts, err := toServerConfig(cfg)
			if err != nil {
				return err
			}
			server, err := tabstrip.New(serverCfg, tabstrip.ServerDeps{Logger: logger}, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			if err := server.Start(ctx); err != nil {
				return err
			}
			if headless {
				return server.Wait()
			}

			waitErr := make(chan error, 1)
			go func() { waitErr <- server.Wait() }()
			surface := server.Surface()
			uiErr := tabbar.Run(ctx, surface.TabBar, surface.Store, surface.Events, surface.Inbox, tea.WithAltScreen())
			stop()
			if uiErr != nil {
				return uiErr
			}
			return <-waitErr
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&disableAuditTrails, "disable-audit-trails", false, "disable audit trail logging for commands")
	cmd.Flags().BoolVar(&headless, "headless", false, "do not draw the tab bar in this terminal")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs here while the tab bar is drawn (default: discard)")
	return cmd
}

func openLogOutput(path string) (io.Writer, func(), error) {
	if strings.TrimSpace(path) == "" {
		return io.Discard, func() {}, nil
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return file, func() { _ = file.Close() }, nil
}

func toServerConfig(cfg appconfig.Config) (tabstrip.ServerConfig, []tabstrip.ServerOption, error) {
	service, err := cfg.ServiceConfig()
	if err != nil {
		return tabstrip.ServerConfig{}, nil, err
	}
	serverCfg := tabstrip.ServerConfig{
		Service: service,
		Socket: tabstrip.SocketConfig{
			Path:       cfg.SocketPath,
			AllowedUID: os.Getuid(),
		},
		HTTP: httpapi.Config{
			Addr:     cfg.HTTP.Addr,
			BasePath: cfg.HTTP.BasePath,
			History:  cfg.HTTP.History,
		},
		SSH: sshserver.Config{
			Addr:               cfg.SSH.Addr,
			HostKeyPath:        cfg.SSH.HostKeyPath,
			AuthorizedKeysPath: cfg.SSH.AuthorizedKeys,
		},
		TabBar: tabbar.Config{
			Theme:       cfg.TabBar.Theme,
			TitleMax:    service.TitleMax,
			TitleSuffix: service.TitleSuffix,
		},
		DisableAuditLogging: cfg.Logging.DisableAuditTrails,
	}
	opts := []tabstrip.ServerOption{tabstrip.WithSocket()}
	if strings.TrimSpace(cfg.HTTP.Addr) != "" {
		opts = append(opts, tabstrip.WithHTTP())
	}
	if strings.TrimSpace(cfg.SSH.Addr) != "" {
		opts = append(opts, tabstrip.WithSSH())
	}
	return serverCfg, opts, nil
}
