package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/tabstrip/internal/appconfig"
	"pkt.systems/tabstrip/internal/ipc"
)

func newSendCmd() *cobra.Command {
	var cfgPath string
	var socketPath string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "send <command> [args...]",
		Short: "Send a command to a running tabstrip",
		Example: `  tabstrip send window:next-tab
  tabstrip send goto-tab last
  tabstrip send file:new-tab https://example.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := socketPath
			if path == "" {
				cfg, err := appconfig.Load(cfgPath)
				if err != nil {
					return err
				}
				path = cfg.SocketPath
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			line := strings.Join(args, " ")
			if err := ipc.Send(ctx, path, line); err != nil {
				return err
			}
			pslog.Ctx(cmd.Context()).Debug("send ok", "socket", path, "line", line)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&socketPath, "socket", "s", "", "command socket path (overrides config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "time to wait for the reply")
	return cmd
}
