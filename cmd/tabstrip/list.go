package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/tabstrip/internal/appconfig"
	"pkt.systems/tabstrip/internal/format"
	"pkt.systems/tabstrip/schema"
)

func newListCmd() *cobra.Command {
	var cfgPath string
	var baseURL string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tabs of a running tabstrip over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			target := baseURL
			if target == "" {
				target, err = apiBaseURL(cfg.HTTP)
				if err != nil {
					return err
				}
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			snapshot, err := fetchSnapshot(ctx, target)
			if err != nil {
				return err
			}
			renderer := format.NewPlainRenderer()
			renderer.TitleMax = cfg.TabBar.TitleMax
			renderer.TitleSuffix = cfg.TabBar.TitleSuffix
			for _, line := range renderer.FormatSnapshot(snapshot) {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&baseURL, "url", "", "base URL of the HTTP API (overrides config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}

func apiBaseURL(cfg appconfig.HTTPConfig) (string, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return "", errors.New("http.addr is not configured; pass --url")
	}
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	basePath := strings.Trim(strings.TrimSpace(cfg.BasePath), "/")
	if basePath != "" {
		basePath = "/" + basePath
	}
	return "http://" + addr + basePath, nil
}

func fetchSnapshot(ctx context.Context, baseURL string) (schema.TabBarSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/tabs", nil)
	if err != nil {
		return schema.TabBarSnapshot{}, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return schema.TabBarSnapshot{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return schema.TabBarSnapshot{}, fmt.Errorf("list tabs: %s", resp.Status)
	}
	var snapshot schema.TabBarSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return schema.TabBarSnapshot{}, fmt.Errorf("decode tabs: %w", err)
	}
	return snapshot, nil
}
