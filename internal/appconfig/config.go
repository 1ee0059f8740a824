package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pkt.systems/tabstrip/internal/tabbar"
	"pkt.systems/tabstrip/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	SocketPath    string        `mapstructure:"socket_path" yaml:"socket_path"`
	InboxDepth    int           `mapstructure:"inbox_depth" yaml:"inbox_depth"`
	NewTabTarget  string        `mapstructure:"new_tab_target" yaml:"new_tab_target"`
	InitialTabs   []string      `mapstructure:"initial_tabs" yaml:"initial_tabs"`
	LoadDelayMS   int           `mapstructure:"load_delay_ms" yaml:"load_delay_ms"`
	TabBar        TabBarConfig  `mapstructure:"tabbar" yaml:"tabbar"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
	SSH           SSHConfig     `mapstructure:"ssh" yaml:"ssh"`
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// TabBarConfig controls tab bar rendering.
type TabBarConfig struct {
	TitleMax    int    `mapstructure:"title_max" yaml:"title_max"`
	TitleSuffix string `mapstructure:"title_suffix" yaml:"title_suffix"`
	Theme       string `mapstructure:"theme" yaml:"theme"`
}

// HTTPConfig configures the HTTP server. An empty address disables it.
type HTTPConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	BasePath string `mapstructure:"base_path" yaml:"base_path"`
	History  int    `mapstructure:"history" yaml:"history"`
}

// SSHConfig configures the SSH server. An empty address disables it.
type SSHConfig struct {
	Addr           string `mapstructure:"addr" yaml:"addr"`
	HostKeyPath    string `mapstructure:"host_key_path" yaml:"host_key_path"`
	AuthorizedKeys string `mapstructure:"authorized_keys" yaml:"authorized_keys"`
}

// LoggingConfig controls audit logging behavior.
type LoggingConfig struct {
	DisableAuditTrails bool `mapstructure:"disable_audit_trails" yaml:"disable_audit_trails"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = filepath.Join("/run", "user", fmt.Sprintf("%d", os.Getuid()))
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		SocketPath:    filepath.Join(runtimeDir, "tabstrip", "tabstrip.sock"),
		InboxDepth:    schema.DefaultInboxDepth,
		NewTabTarget:  schema.DefaultNewTabTarget.String(),
		InitialTabs:   []string{schema.DefaultNewTabTarget.String()},
		LoadDelayMS:   300,
		TabBar: TabBarConfig{
			TitleMax:    schema.DefaultTitleMax,
			TitleSuffix: "…",
			Theme:       tabbar.DefaultTheme,
		},
		HTTP: HTTPConfig{
			Addr:     "127.0.0.1:27491",
			BasePath: "",
			History:  1000,
		},
		SSH: SSHConfig{
			Addr:           "",
			HostKeyPath:    filepath.Join(home, ".tabstrip", "ssh_host_key"),
			AuthorizedKeys: filepath.Join(home, ".ssh", "authorized_keys"),
		},
		Logging: LoggingConfig{
			DisableAuditTrails: false,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tabstrip", "config.yaml"), nil
}

// ServiceConfig converts the file settings into the core service config.
func (c Config) ServiceConfig() (schema.ServiceConfig, error) {
	newTab, err := schema.ParseTarget(c.NewTabTarget)
	if err != nil {
		return schema.ServiceConfig{}, fmt.Errorf("new_tab_target: %w", err)
	}
	initial := make([]schema.Target, 0, len(c.InitialTabs))
	for i, raw := range c.InitialTabs {
		target, err := schema.ParseTarget(raw)
		if err != nil {
			return schema.ServiceConfig{}, fmt.Errorf("initial_tabs[%d]: %w", i, err)
		}
		initial = append(initial, target)
	}
	return schema.NormalizeServiceConfig(schema.ServiceConfig{
		NewTabTarget: newTab,
		InitialTabs:  initial,
		InboxDepth:   c.InboxDepth,
		TitleMax:     c.TabBar.TitleMax,
		TitleSuffix:  c.TabBar.TitleSuffix,
		LoadDelay:    time.Duration(c.LoadDelayMS) * time.Millisecond,
	})
}
