package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pkt.systems/tabstrip/internal/appconfig"
	"pkt.systems/tabstrip/internal/ipc"
	"pkt.systems/tabstrip/internal/version"
	"pkt.systems/tabstrip/schema"
)

func TestRootHasSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"run", "send", "list", "config", "version"} {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected root command to include %s", name)
		}
	}
}

func runVersion(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(append([]string{"version"}, args...))
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("version: %v", err)
	}
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	got := runVersion(t)
	if want := version.Get().String() + "\n"; got != want {
		t.Fatalf("version output = %q, want %q", got, want)
	}
	if !strings.Contains(got, " "+version.Get().Version) {
		t.Fatalf("expected version after module path, got %q", got)
	}
}

func TestVersionCommandShort(t *testing.T) {
	got := runVersion(t, "--short")
	if want := version.Current() + "\n"; got != want {
		t.Fatalf("version --short output = %q, want %q", got, want)
	}
	if strings.Contains(got, " ") {
		t.Fatalf("expected a bare version, got %q", got)
	}
}

func TestConfigInitWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	root := newRootCmd()
	root.SetArgs([]string{"config", "init", "-c", path})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := appconfig.Load(path); err != nil {
		t.Fatalf("load written config: %v", err)
	}
	root = newRootCmd()
	root.SetArgs([]string{"config", "init", "-c", path})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatalf("expected init without --force to refuse overwriting")
	}
}

func TestSendCommandPostsToSocket(t *testing.T) {
	dir, err := os.MkdirTemp("", "tabstrip")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "cmd.sock")

	inbox := ipc.NewInbox(8, nil)
	ch, unsubscribe := inbox.Subscribe()
	defer unsubscribe()
	listener := ipc.NewListener(ipc.Config{SocketPath: path, AllowedUID: -1}, inbox)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = listener.ListenAndServe(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for listener.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatalf("listener did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	root := newRootCmd()
	root.SetArgs([]string{"send", "--socket", path, "goto-tab", "last"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case cmd := <-ch:
		if cmd.Name != schema.CommandGotoTab || !cmd.Position.Last {
			t.Fatalf("unexpected command: %+v", cmd)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for command")
	}
}

func TestToServerConfig(t *testing.T) {
	cfg, err := appconfig.DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.SSH.Addr = ""
	serverCfg, opts, err := toServerConfig(cfg)
	if err != nil {
		t.Fatalf("toServerConfig: %v", err)
	}
	if len(opts) != 2 {
		t.Fatalf("expected socket and http options, got %d", len(opts))
	}
	if serverCfg.Socket.Path != cfg.SocketPath || serverCfg.Socket.AllowedUID != os.Getuid() {
		t.Fatalf("unexpected socket config: %+v", serverCfg.Socket)
	}
	if serverCfg.TabBar.TitleMax != cfg.TabBar.TitleMax || serverCfg.HTTP.History != cfg.HTTP.History {
		t.Fatalf("unexpected server config: %+v", serverCfg)
	}

	cfg.HTTP.Addr = ""
	cfg.SSH.Addr = "127.0.0.1:2222"
	_, opts, err = toServerConfig(cfg)
	if err != nil {
		t.Fatalf("toServerConfig: %v", err)
	}
	if len(opts) != 2 {
		t.Fatalf("expected socket and ssh options, got %d", len(opts))
	}

	cfg.NewTabTarget = "ftp://nope"
	if _, _, err := toServerConfig(cfg); err == nil {
		t.Fatalf("expected invalid target error")
	}
}

func TestListCommandPrintsTabs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tabs/api/tabs" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tabs":[{"session_id":"s1","title":"home","type":"internal","loading":false,"active":true,"position":0}],"active":"s1"}`))
	}))
	defer ts.Close()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"list", "-c", filepath.Join(t.TempDir(), "missing.yaml"), "--url", ts.URL + "/tabs"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.HasPrefix(out.String(), "*  1  home  [internal]  s1") {
		t.Fatalf("unexpected list output %q", out.String())
	}
}

func TestAPIBaseURL(t *testing.T) {
	got, err := apiBaseURL(appconfig.HTTPConfig{Addr: ":8080", BasePath: "/tabs/"})
	if err != nil {
		t.Fatalf("apiBaseURL: %v", err)
	}
	if got != "http://127.0.0.1:8080/tabs" {
		t.Fatalf("unexpected base url %q", got)
	}
	if _, err := apiBaseURL(appconfig.HTTPConfig{}); err == nil {
		t.Fatalf("expected error without http.addr")
	}
}
