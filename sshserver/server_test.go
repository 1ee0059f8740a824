package sshserver

import (
	"bytes"
	"context"
	"io"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"

	"pkt.systems/tabstrip/core"
	"pkt.systems/tabstrip/internal/eventbus"
	"pkt.systems/tabstrip/schema"
)

type recordingPoster struct {
	mu     sync.Mutex
	posted []schema.Command
}

func (p *recordingPoster) Post(cmd schema.Command) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posted = append(p.posted, cmd)
	return true
}

func (p *recordingPoster) names() []schema.CommandName {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]schema.CommandName, 0, len(p.posted))
	for _, cmd := range p.posted {
		names = append(names, cmd.Name)
	}
	return names
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type sshFixture struct {
	addr   string
	client ssh.Signer
	poster *recordingPoster
}

func startServer(t *testing.T) *sshFixture {
	t.Helper()
	dir := t.TempDir()
	client := newSigner(t)
	keysPath := filepath.Join(dir, "authorized_keys")
	writeAuthorizedKeys(t, keysPath, client)
	keys, err := LoadAuthorizedKeys(keysPath, nil)
	if err != nil {
		t.Fatalf("load keys: %v", err)
	}

	bus := eventbus.New(nil)
	store := core.NewStore(core.StoreDeps{EventSink: bus})
	if err := store.Insert(schema.TabRecord{
		SessionID: "s1",
		Target:    schema.Target{Type: schema.TargetInternal, Page: "alpha"},
		Title:     "alpha",
		Type:      schema.TargetInternal,
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	poster := &recordingPoster{}
	srv := &Server{
		HostKeyPath: filepath.Join(dir, "host_ed25519"),
		Listener:    ln,
		Keys:        keys,
		Source:      store,
		Events:      bus,
		Poster:      poster,
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Errorf("ssh server did not stop")
		}
	})
	return &sshFixture{addr: ln.Addr().String(), client: client, poster: poster}
}

func dial(addr string, signer ssh.Signer) (*ssh.Client, error) {
	return ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            "tester",
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	})
}

func TestServerRejectsUnknownKey(t *testing.T) {
	f := startServer(t)
	client, err := dial(f.addr, newSigner(t))
	if err == nil {
		_ = client.Close()
		t.Fatalf("expected unknown key to be rejected")
	}
}

func TestServerRequiresPty(t *testing.T) {
	f := startServer(t)
	client, err := dial(f.addr, f.client)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	session, err := client.NewSession()
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	defer session.Close()
	out, _ := session.Output("")
	if !strings.Contains(string(out), "pty required") {
		t.Fatalf("expected pty rejection, got %q", out)
	}
}

func TestServerRendersTabBarAndPostsKeys(t *testing.T) {
	f := startServer(t)
	client, err := dial(f.addr, f.client)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	session, err := client.NewSession()
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	defer session.Close()
	if err := session.RequestPty("xterm-256color", 24, 80, ssh.TerminalModes{}); err != nil {
		t.Fatalf("pty: %v", err)
	}
	out := &lockedBuffer{}
	session.Stdout = out
	stdin, err := session.StdinPipe()
	if err != nil {
		t.Fatalf("stdin: %v", err)
	}
	if err := session.Shell(); err != nil {
		t.Fatalf("shell: %v", err)
	}

	waitFor(t, "tab title", func() bool { return strings.Contains(out.String(), "alpha") })

	if _, err := io.WriteString(stdin, "\t"); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, "next-tab command", func() bool {
		for _, name := range f.poster.names() {
			if name == schema.CommandNextTab {
				return true
			}
		}
		return false
	})

	if _, err := io.WriteString(stdin, "q"); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitDone := make(chan error, 1)
	go func() { waitDone <- session.Wait() }()
	select {
	case <-waitDone:
	case <-time.After(5 * time.Second):
		t.Fatalf("session did not end after quit")
	}
}
