package sessions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pkt.systems/tabstrip/schema"
)

type recordingPoster struct {
	mu     sync.Mutex
	cmds   []schema.Command
	reject bool
}

func (p *recordingPoster) Post(cmd schema.Command) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reject {
		return false
	}
	p.cmds = append(p.cmds, cmd)
	return true
}

func (p *recordingPoster) commands() []schema.Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]schema.Command(nil), p.cmds...)
}

func TestRequestOpenPostsOpenedThenLoaded(t *testing.T) {
	poster := &recordingPoster{}
	mgr := NewManager(Config{}, poster)
	mgr.newID = func() schema.SessionID { return "s1" }

	if err := mgr.RequestOpen(context.Background(), nil); err != nil {
		t.Fatalf("RequestOpen: %v", err)
	}
	cmds := poster.commands()
	if len(cmds) != 2 {
		t.Fatalf("expected opened and updated, got %+v", cmds)
	}
	opened := cmds[0]
	if opened.Name != schema.CommandSessionOpened || opened.Record == nil || !opened.Record.Loading {
		t.Fatalf("unexpected opened command: %+v", opened)
	}
	if opened.Record.Target != schema.DefaultNewTabTarget || opened.Record.Title != "home" {
		t.Fatalf("unexpected default record: %+v", opened.Record)
	}
	updated := cmds[1]
	if updated.Name != schema.CommandSessionUpdated || updated.Record == nil || updated.Record.Loading {
		t.Fatalf("unexpected updated command: %+v", updated)
	}
	if mgr.Open() != 1 {
		t.Fatalf("expected one open session")
	}
}

func TestRequestOpenAllocatesUniqueIDs(t *testing.T) {
	poster := &recordingPoster{}
	mgr := NewManager(Config{}, poster)
	seen := map[schema.SessionID]bool{}
	for i := 0; i < 10; i++ {
		if err := mgr.RequestOpen(context.Background(), nil); err != nil {
			t.Fatalf("RequestOpen: %v", err)
		}
	}
	for _, cmd := range poster.commands() {
		if cmd.Name != schema.CommandSessionOpened {
			continue
		}
		if seen[cmd.Session] {
			t.Fatalf("duplicate session id %s", cmd.Session)
		}
		seen[cmd.Session] = true
	}
	if len(seen) != 10 {
		t.Fatalf("expected 10 sessions, got %d", len(seen))
	}
}

func TestDelayedLoadSkippedAfterClose(t *testing.T) {
	poster := &recordingPoster{}
	mgr := NewManager(Config{LoadDelay: 30 * time.Millisecond}, poster)
	mgr.newID = func() schema.SessionID { return "s1" }
	target := schema.Target{Type: schema.TargetExternal, URL: "https://www.example.com/a"}

	if err := mgr.RequestOpen(context.Background(), &target); err != nil {
		t.Fatalf("RequestOpen: %v", err)
	}
	if err := mgr.RequestClose(context.Background(), "s1"); err != nil {
		t.Fatalf("RequestClose: %v", err)
	}
	time.Sleep(60 * time.Millisecond)

	cmds := poster.commands()
	if len(cmds) != 2 {
		t.Fatalf("expected opened and closed only, got %+v", cmds)
	}
	if cmds[0].Record.Title != "example.com" || cmds[0].Record.Icon != "https://www.example.com/favicon.ico" {
		t.Fatalf("unexpected external record: %+v", cmds[0].Record)
	}
	if cmds[1].Name != schema.CommandSessionClosed || cmds[1].Session != "s1" {
		t.Fatalf("unexpected close command: %+v", cmds[1])
	}
}

func TestDelayedLoadPostsUpdate(t *testing.T) {
	poster := &recordingPoster{}
	mgr := NewManager(Config{LoadDelay: 10 * time.Millisecond}, poster)
	if err := mgr.RequestOpen(context.Background(), nil); err != nil {
		t.Fatalf("RequestOpen: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for len(poster.commands()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for load update")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if cmd := poster.commands()[1]; cmd.Name != schema.CommandSessionUpdated || cmd.Record.Loading {
		t.Fatalf("unexpected update: %+v", cmd)
	}
}

func TestRequestCloseUnknownSessionStillPosts(t *testing.T) {
	poster := &recordingPoster{}
	mgr := NewManager(Config{}, poster)
	if err := mgr.RequestClose(context.Background(), "external-1"); err != nil {
		t.Fatalf("RequestClose: %v", err)
	}
	cmds := poster.commands()
	if len(cmds) != 1 || cmds[0].Session != "external-1" {
		t.Fatalf("unexpected commands: %+v", cmds)
	}
}

func TestRequestsReportDrops(t *testing.T) {
	poster := &recordingPoster{reject: true}
	mgr := NewManager(Config{}, poster)
	if err := mgr.RequestOpen(context.Background(), nil); !errors.Is(err, ErrDropped) {
		t.Fatalf("expected dropped open, got %v", err)
	}
	if mgr.Open() != 0 {
		t.Fatalf("dropped open must not be tracked")
	}
	if err := mgr.RequestClose(context.Background(), "s1"); !errors.Is(err, ErrDropped) {
		t.Fatalf("expected dropped close, got %v", err)
	}
}

func TestClosedManagerRejectsRequests(t *testing.T) {
	mgr := NewManager(Config{}, &recordingPoster{})
	mgr.Close()
	if err := mgr.RequestOpen(context.Background(), nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
}

func TestTitleFor(t *testing.T) {
	cases := []struct {
		target schema.Target
		want   string
	}{
		{schema.Target{Type: schema.TargetInternal, Page: "settings"}, "settings"},
		{schema.Target{Type: schema.TargetInternal}, "New Tab"},
		{schema.Target{Type: schema.TargetExternal, URL: "https://docs.example.org/x?y=1"}, "docs.example.org"},
		{schema.Target{Type: schema.TargetExternal, URL: "http://localhost:8080/"}, "localhost"},
	}
	for _, tc := range cases {
		if got := TitleFor(tc.target); got != tc.want {
			t.Fatalf("TitleFor(%+v) = %q, want %q", tc.target, got, tc.want)
		}
	}
}
