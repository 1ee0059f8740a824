package version

import (
	"runtime/debug"
	"testing"
	"time"
)

func checkoutBuild(modified string) *debug.BuildInfo {
	return &debug.BuildInfo{
		Main: debug.Module{Path: "pkt.systems/tabstrip", Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0f3c9a1be27d44e1"},
			{Key: "vcs.time", Value: "2026-03-14T09:26:53Z"},
			{Key: "vcs.modified", Value: modified},
		},
	}
}

func TestResolvePrefersLinkedVersion(t *testing.T) {
	info := resolve("v1.4.0", checkoutBuild("false"))
	if info.Version != "v1.4.0" {
		t.Fatalf("expected linked version, got %q", info.Version)
	}
	if got := info.String(); got != "pkt.systems/tabstrip v1.4.0 (0f3c9a1be27d, 2026-03-14T09:26:53Z)" {
		t.Fatalf("unexpected string %q", got)
	}
}

func TestResolveCheckoutPseudoVersion(t *testing.T) {
	info := resolve("", checkoutBuild("true"))
	if info.Version != "v0.0.0-20260314092653-0f3c9a1be27d" {
		t.Fatalf("unexpected pseudo version %q", info.Version)
	}
	if !info.Dirty || info.Time != time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC) {
		t.Fatalf("unexpected checkout info: %+v", info)
	}
	if got := info.String(); got != "pkt.systems/tabstrip v0.0.0-20260314092653-0f3c9a1be27d (0f3c9a1be27d+dirty, 2026-03-14T09:26:53Z)" {
		t.Fatalf("unexpected string %q", got)
	}
}

func TestResolveModuleVersion(t *testing.T) {
	info := resolve("", &debug.BuildInfo{Main: debug.Module{Path: "example.org/fork/tabstrip", Version: "v0.3.1"}})
	if info.Module != "example.org/fork/tabstrip" || info.Version != "v0.3.1" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if got := info.String(); got != "example.org/fork/tabstrip v0.3.1" {
		t.Fatalf("unexpected string %q", got)
	}
}

func TestResolveWithoutBuildInfo(t *testing.T) {
	info := resolve("", nil)
	if info.Module != defaultModule || info.Version != "v0.0.0-unknown" {
		t.Fatalf("unexpected info: %+v", info)
	}
}
