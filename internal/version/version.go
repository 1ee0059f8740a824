package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

const defaultModule = "pkt.systems/tabstrip"

// buildVersion is set via -ldflags "-X pkt.systems/tabstrip/internal/version.buildVersion=...".
var buildVersion = ""

// Info describes the running tabstrip binary.
type Info struct {
	Module   string
	Version  string
	Revision string
	Time     time.Time
	Dirty    bool
}

// String renders "module version", followed by the short revision and commit
// time when the binary was built from a checkout.
func (i Info) String() string {
	out := i.Module + " " + i.Version
	if i.Revision == "" {
		return out
	}
	rev := i.Revision
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if i.Dirty {
		rev += "+dirty"
	}
	if i.Time.IsZero() {
		return fmt.Sprintf("%s (%s)", out, rev)
	}
	return fmt.Sprintf("%s (%s, %s)", out, rev, i.Time.UTC().Format(time.RFC3339))
}

// Get returns version information from the linker flag and build info.
func Get() Info {
	info, _ := debug.ReadBuildInfo()
	return resolve(buildVersion, info)
}

// Current returns the version string without a dirty suffix.
func Current() string {
	return strings.TrimSuffix(Get().Version, "+dirty")
}

func resolve(linked string, info *debug.BuildInfo) Info {
	out := Info{Module: defaultModule}
	if info != nil {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			out.Module = path
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				out.Revision = setting.Value
			case "vcs.time":
				if parsed, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					out.Time = parsed
				}
			case "vcs.modified":
				out.Dirty = setting.Value == "true"
			}
		}
	}
	switch {
	case strings.TrimSpace(linked) != "":
		out.Version = strings.TrimSpace(linked)
	case info != nil && info.Main.Version != "" && info.Main.Version != "(devel)":
		out.Version = info.Main.Version
	case out.Revision != "" && !out.Time.IsZero():
		out.Version = pseudoVersion(out.Revision, out.Time)
	default:
		out.Version = "v0.0.0-unknown"
	}
	return out
}

func pseudoVersion(revision string, at time.Time) string {
	if len(revision) > 12 {
		revision = revision[:12]
	}
	return "v0.0.0-" + at.UTC().Format("20060102150405") + "-" + revision
}
