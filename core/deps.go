package core

import "pkt.systems/pslog"

// StoreDeps captures optional dependencies for the tab store.
type StoreDeps struct {
	EventSink EventSink
	Logger    pslog.Logger
}
