package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/tabstrip/internal/command"
	"pkt.systems/tabstrip/internal/logx"
	"pkt.systems/tabstrip/schema"
)

const maxCommandBody = 64 * 1024

// SnapshotSource provides the current tab bar state.
type SnapshotSource interface {
	Snapshot() schema.TabBarSnapshot
}

// Poster queues commands on the inbound stream.
type Poster interface {
	Post(cmd schema.Command) bool
}

// Server serves the tab bar HTTP API.
type Server struct {
	cfg      Config
	source   SnapshotSource
	poster   Poster
	hub      *Hub
	basePath string
}

// NewServer constructs an HTTP server.
func NewServer(cfg Config, source SnapshotSource, poster Poster, hub *Hub) *Server {
	return &Server{
		cfg:      cfg,
		source:   source,
		poster:   poster,
		hub:      hub,
		basePath: normalizeBasePath(cfg.BasePath),
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tabs", s.handleTabs)
	mux.HandleFunc("/api/commands", s.handleCommand)
	mux.HandleFunc("/api/stream", s.handleStream)

	handler := withRequestLogging(mux)
	if s.basePath == "" {
		return handler
	}
	prefix := s.basePath
	root := http.NewServeMux()
	root.Handle(prefix+"/", http.StripPrefix(prefix, handler))
	return root
}

func (s *Server) handleTabs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snapshot := s.source.Snapshot()
	writeJSON(w, http.StatusOK, snapshot)
	pslog.Ctx(r.Context()).Debug("http tabs ok", "count", len(snapshot.Tabs), "active", snapshot.Active)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	log := pslog.Ctx(r.Context())
	var payload struct {
		Command string `json:"command"`
	}
	if err := decodeJSON(io.LimitReader(r.Body, maxCommandBody), &payload); err != nil {
		log.Warn("http command decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cmd, err := command.ParseExternal(payload.Command)
	if err != nil {
		log.Warn("http command rejected", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	log = logx.WithCommand(log, cmd)
	if !s.poster.Post(cmd) {
		log.Warn("http command dropped")
		writeError(w, http.StatusServiceUnavailable, errors.New("command queue unavailable"))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "queued", "command": cmd.Name})
	log.Info("http command queued")
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	log := pslog.Ctx(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))
	ch, unsubscribe, seq := s.hub.Subscribe()
	defer unsubscribe()

	snapshot := s.source.Snapshot()
	_ = writeSSEvent(w, StreamEvent{
		Type:      StreamSnapshot,
		Snapshot:  &snapshot,
		Timestamp: time.Now(),
	})

	replayCount := 0
	if lastID > 0 {
		replay := s.hub.Replay(lastID, seq)
		replayCount = len(replay)
		for _, event := range replay {
			_ = writeSSEvent(w, event)
		}
	}
	flusher.Flush()

	notify := r.Context().Done()
	log.Info("http stream opened", "last_id", lastID, "replay", replayCount, "tabs", len(snapshot.Tabs))
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			_ = writeSSEvent(w, event)
			flusher.Flush()
		}
	}
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
