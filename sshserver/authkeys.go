package sshserver

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"pkt.systems/pslog"
)

// AuthorizedKeys validates login keys against an authorized_keys file. The
// file is re-read whenever its size or modification time changes.
type AuthorizedKeys struct {
	path string
	log  pslog.Logger

	mu    sync.RWMutex
	keys  []authorizedKey
	state fileState
}

type authorizedKey struct {
	key     ssh.PublicKey
	comment string
}

type fileState struct {
	modTime time.Time
	size    int64
}

func fileStateFromInfo(info os.FileInfo) fileState {
	return fileState{modTime: info.ModTime(), size: info.Size()}
}

func (s fileState) equal(other fileState) bool {
	return s.size == other.size && s.modTime.Equal(other.modTime)
}

// LoadAuthorizedKeys reads path and returns a key store.
func LoadAuthorizedKeys(path string, logger pslog.Logger) (*AuthorizedKeys, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("authorized keys path is required")
	}
	store := &AuthorizedKeys{path: path, log: logger}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

// Allows reports whether key is listed. A file that cannot be re-read keeps
// the last good key set.
func (a *AuthorizedKeys) Allows(key ssh.PublicKey) bool {
	if a == nil || key == nil {
		return false
	}
	if err := a.refreshIfNeeded(); err != nil && a.log != nil {
		a.log.Warn("ssh authorized keys refresh failed", "err", err)
	}
	wire := key.Marshal()
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, candidate := range a.keys {
		if bytes.Equal(candidate.key.Marshal(), wire) {
			return true
		}
	}
	return false
}

// Len returns the number of loaded keys.
func (a *AuthorizedKeys) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.keys)
}

func (a *AuthorizedKeys) refreshIfNeeded() error {
	info, err := os.Stat(a.path)
	if err != nil {
		return err
	}
	latest := fileStateFromInfo(info)
	a.mu.RLock()
	current := a.state
	a.mu.RUnlock()
	if current.equal(latest) {
		return nil
	}
	return a.load()
}

func (a *AuthorizedKeys) load() error {
	info, err := os.Stat(a.path)
	if err != nil {
		return fmt.Errorf("stat authorized keys: %w", err)
	}
	data, err := os.ReadFile(a.path)
	if err != nil {
		return fmt.Errorf("read authorized keys: %w", err)
	}
	keys, err := parseAuthorizedKeys(data)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.keys = keys
	a.state = fileStateFromInfo(info)
	a.mu.Unlock()
	if a.log != nil {
		a.log.Debug("ssh authorized keys loaded", "path", a.path, "keys", len(keys))
	}
	return nil
}

func parseAuthorizedKeys(data []byte) ([]authorizedKey, error) {
	var keys []authorizedKey
	line := 0
	for _, raw := range bytes.Split(data, []byte("\n")) {
		line++
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] == '#' {
			continue
		}
		key, comment, _, _, err := ssh.ParseAuthorizedKey(trimmed)
		if err != nil {
			return nil, fmt.Errorf("authorized keys line %d: %w", line, err)
		}
		keys = append(keys, authorizedKey{key: key, comment: comment})
	}
	return keys, nil
}
