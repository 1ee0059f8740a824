package sshserver

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"
)

func newSigner(t *testing.T) ssh.Signer {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	return signer
}

func writeAuthorizedKeys(t *testing.T, path string, signers ...ssh.Signer) {
	t.Helper()
	data := []byte("# tab bar clients\n\n")
	for _, signer := range signers {
		data = append(data, ssh.MarshalAuthorizedKey(signer.PublicKey())...)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write authorized keys: %v", err)
	}
}

func TestAuthorizedKeysAllows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorized_keys")
	allowed := newSigner(t)
	other := newSigner(t)
	writeAuthorizedKeys(t, path, allowed)

	keys, err := LoadAuthorizedKeys(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if keys.Len() != 1 {
		t.Fatalf("expected 1 key, got %d", keys.Len())
	}
	if !keys.Allows(allowed.PublicKey()) {
		t.Fatalf("expected listed key to be allowed")
	}
	if keys.Allows(other.PublicKey()) {
		t.Fatalf("expected unlisted key to be rejected")
	}
	if keys.Allows(nil) {
		t.Fatalf("expected nil key to be rejected")
	}
}

func TestAuthorizedKeysReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorized_keys")
	first := newSigner(t)
	second := newSigner(t)
	writeAuthorizedKeys(t, path, first)
	keys, err := LoadAuthorizedKeys(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	writeAuthorizedKeys(t, path, first, second)
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if !keys.Allows(second.PublicKey()) {
		t.Fatalf("expected added key to be picked up")
	}
	if keys.Len() != 2 {
		t.Fatalf("expected 2 keys after reload, got %d", keys.Len())
	}
}

func TestAuthorizedKeysKeepsLastGoodSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorized_keys")
	signer := newSigner(t)
	writeAuthorizedKeys(t, path, signer)
	keys, err := LoadAuthorizedKeys(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := os.WriteFile(path, []byte("ssh-ed25519 broken\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !keys.Allows(signer.PublicKey()) {
		t.Fatalf("expected previous key set to remain after a bad reload")
	}
}

func TestLoadAuthorizedKeysErrors(t *testing.T) {
	if _, err := LoadAuthorizedKeys("", nil); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := LoadAuthorizedKeys(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Fatalf("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "authorized_keys")
	if err := os.WriteFile(path, []byte("garbage\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadAuthorizedKeys(path, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}
