// Package keyring stores environment passwords, preferring the system
// keyring and falling back to an encrypted file on headless hosts.
package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zalando/go-keyring"
)

// Manager provides a unified interface over the system keyring and the
// file-based fallback.
type Manager struct {
	file    *fileStore
	useFile bool
}

// fileStore is an AES-GCM encrypted JSON file for hosts without a usable
// system keyring.
type fileStore struct {
	path      string
	masterKey []byte
}

type fileEntry struct {
	Service string `json:"service"`
	User    string `json:"user"`
	Data    string `json:"data"` // encrypted secret
}

// NewManager returns a Manager that uses the system keyring when it answers
// within a short probe, and the encrypted file at path otherwise.
func NewManager(path, masterPassword string) *Manager {
	probeService := "oerp-probe"
	probeKey := "probe-key"

	done := make(chan error, 1)
	go func() {
		err := keyring.Set(probeService, probeKey, "probe")
		if err == nil {
			_ = keyring.Delete(probeService, probeKey)
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			return &Manager{useFile: false}
		}
	case <-time.After(5 * time.Second):
		// keyring daemon not answering
	}

	return &Manager{file: newFileStore(path, masterPassword), useFile: true}
}

func newFileStore(path, masterPassword string) *fileStore {
	_ = os.MkdirAll(filepath.Dir(path), 0o700)
	hash := sha256.Sum256([]byte(masterPassword))
	return &fileStore{path: path, masterKey: hash[:]}
}

// Set stores a secret.
func (m *Manager) Set(service, user, secret string) error {
	if !m.useFile {
		return keyring.Set(service, user, secret)
	}
	return m.file.set(service, user, secret)
}

// Get retrieves a secret.
func (m *Manager) Get(service, user string) (string, error) {
	if !m.useFile {
		return keyring.Get(service, user)
	}
	return m.file.get(service, user)
}

// Delete removes a secret.
func (m *Manager) Delete(service, user string) error {
	if !m.useFile {
		return keyring.Delete(service, user)
	}
	return m.file.delete(service, user)
}

func (fs *fileStore) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(fs.masterKey)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (fs *fileStore) decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(fs.masterKey)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}
	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (fs *fileStore) load() map[string]fileEntry {
	entries := make(map[string]fileEntry)
	if data, err := os.ReadFile(fs.path); err == nil {
		_ = json.Unmarshal(data, &entries)
	}
	return entries
}

func (fs *fileStore) save(entries map[string]fileEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return os.WriteFile(fs.path, data, 0o600)
}

func (fs *fileStore) set(service, user, secret string) error {
	entries := fs.load()
	encrypted, err := fs.encrypt(secret)
	if err != nil {
		return err
	}
	entries[service+":"+user] = fileEntry{Service: service, User: user, Data: encrypted}
	return fs.save(entries)
}

func (fs *fileStore) get(service, user string) (string, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return "", fmt.Errorf("keyring file not found")
	}
	entries := make(map[string]fileEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return "", err
	}
	entry, ok := entries[service+":"+user]
	if !ok {
		return "", fmt.Errorf("entry not found")
	}
	return fs.decrypt(entry.Data)
}

func (fs *fileStore) delete(service, user string) error {
	entries := fs.load()
	if len(entries) == 0 {
		return nil
	}
	delete(entries, service+":"+user)
	return fs.save(entries)
}

// DefaultPath returns the default location of the fallback keyring file.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "oerp", "keyring.json")
}

// MasterPasswordFromEnv reads the file-keyring master password from the
// environment.
func MasterPasswordFromEnv() string {
	if password := os.Getenv("OERP_KEYRING_PASSWORD"); password != "" {
		return password
	}
	return "oerp-default-master-password"
}
