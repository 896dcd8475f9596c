package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

// Backend persists the session token. Load returns "" when no token is
// stored.
type Backend interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// MemoryBackend keeps the token for the process lifetime only.
type MemoryBackend struct {
	mu    sync.Mutex
	token string
}

func NewMemoryBackend(token string) *MemoryBackend {
	return &MemoryBackend{token: token}
}

func (b *MemoryBackend) Load() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token, nil
}

func (b *MemoryBackend) Save(token string) error {
	b.mu.Lock()
	b.token = token
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Clear() error {
	return b.Save("")
}

// FileBackend stores the token in a single file readable only by the owner.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) (*FileBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("token file path is required")
	}
	return &FileBackend{path: path}, nil
}

func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) Load() (string, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (b *FileBackend) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

func (b *FileBackend) Clear() error {
	if err := os.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

const keyringItemKey = "session-token"

// KeyringBackend stores the token in the OS credential store.
type KeyringBackend struct {
	ring keyring.Keyring
}

// OpenKeyring opens the platform keyring for service, falling back to an
// encrypted file under dir.
func OpenKeyring(service, dir string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: service,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt(service + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

func NewKeyringBackend(ring keyring.Keyring) *KeyringBackend {
	return &KeyringBackend{ring: ring}
}

func (b *KeyringBackend) Load() (string, error) {
	item, err := b.ring.Get(keyringItemKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("getting session token: %w", err)
	}
	return string(item.Data), nil
}

func (b *KeyringBackend) Save(token string) error {
	err := b.ring.Set(keyring.Item{
		Key:   keyringItemKey,
		Data:  []byte(token),
		Label: "feedsync session token",
	})
	if err != nil {
		return fmt.Errorf("setting session token: %w", err)
	}
	return nil
}

func (b *KeyringBackend) Clear() error {
	err := b.ring.Remove(keyringItemKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting session token: %w", err)
	}
	return nil
}

var (
	_ Backend = (*MemoryBackend)(nil)
	_ Backend = (*FileBackend)(nil)
	_ Backend = (*KeyringBackend)(nil)
)
