package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// validKey restricts keys to names that map safely onto file names.
var validKey = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ErrInvalidKey is returned for keys that cannot be stored.
var ErrInvalidKey = errors.New("invalid store key")

// KVStore is a durable key-value store of opaque byte records.
type KVStore interface {
	// Get returns the record stored under key. ok is false when the key is absent.
	Get(key string) (data []byte, ok bool, err error)
	// Set replaces the record under key.
	Set(key string, data []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}

// Locker is implemented by stores that can hold a named lock shared with
// other processes using the same directory.
type Locker interface {
	Lock(name string) (unlock func() error, err error)
}

type fileKVStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileKVStore creates a KVStore that keeps each key as <dir>/<key>.json.
// The directory is created on first write.
func NewFileKVStore(dir string) KVStore {
	return &fileKVStore{dir: dir}
}

func (s *fileKVStore) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("%w %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *fileKVStore) Get(key string) ([]byte, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, true, nil
}

// Set writes to a temporary file in the same directory and renames it over the
// target, so readers never observe a partially written record.
func (s *fileKVStore) Set(key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("writing %s: creating directory: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("writing %s: creating temp file: %w", key, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: syncing: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: closing: %w", key, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("writing %s: setting permissions: %w", key, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("writing %s: replacing: %w", key, err)
	}
	return nil
}

// Lock takes the cross-process lock <dir>/.<name>.lock. It does not hold the
// store's own mutex, so Get and Set stay usable while it is held.
func (s *fileKVStore) Lock(name string) (func() error, error) {
	if !validKey.MatchString(name) {
		return nil, fmt.Errorf("%w %q", ErrInvalidKey, name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("locking %s: creating directory: %w", name, err)
	}
	return lockFile(filepath.Join(s.dir, "."+name+".lock"))
}

func (s *fileKVStore) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// memoryKVStore is an in-process KVStore used by tests and dry runs.
type memoryKVStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKVStore creates an empty in-memory KVStore.
func NewMemoryKVStore() KVStore {
	return &memoryKVStore{data: make(map[string][]byte)}
}

func (m *memoryKVStore) Get(key string) ([]byte, bool, error) {
	if !validKey.MatchString(key) {
		return nil, false, fmt.Errorf("%w %q", ErrInvalidKey, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *memoryKVStore) Set(key string, data []byte) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("%w %q", ErrInvalidKey, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memoryKVStore) Delete(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("%w %q", ErrInvalidKey, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
