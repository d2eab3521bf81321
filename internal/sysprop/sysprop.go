// Package sysprop stores small integer properties shared between
// processes, such as the settings table version counters that let readers
// drop their caches.
package sysprop

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Reader reads properties. Missing or unreadable properties yield def.
type Reader interface {
	Get(name string, def int64) int64
}

// Store reads and writes properties.
type Store interface {
	Reader
	Set(name string, v int64) error
	Increment(name string) (int64, error)
}

// ErrInvalidName is returned for names that cannot be used as file names.
var ErrInvalidName = errors.New("sysprop: invalid property name")

var validName = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func checkName(name string) error {
	if !validName.MatchString(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// FileStore keeps one file per property under a directory. Writes go
// through a temporary file and a rename so readers never see a partial
// value.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create property dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the property directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Get implements Reader.
func (s *FileStore) Get(name string, def int64) int64 {
	if checkName(name) != nil {
		return def
	}
	v, err := s.read(name)
	if err != nil {
		return def
	}
	return v
}

func (s *FileStore) read(name string) (int64, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}

// Set implements Store.
func (s *FileStore) Set(name string, v int64) error {
	if err := checkName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(name, v)
}

func (s *FileStore) write(name string, v int64) error {
	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.WriteString(strconv.FormatInt(v, 10) + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write property: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close property: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("chmod property: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename property: %w", err)
	}
	return nil
}

// Increment adds one to the property and returns the new value. Only the
// owning process should increment; FileStore serializes increments within
// that process.
func (s *FileStore) Increment(name string) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.read(name)
	if err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("read property: %w", err)
	}
	v++
	if err := s.write(name, v); err != nil {
		return 0, err
	}
	return v, nil
}

// MemStore is an in-process Store.
type MemStore struct {
	mu    sync.RWMutex
	props map[string]int64
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{props: make(map[string]int64)}
}

// Get implements Reader.
func (m *MemStore) Get(name string, def int64) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.props[name]; ok {
		return v
	}
	return def
}

// Set implements Store.
func (m *MemStore) Set(name string, v int64) error {
	m.mu.Lock()
	m.props[name] = v
	m.mu.Unlock()
	return nil
}

// Increment implements Store.
func (m *MemStore) Increment(name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.props[name]++
	return m.props[name], nil
}
