package sysprop

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "props")
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	assert.Equal(t, int64(7), s.Get("sys.settings_system_version", 7))

	require.NoError(t, s.Set("sys.settings_system_version", 41))
	assert.Equal(t, int64(41), s.Get("sys.settings_system_version", 0))

	v, err := s.Increment("sys.settings_system_version")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = s.Increment("fresh")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	// A second store on the same directory sees the same values.
	other, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(42), other.Get("sys.settings_system_version", 0))
}

func TestFileStoreGarbage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad"), []byte("not a number"), 0o644))
	assert.Equal(t, int64(-1), s.Get("bad", -1))

	_, err = s.Increment("bad")
	assert.Error(t, err)
}

func TestFileStoreInvalidNames(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "..", "a/b", "with space"} {
		assert.ErrorIs(t, s.Set(name, 1), ErrInvalidName, name)
		assert.Equal(t, int64(3), s.Get(name, 3), name)
	}
}

func TestFileStoreConcurrentIncrement(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Increment("counter")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(20), s.Get("counter", 0))
}

func TestMemStore(t *testing.T) {
	var s Store = NewMemStore()
	assert.Equal(t, int64(5), s.Get("x", 5))
	require.NoError(t, s.Set("x", 9))
	v, err := s.Increment("x")
	require.NoError(t, err)
	assert.Equal(t, int64(10), v)
	assert.Equal(t, int64(10), s.Get("x", 0))
}
