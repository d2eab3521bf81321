package autotext

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textinput/internal/logging"
)

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "en.yaml")
	require.NoError(t, os.WriteFile(path, []byte("words:\n  teh: the\n"), 0o644))

	store := NewStore(nil)
	w := NewWatcher(path, store, logging.Discard())
	reloaded := make(chan *Dictionary, 4)
	w.OnReload(func(d *Dictionary) { reloaded <- d })

	require.NoError(t, w.Start(context.Background()))
	defer w.Close()
	<-reloaded

	got, ok := store.Lookup("teh", "")
	require.True(t, ok)
	assert.Equal(t, "the", got)

	require.NoError(t, os.WriteFile(path, []byte("words:\n  teh: THE\n  adn: and\n"), 0o644))

	select {
	case d := <-reloaded:
		assert.Equal(t, 2, d.Len())
	case <-time.After(5 * time.Second):
		t.Fatal("dictionary was not reloaded")
	}
	got, _ = store.Lookup("teh", "")
	assert.Equal(t, "THE", got)
}

func TestWatcherKeepsOldOnBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "en.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"words": {"teh": "the"}}`), 0o644))

	store := NewStore(nil)
	w := NewWatcher(path, store, logging.Discard())
	require.NoError(t, w.Start(context.Background()))
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`{"words": {"teh": 1}}`), 0o644))

	select {
	case err := <-w.Errors():
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload error reported")
	}
	got, ok := store.Lookup("teh", "")
	assert.True(t, ok)
	assert.Equal(t, "the", got)
}

func TestWatcherStartMissingFile(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "none.toml"), NewStore(nil), logging.Discard())
	assert.Error(t, w.Start(context.Background()))
	assert.NoError(t, w.Close())
}

func TestWatcherNoReloadAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "en.yaml")
	require.NoError(t, os.WriteFile(path, []byte("words:\n  teh: the\n"), 0o644))

	store := NewStore(nil)
	w := NewWatcher(path, store, logging.Discard())
	require.NoError(t, w.Start(context.Background()))

	// Queue a debounced reload, then close before it can fire.
	require.NoError(t, os.WriteFile(path, []byte("words:\n  teh: THE\n"), 0o644))
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.Reload(), ErrWatcherClosed)
	time.Sleep(3 * reloadDebounce)

	got, ok := store.Lookup("teh", "")
	require.True(t, ok)
	assert.Equal(t, "the", got)
}
