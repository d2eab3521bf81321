package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textinput/internal/ipc"
	"textinput/internal/logging"
	"textinput/internal/settings"
	"textinput/internal/store"
	"textinput/internal/sysprop"
)

func startServer(t *testing.T) (*store.Store, string) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "settings.db"), store.Options{Props: sysprop.NewMemStore(), Logger: logging.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	dir, err := os.MkdirTemp("", "ctl")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	h := ipc.NewSettingsHandler(ipc.SettingsHandlerConfig{Backend: st, Version: "test", Logger: logging.Discard()})
	cfg := ipc.DefaultServerConfig(dir)
	cfg.Logger = logging.Discard()
	srv, err := ipc.NewServer(cfg, h)
	require.NoError(t, err)
	h.SetServer(srv)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Stop() })

	return st, cfg.SocketPath
}

func TestPutGetDelete(t *testing.T) {
	st, socket := startServer(t)
	c := newCtlFor(socket, 5*time.Second)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.put("system", settings.TextAutoCaps, "0"))
	v, found, err := st.Get(ctx, "system", settings.TextAutoCaps, os.Getuid())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "0", v)

	require.NoError(t, c.get("system", settings.TextAutoCaps))
	require.NoError(t, c.list("system"))

	require.NoError(t, c.delete("system", settings.TextAutoCaps))
	_, found, err = st.Get(ctx, "system", settings.TextAutoCaps, os.Getuid())
	require.NoError(t, err)
	assert.False(t, found)

	assert.Error(t, c.get("system", settings.TextAutoCaps), "missing keys are reported")
}

func TestMovedKeys(t *testing.T) {
	st, socket := startServer(t)
	c := newCtlFor(socket, 5*time.Second)
	defer c.Close()

	err := c.put("system", settings.ADBEnabled, "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moved")

	_, err = st.Put(context.Background(), "secure", settings.ADBEnabled, "1", os.Getuid())
	require.NoError(t, err)

	// Reads follow the key to its new table.
	require.NoError(t, c.get("system", settings.ADBEnabled))
}

func TestUnknownTable(t *testing.T) {
	_, socket := startServer(t)
	c := newCtlFor(socket, 5*time.Second)
	defer c.Close()

	assert.Error(t, c.get("config", "x"))
	assert.Error(t, c.put("config", "x", "1"))
}

func TestStatus(t *testing.T) {
	_, socket := startServer(t)
	c := newCtlFor(socket, 5*time.Second)
	defer c.Close()

	require.NoError(t, c.status())
}

func TestDaemonNotRunning(t *testing.T) {
	dir, err := os.MkdirTemp("", "ctl")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	c := newCtlFor(filepath.Join(dir, "missing.sock"), time.Second)
	defer c.Close()
	assert.ErrorIs(t, c.status(), ipc.ErrDaemonNotRunning)
}
