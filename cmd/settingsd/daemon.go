package main

import (
	"context"
	"fmt"
	"log/slog"

	"textinput/internal/config"
	"textinput/internal/ipc"
	"textinput/internal/logging"
	"textinput/internal/store"
	"textinput/internal/sysprop"
)

// Daemon owns the settings store and the IPC server in front of it.
type Daemon struct {
	cfg     *config.Config
	version string
	logger  *slog.Logger

	props   *sysprop.FileStore
	store   *store.Store
	handler *ipc.SettingsHandler
	server  *ipc.Server
}

// NewDaemon creates a daemon for cfg. Nothing is opened until Start.
func NewDaemon(cfg *config.Config, version string, logger *slog.Logger) *Daemon {
	return &Daemon{
		cfg:     cfg,
		version: version,
		logger:  logging.Component(logger, "settingsd"),
	}
}

// Start opens the store and starts serving.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.Open(ctx); err != nil {
		return err
	}
	return d.serve()
}

// Open creates the directories, opens the store and checks its integrity.
func (d *Daemon) Open(ctx context.Context) error {
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	props, err := sysprop.NewFileStore(d.cfg.Daemon.PropertiesDir)
	if err != nil {
		return fmt.Errorf("open properties: %w", err)
	}
	d.props = props

	st, err := store.Open(d.cfg.Daemon.DatabasePath, store.Options{Props: props, Logger: d.logger})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	d.store = st

	report, err := st.Check(ctx)
	if err != nil {
		return fmt.Errorf("check store: %w", err)
	}
	if !report.OK() {
		d.logger.Warn("database integrity check failed", "problems", report.Integrity)
	}
	d.logger.Info("store opened",
		"path", d.cfg.Daemon.DatabasePath,
		"schema", report.SchemaVersion,
		"settings", report.Settings)
	return nil
}

func (d *Daemon) serve() error {
	perm, err := ipc.ParsePermission(d.cfg.IPC.DefaultPermission)
	if err != nil {
		return err
	}
	st := d.store

	d.handler = ipc.NewSettingsHandler(ipc.SettingsHandlerConfig{
		Backend: st,
		Version: d.version,
		Logger:  d.logger,
	})

	server, err := ipc.NewServer(ipc.ServerConfig{
		SocketPath:     d.cfg.IPC.SocketPath,
		Version:        d.version,
		ReadTimeout:    d.cfg.IPC.ReadTimeout(),
		WriteTimeout:   d.cfg.IPC.WriteTimeout(),
		MaxConnections: d.cfg.IPC.MaxConnections,
		Logger:         d.logger,
		DefaultPerm:    perm,
		RequestRate:    d.cfg.IPC.RequestRate,
		RequestBurst:   d.cfg.IPC.RequestBurst,
	}, d.handler)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	d.server = server

	d.handler.SetServer(server)
	st.OnChange(ipc.BroadcastChanges(server))

	if err := server.Start(); err != nil {
		d.server = nil
		return fmt.Errorf("start server: %w", err)
	}
	return nil
}

// Stop shuts the server down and closes the store.
func (d *Daemon) Stop() error {
	var firstErr error
	if d.server != nil {
		if err := d.server.Stop(); err != nil {
			firstErr = err
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		d.store = nil
	}
	return firstErr
}

// SocketPath returns the socket the daemon listens on.
func (d *Daemon) SocketPath() string {
	if d.server != nil {
		return d.server.SocketPath()
	}
	return d.cfg.IPC.SocketPath
}

// ClientCount returns the number of connected clients.
func (d *Daemon) ClientCount() int {
	if d.server == nil {
		return 0
	}
	return d.server.ClientCount()
}

// applyConfig handles a hot-reloaded configuration. Only the log level
// takes effect immediately; the rest needs a restart.
func (d *Daemon) applyConfig(logger *logging.Logger, old, new *config.Config) {
	if old.Logging.Level != new.Logging.Level {
		if level, err := logging.ParseLevel(new.Logging.Level); err == nil {
			logger.SetLevel(level)
			d.logger.Info("log level changed", "level", new.Logging.Level)
		}
	}
	if old.Daemon != new.Daemon || old.IPC != new.IPC {
		d.logger.Warn("daemon and ipc changes take effect after a restart")
	}
}
