package main

import (
	"context"
	"fmt"
	"log/slog"

	"textinput/internal/compose"
	"textinput/internal/config"
	"textinput/internal/ipc"
	"textinput/internal/logging"
	"textinput/internal/settings"
	"textinput/internal/sysprop"
)

// prefSource reads the text preferences from settingsd and follows their
// changes.
type prefSource struct {
	client   *ipc.IPCClient
	resolver *settings.Resolver
	logger   *slog.Logger
}

// connectPrefs dials the daemon. The caller falls back to the default
// preferences when it is not running.
func connectPrefs(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*prefSource, error) {
	ccfg := ipc.DefaultClientConfig(config.PlatformRuntimeDir())
	ccfg.SocketPath = cfg.IPC.SocketPath
	ccfg.ClientName = "qwertypad"
	ccfg.ClientVersion = Version
	ccfg.RequestTimeout = cfg.IPC.RequestTimeout()
	ccfg.Logger = logger

	client := ipc.NewClient(ccfg)
	if err := client.Connect(ctx); err != nil {
		client.Close()
		return nil, err
	}

	// Table versions are read straight from the daemon's property files,
	// so a cached value is dropped as soon as the daemon bumps the version.
	props, err := sysprop.NewFileStore(cfg.Daemon.PropertiesDir)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("open properties: %w", err)
	}

	return &prefSource{
		client:   client,
		resolver: settings.NewResolver(client, props, settings.ResolverOptions{User: client.User(), Logger: logger}),
		logger:   logging.Component(logger, "prefs"),
	}, nil
}

// Load reads the current preferences.
func (s *prefSource) Load(ctx context.Context) compose.Prefs {
	return compose.LoadPrefs(ctx, s.resolver)
}

// Online reports whether the daemon connection is up.
func (s *prefSource) Online() bool {
	return s.client.IsConnected()
}

// Watch subscribes to the preference keys and calls fn with the reloaded
// preferences after every change until ctx is done.
func (s *prefSource) Watch(ctx context.Context, fn func(compose.Prefs)) error {
	if _, err := s.client.Subscribe(ctx, []string{settings.TableSystem}, compose.PrefKeys); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	go func() {
		defer logging.RecoverPanic(s.logger, "prefs watch")
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-s.client.Events():
				if !ok {
					return
				}
				if ev.Type == ipc.EventDaemonShutdown {
					s.logger.Info("daemon shut down, keeping current preferences")
					continue
				}
				if ev.Change == nil {
					continue
				}
				s.logger.Debug("preference changed", "name", ev.Change.Name, "value", ev.Change.Value)
				fn(s.Load(ctx))
			}
		}
	}()
	return nil
}

// Close disconnects from the daemon.
func (s *prefSource) Close() error {
	return s.client.Close()
}
