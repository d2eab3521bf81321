// settingsd - per-user settings daemon
//
// settingsd keeps the system, secure and global settings tables in a
// SQLite database and serves them over a Unix socket:
//
//	settingsd                 Run in the foreground until SIGINT or SIGTERM
//	settingsd -init           Write the default configuration file and exit
//	settingsd -check          Validate the configuration and database and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"textinput/internal/config"
	"textinput/internal/logging"
)

// Version is set at build time.
var Version = "dev"

var (
	configPath  = flag.String("config", "", "path to config file")
	initConfig  = flag.Bool("init", false, "write the default config file and exit")
	checkOnly   = flag.Bool("check", false, "validate config and database, then exit")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println("settingsd", Version)
		return
	}

	if *initConfig {
		path := *configPath
		if path == "" {
			path = config.ConfigPath()
		}
		_, created, err := config.LoadOrCreate(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if created {
			fmt.Printf("Wrote default configuration to %s\n", path)
		} else {
			fmt.Printf("Configuration already exists at %s\n", path)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "settingsd: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `settingsd - settings daemon

Usage: settingsd [options]

Options:
  -config <path>  Path to config file (default: platform config dir)
  -init           Write the default config file and exit
  -check          Validate config and database, then exit
  -version        Print version and exit

Environment:
  TEXTINPUT_DATA_DIR, TEXTINPUT_DATABASE, TEXTINPUT_SOCKET,
  TEXTINPUT_LOG_LEVEL and friends override the config file.`)
}

func run() error {
	loader := config.NewLoader(*configPath, nil)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	defer loader.Close()

	logCfg, err := cfg.Logging.LoggerConfig("settingsd")
	if err != nil {
		return err
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Close()
	logging.SetDefault(logger)

	for _, w := range config.Check(cfg).Warnings() {
		logger.Warn("config", "field", w.Field, "issue", w.Message)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	daemon := NewDaemon(cfg, Version, logger.Logger)

	if *checkOnly {
		if err := daemon.Open(ctx); err != nil {
			daemon.Stop()
			return err
		}
		fmt.Printf("Configuration %s is valid; database %s opened cleanly.\n",
			loader.Path(), cfg.Daemon.DatabasePath)
		return daemon.Stop()
	}

	if err := daemon.Start(ctx); err != nil {
		daemon.Stop()
		return err
	}

	loader.OnChange(func(old, new *config.Config) {
		daemon.applyConfig(logger, old, new)
	})
	if err := loader.Watch(); err != nil {
		logger.Warn("config hot reload disabled", "error", err)
	}

	logger.Info("settingsd started", "version", Version, "socket", daemon.SocketPath())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigChan:
			logger.Info("shutting down", "signal", sig.String())
			if err := daemon.Stop(); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			logger.Info("settingsd stopped")
			return nil

		case err := <-loader.Errors():
			logger.Warn("config watcher", "error", err)

		case <-ticker.C:
			logger.Debug("status", "clients", daemon.ClientCount())

		case <-ctx.Done():
			return daemon.Stop()
		}
	}
}
