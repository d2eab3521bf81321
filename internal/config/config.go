// Package config handles configuration loading, validation, and management
// for the settings daemon and the input tools.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"textinput/internal/autocap"
	"textinput/internal/logging"
)

// Version is the current configuration schema version.
const Version = 2

// Config holds the complete configuration.
type Config struct {
	// Version is the configuration schema version for migrations.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Daemon configuration for the settings store.
	Daemon DaemonConfig `toml:"daemon" json:"daemon" yaml:"daemon"`

	// IPC configuration for the daemon socket.
	IPC IPCConfig `toml:"ipc" json:"ipc" yaml:"ipc"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Input configuration for the key composer.
	Input InputConfig `toml:"input" json:"input" yaml:"input"`

	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// DaemonConfig holds settings storage configuration.
type DaemonConfig struct {
	// DatabasePath is the SQLite database holding the settings tables.
	DatabasePath string `toml:"database_path" json:"database_path" yaml:"database_path"`

	// PropertiesDir holds the table version properties.
	PropertiesDir string `toml:"properties_dir" json:"properties_dir" yaml:"properties_dir"`
}

// IPCConfig holds inter-process communication configuration.
type IPCConfig struct {
	// SocketPath is the Unix socket the daemon listens on.
	SocketPath string `toml:"socket_path" json:"socket_path" yaml:"socket_path"`

	// MaxConnections is the maximum number of concurrent clients.
	MaxConnections int `toml:"max_connections" json:"max_connections" yaml:"max_connections"`

	// ReadTimeoutSec is the idle time after which the daemon pings a client.
	ReadTimeoutSec int `toml:"read_timeout_sec" json:"read_timeout_sec" yaml:"read_timeout_sec"`

	// WriteTimeoutSec bounds a single write to a client.
	WriteTimeoutSec int `toml:"write_timeout_sec" json:"write_timeout_sec" yaml:"write_timeout_sec"`

	// RequestTimeoutSec bounds a client request.
	RequestTimeoutSec int `toml:"request_timeout_sec" json:"request_timeout_sec" yaml:"request_timeout_sec"`

	// DefaultPermission applies to peers other than root and the daemon's
	// user: "read-only", "read-write" or "full-control".
	DefaultPermission string `toml:"default_permission" json:"default_permission" yaml:"default_permission"`

	// RequestRate is the sustained settings requests per second allowed
	// for one client, with bursts up to RequestBurst. Zero disables it.
	RequestRate  float64 `toml:"request_rate" json:"request_rate" yaml:"request_rate"`
	RequestBurst int     `toml:"request_burst" json:"request_burst" yaml:"request_burst"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: text or json.
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is stdout, stderr, file, both or discard.
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file path.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// AddSource adds file and line to every record.
	AddSource bool `toml:"add_source" json:"add_source" yaml:"add_source"`
}

// InputConfig holds key composer configuration.
type InputConfig struct {
	// Capitalize is the field capitalization mode: none, characters,
	// words or sentences.
	Capitalize string `toml:"capitalize" json:"capitalize" yaml:"capitalize"`

	// AutoText enables autotext and the double-space period.
	AutoText bool `toml:"autotext" json:"autotext" yaml:"autotext"`

	// FullKeyboard disables the held-key picker.
	FullKeyboard bool `toml:"full_keyboard" json:"full_keyboard" yaml:"full_keyboard"`

	// DictionaryPath is the autotext dictionary file. Empty disables
	// autotext replacements.
	DictionaryPath string `toml:"dictionary_path" json:"dictionary_path" yaml:"dictionary_path"`

	// Locale tags the dictionary, e.g. en_US.
	Locale string `toml:"locale" json:"locale" yaml:"locale"`

	// Context is the autotext context of the edited field, e.g. email.
	Context string `toml:"context" json:"context" yaml:"context"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	paths := GetDefaultPaths()

	return &Config{
		Version: Version,
		Daemon: DaemonConfig{
			DatabasePath:  paths.DatabaseFile,
			PropertiesDir: paths.PropertiesDir,
		},
		IPC: IPCConfig{
			SocketPath:        paths.SocketPath,
			MaxConnections:    100,
			ReadTimeoutSec:    60,
			WriteTimeoutSec:   10,
			RequestTimeoutSec: 10,
			DefaultPermission: "read-write",
			RequestRate:       200,
			RequestBurst:      400,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   paths.LogFile,
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Input: InputConfig{
			Capitalize:     "sentences",
			AutoText:       true,
			DictionaryPath: paths.Dictionary,
			Locale:         "en_US",
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return GetDefaultPaths().ConfigFile
}

// Load reads configuration from the specified path, applies environment
// overrides and validates the result. A missing file yields the defaults.
// TOML, JSON and YAML are chosen by file extension.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	if cfg.Version < Version {
		migrateConfig(cfg)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the daemon's directories.
func (c *Config) EnsureDirectories() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dirs := []string{
		filepath.Dir(c.Daemon.DatabasePath),
		c.Daemon.PropertiesDir,
		filepath.Dir(c.IPC.SocketPath),
	}
	if c.Logging.Output == "file" || c.Logging.Output == "both" {
		dirs = append(dirs, filepath.Dir(c.Logging.FilePath))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// DataDir returns the base data directory, honouring TEXTINPUT_DATA_DIR.
func DataDir() string {
	if envDir := os.Getenv("TEXTINPUT_DATA_DIR"); envDir != "" {
		return envDir
	}
	return PlatformDataDir()
}

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Variables are prefixed with TEXTINPUT_.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if v := os.Getenv(name); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("TEXTINPUT_DATABASE", &c.Daemon.DatabasePath)
	str("TEXTINPUT_PROPERTIES_DIR", &c.Daemon.PropertiesDir)

	str("TEXTINPUT_SOCKET", &c.IPC.SocketPath)

	str("TEXTINPUT_LOG_LEVEL", &c.Logging.Level)
	str("TEXTINPUT_LOG_FORMAT", &c.Logging.Format)
	str("TEXTINPUT_LOG_OUTPUT", &c.Logging.Output)
	str("TEXTINPUT_LOG_PATH", &c.Logging.FilePath)

	str("TEXTINPUT_CAPITALIZE", &c.Input.Capitalize)
	boolean("TEXTINPUT_AUTOTEXT", &c.Input.AutoText)
	boolean("TEXTINPUT_FULL_KEYBOARD", &c.Input.FullKeyboard)
	str("TEXTINPUT_DICTIONARY", &c.Input.DictionaryPath)
	str("TEXTINPUT_LOCALE", &c.Input.Locale)
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Config{
		Version: c.Version,
		Daemon:  c.Daemon,
		IPC:     c.IPC,
		Logging: c.Logging,
		Input:   c.Input,
	}
}

// LoggerConfig converts the section into a logging.Config for component.
func (l LoggingConfig) LoggerConfig(component string) (*logging.Config, error) {
	level, err := logging.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(l.Format)
	if err != nil {
		return nil, err
	}

	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Format = format
	cfg.Output = l.Output
	cfg.FilePath = l.FilePath
	cfg.MaxSizeMB = int64(l.MaxSizeMB)
	cfg.MaxBackups = l.MaxBackups
	cfg.AddSource = l.AddSource
	cfg.Component = component
	return cfg, nil
}

// ReadTimeout returns ReadTimeoutSec as a duration.
func (i IPCConfig) ReadTimeout() time.Duration {
	return time.Duration(i.ReadTimeoutSec) * time.Second
}

// WriteTimeout returns WriteTimeoutSec as a duration.
func (i IPCConfig) WriteTimeout() time.Duration {
	return time.Duration(i.WriteTimeoutSec) * time.Second
}

// RequestTimeout returns RequestTimeoutSec as a duration.
func (i IPCConfig) RequestTimeout() time.Duration {
	return time.Duration(i.RequestTimeoutSec) * time.Second
}

// CapitalizeMode parses the capitalization mode.
func (i InputConfig) CapitalizeMode() (autocap.Mode, error) {
	return autocap.ParseMode(i.Capitalize)
}

// Dictionary returns DictionaryPath with a leading ~ expanded.
func (i InputConfig) Dictionary() string {
	return expandPath(i.DictionaryPath)
}
