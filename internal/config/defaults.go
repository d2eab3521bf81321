package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// AppName names the per-user directories.
const AppName = "textinput"

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/textinput/
//   - Linux:   ~/.local/share/textinput/
//   - Windows: %APPDATA%\textinput\
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", AppName)
	case "linux":
		return xdgDir("XDG_DATA_HOME", ".local", "share")
	case "windows":
		return windowsDir("APPDATA", "Roaming")
	default:
		return filepath.Join(homeDir(), "."+AppName)
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/textinput/
//   - Linux:   ~/.config/textinput/
//   - Windows: %APPDATA%\textinput\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "linux":
		return xdgDir("XDG_CONFIG_HOME", ".config")
	default:
		return PlatformDataDir()
	}
}

// PlatformLogDir returns the platform-specific log directory.
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Logs", AppName)
	case "linux":
		return filepath.Join(xdgDir("XDG_STATE_HOME", ".local", "state"), "logs")
	case "windows":
		return filepath.Join(windowsDir("LOCALAPPDATA", "Local"), "logs")
	default:
		return filepath.Join(PlatformDataDir(), "logs")
	}
}

// PlatformRuntimeDir returns the directory holding the daemon socket.
//
// Platform paths:
//   - Linux:   $XDG_RUNTIME_DIR/textinput/ or /tmp/textinput-$UID/
//   - others:  /tmp/textinput-$UID/
func PlatformRuntimeDir() string {
	if runtime.GOOS == "linux" {
		if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
			return filepath.Join(xdgRuntime, AppName)
		}
	}
	return filepath.Join(os.TempDir(), AppName+"-"+strconv.Itoa(os.Getuid()))
}

func homeDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return home
}

func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, AppName)
	}
	parts := append([]string{homeDir()}, fallback...)
	return filepath.Join(append(parts, AppName)...)
}

func windowsDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(homeDir(), "AppData", fallback, AppName)
}

// DefaultPaths returns all default paths for a platform.
type DefaultPaths struct {
	DataDir    string
	ConfigDir  string
	LogDir     string
	RuntimeDir string

	ConfigFile    string
	DatabaseFile  string
	PropertiesDir string
	SocketPath    string
	LogFile       string
	Dictionary    string
}

// GetDefaultPaths returns all default paths for the current platform.
// The data directory honours TEXTINPUT_DATA_DIR.
func GetDefaultPaths() *DefaultPaths {
	dataDir := DataDir()
	configDir := PlatformConfigDir()
	logDir := PlatformLogDir()
	runtimeDir := PlatformRuntimeDir()

	return &DefaultPaths{
		DataDir:    dataDir,
		ConfigDir:  configDir,
		LogDir:     logDir,
		RuntimeDir: runtimeDir,

		ConfigFile:    filepath.Join(configDir, "config.toml"),
		DatabaseFile:  filepath.Join(dataDir, "settings.db"),
		PropertiesDir: filepath.Join(dataDir, "props"),
		SocketPath:    filepath.Join(runtimeDir, "settingsd.sock"),
		LogFile:       filepath.Join(logDir, "settingsd.log"),
		Dictionary:    filepath.Join(configDir, "autotext.toml"),
	}
}

// SupportedConfigFormats returns the list of supported config file formats.
func SupportedConfigFormats() []string {
	return []string{"toml", "json", "yaml", "yml"}
}

// FindConfigFile searches for a config file in standard locations and
// returns the first one found, or "".
func FindConfigFile() string {
	paths := GetDefaultPaths()

	for _, dir := range []string{".", paths.ConfigDir, paths.DataDir} {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}
