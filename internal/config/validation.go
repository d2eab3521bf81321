package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"textinput/internal/autocap"
)

// ErrInvalidConfig is wrapped by ValidationErrors.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
	Warning bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// IsWarning returns true if this is a non-fatal validation issue.
func (e *ValidationError) IsWarning() bool {
	return e.Warning
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e ValidationErrors) Unwrap() error {
	return ErrInvalidConfig
}

// Warnings returns only warning-level validation errors.
func (e ValidationErrors) Warnings() ValidationErrors {
	var warnings ValidationErrors
	for _, err := range e {
		if err.IsWarning() {
			warnings = append(warnings, err)
		}
	}
	return warnings
}

// Errors returns only error-level validation errors.
func (e ValidationErrors) Errors() ValidationErrors {
	var errs ValidationErrors
	for _, err := range e {
		if !err.IsWarning() {
			errs = append(errs, err)
		}
	}
	return errs
}

// HasErrors returns true if there are any non-warning errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e.Errors()) > 0
}

// ValidateConfig checks every section. It returns ValidationErrors holding
// the errors only; use Check to see warnings as well.
func ValidateConfig(c *Config) error {
	if errs := Check(c).Errors(); len(errs) > 0 {
		return errs
	}
	return nil
}

// Check returns every validation issue, warnings included.
func Check(c *Config) ValidationErrors {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateDaemon(&c.Daemon)...)
	errs = append(errs, validateIPC(&c.IPC)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateInput(&c.Input)...)

	return errs
}

func validateDaemon(d *DaemonConfig) ValidationErrors {
	var errs ValidationErrors

	if d.DatabasePath == "" {
		errs = append(errs, *RequiredFieldError("daemon.database_path"))
	}
	if d.PropertiesDir == "" {
		errs = append(errs, *RequiredFieldError("daemon.properties_dir"))
	}

	return errs
}

func validateIPC(i *IPCConfig) ValidationErrors {
	var errs ValidationErrors

	if i.SocketPath == "" {
		errs = append(errs, *RequiredFieldError("ipc.socket_path"))
	} else if len(i.SocketPath) > 104 {
		errs = append(errs, ValidationError{
			Field:   "ipc.socket_path",
			Message: fmt.Sprintf("socket path is %d bytes, longer than the 104 allowed", len(i.SocketPath)),
		})
	}

	if i.MaxConnections < 1 {
		errs = append(errs, ValidationError{
			Field:   "ipc.max_connections",
			Message: "max connections must be at least 1",
		})
	}

	if i.ReadTimeoutSec < 1 {
		errs = append(errs, *RangeError("ipc.read_timeout_sec", 1, "∞"))
	}
	if i.WriteTimeoutSec < 1 {
		errs = append(errs, *RangeError("ipc.write_timeout_sec", 1, "∞"))
	}
	if i.RequestTimeoutSec < 1 {
		errs = append(errs, *RangeError("ipc.request_timeout_sec", 1, "∞"))
	}

	if i.RequestRate < 0 {
		errs = append(errs, *RangeError("ipc.request_rate", 0, "∞"))
	} else if i.RequestRate > 0 && i.RequestBurst < 1 {
		errs = append(errs, ValidationError{
			Field:   "ipc.request_burst",
			Message: "burst must be at least 1 when request_rate is set",
		})
	}

	switch i.DefaultPermission {
	case "read-only", "read-write", "full-control":
	default:
		errs = append(errs, ValidationError{
			Field:   "ipc.default_permission",
			Message: fmt.Sprintf("invalid permission: %s (valid: read-only, read-write, full-control)", i.DefaultPermission),
		})
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr", "discard":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: "file path is required when output is 'file'",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %s (valid: stdout, stderr, file, both, discard)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}

	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}

	return errs
}

func validateInput(in *InputConfig) ValidationErrors {
	var errs ValidationErrors

	if _, err := autocap.ParseMode(in.Capitalize); err != nil {
		errs = append(errs, ValidationError{
			Field:   "input.capitalize",
			Message: err.Error(),
		})
	}

	if in.DictionaryPath != "" {
		ext := strings.TrimPrefix(filepath.Ext(in.DictionaryPath), ".")
		known := false
		for _, f := range SupportedConfigFormats() {
			if f == ext {
				known = true
			}
		}
		if !known {
			errs = append(errs, ValidationError{
				Field:   "input.dictionary_path",
				Message: fmt.Sprintf("unsupported dictionary format %q", ext),
			})
		} else if _, err := os.Stat(expandPath(in.DictionaryPath)); err != nil {
			// The dictionary may be created later; the watcher picks it up.
			errs = append(errs, ValidationError{
				Field:   "input.dictionary_path",
				Message: fmt.Sprintf("dictionary not readable: %v", err),
				Warning: true,
			})
		}
	}

	return errs
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// RequiredFieldError creates a validation error for a required field.
func RequiredFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "required field is missing",
	}
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}
