package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.hasError {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if level != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, level)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	for _, lvl := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		got, err := ParseLevel(LevelString(lvl))
		if err != nil || got != lvl {
			t.Errorf("round trip of %v gave %v, %v", lvl, got, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Errorf("expected json, got %v %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != LevelInfo {
		t.Errorf("expected info level, got %v", cfg.Level)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected stderr output, got %s", cfg.Output)
	}
	if !strings.HasSuffix(cfg.FilePath, "textinput.log") {
		t.Errorf("unexpected file path %s", cfg.FilePath)
	}
}

func TestRedaction(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = FormatJSON
	l := &Logger{Logger: slog.New(newHandler(&buf, cfg, cfg.Level)), config: cfg}
	l.Info("put", "name", "wifi", "wifi_password", "hunter2")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec["wifi_password"] != "[REDACTED]" {
		t.Errorf("password not redacted: %v", rec["wifi_password"])
	}
	if rec["name"] != "wifi" {
		t.Errorf("name changed: %v", rec["name"])
	}
}

func TestShouldRedact(t *testing.T) {
	keys := []string{"password", "token"}
	if !shouldRedact(keys, "Auth_Token") {
		t.Error("token should be redacted")
	}
	if shouldRedact(keys, "table") {
		t.Error("table should not be redacted")
	}
	if shouldRedact([]string{""}, "anything") {
		t.Error("empty pattern must not match")
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelDebug).WithComponent("composer")
	l.Debug("key", "code", "Del")
	if !strings.Contains(buf.String(), "component=composer") {
		t.Errorf("missing component in %q", buf.String())
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelInfo)
	ctx := ContextWithRequestID(context.Background(), "req-7")
	l.WithContext(ctx).Info("get")
	if !strings.Contains(buf.String(), "request_id=req-7") {
		t.Errorf("missing request id in %q", buf.String())
	}

	if got := l.WithContext(context.Background()); got != l {
		t.Error("logger without request id should be returned as is")
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LevelWarn)
	child := l.WithComponent("ipc")

	child.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %q", buf.String())
	}

	l.SetLevel(LevelDebug)
	if l.Level() != LevelDebug {
		t.Errorf("expected debug, got %v", l.Level())
	}
	child.Info("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("derived logger did not follow level change: %q", buf.String())
	}
}

func TestRequestIDFromNilContext(t *testing.T) {
	//nolint:staticcheck
	if id := RequestIDFromContext(nil); id != "" {
		t.Errorf("expected empty id, got %q", id)
	}
}

func TestComponentHelper(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	Component(base, "settings").Info("hello")
	if !strings.Contains(buf.String(), "component=settings") {
		t.Errorf("missing component in %q", buf.String())
	}
	if Component(nil, "x") == nil {
		t.Error("nil base should fall back to the default logger")
	}
}

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	func() {
		defer RecoverPanic(l, "test")
		panic("boom")
	}()
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("panic not logged: %q", buf.String())
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "settingsd.log")
	cfg := DefaultConfig()
	cfg.Output = "file"
	cfg.FilePath = path
	cfg.Format = FormatJSON
	cfg.Component = "settingsd"

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Info("started")
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"component":"settingsd"`) {
		t.Errorf("unexpected log content %q", data)
	}
}

func TestFileRotatorRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	r, err := NewFileRotator(path, 1, 2)
	if err != nil {
		t.Fatalf("new rotator: %v", err)
	}
	defer r.Close()
	r.maxBytes = 64

	line := []byte(strings.Repeat("x", 40) + "\n")
	for i := 0; i < 6; i++ {
		if _, err := r.Write(line); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	backups, err := r.Backups()
	if err != nil {
		t.Fatalf("backups: %v", err)
	}
	if len(backups) != 2 {
		t.Errorf("expected 2 backups, got %d: %v", len(backups), backups)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() > 64 {
		t.Errorf("current file too large: %d", info.Size())
	}
}

func TestFileRotatorEmptyPath(t *testing.T) {
	if _, err := NewFileRotator("", 1, 1); err == nil {
		t.Error("expected error for empty path")
	}
}
