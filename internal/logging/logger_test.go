package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestSetOutputLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "warn")
	defer Close()

	Info("hidden message")
	Warn("refresh failed", "category", "top")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "refresh failed") || !strings.Contains(out, "category=top") {
		t.Errorf("expected warn line with keyvals, got: %s", out)
	}
}

func TestSetOutputUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "chatty")
	defer Close()

	Debug("debug line")
	Info("info line")

	out := buf.String()
	if strings.Contains(out, "debug line") {
		t.Error("unknown level should fall back to info")
	}
	if !strings.Contains(out, "info line") {
		t.Error("info line missing")
	}
}

func TestInitWritesDatedFile(t *testing.T) {
	dir := t.TempDir()

	path, err := Init(dir, "debug")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	With("comp", "test").Info("hello")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello") || !strings.Contains(string(data), "comp=test") {
		t.Errorf("log file missing entry: %s", data)
	}
}

func TestHelpersBeforeInit(t *testing.T) {
	Close()
	// Discard logger: must not panic.
	Error("nobody listens")
}
