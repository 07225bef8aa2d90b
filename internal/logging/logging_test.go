package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/EchoTools/ktexTools/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, config.LogConfig{Level: "warn"})
	if err != nil {
		t.Fatalf("NewWithWriter: %v", err)
	}
	defer l.Close()

	l.Info("hidden")
	l.Warn("shown", "file", "a.tex")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record passed a warn filter")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "file=a.tex") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestNewWithFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, config.LogConfig{Level: "debug", Format: "json", Dir: dir, File: "run.log"})
	if err != nil {
		t.Fatalf("NewWithWriter: %v", err)
	}

	l.With("run", "abc").Debug("converted", "output", "a.png")
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "run.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, s := range []string{`"msg":"converted"`, `"run":"abc"`, `"output":"a.png"`} {
		if !strings.Contains(string(data), s) {
			t.Errorf("log file lacks %s: %s", s, data)
		}
		if !strings.Contains(buf.String(), s) {
			t.Errorf("console lacks %s: %s", s, buf.String())
		}
	}
}
