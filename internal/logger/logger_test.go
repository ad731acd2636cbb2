package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zap.InfoLevel,
		"debug": zap.DebugLevel,
		"warn":  zap.WarnLevel,
		"error": zap.ErrorLevel,
		"loud":  zap.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWritesDailyFile(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	root := t.TempDir()
	log, err := New(Options{Root: root, Dir: "var/log", Level: "debug"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debugw("draft saved", "key", "k")
	_ = log.Sync()

	name := filepath.Join(root, "var", "log", FileName(time.Now()))
	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{`"msg":"draft saved"`, `"service":"impact"`} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("log file missing %s:\n%s", want, b)
		}
	}
}

func TestNewDropsBelowLevel(t *testing.T) {
	prev := zap.L()
	defer zap.ReplaceGlobals(prev)

	root := t.TempDir()
	log, err := New(Options{Root: root, Level: "warn"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Infow("form session opened")
	log.Warnw("draft store unavailable")
	_ = log.Sync()

	b, err := os.ReadFile(filepath.Join(root, "logs", FileName(time.Now())))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(b), "form session opened") {
		t.Fatal("info entry written at warn level")
	}
	if !strings.Contains(string(b), "draft store unavailable") {
		t.Fatal("warn entry missing")
	}
}
