package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"twelfthman/internal/config"
)

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "takes.log")
	log, err := New(config.LogConfig{
		Level:    "debug",
		Encoding: "json",
		File:     path,
		Quiet:    true,
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	log.Info("sync run finished")
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), "sync run finished") {
		t.Fatalf("log file missing entry: %q", string(raw))
	}
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	log, err := New(config.LogConfig{Level: "loud", Encoding: "console"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if log.Core().Enabled(-1) {
		t.Fatalf("debug should be disabled at fallback level")
	}
}
