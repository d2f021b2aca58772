package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_EnvOnlyDefaults(t *testing.T) {
	cfg, err := Load("does-not-exist.yaml", true)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if cfg.Sync.MaxBatch != 10 {
		t.Fatalf("max_batch=%d want=10", cfg.Sync.MaxBatch)
	}
	if cfg.Feed.DefaultLimit != 20 || cfg.Feed.MaxLimit != 50 {
		t.Fatalf("feed=%+v want default 20 max 50", cfg.Feed)
	}
	if cfg.Client.BaseBackoff != 5*time.Second || cfg.Client.MaxBackoff != 5*time.Minute {
		t.Fatalf("backoff=%v/%v", cfg.Client.BaseBackoff, cfg.Client.MaxBackoff)
	}
	if cfg.Client.MaxRetries != 3 {
		t.Fatalf("max_retries=%d want=3", cfg.Client.MaxRetries)
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("server:\n  http_addr: \":9999\"\nfeed:\n  default_limit: 10\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TM_RATE_LIMIT_SYNC_PER_MINUTE", "5")

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if cfg.Server.HTTPAddr != ":9999" {
		t.Fatalf("http_addr=%q", cfg.Server.HTTPAddr)
	}
	if cfg.Feed.DefaultLimit != 10 {
		t.Fatalf("default_limit=%d want=10", cfg.Feed.DefaultLimit)
	}
	if cfg.RateLimit.SyncPerMinute != 5 {
		t.Fatalf("sync_per_minute=%d want=5", cfg.RateLimit.SyncPerMinute)
	}
}

func TestValidateServer(t *testing.T) {
	cfg, err := Load("", true)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if err := cfg.ValidateServer(); err == nil {
		t.Fatalf("expected missing dsn error")
	}
	cfg.DB.DSN = "host=localhost"
	if err := cfg.ValidateServer(); err != nil {
		t.Fatalf("err=%v", err)
	}
	cfg.Auth.JWTSecret = "short"
	if err := cfg.ValidateServer(); err == nil {
		t.Fatalf("expected short secret error")
	}
}
