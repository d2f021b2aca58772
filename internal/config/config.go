package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Cron      CronConfig      `mapstructure:"cron"`

	// Client is only read by the takes CLI.
	Client ClientConfig `mapstructure:"client"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`

	// File enables a rotating file sink in addition to stdout.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Quiet      bool   `mapstructure:"quiet"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
	SlowQuery       time.Duration `mapstructure:"slow_query"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Issuer    string        `mapstructure:"issuer"`
}

type RateLimitConfig struct {
	Backend         string `mapstructure:"backend"`
	RedisAddr       string `mapstructure:"redis_addr"`
	RedisPassword   string `mapstructure:"redis_password"`
	RedisDB         int    `mapstructure:"redis_db"`
	GlobalPerMinute int    `mapstructure:"global_per_minute"`
	SyncPerMinute   int    `mapstructure:"sync_per_minute"`
}

type SyncConfig struct {
	MaxBatch int `mapstructure:"max_batch"`
}

type FeedConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

type CronConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	LimiterSweep     string `mapstructure:"limiter_sweep"`
	SyncStateSummary string `mapstructure:"sync_state_summary"`
}

type ClientConfig struct {
	ServerURL    string        `mapstructure:"server_url"`
	DataDir      string        `mapstructure:"data_dir"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	SyncSchedule string        `mapstructure:"sync_schedule"`
	BatchSize    int           `mapstructure:"batch_size"`
	MaxRetries   int           `mapstructure:"max_retries"`
	BaseBackoff  time.Duration `mapstructure:"base_backoff"`
	MaxBackoff   time.Duration `mapstructure:"max_backoff"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":4000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 14)
	v.SetDefault("log.quiet", false)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.slow_query", "500ms")
	v.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	v.SetDefault("auth.token_ttl", "720h")
	v.SetDefault("auth.issuer", "12thman")
	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.redis_addr", "")
	v.SetDefault("rate_limit.redis_password", "")
	v.SetDefault("rate_limit.redis_db", 0)
	v.SetDefault("rate_limit.global_per_minute", 300)
	v.SetDefault("rate_limit.sync_per_minute", 60)
	v.SetDefault("sync.max_batch", 10)
	v.SetDefault("feed.default_limit", 20)
	v.SetDefault("feed.max_limit", 50)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.limiter_sweep", "@every 5m")
	v.SetDefault("cron.sync_state_summary", "@every 1h")

	v.SetDefault("client.server_url", "http://localhost:4000")
	v.SetDefault("client.data_dir", "./.12thman")
	v.SetDefault("client.http_timeout", "15s")
	v.SetDefault("client.sync_schedule", "@every 30s")
	v.SetDefault("client.batch_size", 10)
	v.SetDefault("client.max_retries", 3)
	v.SetDefault("client.base_backoff", "5s")
	v.SetDefault("client.max_backoff", "5m")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ValidateServer checks the settings the API server cannot start without.
func (c Config) ValidateServer() error {
	if strings.TrimSpace(c.DB.DSN) == "" {
		return errors.New("db.dsn is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("auth.jwt_secret must be at least 16 bytes")
	}
	if c.Sync.MaxBatch <= 0 {
		return errors.New("sync.max_batch must be positive")
	}
	if c.Feed.MaxLimit <= 0 || c.Feed.DefaultLimit <= 0 || c.Feed.DefaultLimit > c.Feed.MaxLimit {
		return errors.New("feed limits are inconsistent")
	}
	return nil
}
