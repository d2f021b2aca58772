// Package db opens the server's postgres pool through gorm.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"twelfthman/internal/config"
)

const openPingTimeout = 5 * time.Second

type DB struct {
	Gorm *gorm.DB
	SQL  *sql.DB
}

// Open connects, sizes the pool and pings once so a bad DSN fails at startup. The
// session timezone rides on the DSN so every pooled connection gets it.
func Open(ctx context.Context, cfg config.DBConfig, log *zap.Logger) (*DB, error) {
	dsn, err := withTimezone(cfg.DSN, cfg.Timezone)
	if err != nil {
		return nil, err
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         newGormLogger(log, cfg.SlowQuery),
		NowFunc:        NowUTC,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqldb, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	d := &DB{Gorm: gdb, SQL: sqldb}
	pingCtx, cancel := context.WithTimeout(ctx, openPingTimeout)
	defer cancel()
	if err := d.Ping(pingCtx); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.SQL == nil {
		return nil
	}
	return d.SQL.Close()
}

func (d *DB) Ping(ctx context.Context) error {
	if d == nil || d.SQL == nil {
		return nil
	}
	return d.SQL.PingContext(ctx)
}

// withTimezone adds a timezone startup parameter to a keyword or URL DSN unless the DSN
// already names one.
func withTimezone(dsn, tz string) (string, error) {
	dsn, tz = strings.TrimSpace(dsn), strings.TrimSpace(tz)
	if tz == "" || strings.Contains(strings.ToLower(dsn), "timezone=") {
		return dsn, nil
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse db dsn: %w", err)
		}
		q := u.Query()
		q.Set("timezone", tz)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	if strings.ContainsAny(tz, " '\\") {
		return "", fmt.Errorf("invalid db timezone %q", tz)
	}
	if dsn == "" {
		return "timezone=" + tz, nil
	}
	return dsn + " timezone=" + tz, nil
}

// NowUTC truncates to microseconds, the precision postgres keeps for timestamptz, so
// values read back compare equal to what was written.
func NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
