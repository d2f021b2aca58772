package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Version is the slot schema version this build expects.
const Version = 2

type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, s Slots) error
}

// Migrations must stay ordered by Version.
var Migrations = []Migration{
	{Version: 1, Description: "initial layout", Up: noop},
	{Version: 2, Description: "local user profile", Up: noop},
}

func noop(context.Context, Slots) error { return nil }

// CurrentVersion reads the schema version slot; a missing slot is version 0.
func CurrentVersion(ctx context.Context, s Slots) (int, error) {
	raw, found, err := s.Get(ctx, KeyVersion)
	if err != nil || !found {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("corrupt storage version %q: %w", string(raw), err)
	}
	return v, nil
}

// Migrate brings the slots up to Version, recording each step as it completes.
func Migrate(ctx context.Context, s Slots) error {
	current, err := CurrentVersion(ctx, s)
	if err != nil {
		return err
	}
	if current > Version {
		return fmt.Errorf("storage version %d is newer than supported %d", current, Version)
	}
	for _, m := range Migrations {
		if m.Version <= current || m.Version > Version {
			continue
		}
		if err := m.Up(ctx, s); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if err := s.Set(ctx, KeyVersion, []byte(strconv.Itoa(m.Version))); err != nil {
			return err
		}
	}
	return nil
}

// Open opens the SQLite slot store under dataDir and migrates it.
func Open(ctx context.Context, dataDir string) (*SQLite, error) {
	db, err := OpenSQLite(dataDir)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
