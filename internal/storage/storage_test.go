package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, found, err := db.Get(ctx, KeyTakes); err != nil || found {
		t.Fatalf("found=%v err=%v want empty slot", found, err)
	}
	if err := SetJSON(ctx, db, KeyTakes, []string{"a", "b"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := SetJSON(ctx, db, KeyTakes, []string{"c"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	var got []string
	found, err := GetJSON(ctx, db, KeyTakes, &got)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	if len(got) != 1 || got[0] != "c" {
		t.Fatalf("got=%v want=[c]", got)
	}
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db, err := Open(ctx, dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Set(ctx, KeyUser, []byte(`{"userId":"u1"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = db.Close()

	db, err = Open(ctx, dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	raw, found, err := db.Get(ctx, KeyUser)
	if err != nil || !found || string(raw) != `{"userId":"u1"}` {
		t.Fatalf("raw=%s found=%v err=%v", raw, found, err)
	}
}

func TestMigrate_SetsVersion(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if err := Migrate(ctx, s); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	v, err := CurrentVersion(ctx, s)
	if err != nil || v != Version {
		t.Fatalf("version=%d err=%v want=%d", v, err, Version)
	}
	// Idempotent.
	if err := Migrate(ctx, s); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestMigrate_RejectsNewerVersion(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_ = s.Set(ctx, KeyVersion, []byte("99"))
	if err := Migrate(ctx, s); err == nil {
		t.Fatalf("expected error for newer schema")
	}
}

func TestClear_OnlyPrefixedKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_ = s.Set(ctx, KeyTakes, []byte("[]"))
	_ = s.Set(ctx, "other:key", []byte("1"))
	if err := Clear(ctx, s); err != nil {
		t.Fatalf("clear: %v", err)
	}
	keys, _ := s.Keys(ctx)
	if len(keys) != 1 || keys[0] != "other:key" {
		t.Fatalf("keys=%v", keys)
	}
}

func TestUpdate_NilResultAndErrorLeaveSlot(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for name, s := range map[string]Slots{"memory": NewMemory(), "sqlite": db} {
		_ = s.Set(ctx, KeyUser, []byte("v1"))
		if err := s.Update(ctx, KeyUser, func([]byte, bool) ([]byte, error) { return nil, nil }); err != nil {
			t.Fatalf("%s: nil update: %v", name, err)
		}
		boom := errors.New("boom")
		if err := s.Update(ctx, KeyUser, func([]byte, bool) ([]byte, error) { return []byte("v2"), boom }); !errors.Is(err, boom) {
			t.Fatalf("%s: err=%v want=%v", name, err, boom)
		}
		raw, _, _ := s.Get(ctx, KeyUser)
		if string(raw) != "v1" {
			t.Fatalf("%s: raw=%s want=v1", name, raw)
		}
		// Still usable after a rollback.
		if err := s.Update(ctx, KeyUser, func(cur []byte, found bool) ([]byte, error) {
			if !found || string(cur) != "v1" {
				t.Fatalf("%s: cur=%s found=%v", name, cur, found)
			}
			return []byte("v3"), nil
		}); err != nil {
			t.Fatalf("%s: update: %v", name, err)
		}
		raw, _, _ = s.Get(ctx, KeyUser)
		if string(raw) != "v3" {
			t.Fatalf("%s: raw=%s want=v3", name, raw)
		}
	}
}

func TestUpdateJSON_TwoHandlesOnOneDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	a, err := Open(ctx, dir)
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	defer a.Close()
	b, err := Open(ctx, dir)
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	defer b.Close()

	const perHandle = 50
	var wg sync.WaitGroup
	errs := make(chan error, 2*perHandle)
	for _, s := range []Slots{a, b} {
		for i := 0; i < perHandle; i++ {
			wg.Add(1)
			go func(s Slots) {
				defer wg.Done()
				errs <- UpdateJSON(ctx, s, KeyTakes, func(n *int, _ bool) (bool, error) {
					*n++
					return true, nil
				})
			}(s)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	var got int
	if _, err := GetJSON(ctx, b, KeyTakes, &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != 2*perHandle {
		t.Fatalf("counter=%d want=%d", got, 2*perHandle)
	}
}
