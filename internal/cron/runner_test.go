package cronrunner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunner_RunsJobsWithBaseContext(t *testing.T) {
	type key struct{}
	base := context.WithValue(context.Background(), key{}, "base")
	r := New(nil, base)

	got := make(chan string, 4)
	if _, err := r.Add("probe", "@every 1s", func(ctx context.Context) {
		v, _ := ctx.Value(key{}).(string)
		select {
		case got <- v:
		default:
		}
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("len=%d want=1", r.Len())
	}
	r.Start()
	defer r.Stop()

	select {
	case v := <-got:
		if v != "base" {
			t.Fatalf("ctx value=%q want=base", v)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("job never ran")
	}
}

func TestRunner_RecoversPanics(t *testing.T) {
	r := New(nil, context.Background())
	var runs int32
	if _, err := r.Add("boom", "@every 1s", func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
		panic("boom")
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	r.Start()
	deadline := time.Now().Add(4 * time.Second)
	for atomic.LoadInt32(&runs) < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	r.Stop()
	if atomic.LoadInt32(&runs) < 2 {
		t.Fatalf("runs=%d, scheduler died after panic", runs)
	}
}

func TestRunner_SkipsCancelledBase(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	cancel()
	r := New(nil, base)
	var runs int32
	if _, err := r.Add("noop", "@every 1s", func(ctx context.Context) { atomic.AddInt32(&runs, 1) }); err != nil {
		t.Fatalf("add: %v", err)
	}
	r.Start()
	time.Sleep(1500 * time.Millisecond)
	r.Stop()
	if n := atomic.LoadInt32(&runs); n != 0 {
		t.Fatalf("runs=%d want=0", n)
	}
}

func TestRunner_RejectsBadSpec(t *testing.T) {
	r := New(nil, nil)
	if _, err := r.Add("bad", "every now and then", func(context.Context) {}); err == nil {
		t.Fatalf("expected parse error")
	}
}
