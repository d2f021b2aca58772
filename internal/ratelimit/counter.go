// Package ratelimit is a fixed-window request limiter over memory or redis counters.
package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter increments the hit count of key in the window containing now.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type bucket struct {
	count    int64
	windowAt time.Time
}

type MemoryCounter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	Now func() time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{buckets: map[string]*bucket{}, Now: time.Now}
}

func (m *MemoryCounter) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *MemoryCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	b, ok := m.buckets[key]
	if !ok || now.Sub(b.windowAt) >= window {
		m.buckets[key] = &bucket{count: 1, windowAt: now}
		return 1, nil
	}
	b.count++
	return b.count, nil
}

// Sweep drops buckets whose window ended before maxAge ago and returns how many went.
func (m *MemoryCounter) Sweep(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-maxAge)
	n := 0
	for k, b := range m.buckets {
		if b.windowAt.Before(cutoff) {
			delete(m.buckets, k)
			n++
		}
	}
	return n
}

func (m *MemoryCounter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

// RedisCounter shares windows across server instances. Keys expire with their window.
type RedisCounter struct {
	Client *redis.Client
	Prefix string

	Now func() time.Time
}

func NewRedisCounter(opt *redis.Options) *RedisCounter {
	return &RedisCounter{Client: redis.NewClient(opt), Prefix: "12thman:rl:", Now: time.Now}
}

func (r *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	slot := now.UnixNano() / int64(window)
	full := r.Prefix + key + ":" + strconv.FormatInt(slot, 10)

	var incr *redis.IntCmd
	_, err := r.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, full)
		p.Expire(ctx, full, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (r *RedisCounter) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
