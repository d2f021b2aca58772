// Package feedhub fans freshly synced takes out to live feed subscribers.
package feedhub

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"twelfthman/internal/models"
)

type subscriber struct {
	fixtureID string
	ch        chan models.Take
}

type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]subscriber
	nextID  uint64
	dropped uint64

	logger *zap.Logger
}

func New(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{subs: map[uint64]subscriber{}, logger: logger}
}

// Subscribe registers a listener. An empty fixtureID receives every take. The returned
// func unsubscribes and closes the channel.
func (h *Hub) Subscribe(fixtureID string, buf int) (<-chan models.Take, func()) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan models.Take, buf)
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = subscriber{fixtureID: fixtureID, ch: ch}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Publish(items ...models.Take) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, item := range items {
		for _, sub := range h.subs {
			if sub.fixtureID != "" && sub.fixtureID != item.FixtureID {
				continue
			}
			select {
			case sub.ch <- item:
			default:
				// Slow subscriber; the hub must not block the sync path.
				atomic.AddUint64(&h.dropped, 1)
			}
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Dropped() uint64 {
	return atomic.LoadUint64(&h.dropped)
}

// LogStats writes subscriber and drop counters; the server cron calls it periodically.
func (h *Hub) LogStats() {
	h.logger.Info("feed hub stats",
		zap.Int("subscribers", h.Subscribers()),
		zap.Uint64("dropped_fanout", h.Dropped()),
	)
}
