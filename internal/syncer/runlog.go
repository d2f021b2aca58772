package syncer

import (
	"context"
	"time"

	"twelfthman/internal/storage"
)

type RunKind string

const (
	RunSyncAll     RunKind = "sync_all"
	RunRetryFailed RunKind = "retry_failed"
)

// RunLog summarizes the most recent run. Each run overwrites the previous one.
type RunLog struct {
	Kind      RunKind   `json:"kind"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
	Attempted int       `json:"attempted"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Errors    []string  `json:"errors,omitempty"`
}

type RunLogStore interface {
	Last(ctx context.Context) (*RunLog, error)
	Save(ctx context.Context, log RunLog) error
}

type SlotRunLog struct {
	slots storage.Slots
}

func NewSlotRunLog(slots storage.Slots) *SlotRunLog {
	return &SlotRunLog{slots: slots}
}

func (s *SlotRunLog) Last(ctx context.Context) (*RunLog, error) {
	var out RunLog
	found, err := storage.GetJSON(ctx, s.slots, storage.KeySyncLog, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

func (s *SlotRunLog) Save(ctx context.Context, log RunLog) error {
	return storage.SetJSON(ctx, s.slots, storage.KeySyncLog, log)
}
