package takes

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"twelfthman/internal/apperr"
	"twelfthman/internal/storage"
)

var (
	ErrSyncInFlight      = errors.New("take is being synced; edit again once the attempt finishes")
	ErrAlreadyPosted     = errors.New("take is already posted and can no longer be edited")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// Store keeps every local take in one slot. Each write is a read-modify-write inside one
// storage Update, so it is atomic against other processes on the same data dir; nothing
// is atomic across operations.
type Store struct {
	slots storage.Slots
	mu    sync.Mutex

	Now func() time.Time
}

func NewStore(slots storage.Slots) *Store {
	return &Store{slots: slots, Now: time.Now}
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Store) load(ctx context.Context) ([]Take, error) {
	var items []Take
	if _, err := storage.GetJSON(ctx, s.slots, storage.KeyTakes, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// update hands the current takes to fn inside one atomic slot update. fn reports whether
// it changed anything.
func (s *Store) update(ctx context.Context, fn func(items *[]Take) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storage.UpdateJSON(ctx, s.slots, storage.KeyTakes, func(items *[]Take, _ bool) (bool, error) {
		changed, err := fn(items)
		if err != nil || !changed {
			return false, err
		}
		if *items == nil {
			*items = []Take{}
		}
		sortTakes(*items)
		return true, nil
	})
}

func sortTakes(items []Take) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
}

func (s *Store) Create(ctx context.Context, in NewTake) (*Take, error) {
	in.FixtureID = strings.TrimSpace(in.FixtureID)
	in.Text = strings.TrimSpace(in.Text)
	if err := validateContent(in.FixtureID, in.MatchRating, in.Text); err != nil {
		return nil, err
	}

	t := Take{
		ID:           uuid.NewString(),
		ClientID:     uuid.NewString(),
		ParentTakeID: cloneStr(in.ParentTakeID),
		UserID:       in.UserID,
		UserName:     in.UserName,
		UserClub:     in.UserClub,
		FixtureID:    in.FixtureID,
		MatchRating:  in.MatchRating,
		MotmPlayerID: cloneStr(in.MotmPlayerID),
		Text:         in.Text,
		Status:       StatusQueued,
		CreatedAt:    s.now(),
	}
	err := s.update(ctx, func(items *[]Take) (bool, error) {
		*items = append(*items, t.clone())
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	out := t.clone()
	return &out, nil
}

func (s *Store) GetAll(ctx context.Context) ([]Take, error) {
	return s.filter(ctx, func(Take) bool { return true })
}

// GetByStatus returns takes in any of the given statuses.
func (s *Store) GetByStatus(ctx context.Context, statuses ...Status) ([]Take, error) {
	return s.filter(ctx, func(t Take) bool {
		for _, st := range statuses {
			if t.Status == st {
				return true
			}
		}
		return false
	})
}

func (s *Store) GetReplies(ctx context.Context, parentID string) ([]Take, error) {
	return s.filter(ctx, func(t Take) bool {
		return t.ParentTakeID != nil && *t.ParentTakeID == parentID
	})
}

func (s *Store) GetTopLevel(ctx context.Context) ([]Take, error) {
	return s.filter(ctx, func(t Take) bool { return t.ParentTakeID == nil })
}

// GetByID returns nil, nil when no take has the id.
func (s *Store) GetByID(ctx context.Context, id string) (*Take, error) {
	return s.find(ctx, func(t Take) bool { return t.ID == id })
}

func (s *Store) GetByClientID(ctx context.Context, clientID string) (*Take, error) {
	return s.find(ctx, func(t Take) bool { return t.ClientID == clientID })
}

func (s *Store) filter(ctx context.Context, keep func(Take) bool) ([]Take, error) {
	s.mu.Lock()
	items, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]Take, 0, len(items))
	for _, t := range items {
		if keep(t) {
			out = append(out, t.clone())
		}
	}
	sortTakes(out)
	return out, nil
}

func (s *Store) find(ctx context.Context, match func(Take) bool) (*Take, error) {
	s.mu.Lock()
	items, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	for _, t := range items {
		if match(t) {
			out := t.clone()
			return &out, nil
		}
	}
	return nil, nil
}

// mutate applies fn to the take with id and persists the result. It returns nil, nil when
// the take does not exist; an error from fn aborts without writing.
func (s *Store) mutate(ctx context.Context, id string, fn func(t *Take) error) (*Take, error) {
	var out *Take
	err := s.update(ctx, func(items *[]Take) (bool, error) {
		for i := range *items {
			if (*items)[i].ID != id {
				continue
			}
			next := (*items)[i].clone()
			if err := fn(&next); err != nil {
				return false, err
			}
			(*items)[i] = next
			c := next.clone()
			out = &c
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies an edit. Content fields are frozen while an attempt is in flight and once
// the take is posted; reaction counters can change in any status.
func (s *Store) Update(ctx context.Context, id string, p Patch) (*Take, error) {
	return s.mutate(ctx, id, func(t *Take) error {
		if p.touchesContent() {
			switch t.Status {
			case StatusSyncing:
				return ErrSyncInFlight
			case StatusPosted:
				return ErrAlreadyPosted
			}
		}
		if p.FixtureID != nil {
			t.FixtureID = strings.TrimSpace(*p.FixtureID)
		}
		if p.MatchRating != nil {
			t.MatchRating = *p.MatchRating
		}
		if p.MotmPlayerID != nil {
			if *p.MotmPlayerID == "" {
				t.MotmPlayerID = nil
			} else {
				t.MotmPlayerID = cloneStr(p.MotmPlayerID)
			}
		}
		if p.Text != nil {
			t.Text = strings.TrimSpace(*p.Text)
		}
		if p.ParentTakeID != nil {
			if *p.ParentTakeID == "" {
				t.ParentTakeID = nil
			} else {
				t.ParentTakeID = cloneStr(p.ParentTakeID)
			}
		}
		if p.Reactions != nil {
			r := *p.Reactions
			if r.Cheer < 0 || r.Boo < 0 || r.Shout < 0 {
				return validationReactions()
			}
			t.Reactions = r
		}
		if p.touchesContent() {
			return validateContent(t.FixtureID, t.MatchRating, t.Text)
		}
		return nil
	})
}

// React bumps one reaction counter in a single atomic step. Reactions are allowed in any status.
func (s *Store) React(ctx context.Context, id string, kind ReactionKind) (*Take, error) {
	if !kind.Valid() {
		return nil, apperr.Validation("Invalid reaction", []apperr.FieldError{{Index: -1, Field: "reaction", Message: "reaction must be cheer, boo or shout"}})
	}
	return s.mutate(ctx, id, func(t *Take) error {
		switch kind {
		case ReactionCheer:
			t.Reactions.Cheer++
		case ReactionBoo:
			t.Reactions.Boo++
		case ReactionShout:
			t.Reactions.Shout++
		}
		return nil
	})
}

// UpdateStatus moves a take along its lifecycle and stamps lastAttemptAt.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status, errMsg string) (*Take, error) {
	return s.mutate(ctx, id, func(t *Take) error {
		if !canTransition(t.Status, status) {
			return ErrIllegalTransition
		}
		now := s.now()
		t.Status = status
		t.LastAttempt = &now
		switch status {
		case StatusPosted:
			t.SyncedAt = &now
			t.ErrorMessage = nil
		case StatusFailed:
			msg := errMsg
			t.ErrorMessage = &msg
		default:
			t.ErrorMessage = nil
		}
		return nil
	})
}

// MarkPosted records a server acknowledgment. providerId is only ever set once.
func (s *Store) MarkPosted(ctx context.Context, id, providerID string, syncedAt time.Time) (*Take, error) {
	return s.mutate(ctx, id, func(t *Take) error {
		if !canTransition(t.Status, StatusPosted) {
			return ErrIllegalTransition
		}
		now := s.now()
		if syncedAt.IsZero() {
			syncedAt = now
		}
		syncedAt = syncedAt.UTC()
		t.Status = StatusPosted
		t.LastAttempt = &now
		t.SyncedAt = &syncedAt
		t.ErrorMessage = nil
		if t.ProviderID == nil && providerID != "" {
			pid := providerID
			t.ProviderID = &pid
		}
		return nil
	})
}

func (s *Store) IncrementRetry(ctx context.Context, id string) (*Take, error) {
	return s.mutate(ctx, id, func(t *Take) error {
		now := s.now()
		t.RetryCount++
		t.LastAttempt = &now
		return nil
	})
}

// Retry re-queues a failed take. retryCount and lastAttemptAt are kept so the backoff
// curve continues from the attempts already made.
func (s *Store) Retry(ctx context.Context, id string) (*Take, error) {
	return s.mutate(ctx, id, func(t *Take) error {
		if t.Status != StatusFailed {
			return ErrIllegalTransition
		}
		t.Status = StatusQueued
		t.ErrorMessage = nil
		return nil
	})
}

// Delete removes the take locally whatever its status. It reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	found := false
	err := s.update(ctx, func(items *[]Take) (bool, error) {
		out := (*items)[:0]
		for _, t := range *items {
			if t.ID == id {
				found = true
				continue
			}
			out = append(out, t)
		}
		*items = out
		return found, nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots.Remove(ctx, storage.KeyTakes)
}
