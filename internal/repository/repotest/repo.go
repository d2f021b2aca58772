// Package repotest provides an in-memory repository.Repository for tests. It follows the
// gorm store's upsert, keyset and moderation rules so services and handlers can be
// exercised without postgres.
package repotest

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"twelfthman/internal/models"
	"twelfthman/internal/repository"
)

var _ repository.Repository = (*Repo)(nil)

type Repo struct {
	mu         sync.Mutex
	takes      map[string]models.Take // keyed by user_id|client_id
	users      map[string]models.User
	syncStates map[string]models.ClientSyncState

	// FailSyncState, when set, is returned by SaveClientSyncStateTx.
	FailSyncState error
}

func New() *Repo {
	return &Repo{
		takes:      map[string]models.Take{},
		users:      map[string]models.User{},
		syncStates: map[string]models.ClientSyncState{},
	}
}

func takeKey(userID, clientID string) string { return userID + "|" + clientID }

// PutTake stores t as is, replacing any row with the same (user, clientId).
func (r *Repo) PutTake(t models.Take) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.takes[takeKey(t.UserID, t.ClientID)] = t
}

func (r *Repo) Take(userID, clientID string) (models.Take, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.takes[takeKey(userID, clientID)]
	return t, ok
}

func (r *Repo) TakeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.takes)
}

// InTx restores takes and sync states when fn fails.
func (r *Repo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	r.mu.Lock()
	takes := maps.Clone(r.takes)
	states := maps.Clone(r.syncStates)
	r.mu.Unlock()

	if err := fn(nil); err != nil {
		r.mu.Lock()
		r.takes = takes
		r.syncStates = states
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *Repo) UpsertTakesTx(ctx context.Context, tx *gorm.DB, items []models.Take) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range items {
		key := takeKey(it.UserID, it.ClientID)
		if cur, ok := r.takes[key]; ok {
			cur.FixtureID = it.FixtureID
			cur.MatchRating = it.MatchRating
			cur.MotmPlayerID = it.MotmPlayerID
			cur.Text = it.Text
			cur.SyncedAt = it.SyncedAt
			r.takes[key] = cur
			continue
		}
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if it.ModerationStatus == "" {
			it.ModerationStatus = models.ModerationPosted
		}
		r.takes[key] = it
	}
	return nil
}

func (r *Repo) ListTakesByClientIDsTx(ctx context.Context, tx *gorm.DB, userID string, clientIDs []string) ([]models.Take, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Take
	for _, cid := range clientIDs {
		if t, ok := r.takes[takeKey(userID, cid)]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *Repo) GetPostedTake(ctx context.Context, id string) (*models.Take, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.takes {
		if t.ID == id && t.ModerationStatus == models.ModerationPosted {
			out := r.withUser(t)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *Repo) withUser(t models.Take) models.Take {
	if u, ok := r.users[t.UserID]; ok {
		t.User = &u
	}
	return t
}

func (r *Repo) ListFeed(ctx context.Context, params repository.FeedParams) ([]models.Take, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Take
	for _, t := range r.takes {
		if t.ModerationStatus != models.ModerationPosted {
			continue
		}
		if params.FixtureID != nil && t.FixtureID != *params.FixtureID {
			continue
		}
		if a := params.After; a != nil {
			if !(t.CreatedAt.Before(a.CreatedAt) || (t.CreatedAt.Equal(a.CreatedAt) && t.ID < a.ID)) {
				continue
			}
		}
		out = append(out, r.withUser(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (r *Repo) FixtureRatingSummary(ctx context.Context, fixtureID string) (repository.RatingSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := repository.RatingSummary{FixtureID: fixtureID}
	for _, t := range r.takes {
		if t.FixtureID == fixtureID && t.ModerationStatus == models.ModerationPosted {
			out.Count++
			out.Sum += int64(t.MatchRating)
		}
	}
	return out, nil
}

func (r *Repo) GetClientSyncState(ctx context.Context, userID string) (*models.ClientSyncState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.syncStates[userID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (r *Repo) SaveClientSyncStateTx(ctx context.Context, tx *gorm.DB, state *models.ClientSyncState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailSyncState != nil {
		return r.FailSyncState
	}
	cur := r.syncStates[state.UserID]
	cur.UserID = state.UserID
	cur.LastAttemptAt = state.LastAttemptAt
	cur.LastSuccessAt = state.LastSuccessAt
	cur.LastError = state.LastError
	cur.BatchCount += state.BatchCount
	cur.TakeCount += state.TakeCount
	cur.StatsJSON = state.StatsJSON
	cur.UpdatedAt = time.Now().UTC()
	r.syncStates[state.UserID] = cur
	return nil
}

func (r *Repo) ListClientSyncStates(ctx context.Context, since time.Time) ([]models.ClientSyncState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ClientSyncState
	for _, st := range r.syncStates {
		if !since.IsZero() && st.UpdatedAt.Before(since) {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

// CreateUser mirrors the unique username index with gorm.ErrDuplicatedKey.
func (r *Repo) CreateUser(ctx context.Context, item *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == item.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	r.users[item.ID] = *item
	return nil
}

func (r *Repo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *Repo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}
