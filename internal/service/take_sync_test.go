package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"twelfthman/internal/apperr"
	"twelfthman/internal/feedhub"
	"twelfthman/internal/models"
	"twelfthman/internal/repository/repotest"
)

func intPtr(v int) *int { return &v }

func newSyncService(repo *repotest.Repo, now *time.Time) *TakeSyncService {
	return &TakeSyncService{
		Repo: repo,
		Now:  func() time.Time { return *now },
	}
}

func validItem(text string) SyncItem {
	return SyncItem{
		ClientID:    uuid.NewString(),
		FixtureID:   "fx-1",
		MatchRating: intPtr(8),
		Text:        text,
	}
}

func TestSync_SameClientIDConverges(t *testing.T) {
	ctx := context.Background()
	repo := repotest.New()
	first := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	now := first
	svc := newSyncService(repo, &now)

	item := validItem("v1 take")
	r1, err := svc.Sync(ctx, "u1", []SyncItem{item})
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}

	now = first.Add(time.Minute)
	item.Text = "v2 take"
	r2, err := svc.Sync(ctx, "u1", []SyncItem{item})
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}

	if repo.TakeCount() != 1 {
		t.Fatalf("rows=%d want=1", repo.TakeCount())
	}
	row, _ := repo.Take("u1", item.ClientID)
	if row.Text != "v2 take" {
		t.Fatalf("text=%q want=v2 take", row.Text)
	}
	if !row.CreatedAt.Equal(first) {
		t.Fatalf("createdAt=%v want=%v", row.CreatedAt, first)
	}
	if !row.SyncedAt.Equal(now) {
		t.Fatalf("syncedAt=%v want=%v", row.SyncedAt, now)
	}
	if r1[0].ProviderID != r2[0].ProviderID || r2[0].ClientID != item.ClientID || r2[0].Status != "posted" {
		t.Fatalf("r1=%+v r2=%+v", r1, r2)
	}
}

func TestSync_UsesClientCreatedAtOnInsert(t *testing.T) {
	ctx := context.Background()
	repo := repotest.New()
	now := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	svc := newSyncService(repo, &now)

	authored := time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC)
	item := validItem("written offline")
	item.CreatedAt = &authored
	if _, err := svc.Sync(ctx, "u1", []SyncItem{item}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	later := authored.Add(time.Hour)
	item.CreatedAt = &later
	if _, err := svc.Sync(ctx, "u1", []SyncItem{item}); err != nil {
		t.Fatalf("resync: %v", err)
	}
	if row, _ := repo.Take("u1", item.ClientID); !row.CreatedAt.Equal(authored) {
		t.Fatalf("createdAt=%v want=%v", row.CreatedAt, authored)
	}
}

func TestSync_KeyedPerUser(t *testing.T) {
	ctx := context.Background()
	repo := repotest.New()
	now := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	svc := newSyncService(repo, &now)
	item := validItem("shared client id")
	_, _ = svc.Sync(ctx, "u1", []SyncItem{item})
	_, _ = svc.Sync(ctx, "u2", []SyncItem{item})
	if repo.TakeCount() != 2 {
		t.Fatalf("rows=%d want=2", repo.TakeCount())
	}
}

func TestSync_RejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	repo := repotest.New()
	now := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	svc := newSyncService(repo, &now)

	bad := validItem("meh")
	bad.MatchRating = intPtr(11)
	_, err := svc.Sync(ctx, "u1", []SyncItem{validItem("A perfectly fine take"), bad})
	e := apperr.As(err)
	if e.Kind != apperr.KindValidation {
		t.Fatalf("err=%v want validation", err)
	}
	details, ok := e.Details.([]apperr.FieldError)
	if !ok || len(details) != 2 {
		t.Fatalf("details=%#v", e.Details)
	}
	for _, d := range details {
		if d.Index != 1 {
			t.Fatalf("detail=%+v want index 1", d)
		}
	}
	if repo.TakeCount() != 0 {
		t.Fatalf("rows=%d want=0", repo.TakeCount())
	}
}

func TestSync_BatchLimits(t *testing.T) {
	ctx := context.Background()
	repo := repotest.New()
	now := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	svc := newSyncService(repo, &now)

	var items []SyncItem
	for i := 0; i < 11; i++ {
		items = append(items, validItem("one of many"))
	}
	if _, err := svc.Sync(ctx, "u1", items); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("11 items: err=%v", err)
	}
	if _, err := svc.Sync(ctx, "u1", items[:10]); err != nil {
		t.Fatalf("10 items: %v", err)
	}

	dup := validItem("duplicate")
	if _, err := svc.Sync(ctx, "u1", []SyncItem{dup, dup}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("duplicate: err=%v", err)
	}
	res, err := svc.Sync(ctx, "u1", nil)
	if err != nil || len(res) != 0 {
		t.Fatalf("empty: res=%v err=%v", res, err)
	}
}

func TestSync_RequiresCaller(t *testing.T) {
	svc := newSyncService(repotest.New(), new(time.Time))
	if _, err := svc.Sync(context.Background(), "", []SyncItem{validItem("anonymous take")}); apperr.KindOf(err) != apperr.KindAuth {
		t.Fatalf("err=%v want auth", err)
	}
}

func TestSync_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	repo := repotest.New()
	repo.FailSyncState = errors.New("boom")
	now := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	svc := newSyncService(repo, &now)

	_, err := svc.Sync(ctx, "u1", []SyncItem{validItem("first one"), validItem("second one")})
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Fatalf("err=%v want internal", err)
	}
	if repo.TakeCount() != 0 {
		t.Fatalf("rows=%d want=0 after rollback", repo.TakeCount())
	}
}

func TestSync_RecordsClientState(t *testing.T) {
	ctx := context.Background()
	repo := repotest.New()
	now := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	svc := newSyncService(repo, &now)
	item := validItem("counted take")
	_, _ = svc.Sync(ctx, "u1", []SyncItem{item})
	_, _ = svc.Sync(ctx, "u1", []SyncItem{item, validItem("another take")})

	st, _ := repo.GetClientSyncState(ctx, "u1")
	if st == nil || st.BatchCount != 2 || st.TakeCount != 3 {
		t.Fatalf("state=%+v", st)
	}
	if string(st.StatsJSON) != `{"batch_size":2,"inserted":1,"updated":1}` {
		t.Fatalf("stats=%s", st.StatsJSON)
	}
}

func TestSync_PublishesToHub(t *testing.T) {
	ctx := context.Background()
	repo := repotest.New()
	_ = repo.CreateUser(ctx, &models.User{ID: "u1", Username: "gooner", Club: "Arsenal"})
	now := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	svc := newSyncService(repo, &now)
	svc.Hub = feedhub.New(nil)
	ch, cancel := svc.Hub.Subscribe("", 4)
	defer cancel()

	item := validItem("live take")
	if _, err := svc.Sync(ctx, "u1", []SyncItem{item}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	select {
	case got := <-ch:
		if got.ClientID != item.ClientID || got.User == nil || got.User.Username != "gooner" {
			t.Fatalf("got=%+v", got)
		}
	default:
		t.Fatalf("nothing published")
	}
}
