package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"twelfthman/internal/apperr"
	"twelfthman/internal/models"
	"twelfthman/internal/repository/repotest"
)

func seedPosted(repo *repotest.Repo, n int, at func(i int) time.Time) {
	for i := 0; i < n; i++ {
		t := models.Take{
			ID:               fmt.Sprintf("00000000-0000-0000-0000-%012d", i),
			UserID:           "u1",
			ClientID:         fmt.Sprintf("c-%d", i),
			FixtureID:        "fx-1",
			MatchRating:      7,
			Text:             "seeded take",
			ModerationStatus: models.ModerationPosted,
			CreatedAt:        at(i),
			SyncedAt:         at(i),
		}
		repo.PutTake(t)
	}
}

func TestFeed_PagesOfTwo(t *testing.T) {
	ctx := context.Background()
	repo := repotest.New()
	base := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	seedPosted(repo, 5, func(i int) time.Time { return base.Add(time.Duration(i) * time.Minute) })
	svc := &FeedService{Repo: repo}

	p1, err := svc.Page(ctx, FeedQuery{Limit: intPtr(2)})
	if err != nil || len(p1.Items) != 2 || p1.NextCursor == nil {
		t.Fatalf("p1=%+v err=%v", p1, err)
	}
	p2, err := svc.Page(ctx, FeedQuery{Limit: intPtr(2), Cursor: *p1.NextCursor})
	if err != nil || len(p2.Items) != 2 || p2.NextCursor == nil {
		t.Fatalf("p2=%+v err=%v", p2, err)
	}
	p3, err := svc.Page(ctx, FeedQuery{Limit: intPtr(2), Cursor: *p2.NextCursor})
	if err != nil || len(p3.Items) != 1 || p3.NextCursor != nil {
		t.Fatalf("p3=%+v err=%v", p3, err)
	}
	if !p1.Items[0].CreatedAt.Equal(base.Add(4*time.Minute)) || !p3.Items[0].CreatedAt.Equal(base) {
		t.Fatalf("order: first=%v last=%v", p1.Items[0].CreatedAt, p3.Items[0].CreatedAt)
	}
}

func TestFeed_WalkIsCompleteWithSharedTimestamps(t *testing.T) {
	ctx := context.Background()
	repo := repotest.New()
	base := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	// Groups of three share a timestamp so page boundaries fall inside groups.
	seedPosted(repo, 11, func(i int) time.Time { return base.Add(time.Duration(i/3) * time.Second) })
	hidden := models.Take{ID: "hidden", UserID: "u2", ClientID: "h", ModerationStatus: "HIDDEN", CreatedAt: base, SyncedAt: base}
	repo.PutTake(hidden)
	svc := &FeedService{Repo: repo}

	seen := map[string]bool{}
	var prev *TakeView
	cur := ""
	for pages := 0; ; pages++ {
		if pages > 20 {
			t.Fatalf("walk did not terminate")
		}
		page, err := svc.Page(ctx, FeedQuery{Limit: intPtr(4), Cursor: cur})
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		for i := range page.Items {
			it := page.Items[i]
			if seen[it.ProviderID] {
				t.Fatalf("duplicate %s", it.ProviderID)
			}
			seen[it.ProviderID] = true
			if prev != nil {
				desc := it.CreatedAt.Before(prev.CreatedAt) || (it.CreatedAt.Equal(prev.CreatedAt) && it.ProviderID < prev.ProviderID)
				if !desc {
					t.Fatalf("not strictly decreasing: %v/%s after %v/%s", it.CreatedAt, it.ProviderID, prev.CreatedAt, prev.ProviderID)
				}
			}
			prev = &it
		}
		if page.NextCursor == nil {
			break
		}
		cur = *page.NextCursor
	}
	if len(seen) != 11 || seen["hidden"] {
		t.Fatalf("seen=%d hidden=%v", len(seen), seen["hidden"])
	}
}

func TestFeed_LimitAndCursorValidation(t *testing.T) {
	ctx := context.Background()
	repo := repotest.New()
	base := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	seedPosted(repo, 25, func(i int) time.Time { return base.Add(time.Duration(i) * time.Second) })
	svc := &FeedService{Repo: repo, DefaultLimit: 20, MaxLimit: 50}

	page, err := svc.Page(ctx, FeedQuery{})
	if err != nil || len(page.Items) != 20 || page.NextCursor == nil {
		t.Fatalf("default page: items=%d err=%v", len(page.Items), err)
	}
	for _, bad := range []int{0, -1, 51} {
		if _, err := svc.Page(ctx, FeedQuery{Limit: intPtr(bad)}); apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("limit=%d err=%v", bad, err)
		}
	}
	if _, err := svc.Page(ctx, FeedQuery{Cursor: "not a cursor"}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("cursor err=%v", err)
	}
	page, err = svc.Page(ctx, FeedQuery{Limit: intPtr(50)})
	if err != nil || len(page.Items) != 25 || page.NextCursor != nil {
		t.Fatalf("all: items=%d cursor=%v err=%v", len(page.Items), page.NextCursor, err)
	}
}

func TestFeed_FixtureFilter(t *testing.T) {
	ctx := context.Background()
	repo := repotest.New()
	base := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	seedPosted(repo, 3, func(i int) time.Time { return base.Add(time.Duration(i) * time.Second) })
	other := models.Take{ID: "other", UserID: "u1", ClientID: "o", FixtureID: "fx-2", ModerationStatus: models.ModerationPosted, CreatedAt: base, SyncedAt: base}
	repo.PutTake(other)
	svc := &FeedService{Repo: repo}

	page, err := svc.Page(ctx, FeedQuery{FixtureID: "fx-2"})
	if err != nil || len(page.Items) != 1 || page.Items[0].ProviderID != "other" {
		t.Fatalf("page=%+v err=%v", page, err)
	}
}

func TestFeed_Get(t *testing.T) {
	ctx := context.Background()
	repo := repotest.New()
	id := "7b0c7c8e-3f1e-4a8e-9a38-0d2b8ef0c9a1"
	at := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	repo.PutTake(models.Take{ID: id, UserID: "u1", ClientID: "c1", FixtureID: "fx-1", MatchRating: 8, Text: "solid shift", ModerationStatus: models.ModerationPosted, CreatedAt: at, SyncedAt: at})
	svc := &FeedService{Repo: repo}

	got, err := svc.Get(ctx, strings.ToUpper(id))
	if err != nil || got.ProviderID != id {
		t.Fatalf("got=%+v err=%v", got, err)
	}
	if _, err := svc.Get(ctx, "nope"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("invalid id err=%v", err)
	}
	_, err = svc.Get(ctx, "00000000-0000-4000-8000-000000000000")
	if e := apperr.As(err); e.Kind != apperr.KindNotFound || e.Code != CodeTakeNotFound {
		t.Fatalf("missing err=%v", err)
	}
}
