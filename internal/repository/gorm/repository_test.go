package gormrepository

import (
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"twelfthman/internal/models"
	"twelfthman/internal/repository"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=test dbname=test sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestFeedQuery_Keyset(t *testing.T) {
	db := dryRunDB(t)
	fixture := "fx-1"
	at := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var items []models.Take
		return feedQuery(tx, repository.FeedParams{
			FixtureID: &fixture,
			After:     &repository.FeedPosition{CreatedAt: at, ID: "abc"},
			Limit:     21,
		}).Find(&items)
	})
	for _, want := range []string{
		"moderation_status = 'POSTED'",
		"fixture_id = 'fx-1'",
		"(created_at < '2025-03-01 15:00:00' OR (created_at = '2025-03-01 15:00:00' AND id < 'abc'))",
		"ORDER BY created_at desc,id desc",
		"LIMIT 21",
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("sql missing %q:\n%s", want, sql)
		}
	}
}

func TestFeedQuery_FirstPage(t *testing.T) {
	db := dryRunDB(t)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var items []models.Take
		return feedQuery(tx, repository.FeedParams{Limit: 3}).Find(&items)
	})
	if strings.Contains(sql, "created_at <") || strings.Contains(sql, "fixture_id") {
		t.Fatalf("unexpected predicate:\n%s", sql)
	}
	if !strings.Contains(sql, "LIMIT 3") {
		t.Fatalf("missing limit:\n%s", sql)
	}
}

func TestUpsertTakes_KeepsCreatedAt(t *testing.T) {
	db := dryRunDB(t)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		items := []models.Take{{
			UserID:      "u1",
			ClientID:    "c1",
			FixtureID:   "fx-1",
			MatchRating: 7,
			Text:        "v2 of my take",
			CreatedAt:   time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC),
			SyncedAt:    time.Date(2025, 3, 1, 16, 0, 0, 0, time.UTC),
		}}
		return tx.Clauses(upsertTakesClause()).Create(&items)
	})
	if !strings.Contains(sql, `ON CONFLICT ("user_id","client_id") DO UPDATE SET`) {
		t.Fatalf("missing conflict target:\n%s", sql)
	}
	for _, col := range []string{"fixture_id", "match_rating", "motm_player_id", "text", "synced_at"} {
		if !strings.Contains(sql, `"`+col+`"="excluded"."`+col+`"`) {
			t.Fatalf("missing update of %s:\n%s", col, sql)
		}
	}
	if strings.Contains(sql, `"created_at"="excluded"."created_at"`) {
		t.Fatalf("created_at must not be overwritten:\n%s", sql)
	}
}

func TestNormalizeLimit(t *testing.T) {
	if got := normalizeLimit(0, 20); got != 20 {
		t.Fatalf("got=%d want=20", got)
	}
	if got := normalizeLimit(900, 20); got != 500 {
		t.Fatalf("got=%d want=500", got)
	}
}
