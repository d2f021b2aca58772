package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"twelfthman/internal/apperr"
	"twelfthman/internal/feedhub"
	"twelfthman/internal/models"
	"twelfthman/internal/repository"
)

const DefaultMaxBatch = 10

// SyncItem is one client submission.
type SyncItem struct {
	ClientID     string     `json:"clientId"`
	FixtureID    string     `json:"fixtureId"`
	MatchRating  *int       `json:"matchRating"`
	MotmPlayerID *string    `json:"motmPlayerId"`
	Text         string     `json:"text"`
	CreatedAt    *time.Time `json:"createdAt"`
}

// SyncResult acknowledges one submission. Clients match it back by ClientID.
type SyncResult struct {
	ClientID   string    `json:"clientId"`
	ProviderID string    `json:"providerId"`
	Status     string    `json:"status"`
	SyncedAt   time.Time `json:"syncedAt"`
}

type TakeSyncService struct {
	Repo     repository.Repository
	Hub      *feedhub.Hub
	Logger   *zap.Logger
	MaxBatch int
	Now      func() time.Time
}

func (s *TakeSyncService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC().Truncate(time.Microsecond)
	}
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (s *TakeSyncService) maxBatch() int {
	if s.MaxBatch <= 0 {
		return DefaultMaxBatch
	}
	return s.MaxBatch
}

// Sync applies a batch for userID atomically: every item is upserted or none is.
func (s *TakeSyncService) Sync(ctx context.Context, userID string, items []SyncItem) ([]SyncResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Auth("User not authenticated")
	}
	if err := ValidateBatch(items, s.maxBatch()); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []SyncResult{}, nil
	}

	now := s.now()
	rows := make([]models.Take, 0, len(items))
	clientIDs := make([]string, 0, len(items))
	for _, it := range items {
		createdAt := now
		if it.CreatedAt != nil && !it.CreatedAt.IsZero() {
			createdAt = it.CreatedAt.UTC().Truncate(time.Microsecond)
		}
		clientID := strings.ToLower(strings.TrimSpace(it.ClientID))
		rows = append(rows, models.Take{
			UserID:       userID,
			ClientID:     clientID,
			FixtureID:    strings.TrimSpace(it.FixtureID),
			MatchRating:  *it.MatchRating,
			MotmPlayerID: normalizeOptional(it.MotmPlayerID),
			Text:         it.Text,
			CreatedAt:    createdAt,
			SyncedAt:     now,
		})
		clientIDs = append(clientIDs, clientID)
	}

	var stored []models.Take
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		existing, err := s.Repo.ListTakesByClientIDsTx(ctx, tx, userID, clientIDs)
		if err != nil {
			return err
		}
		if err := s.Repo.UpsertTakesTx(ctx, tx, rows); err != nil {
			return err
		}
		stored, err = s.Repo.ListTakesByClientIDsTx(ctx, tx, userID, clientIDs)
		if err != nil {
			return err
		}
		stats, err := json.Marshal(map[string]any{
			"batch_size": len(rows),
			"inserted":   len(rows) - len(existing),
			"updated":    len(existing),
		})
		if err != nil {
			return fmt.Errorf("encode sync stats: %w", err)
		}
		return s.Repo.SaveClientSyncStateTx(ctx, tx, &models.ClientSyncState{
			UserID:        userID,
			LastAttemptAt: &now,
			LastSuccessAt: &now,
			BatchCount:    1,
			TakeCount:     int64(len(rows)),
			StatsJSON:     datatypes.JSON(stats),
		})
	})
	if err != nil {
		s.logger().Error("take sync batch failed", zap.String("user_id", userID), zap.Int("items", len(items)), zap.Error(err))
		s.recordFailure(ctx, userID, now, err)
		return nil, apperr.Internal(err)
	}

	byClient := make(map[string]models.Take, len(stored))
	for _, t := range stored {
		byClient[t.ClientID] = t
	}
	results := make([]SyncResult, 0, len(clientIDs))
	published := make([]models.Take, 0, len(clientIDs))
	for _, cid := range clientIDs {
		t, ok := byClient[cid]
		if !ok {
			return nil, apperr.Internal(fmt.Errorf("take %s missing after upsert", cid))
		}
		results = append(results, SyncResult{
			ClientID:   t.ClientID,
			ProviderID: t.ID,
			Status:     "posted",
			SyncedAt:   t.SyncedAt.UTC(),
		})
		published = append(published, t)
	}

	s.publish(ctx, userID, published)
	s.logger().Info("take sync batch applied", zap.String("user_id", userID), zap.Int("items", len(results)))
	return results, nil
}

func (s *TakeSyncService) publish(ctx context.Context, userID string, items []models.Take) {
	if s.Hub == nil || len(items) == 0 {
		return
	}
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger().Warn("load user for feed publish", zap.String("user_id", userID), zap.Error(err))
	}
	for i := range items {
		if items[i].ModerationStatus != "" && items[i].ModerationStatus != models.ModerationPosted {
			continue
		}
		items[i].User = user
		s.Hub.Publish(items[i])
	}
}

func (s *TakeSyncService) recordFailure(ctx context.Context, userID string, at time.Time, cause error) {
	msg := cause.Error()
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		return s.Repo.SaveClientSyncStateTx(ctx, tx, &models.ClientSyncState{
			UserID:        userID,
			LastAttemptAt: &at,
			LastError:     &msg,
		})
	})
	if err != nil {
		s.logger().Warn("record sync failure", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *TakeSyncService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// ValidateBatch checks every item and reports all problems at once.
func ValidateBatch(items []SyncItem, maxBatch int) error {
	if len(items) > maxBatch {
		return apperr.Validation("Validation failed", []apperr.FieldError{{
			Index: -1, Field: "takes", Message: fmt.Sprintf("at most %d takes per request", maxBatch),
		}})
	}
	var details []apperr.FieldError
	seen := map[string]int{}
	for i, it := range items {
		add := func(field, msg string) {
			details = append(details, apperr.FieldError{Index: i, Field: field, Message: msg})
		}
		cid := strings.ToLower(strings.TrimSpace(it.ClientID))
		if _, err := uuid.Parse(cid); err != nil {
			add("clientId", "clientId must be a UUID")
		} else if prev, dup := seen[cid]; dup {
			add("clientId", fmt.Sprintf("duplicate of item %d", prev))
		} else {
			seen[cid] = i
		}
		if strings.TrimSpace(it.FixtureID) == "" {
			add("fixtureId", "fixtureId is required")
		}
		if it.MatchRating == nil {
			add("matchRating", "matchRating is required")
		} else if *it.MatchRating < 1 || *it.MatchRating > 10 {
			add("matchRating", "matchRating must be between 1 and 10")
		}
		if n := utf8.RuneCountInString(it.Text); n < 5 || n > 280 {
			add("text", "text must be 5-280 characters")
		}
	}
	if len(details) > 0 {
		return apperr.Validation("Validation failed", details)
	}
	return nil
}

func normalizeOptional(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
