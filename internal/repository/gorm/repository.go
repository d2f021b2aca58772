package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"twelfthman/internal/models"
	"twelfthman/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- takes --------------------------------------------------------------------

func (s *Store) UpsertTakesTx(ctx context.Context, tx *gorm.DB, items []models.Take) error {
	if len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Clauses(upsertTakesClause()).Create(&items).Error
}

func upsertTakesClause() clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"fixture_id",
			"match_rating",
			"motm_player_id",
			"text",
			"synced_at",
		}),
	}
}

func (s *Store) ListTakesByClientIDsTx(ctx context.Context, tx *gorm.DB, userID string, clientIDs []string) ([]models.Take, error) {
	if len(clientIDs) == 0 {
		return nil, nil
	}
	var items []models.Take
	err := tx.WithContext(ctx).
		Where("user_id = ? AND client_id IN ?", userID, clientIDs).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetPostedTake(ctx context.Context, id string) (*models.Take, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Take
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("id = ? AND moderation_status = ?", id, models.ModerationPosted).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListFeed(ctx context.Context, params repository.FeedParams) ([]models.Take, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Take
	if err := feedQuery(s.db.WithContext(ctx), params).Preload("User").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// feedQuery orders by (created_at, id) descending, a total order, so a keyset cursor on
// that pair never splits or repeats rows sharing a timestamp.
func feedQuery(db *gorm.DB, params repository.FeedParams) *gorm.DB {
	query := db.Model(&models.Take{}).Where("moderation_status = ?", models.ModerationPosted)
	if params.FixtureID != nil && strings.TrimSpace(*params.FixtureID) != "" {
		query = query.Where("fixture_id = ?", strings.TrimSpace(*params.FixtureID))
	}
	if params.After != nil {
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))",
			params.After.CreatedAt, params.After.CreatedAt, params.After.ID)
	}
	return query.
		Order("created_at desc").
		Order("id desc").
		Limit(normalizeLimit(params.Limit, 20))
}

func (s *Store) FixtureRatingSummary(ctx context.Context, fixtureID string) (repository.RatingSummary, error) {
	out := repository.RatingSummary{FixtureID: fixtureID}
	if s == nil || s.db == nil {
		return out, nil
	}
	var row struct {
		Count int64
		Sum   int64
	}
	err := s.db.WithContext(ctx).Model(&models.Take{}).
		Select("COUNT(*) AS count, COALESCE(SUM(match_rating), 0) AS sum").
		Where("fixture_id = ? AND moderation_status = ?", fixtureID, models.ModerationPosted).
		Scan(&row).Error
	if err != nil {
		return out, err
	}
	out.Count = row.Count
	out.Sum = row.Sum
	return out, nil
}

// --- client sync state --------------------------------------------------------

func (s *Store) GetClientSyncState(ctx context.Context, userID string) (*models.ClientSyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.ClientSyncState
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveClientSyncStateTx(ctx context.Context, tx *gorm.DB, state *models.ClientSyncState) error {
	if state == nil {
		return nil
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last_attempt_at": state.LastAttemptAt,
			"last_success_at": state.LastSuccessAt,
			"last_error":      state.LastError,
			"batch_count":     gorm.Expr("client_sync_state.batch_count + ?", state.BatchCount),
			"take_count":      gorm.Expr("client_sync_state.take_count + ?", state.TakeCount),
			"stats_json":      state.StatsJSON,
			"updated_at":      time.Now().UTC(),
		}),
	}).Create(state).Error
}

func (s *Store) ListClientSyncStates(ctx context.Context, since time.Time) ([]models.ClientSyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.ClientSyncState
	query := s.db.WithContext(ctx).Model(&models.ClientSyncState{})
	if !since.IsZero() {
		query = query.Where("updated_at >= ?", since)
	}
	if err := applyOrder(query, "", nil, "updated_at").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- users --------------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, item *models.User) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.firstUser(ctx, "id = ?", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.firstUser(ctx, "username = ?", strings.TrimSpace(username))
}

func (s *Store) firstUser(ctx context.Context, cond string, arg any) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.User
	err := s.db.WithContext(ctx).Where(cond, arg).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// --- helpers ------------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}
