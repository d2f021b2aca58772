package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"twelfthman/internal/models"
)

type TakeRepository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// UpsertTakesTx inserts unseen (user, clientId) pairs and updates the mutable fields of
	// the rest. created_at is never overwritten.
	UpsertTakesTx(ctx context.Context, tx *gorm.DB, items []models.Take) error
	ListTakesByClientIDsTx(ctx context.Context, tx *gorm.DB, userID string, clientIDs []string) ([]models.Take, error)
	GetPostedTake(ctx context.Context, id string) (*models.Take, error)
	ListFeed(ctx context.Context, params FeedParams) ([]models.Take, error)
	FixtureRatingSummary(ctx context.Context, fixtureID string) (RatingSummary, error)

	GetClientSyncState(ctx context.Context, userID string) (*models.ClientSyncState, error)
	SaveClientSyncStateTx(ctx context.Context, tx *gorm.DB, state *models.ClientSyncState) error
	ListClientSyncStates(ctx context.Context, since time.Time) ([]models.ClientSyncState, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, item *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type Repository interface {
	TakeRepository
	UserRepository
}

// FeedParams selects one page of posted takes. After, when set, is the last item the
// reader already has; Limit rows past it are returned.
type FeedParams struct {
	FixtureID *string
	After     *FeedPosition
	Limit     int
}

type FeedPosition struct {
	CreatedAt time.Time
	ID        string
}

type RatingSummary struct {
	FixtureID string
	Count     int64
	Sum       int64
}
