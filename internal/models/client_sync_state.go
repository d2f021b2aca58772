package models

import (
	"time"

	"gorm.io/datatypes"
)

// ClientSyncState is per-user bookkeeping for the upsert endpoint, written in the
// same transaction as each accepted batch.
type ClientSyncState struct {
	UserID        string         `gorm:"type:varchar(36);primaryKey"`
	LastAttemptAt *time.Time     `gorm:"type:timestamptz"`
	LastSuccessAt *time.Time     `gorm:"type:timestamptz"`
	LastError     *string        `gorm:"type:text"`
	BatchCount    int64          `gorm:"not null;default:0"`
	TakeCount     int64          `gorm:"not null;default:0"`
	StatsJSON     datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt     time.Time      `gorm:"type:timestamptz;autoUpdateTime"`
}

func (ClientSyncState) TableName() string {
	return "client_sync_state"
}
