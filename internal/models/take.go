package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const ModerationPosted = "POSTED"

// Take is the durable copy of a client take, unique per (user, clientId).
type Take struct {
	ID       string `gorm:"type:varchar(36);primaryKey;index:idx_takes_feed,priority:2,sort:desc"`
	UserID   string `gorm:"type:varchar(36);not null;uniqueIndex:uniq_takes_user_client,priority:1"`
	ClientID string `gorm:"type:varchar(36);not null;uniqueIndex:uniq_takes_user_client,priority:2"`

	FixtureID    string  `gorm:"type:varchar(100);not null;index"`
	MatchRating  int     `gorm:"not null"`
	MotmPlayerID *string `gorm:"type:varchar(100)"`
	Text         string  `gorm:"type:varchar(280);not null"`

	ModerationStatus string `gorm:"type:varchar(20);not null;default:POSTED;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;not null;index:idx_takes_feed,priority:1,sort:desc"`
	SyncedAt  time.Time `gorm:"type:timestamptz;not null"`

	User *User `gorm:"foreignKey:UserID;references:ID"`
}

func (Take) TableName() string {
	return "takes"
}

func (t *Take) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.ModerationStatus == "" {
		t.ModerationStatus = ModerationPosted
	}
	return nil
}
