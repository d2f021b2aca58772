package service

import (
	"time"

	"twelfthman/internal/models"
)

// TakeView is the public JSON shape of a durable take.
type TakeView struct {
	ProviderID   string    `json:"providerId"`
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	Club         string    `json:"club"`
	FixtureID    string    `json:"fixtureId"`
	MatchRating  int       `json:"matchRating"`
	MotmPlayerID *string   `json:"motmPlayerId"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
	SyncedAt     time.Time `json:"syncedAt"`
}

func NewTakeView(t models.Take) TakeView {
	v := TakeView{
		ProviderID:   t.ID,
		UserID:       t.UserID,
		FixtureID:    t.FixtureID,
		MatchRating:  t.MatchRating,
		MotmPlayerID: t.MotmPlayerID,
		Text:         t.Text,
		CreatedAt:    t.CreatedAt.UTC(),
		SyncedAt:     t.SyncedAt.UTC(),
	}
	if t.User != nil {
		v.Username = t.User.Username
		v.Club = t.User.Club
	}
	return v
}

type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Club      string    `json:"club"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewUserView(u models.User) UserView {
	return UserView{ID: u.ID, Username: u.Username, Club: u.Club, CreatedAt: u.CreatedAt.UTC()}
}
