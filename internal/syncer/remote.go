package syncer

import (
	"context"
	"time"

	"twelfthman/internal/takes"
)

// Submission is one take as sent to the upsert endpoint.
type Submission struct {
	ClientID     string    `json:"clientId"`
	FixtureID    string    `json:"fixtureId"`
	MatchRating  int       `json:"matchRating"`
	MotmPlayerID *string   `json:"motmPlayerId,omitempty"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Ack is the server's acknowledgment for one submission.
type Ack struct {
	ClientID   string    `json:"clientId"`
	ProviderID string    `json:"providerId"`
	Status     string    `json:"status"`
	SyncedAt   time.Time `json:"syncedAt"`
}

// Remote sends a batch of submissions and returns one ack per accepted item.
type Remote interface {
	SyncTakes(ctx context.Context, items []Submission) ([]Ack, error)
}

func SubmissionFor(t takes.Take) Submission {
	return Submission{
		ClientID:     t.ClientID,
		FixtureID:    t.FixtureID,
		MatchRating:  t.MatchRating,
		MotmPlayerID: t.MotmPlayerID,
		Text:         t.Text,
		CreatedAt:    t.CreatedAt,
	}
}
