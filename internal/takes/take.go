// Package takes is the client-side mutation store: the locally authored takes and their
// sync lifecycle, persisted as a single JSON collection in a storage slot.
package takes

import (
	"time"
	"unicode/utf8"

	"twelfthman/internal/apperr"
)

type Status string

const (
	StatusQueued  Status = "queued"
	StatusSyncing Status = "syncing"
	StatusPosted  Status = "posted"
	StatusFailed  Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusSyncing, StatusPosted, StatusFailed:
		return true
	}
	return false
}

const (
	MinRating  = 1
	MaxRating  = 10
	MinTextLen = 5
	MaxTextLen = 280
)

type ReactionKind string

const (
	ReactionCheer ReactionKind = "cheer"
	ReactionBoo   ReactionKind = "boo"
	ReactionShout ReactionKind = "shout"
)

func (k ReactionKind) Valid() bool {
	switch k {
	case ReactionCheer, ReactionBoo, ReactionShout:
		return true
	}
	return false
}

type Reactions struct {
	Cheer int `json:"cheer"`
	Boo   int `json:"boo"`
	Shout int `json:"shout"`
}

type Take struct {
	ID           string     `json:"id"`
	ClientID     string     `json:"clientId"`
	ProviderID   *string    `json:"providerId,omitempty"`
	ParentTakeID *string    `json:"parentTakeId,omitempty"`
	UserID       string     `json:"userId"`
	UserName     string     `json:"userName"`
	UserClub     string     `json:"userClub"`
	FixtureID    string     `json:"fixtureId"`
	MatchRating  int        `json:"matchRating"`
	MotmPlayerID *string    `json:"motmPlayerId,omitempty"`
	Text         string     `json:"text"`
	Reactions    Reactions  `json:"reactions"`
	Status       Status     `json:"status"`
	RetryCount   int        `json:"retryCount"`
	LastAttempt  *time.Time `json:"lastAttemptAt,omitempty"`
	ErrorMessage *string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	SyncedAt     *time.Time `json:"syncedAt,omitempty"`
}

// NewTake is the user-supplied part of a take. Identity, status and timestamps are assigned by the store.
type NewTake struct {
	UserID       string
	UserName     string
	UserClub     string
	FixtureID    string
	MatchRating  int
	MotmPlayerID *string
	Text         string
	ParentTakeID *string
}

// Patch lists the fields an edit may touch. A nil field is left as is.
type Patch struct {
	FixtureID    *string
	MatchRating  *int
	MotmPlayerID *string
	Text         *string
	ParentTakeID *string
	Reactions    *Reactions
}

func (p Patch) touchesContent() bool {
	return p.FixtureID != nil || p.MatchRating != nil || p.MotmPlayerID != nil || p.Text != nil || p.ParentTakeID != nil
}

func validateContent(fixtureID string, rating int, text string) error {
	var details []apperr.FieldError
	if fixtureID == "" {
		details = append(details, apperr.FieldError{Index: -1, Field: "fixtureId", Message: "fixtureId is required"})
	}
	if rating < MinRating || rating > MaxRating {
		details = append(details, apperr.FieldError{Index: -1, Field: "matchRating", Message: "matchRating must be between 1 and 10"})
	}
	if n := utf8.RuneCountInString(text); n < MinTextLen || n > MaxTextLen {
		details = append(details, apperr.FieldError{Index: -1, Field: "text", Message: "text must be 5-280 characters"})
	}
	if len(details) > 0 {
		return apperr.Validation("Invalid take", details)
	}
	return nil
}

// transitions lists the status changes UpdateStatus accepts. syncing->syncing covers a
// record left mid-flight by an interrupted run.
var transitions = map[Status][]Status{
	StatusQueued:  {StatusSyncing},
	StatusSyncing: {StatusSyncing, StatusPosted, StatusFailed},
	StatusFailed:  {StatusQueued},
}

func canTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (t Take) clone() Take {
	out := t
	out.ProviderID = cloneStr(t.ProviderID)
	out.ParentTakeID = cloneStr(t.ParentTakeID)
	out.MotmPlayerID = cloneStr(t.MotmPlayerID)
	out.ErrorMessage = cloneStr(t.ErrorMessage)
	out.LastAttempt = cloneTime(t.LastAttempt)
	out.SyncedAt = cloneTime(t.SyncedAt)
	return out
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func validationReactions() error {
	return apperr.Validation("Invalid reactions", []apperr.FieldError{{Index: -1, Field: "reactions", Message: "reaction counts cannot be negative"}})
}
