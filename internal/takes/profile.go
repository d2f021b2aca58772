package takes

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"twelfthman/internal/apperr"
	"twelfthman/internal/storage"
)

// Profile is the local user. UserID matches the server account once registered.
type Profile struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Club      string    `json:"club"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Profiles struct {
	slots storage.Slots
}

func NewProfiles(slots storage.Slots) *Profiles {
	return &Profiles{slots: slots}
}

func (p *Profiles) Current(ctx context.Context) (*Profile, error) {
	var out Profile
	found, err := storage.GetJSON(ctx, p.slots, storage.KeyUser, &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

// Save stores the profile, assigning an id and creation time the first time.
func (p *Profiles) Save(ctx context.Context, in Profile) (*Profile, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Club = strings.TrimSpace(in.Club)
	if in.Username == "" || len(in.Username) > 50 {
		return nil, apperr.Validation("username must be 1-50 characters", nil)
	}
	if in.Club == "" || len(in.Club) > 100 {
		return nil, apperr.Validation("club must be 1-100 characters", nil)
	}
	if in.UserID == "" {
		in.UserID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	if err := storage.SetJSON(ctx, p.slots, storage.KeyUser, in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (p *Profiles) Delete(ctx context.Context) error {
	return p.slots.Remove(ctx, storage.KeyUser)
}
