// Package cursor encodes feed positions as opaque tokens.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrInvalid = errors.New("invalid cursor")

// Position is the (createdAt, id) of the last item a reader has seen.
type Position struct {
	CreatedAt time.Time
	ID        string
}

type wire struct {
	CreatedAt string `json:"createdAt"`
	ID        string `json:"id"`
}

func Encode(p Position) string {
	raw, _ := json.Marshal(wire{
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339Nano),
		ID:        p.ID,
	})
	return base64.RawURLEncoding.EncodeToString(raw)
}

func Decode(s string) (Position, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Position{}, ErrInvalid
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return Position{}, ErrInvalid
	}
	var w wire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Position{}, ErrInvalid
	}
	if w.ID == "" || w.CreatedAt == "" {
		return Position{}, ErrInvalid
	}
	ts, err := time.Parse(time.RFC3339Nano, w.CreatedAt)
	if err != nil {
		return Position{}, ErrInvalid
	}
	return Position{CreatedAt: ts.UTC(), ID: w.ID}, nil
}
