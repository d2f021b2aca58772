package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"twelfthman/internal/apperr"
	"twelfthman/internal/cursor"
	"twelfthman/internal/repository"
)

const CodeTakeNotFound = "TAKE_NOT_FOUND"

type FeedQuery struct {
	FixtureID string
	// Limit is nil when the caller did not ask for a page size.
	Limit  *int
	Cursor string
}

type FeedPage struct {
	Items      []TakeView `json:"items"`
	NextCursor *string    `json:"nextCursor"`
}

type FeedService struct {
	Repo         repository.TakeRepository
	DefaultLimit int
	MaxLimit     int
}

// Page returns up to limit posted takes strictly after the cursor position in
// (createdAt desc, id desc) order. One extra row is fetched to tell whether more remain.
func (s *FeedService) Page(ctx context.Context, q FeedQuery) (FeedPage, error) {
	limit, err := s.resolveLimit(q.Limit)
	if err != nil {
		return FeedPage{}, err
	}
	params := repository.FeedParams{Limit: limit + 1}
	if fx := strings.TrimSpace(q.FixtureID); fx != "" {
		params.FixtureID = &fx
	}
	if raw := strings.TrimSpace(q.Cursor); raw != "" {
		pos, err := cursor.Decode(raw)
		if err != nil {
			return FeedPage{}, apperr.Validation("Invalid cursor", []apperr.FieldError{{Index: -1, Field: "cursor", Message: "cursor is malformed"}})
		}
		params.After = &repository.FeedPosition{CreatedAt: pos.CreatedAt, ID: pos.ID}
	}

	rows, err := s.Repo.ListFeed(ctx, params)
	if err != nil {
		return FeedPage{}, apperr.Internal(err)
	}

	hasNext := len(rows) > limit
	if hasNext {
		rows = rows[:limit]
	}
	page := FeedPage{Items: make([]TakeView, 0, len(rows))}
	for _, r := range rows {
		page.Items = append(page.Items, NewTakeView(r))
	}
	if hasNext && len(rows) > 0 {
		last := rows[len(rows)-1]
		next := cursor.Encode(cursor.Position{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	return page, nil
}

func (s *FeedService) resolveLimit(limit *int) (int, error) {
	def, maxLimit := s.DefaultLimit, s.MaxLimit
	if maxLimit <= 0 {
		maxLimit = 50
	}
	if def <= 0 || def > maxLimit {
		def = 20
	}
	if limit == nil {
		return def, nil
	}
	if *limit < 1 || *limit > maxLimit {
		return 0, apperr.Validation("Validation failed", []apperr.FieldError{{
			Index: -1, Field: "limit", Message: "limit must be between 1 and " + strconv.Itoa(maxLimit),
		}})
	}
	return *limit, nil
}

// Get returns one posted take by its provider id.
func (s *FeedService) Get(ctx context.Context, id string) (*TakeView, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.Validation("Validation failed", []apperr.FieldError{{Index: -1, Field: "id", Message: "id must be a UUID"}})
	}
	t, err := s.Repo.GetPostedTake(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if t == nil {
		return nil, apperr.NotFound(CodeTakeNotFound, "Take not found")
	}
	v := NewTakeView(*t)
	return &v, nil
}
