package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"twelfthman/internal/apperr"
	"twelfthman/internal/repository"
)

type FixtureRating struct {
	FixtureID string           `json:"fixtureId"`
	Count     int64            `json:"count"`
	Average   *decimal.Decimal `json:"average"`
}

type RatingService struct {
	Repo repository.TakeRepository
}

// Summary averages matchRating over posted takes for the fixture, rounded to one decimal.
func (s *RatingService) Summary(ctx context.Context, fixtureID string) (FixtureRating, error) {
	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return FixtureRating{}, apperr.Validation("fixtureId is required", nil)
	}
	sum, err := s.Repo.FixtureRatingSummary(ctx, fixtureID)
	if err != nil {
		return FixtureRating{}, apperr.Internal(err)
	}
	out := FixtureRating{FixtureID: fixtureID, Count: sum.Count}
	if sum.Count > 0 {
		avg := decimal.NewFromInt(sum.Sum).Div(decimal.NewFromInt(sum.Count)).Round(1)
		out.Average = &avg
	}
	return out, nil
}
