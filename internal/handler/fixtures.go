package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"twelfthman/internal/service"
)

type FixtureHandler struct {
	Ratings *service.RatingService
	Logger  *zap.Logger
}

func (h *FixtureHandler) Register(r *gin.Engine) {
	r.GET("/fixtures/:fixtureId/ratings", h.ratings)
}

// @Summary Average match rating for a fixture
// @Tags fixtures
// @Produce json
// @Param fixtureId path string true "fixture id"
// @Success 200 {object} service.FixtureRating
// @Router /fixtures/{fixtureId}/ratings [get]
func (h *FixtureHandler) ratings(c *gin.Context) {
	summary, err := h.Ratings.Summary(c.Request.Context(), c.Param("fixtureId"))
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	JSON(c, http.StatusOK, summary)
}
