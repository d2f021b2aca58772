package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"twelfthman/internal/apperr"
	"twelfthman/internal/auth"
	"twelfthman/internal/service"
)

type TakeHandler struct {
	Sync   *service.TakeSyncService
	Feed   *service.FeedService
	Logger *zap.Logger

	// Require authenticates POST /takes/sync. SyncLimit runs after it.
	Require   gin.HandlerFunc
	SyncLimit gin.HandlerFunc
}

type syncRequest struct {
	Takes *[]service.SyncItem `json:"takes" binding:"required"`
}

type syncResponse struct {
	Results []service.SyncResult `json:"results"`
}

func (h *TakeHandler) Register(r *gin.Engine) {
	chain := make([]gin.HandlerFunc, 0, 3)
	if h.Require != nil {
		chain = append(chain, h.Require)
	}
	if h.SyncLimit != nil {
		chain = append(chain, h.SyncLimit)
	}
	chain = append(chain, h.syncTakes)
	r.POST("/takes/sync", chain...)
	r.GET("/takes/:id", h.getTake)
}

// @Summary Upsert a batch of takes
// @Description Idempotent on (caller, clientId). The whole batch is applied or none of it.
// @Tags takes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body syncRequest true "up to 10 takes"
// @Success 200 {object} syncResponse
// @Failure 400 {object} apperr.Envelope
// @Failure 401 {object} apperr.Envelope
// @Failure 429 {object} apperr.Envelope
// @Failure 500 {object} apperr.Envelope
// @Router /takes/sync [post]
func (h *TakeHandler) syncTakes(c *gin.Context) {
	if h.Sync == nil {
		Error(c, h.Logger, apperr.Internal(errServiceUnavailable))
		return
	}
	var req syncRequest
	if err := bindJSON(c, &req); err != nil {
		Error(c, h.Logger, err)
		return
	}
	results, err := h.Sync.Sync(c.Request.Context(), auth.UserID(c), *req.Takes)
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	JSON(c, http.StatusOK, syncResponse{Results: results})
}

// @Summary Get one posted take
// @Tags takes
// @Produce json
// @Param id path string true "provider id (uuid)"
// @Success 200 {object} service.TakeView
// @Failure 400 {object} apperr.Envelope
// @Failure 404 {object} apperr.Envelope
// @Router /takes/{id} [get]
func (h *TakeHandler) getTake(c *gin.Context) {
	if h.Feed == nil {
		Error(c, h.Logger, apperr.Internal(errServiceUnavailable))
		return
	}
	take, err := h.Feed.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	JSON(c, http.StatusOK, take)
}
