package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"twelfthman/internal/apperr"
	"twelfthman/internal/feedhub"
	"twelfthman/internal/service"
)

const livePingInterval = 30 * time.Second

type FeedHandler struct {
	Service *service.FeedService
	Hub     *feedhub.Hub
	Logger  *zap.Logger
}

func (h *FeedHandler) Register(r *gin.Engine) {
	r.GET("/feed", h.listFeed)
	r.GET("/feed/live", h.liveFeed)
}

// @Summary Page through posted takes
// @Description Newest first, ordered by (createdAt desc, id desc). Pass nextCursor back as cursor.
// @Tags feed
// @Produce json
// @Param fixtureId query string false "fixture filter"
// @Param limit query int false "page size 1-50 (default 20)"
// @Param cursor query string false "opaque cursor from a previous page"
// @Success 200 {object} service.FeedPage
// @Failure 400 {object} apperr.Envelope
// @Router /feed [get]
func (h *FeedHandler) listFeed(c *gin.Context) {
	if h.Service == nil {
		Error(c, h.Logger, apperr.Internal(errServiceUnavailable))
		return
	}
	limit, err := intQueryPtr(c, "limit")
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	page, err := h.Service.Page(c.Request.Context(), service.FeedQuery{
		FixtureID: c.Query("fixtureId"),
		Limit:     limit,
		Cursor:    c.Query("cursor"),
	})
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	JSON(c, http.StatusOK, page)
}

// @Summary Live tail of newly synced takes
// @Description Websocket. Each text frame is one take in the feed item shape.
// @Tags feed
// @Param fixtureId query string false "fixture filter"
// @Success 101 {string} string "switching protocols"
// @Router /feed/live [get]
func (h *FeedHandler) liveFeed(c *gin.Context) {
	if h.Hub == nil {
		Error(c, h.Logger, apperr.Internal(errServiceUnavailable))
		return
	}
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger().Warn("live feed accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	fixtureID := strings.TrimSpace(c.Query("fixtureId"))
	updates, cancel := h.Hub.Subscribe(fixtureID, 32)
	defer cancel()

	ctx := conn.CloseRead(c.Request.Context())
	ticker := time.NewTicker(livePingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, done := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			done()
			if err != nil {
				return
			}
		case t, ok := <-updates:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "feed closed")
				return
			}
			payload, err := json.Marshal(service.NewTakeView(t))
			if err != nil {
				h.logger().Warn("live feed marshal failed", zap.Error(err))
				continue
			}
			writeCtx, done := context.WithTimeout(ctx, 5*time.Second)
			err = conn.Write(writeCtx, websocket.MessageText, payload)
			done()
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					h.logger().Debug("live feed write failed", zap.Error(err))
				}
				return
			}
		}
	}
}

func (h *FeedHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// intQueryPtr returns nil when the parameter is absent and a validation error when it is not an integer.
func intQueryPtr(c *gin.Context, key string) (*int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.Validation("Validation failed", []apperr.FieldError{{Index: -1, Field: key, Message: key + " must be an integer"}})
	}
	return &v, nil
}
