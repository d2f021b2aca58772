package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"twelfthman/internal/apperr"
	"twelfthman/internal/auth"
	"twelfthman/internal/service"
)

type AuthHandler struct {
	Users   *service.UserService
	Require gin.HandlerFunc
	Logger  *zap.Logger
}

type registerRequest struct {
	Username string `json:"username"`
	Club     string `json:"club"`
}

type meResponse struct {
	User service.UserView `json:"user"`
}

func (h *AuthHandler) Register(r *gin.Engine) {
	group := r.Group("/auth")
	group.POST("/register", h.register)
	if h.Require != nil {
		group.GET("/me", h.Require, h.me)
	} else {
		group.GET("/me", h.me)
	}
}

// @Summary Register a supporter
// @Tags auth
// @Accept json
// @Produce json
// @Param body body registerRequest true "username 1-50, club 1-100"
// @Success 201 {object} service.Registration
// @Failure 400 {object} apperr.Envelope
// @Failure 409 {object} apperr.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) register(c *gin.Context) {
	if h.Users == nil {
		Error(c, h.Logger, apperr.Internal(errServiceUnavailable))
		return
	}
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		Error(c, h.Logger, err)
		return
	}
	reg, err := h.Users.Register(c.Request.Context(), req.Username, req.Club)
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	if h.Logger != nil {
		h.Logger.Info("user registered", zap.String("user_id", reg.User.ID), zap.String("club", reg.User.Club))
	}
	JSON(c, http.StatusCreated, reg)
}

// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} meResponse
// @Failure 401 {object} apperr.Envelope
// @Failure 404 {object} apperr.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) me(c *gin.Context) {
	if h.Users == nil {
		Error(c, h.Logger, apperr.Internal(errServiceUnavailable))
		return
	}
	uid := auth.UserID(c)
	if uid == "" {
		Error(c, h.Logger, apperr.Auth("User not authenticated"))
		return
	}
	user, err := h.Users.Me(c.Request.Context(), uid)
	if err != nil {
		Error(c, h.Logger, err)
		return
	}
	JSON(c, http.StatusOK, meResponse{User: *user})
}
