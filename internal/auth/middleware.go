package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"twelfthman/internal/apperr"
)

type ctxKey int

const userIDKey ctxKey = 1

const ginUserIDKey = "auth.user_id"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok && v != ""
}

// UserID returns the caller resolved by Require or Optional, or "".
func UserID(c *gin.Context) string {
	return c.GetString(ginUserIDKey)
}

// Require rejects requests without a valid bearer token and records the caller id.
func Require(j JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c.GetHeader("Authorization"))
		if tok == "" {
			abort(c, apperr.Auth("Missing bearer token"))
			return
		}
		claims, err := j.Verify(tok)
		if err != nil {
			abort(c, apperr.Auth("Invalid token"))
			return
		}
		c.Set(ginUserIDKey, claims.Subject)
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), claims.Subject))
		c.Next()
	}
}

// Optional resolves the caller when a valid token is present and never rejects.
func Optional(j JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := bearerToken(c.GetHeader("Authorization")); tok != "" {
			if claims, err := j.Verify(tok); err == nil {
				c.Set(ginUserIDKey, claims.Subject)
				c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), claims.Subject))
			}
		}
		c.Next()
	}
}

func abort(c *gin.Context, err *apperr.Error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), apperr.EnvelopeOf(err))
}

func bearerToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	parts := strings.SplitN(v, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
