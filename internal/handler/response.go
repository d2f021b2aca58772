package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"twelfthman/internal/apperr"
)

const maxBodyBytes = 64 << 10

var errServiceUnavailable = errors.New("service unavailable")

func JSON(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}

// Error writes err as {"error":{...}}. Internal errors are logged with their cause
// and reach the client only as INTERNAL_ERROR.
func Error(c *gin.Context, logger *zap.Logger, err error) {
	e := apperr.As(err)
	if e.Kind == apperr.KindInternal && logger != nil {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(e), apperr.EnvelopeOf(e))
}

// bindJSON binds the request body with gin, capped at maxBodyBytes. Unknown fields are
// ignored; decode and binding-tag failures come back as validation errors.
func bindJSON(c *gin.Context, dst any) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindError(err)
	}
	return nil
}

func bindError(err error) error {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		details := make([]apperr.FieldError, 0, len(invalid))
		for _, fe := range invalid {
			field := jsonFieldName(fe.Field())
			msg := field + " is invalid"
			if fe.Tag() == "required" {
				msg = field + " is required"
			}
			details = append(details, apperr.FieldError{Index: -1, Field: field, Message: msg})
		}
		return apperr.Validation("Validation failed", details)
	}

	var tooLarge *http.MaxBytesError
	msg := err.Error()
	switch {
	case errors.As(err, &tooLarge):
		msg = "request body too large"
	case errors.Is(err, io.EOF):
		msg = "request body is required"
	}
	return apperr.Validation("Validation failed", []apperr.FieldError{{Index: -1, Field: "body", Message: msg}})
}

func jsonFieldName(f string) string {
	if f == "" {
		return f
	}
	return strings.ToLower(f[:1]) + f[1:]
}
