// Package apperr defines the error kinds shared by the API server and the sync client.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for retry and transport decisions.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuth          Kind = "auth"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindRateLimited   Kind = "rate_limited"
	KindTransientSync Kind = "transient_sync"
	KindInternal      Kind = "internal"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeRateLimited  = "RATE_LIMIT_EXCEEDED"
	CodeSyncFailed   = "SYNC_FAILED"
	CodeInternal     = "INTERNAL_ERROR"
)

// FieldError points at one invalid input field. Index is the batch position, -1 outside batches.
type FieldError struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(message string, details any) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message, Details: details}
}

func Auth(message string) *Error {
	return &Error{Kind: KindAuth, Code: CodeUnauthorized, Message: message}
}

func NotFound(code, message string) *Error {
	if code == "" {
		code = CodeNotFound
	}
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func RateLimited(message string) *Error {
	return &Error{Kind: KindRateLimited, Code: CodeRateLimited, Message: message}
}

// TransientSync wraps a failed remote upsert attempt for a single take.
func TransientSync(message string, err error) *Error {
	return &Error{Kind: KindTransientSync, Code: CodeSyncFailed, Message: message, Err: err}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "An unexpected error occurred", Err: err}
}

// KindOf reports the kind of err, KindInternal for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindTransientSync:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// As returns err as *Error, wrapping unclassified errors as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// Body is the wire form of an error: {"error":{"code","message","details"}}.
type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type Envelope struct {
	Error Body `json:"error"`
}

// EnvelopeOf renders err for a response. Internal errors never leak their cause.
func EnvelopeOf(err error) Envelope {
	e := As(err)
	return Envelope{Error: Body{Code: e.Code, Message: e.Message, Details: e.Details}}
}

// FromEnvelope rebuilds an error received from the API.
func FromEnvelope(status int, env Envelope) *Error {
	kind := KindInternal
	switch status {
	case http.StatusBadRequest:
		kind = KindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = KindAuth
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusConflict:
		kind = KindConflict
	case http.StatusTooManyRequests:
		kind = KindRateLimited
	}
	code := env.Error.Code
	if code == "" {
		code = CodeInternal
	}
	msg := env.Error.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Kind: kind, Code: code, Message: msg, Details: env.Error.Details}
}
