package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"twelfthman/internal/apperr"
	"twelfthman/internal/models"
	"twelfthman/internal/repository"
)

const (
	CodeUsernameExists = "USERNAME_EXISTS"
	CodeUserNotFound   = "USER_NOT_FOUND"
)

type TokenIssuer interface {
	Sign(userID string) (string, error)
}

type UserService struct {
	Repo   repository.UserRepository
	Tokens TokenIssuer
}

type Registration struct {
	User  UserView `json:"user"`
	Token string   `json:"token"`
}

func (s *UserService) Register(ctx context.Context, username, club string) (*Registration, error) {
	username = strings.TrimSpace(username)
	club = strings.TrimSpace(club)
	var details []apperr.FieldError
	if n := utf8.RuneCountInString(username); n < 1 || n > 50 {
		details = append(details, apperr.FieldError{Index: -1, Field: "username", Message: "username must be 1-50 characters"})
	}
	if n := utf8.RuneCountInString(club); n < 1 || n > 100 {
		details = append(details, apperr.FieldError{Index: -1, Field: "club", Message: "club must be 1-100 characters"})
	}
	if len(details) > 0 {
		return nil, apperr.Validation("Validation failed", details)
	}

	existing, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if existing != nil {
		return nil, apperr.Conflict(CodeUsernameExists, "Username already taken")
	}

	user := &models.User{Username: username, Club: club}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict(CodeUsernameExists, "Username already taken")
		}
		return nil, apperr.Internal(err)
	}
	token, err := s.Tokens.Sign(user.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Registration{User: NewUserView(*user), Token: token}, nil
}

func (s *UserService) Me(ctx context.Context, userID string) (*UserView, error) {
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.NotFound(CodeUserNotFound, "User not found")
	}
	v := NewUserView(*user)
	return &v, nil
}
