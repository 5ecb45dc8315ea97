package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Jandr07/VolunteerConnect/internal/apperr"
)

type service struct {
	repo Repository
}

// NewService creates a new user service
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) EnsureUser(ctx context.Context, uid, name, email string) (*User, error) {
	if uid == "" {
		return nil, apperr.New(apperr.CodeUnauthenticated, "you must be logged in to perform this action")
	}

	existing, err := s.repo.Get(ctx, uid)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load user", err)
	}

	u := User{
		UID:       uid,
		FullName:  strings.TrimSpace(name),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		// Lost a race with a concurrent first sign-in; the stored doc wins.
		if errors.Is(err, ErrConflict) {
			return s.Get(ctx, uid)
		}
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to create user", err)
	}
	return &u, nil
}

func (s *service) Get(ctx context.Context, uid string) (*User, error) {
	u, err := s.repo.Get(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to load user", err)
	}
	return u, nil
}

func (s *service) UpdateFullName(ctx context.Context, uid, fullName string) (*User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "full name must not be empty")
	}

	err := s.repo.UpdateFullName(ctx, uid, fullName)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to update user", err)
	}
	return s.Get(ctx, uid)
}

func (s *service) DisplayName(ctx context.Context, uid, tokenName string) (string, error) {
	u, err := s.repo.Get(ctx, uid)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", apperr.Wrap(apperr.CodeInternal, "failed to resolve display name", err)
	}
	if err == nil && u.FullName != "" {
		return u.FullName, nil
	}
	if tokenName != "" {
		return tokenName, nil
	}
	return FallbackName, nil
}
