// Package services holds thin use-case services over the store.
package services

import (
	"context"
	"fmt"

	"github.com/krishisahai/sahai/internal/model"
	"github.com/krishisahai/sahai/internal/store"
)

// UserService handles account operations.
type UserService struct {
	store store.Store
}

func NewUserService(s store.Store) *UserService { return &UserService{store: s} }

func (s *UserService) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	if u.Name == "" || u.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", model.ErrValidation)
	}
	return s.store.Users().Create(ctx, u)
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.store.Users().Get(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.store.Users().List(ctx)
}

// DeleteUser removes an account. Only admins or the account owner may delete.
func (s *UserService) DeleteUser(ctx context.Context, actor *model.User, userID string) error {
	if !actor.IsAdmin && actor.UserID != userID {
		return fmt.Errorf("%w: not the account owner", model.ErrForbidden)
	}
	return s.store.Users().Delete(ctx, userID)
}
