package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// ============================================
// User Service
// ============================================

// ProfileUpdate holds the fields to change. Nil or empty fields are kept.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
}

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*repository.User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*repository.User, error)
	// List returns every user except the caller. Admins only.
	List(ctx context.Context, actor Actor) ([]*repository.User, error)
}

type userService struct {
	userRepo   repository.UserRepository
	permission PermissionService
}

func NewUserService(userRepo repository.UserRepository, permission PermissionService) UserService {
	return &userService{userRepo: userRepo, permission: permission}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*repository.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*repository.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if v := trimmed(update.FirstName); v != "" {
		user.FirstName = v
	}
	if v := trimmed(update.LastName); v != "" {
		user.LastName = v
	}
	if v := strings.ToLower(trimmed(update.Email)); v != "" && v != user.Email {
		existing, err := s.userRepo.FindByEmail(ctx, v)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, newError(ErrConflict, "email already exists")
		}
		user.Email = v
	}
	if update.Password != nil && *update.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*update.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hashed)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "email already exists")
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, actor Actor) ([]*repository.User, error) {
	if err := s.permission.Check(ctx, actor, ActionUserList, Resource{}); err != nil {
		return nil, err
	}
	return s.userRepo.FindAllExcept(ctx, actor.UserID)
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
