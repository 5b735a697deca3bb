package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/studyhive/studyhive/internal/models"
	"github.com/studyhive/studyhive/internal/repositories"
)

// ProfileRepository defines the interface for profile data access
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter repositories.UserFilter, limit, offset int) ([]*models.User, error)
	UpdateProfile(ctx context.Context, id string, update repositories.ProfileUpdate) (*models.User, error)
}

// UserService handles profile reads and owner-scoped profile updates
type UserService struct {
	repo   ProfileRepository
	logger *slog.Logger
}

func NewUserService(repo ProfileRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, filter repositories.UserFilter, limit, offset int) ([]*models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return users, nil
}

// UpdateProfile applies owner-mutable profile fields. A rename re-derives
// the slug; credential fields are not reachable through this path.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update repositories.ProfileUpdate) (*models.User, error) {
	if update.Name != nil {
		slug := Slugify(*update.Name)
		update.Slug = &slug
	}

	user, err := s.repo.UpdateProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update profile", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("profile updated", slog.String("user_id", userID))
	return user, nil
}
