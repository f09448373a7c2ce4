package service

import (
	"context"
	"strings"

	"github.com/spec-kit/civicpulse/internal/domain"
	"github.com/spec-kit/civicpulse/internal/repository"
)

// UserService exposes citizen profile and engagement views.
type UserService struct {
	users    repository.UserRepository
	activity repository.ActivityRepository
	badges   repository.BadgeRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, activity repository.ActivityRepository, badges repository.BadgeRepository) *UserService {
	return &UserService{users: users, activity: activity, badges: badges}
}

// ProfileUpdate carries the mutable profile fields. Nil fields are left as-is.
type ProfileUpdate struct {
	Name            *string
	PhoneNumber     *string
	Address         *string
	ProfileImageURL *string
}

// GetProfile fetches the citizen's profile.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile applies the provided fields and persists the profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) != "" {
		user.Name = strings.TrimSpace(*update.Name)
	}
	if update.PhoneNumber != nil {
		user.PhoneNumber = update.PhoneNumber
	}
	if update.Address != nil {
		user.Address = update.Address
	}
	if update.ProfileImageURL != nil {
		user.ProfileImageURL = update.ProfileImageURL
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListActivity returns the citizen's recent activity feed.
func (s *UserService) ListActivity(ctx context.Context, userID string, limit int) ([]domain.UserActivity, error) {
	return s.activity.ListByUser(ctx, userID, limit)
}

// ListBadges returns the citizen's earned badges.
func (s *UserService) ListBadges(ctx context.Context, userID string) ([]domain.UserBadge, error) {
	return s.badges.ListByUser(ctx, userID)
}
