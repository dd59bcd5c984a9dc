package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// ProfileService handles profile onboarding and updates.
type ProfileService struct {
	storage *storage.SQLiteRepository
}

func NewProfileService(storage *storage.SQLiteRepository) *ProfileService {
	return &ProfileService{storage: storage}
}

// SetProfile validates and saves the user's financial profile. The first
// call onboards the user; later calls replace every field.
func (s *ProfileService) SetProfile(ctx context.Context, userID int64, income, goal, current core.Money) (core.Profile, error) {
	if err := core.ValidateProfileInput(income, goal, current); err != nil {
		return core.Profile{}, err
	}

	profile, err := s.storage.UpsertProfile(ctx, userID, income, goal, current)
	if err != nil {
		return core.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

// GetProfile returns the user's profile, or ErrNotOnboarded when none has
// been created yet.
func (s *ProfileService) GetProfile(ctx context.Context, userID int64) (core.Profile, error) {
	profile, err := s.storage.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Profile{}, core.ErrNotOnboarded
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}
