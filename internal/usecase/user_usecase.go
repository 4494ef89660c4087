package usecase

import (
	"context"
	"strings"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/domain/repository"
	"amravatimarket/pkg/errors"
)

const (
	maxNameLength  = 80
	maxPreferences = 20
)

type UserUseCase struct {
	userRepo repository.UserRepository
}

func NewUserUseCase(userRepo repository.UserRepository) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
	}
}

// UpdateProfileInput leaves a field unchanged when it is nil.
type UpdateProfileInput struct {
	Name                *string
	PreferredLocations  *[]string
	PreferredCategories *[]string
}

func (uc *UserUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	if err := requireIdentity(userID); err != nil {
		return nil, err
	}
	return uc.userRepo.GetByID(ctx, userID)
}

// UpdateProfile changes the display name and the location/category
// preferences that decide which product approvals notify the user.
func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	if err := requireIdentity(userID); err != nil {
		return nil, err
	}

	var update repository.ProfileUpdate
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || len([]rune(name)) > maxNameLength {
			return nil, errors.InvalidArgument("name must be between 1 and 80 characters")
		}
		update.Name = &name
	}
	if input.PreferredLocations != nil {
		locations, err := cleanPreferences("preferred_locations", *input.PreferredLocations)
		if err != nil {
			return nil, err
		}
		update.PreferredLocations, update.SetLocations = locations, true
	}
	if input.PreferredCategories != nil {
		categories, err := cleanPreferences("preferred_categories", *input.PreferredCategories)
		if err != nil {
			return nil, err
		}
		update.PreferredCategories, update.SetCategories = categories, true
	}

	return uc.userRepo.UpdateProfile(ctx, userID, update)
}

// cleanPreferences trims entries and drops blanks and duplicates, keeping
// the caller's order. Matching against products is exact.
func cleanPreferences(field string, values []string) ([]string, error) {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) > maxPreferences {
		return nil, errors.InvalidArgument(field + " accepts at most 20 entries")
	}
	return out, nil
}
