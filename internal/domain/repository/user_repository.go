package repository

import (
	"context"

	"amravatimarket/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// ListByPreferences returns users whose preferred locations contain
	// location and whose preferred categories contain category.
	ListByPreferences(ctx context.Context, location, category string) ([]*entity.User, error)
	// UpdateProfile applies the non-nil fields of update and returns the
	// stored user.
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*entity.User, error)
}

type ProfileUpdate struct {
	Name                *string
	PreferredLocations  []string
	PreferredCategories []string
	// The Set flags distinguish "clear the list" from "leave it alone".
	SetLocations  bool
	SetCategories bool
}

type DeviceTokenRepository interface {
	Save(ctx context.Context, token *entity.DeviceToken) error
}
