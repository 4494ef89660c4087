package usecase

import (
	"context"
	"strings"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/domain/repository"
	"amravatimarket/pkg/errors"
)

// DeviceTokenUseCase records where push delivery should reach a user.
type DeviceTokenUseCase struct {
	tokenRepo repository.DeviceTokenRepository
}

func NewDeviceTokenUseCase(tokenRepo repository.DeviceTokenRepository) *DeviceTokenUseCase {
	return &DeviceTokenUseCase{tokenRepo: tokenRepo}
}

func (uc *DeviceTokenUseCase) Save(ctx context.Context, userID, token string) error {
	if err := requireIdentity(userID); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.InvalidArgument("token is required")
	}
	return uc.tokenRepo.Save(ctx, &entity.DeviceToken{UserID: userID, Token: token})
}
