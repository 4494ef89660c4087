package usecase

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/domain/repository"
	"amravatimarket/internal/infrastructure/telemetry"
	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/logger"
)

var catalogTracer = telemetry.Tracer("catalog")

type ProductApprovalUseCase struct {
	productRepo   repository.ProductRepository
	userRepo      repository.UserRepository
	notifications *NotificationUseCase
}

func NewProductApprovalUseCase(
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	notifications *NotificationUseCase,
) *ProductApprovalUseCase {
	return &ProductApprovalUseCase{
		productRepo:   productRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

type ApprovalResult struct {
	Product  *entity.Product `json:"product"`
	Approved bool            `json:"newly_approved"`
	Notified int             `json:"notified"`
}

// Approve approves a product and, on its first approval only, notifies every
// user whose location and category preferences match it.
func (uc *ProductApprovalUseCase) Approve(ctx context.Context, adminID, productID string) (*ApprovalResult, error) {
	ctx, span := catalogTracer.Start(ctx, "product.approve")
	defer span.End()

	if err := requireIdentity(adminID); err != nil {
		return nil, err
	}
	if productID == "" {
		return nil, errors.InvalidArgument("product id is required")
	}

	product, transitioned, err := uc.productRepo.Approve(ctx, productID)
	if err != nil {
		return nil, err
	}
	result := &ApprovalResult{Product: product, Approved: transitioned}
	if !transitioned {
		logger.Debug("Product already approved, skipping fan-out", "product_id", productID)
		return result, nil
	}

	users, err := uc.userRepo.ListByPreferences(ctx, product.Location, product.Category)
	if err != nil {
		// The approval itself is committed.
		logger.Warn("Product approved but recipients could not be loaded", "product_id", productID, "error", err)
		return result, nil
	}

	batch := make([]*entity.Notification, 0, len(users))
	for _, u := range users {
		if u.ID == product.SellerID || u.ID == adminID {
			continue
		}
		batch = append(batch, entity.NewNotification(u.ID, entity.NotificationInput{
			Title:   "New product near you",
			Message: product.Title,
			Type:    entity.NotificationTypeNewProduct,
			Link:    product.Link(),
		}))
	}

	created, err := uc.notifications.CreateBatch(ctx, batch)
	if err != nil {
		logger.Warn("Some product notifications failed", "product_id", productID, "error", err)
	}
	result.Notified = len(created)
	span.SetAttributes(attribute.Int("notifications.created", result.Notified))
	logger.Info("Product approved", "product_id", productID, "notified", result.Notified)

	return result, nil
}
