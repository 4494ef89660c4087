package usecase

import (
	"context"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/domain/repository"
	"amravatimarket/internal/domain/service"
	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/logger"
	"amravatimarket/pkg/metrics"
	"amravatimarket/pkg/realtime"
)

type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	sink             service.NotificationSink
}

func NewNotificationUseCase(notificationRepo repository.NotificationRepository, sink service.NotificationSink) *NotificationUseCase {
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		sink:             sink,
	}
}

// Create writes a notification for recipientID caused by actorID. Users are
// never notified about their own actions.
func (uc *NotificationUseCase) Create(ctx context.Context, actorID, recipientID string, in entity.NotificationInput) (*entity.Notification, error) {
	if recipientID == "" {
		return nil, errors.InvalidArgument("recipient is required")
	}
	if recipientID == actorID {
		return nil, errors.InvalidArgument("cannot notify the acting user")
	}

	n := entity.NewNotification(recipientID, in)
	if err := uc.notificationRepo.Create(ctx, n); err != nil {
		return nil, err
	}
	metrics.AddNotificationsCreated(n.Type, 1)
	uc.publish(ctx, n)
	return n, nil
}

// CreateBatch writes notifications for many recipients. Stored ones are
// returned and published even when others failed.
func (uc *NotificationUseCase) CreateBatch(ctx context.Context, ns []*entity.Notification) ([]*entity.Notification, error) {
	created, err := uc.notificationRepo.CreateBatch(ctx, ns)
	for _, n := range created {
		metrics.AddNotificationsCreated(n.Type, 1)
		uc.publish(ctx, n)
	}
	return created, err
}

// publish hands the event to the delivery sink. Delivery is out of band, so
// a failure here never fails the write.
func (uc *NotificationUseCase) publish(ctx context.Context, n *entity.Notification) {
	if uc.sink == nil {
		return
	}
	if err := uc.sink.Publish(ctx, service.NewNotificationCreated(n)); err != nil {
		metrics.IncSinkPublishError()
		logger.Warn("Failed to publish notification event",
			"notification_id", n.ID,
			"user_id", n.RecipientID,
			"error", err)
	}
}

func (uc *NotificationUseCase) ListUnread(ctx context.Context, userID string) ([]*entity.Notification, error) {
	if err := requireIdentity(userID); err != nil {
		return nil, err
	}
	return uc.notificationRepo.ListUnread(ctx, userID)
}

// ListenUnread streams userID's unread notifications, newest first.
func (uc *NotificationUseCase) ListenUnread(ctx context.Context, userID string) (*realtime.Subscription[*entity.Notification], error) {
	if err := requireIdentity(userID); err != nil {
		return nil, err
	}
	return uc.notificationRepo.ListenUnread(ctx, userID), nil
}

// MarkRead is idempotent.
func (uc *NotificationUseCase) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := requireIdentity(userID); err != nil {
		return err
	}
	if notificationID == "" {
		return errors.InvalidArgument("notification id is required")
	}
	return uc.notificationRepo.MarkRead(ctx, userID, notificationID)
}
