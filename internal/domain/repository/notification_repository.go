package repository

import (
	"context"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/pkg/realtime"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	// CreateBatch writes every notification independently. It returns the ones
	// that were stored and the joined errors of the ones that were not.
	CreateBatch(ctx context.Context, ns []*entity.Notification) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	// ListUnread returns userID's unread notifications, newest first.
	ListUnread(ctx context.Context, userID string) ([]*entity.Notification, error)
	ListenUnread(ctx context.Context, userID string) *realtime.Subscription[*entity.Notification]
}
