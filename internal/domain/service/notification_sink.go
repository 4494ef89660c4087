package service

import (
	"context"
	"time"

	"amravatimarket/internal/domain/entity"
)

const NotificationCreatedEvent = "notification.created"

// NotificationCreated is published after a notification document is durable.
// Push delivery consumers subscribe to it; the API never delivers itself.
type NotificationCreated struct {
	Event          string    `json:"event"`
	NotificationID string    `json:"notification_id"`
	UserID         string    `json:"user_id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Link           string    `json:"link,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewNotificationCreated(n *entity.Notification) NotificationCreated {
	return NotificationCreated{
		Event:          NotificationCreatedEvent,
		NotificationID: n.ID,
		UserID:         n.RecipientID,
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		Link:           n.Link,
		CreatedAt:      n.CreatedAt,
	}
}

type NotificationSink interface {
	Publish(ctx context.Context, event NotificationCreated) error
	Close() error
}
