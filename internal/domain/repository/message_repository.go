package repository

import (
	"context"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/pkg/realtime"
)

type MessageRepository interface {
	// Append assigns msg an id and a creation time and stores it.
	Append(ctx context.Context, msg *entity.Message) error
	GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error)
	// Delete applies a soft delete atomically and returns the resulting message.
	Delete(ctx context.Context, conversationID, messageID, userID string, scope entity.DeletionScope) (*entity.Message, error)
	// ListByConversation returns every message, oldest first.
	ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error)
	Listen(ctx context.Context, conversationID string) *realtime.Subscription[*entity.Message]
}
