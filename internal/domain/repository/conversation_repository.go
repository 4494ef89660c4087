package repository

import (
	"context"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/pkg/realtime"
)

// SendUpdate is the conversation bookkeeping that follows an accepted message.
type SendUpdate struct {
	Text       string
	SenderRole entity.Role
}

type ConversationRepository interface {
	// FindOrCreate returns the id of the conversation for c's
	// (product, buyer, seller) key, creating c when none exists.
	FindOrCreate(ctx context.Context, c *entity.Conversation) (id string, created bool, err error)
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)

	// ApplySend sets lastMessage/lastMessageAt, increments the receiver's
	// unread counter, zeroes the sender's and clears both typing flags.
	ApplySend(ctx context.Context, id string, update SendUpdate) error
	// ResetUnread zeroes role's counter only if it is non-zero.
	ResetUnread(ctx context.Context, id string, role entity.Role) error
	SetTyping(ctx context.Context, id string, role entity.Role, typing bool) error
	SetBlocked(ctx context.Context, id string, blocked bool) error

	// ListByParticipant returns userID's conversations, newest activity first.
	ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error)
	ListenByParticipant(ctx context.Context, userID string) *realtime.Subscription[*entity.Conversation]
}
