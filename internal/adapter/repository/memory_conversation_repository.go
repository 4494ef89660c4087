package repository

import (
	"context"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/domain/repository"
	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/realtime"
)

type memoryConversationRepository struct {
	store *MemoryStore
}

func NewMemoryConversationRepository(store *MemoryStore) repository.ConversationRepository {
	return &memoryConversationRepository{store: store}
}

func (r *memoryConversationRepository) FindOrCreate(ctx context.Context, c *entity.Conversation) (string, bool, error) {
	s := r.store
	s.mu.Lock()
	for id, existing := range s.conversations {
		if existing.ProductID == c.ProductID && existing.BuyerID == c.BuyerID && existing.SellerID == c.SellerID {
			s.mu.Unlock()
			return id, false, nil
		}
	}

	cp := copyConversation(c)
	cp.CreatedAt = s.now()
	cp.LastMessageAt = cp.CreatedAt
	s.conversations[cp.ID] = cp
	s.mu.Unlock()

	s.notify(inboxTopics(cp)...)
	return cp.ID, true, nil
}

func (r *memoryConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.conversations[id]
	if !ok {
		return nil, errors.ConversationNotFound(id, nil)
	}
	return copyConversation(c), nil
}

// mutate applies fn to the stored conversation and notifies its listeners
// when fn reports a change.
func (r *memoryConversationRepository) mutate(id string, fn func(c *entity.Conversation) bool) error {
	s := r.store
	s.mu.Lock()
	c, ok := s.conversations[id]
	if !ok {
		s.mu.Unlock()
		return errors.ConversationNotFound(id, nil)
	}
	changed := fn(c)
	topics := inboxTopics(c)
	s.mu.Unlock()

	if changed {
		s.notify(topics...)
	}
	return nil
}

func (r *memoryConversationRepository) ApplySend(ctx context.Context, id string, u repository.SendUpdate) error {
	return r.mutate(id, func(c *entity.Conversation) bool {
		c.LastMessage = u.Text
		c.LastMessageAt = r.store.now()
		if u.SenderRole == entity.RoleBuyer {
			c.SellerUnread++
			c.BuyerUnread = 0
		} else {
			c.BuyerUnread++
			c.SellerUnread = 0
		}
		c.BuyerTyping = false
		c.SellerTyping = false
		return true
	})
}

func (r *memoryConversationRepository) ResetUnread(ctx context.Context, id string, role entity.Role) error {
	return r.mutate(id, func(c *entity.Conversation) bool {
		if c.Unread(role) == 0 {
			return false
		}
		if role == entity.RoleBuyer {
			c.BuyerUnread = 0
		} else {
			c.SellerUnread = 0
		}
		return true
	})
}

func (r *memoryConversationRepository) SetTyping(ctx context.Context, id string, role entity.Role, typing bool) error {
	return r.mutate(id, func(c *entity.Conversation) bool {
		if c.Typing(role) == typing {
			return false
		}
		if role == entity.RoleBuyer {
			c.BuyerTyping = typing
		} else {
			c.SellerTyping = typing
		}
		return true
	})
}

func (r *memoryConversationRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	return r.mutate(id, func(c *entity.Conversation) bool {
		changed := c.IsBlocked != blocked
		c.IsBlocked = blocked
		return changed
	})
}

func (r *memoryConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	return r.store.conversationsOf(userID), nil
}

func (r *memoryConversationRepository) ListenByParticipant(ctx context.Context, userID string) *realtime.Subscription[*entity.Conversation] {
	return memoryListen(ctx, r.store, inboxTopic(userID), func() []*entity.Conversation {
		return r.store.conversationsOf(userID)
	})
}
