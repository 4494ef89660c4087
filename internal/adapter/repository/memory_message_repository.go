package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/domain/repository"
	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/realtime"
)

type memoryMessageRepository struct {
	store *MemoryStore
}

func NewMemoryMessageRepository(store *MemoryStore) repository.MessageRepository {
	return &memoryMessageRepository{store: store}
}

func (r *memoryMessageRepository) Append(ctx context.Context, msg *entity.Message) error {
	s := r.store
	s.mu.Lock()
	msg.ID = uuid.New().String()
	msg.CreatedAt = s.now()
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], copyMessage(msg))
	s.mu.Unlock()

	s.notify(threadTopic(msg.ConversationID))
	return nil
}

func (r *memoryMessageRepository) find(conversationID, messageID string) (*entity.Message, bool) {
	for _, m := range r.store.messages[conversationID] {
		if m.ID == messageID {
			return m, true
		}
	}
	return nil, false
}

func (r *memoryMessageRepository) GetByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	m, ok := r.find(conversationID, messageID)
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	return copyMessage(m), nil
}

func (r *memoryMessageRepository) Delete(ctx context.Context, conversationID, messageID, userID string, scope entity.DeletionScope) (*entity.Message, error) {
	s := r.store
	s.mu.Lock()
	m, ok := r.find(conversationID, messageID)
	if !ok {
		s.mu.Unlock()
		return nil, errors.NotFound("Message", nil)
	}

	next, changed, err := m.ApplyDeletion(scope, userID, time.Now().UTC())
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	m.Deletion = next
	out := copyMessage(m)
	s.mu.Unlock()

	if changed {
		s.notify(threadTopic(conversationID))
	}
	return out, nil
}

func (r *memoryMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	return r.store.thread(conversationID), nil
}

func (r *memoryMessageRepository) Listen(ctx context.Context, conversationID string) *realtime.Subscription[*entity.Message] {
	return memoryListen(ctx, r.store, threadTopic(conversationID), func() []*entity.Message {
		return r.store.thread(conversationID)
	})
}
