package repository

import (
	"context"

	"github.com/google/uuid"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/domain/repository"
	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/realtime"
)

type memoryNotificationRepository struct {
	store *MemoryStore
}

func NewMemoryNotificationRepository(store *MemoryStore) repository.NotificationRepository {
	return &memoryNotificationRepository{store: store}
}

// insert stores n. Callers hold mu.
func (r *memoryNotificationRepository) insert(n *entity.Notification) {
	s := r.store
	n.ID = uuid.New().String()
	n.CreatedAt = s.now()
	if s.notifications[n.RecipientID] == nil {
		s.notifications[n.RecipientID] = make(map[string]*entity.Notification)
	}
	cp := *n
	s.notifications[n.RecipientID][n.ID] = &cp
}

func (r *memoryNotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	r.store.mu.Lock()
	r.insert(n)
	r.store.mu.Unlock()

	r.store.notify(notificationTopic(n.RecipientID))
	return nil
}

func (r *memoryNotificationRepository) CreateBatch(ctx context.Context, ns []*entity.Notification) ([]*entity.Notification, error) {
	topics := make([]string, 0, len(ns))
	r.store.mu.Lock()
	for _, n := range ns {
		r.insert(n)
		topics = append(topics, notificationTopic(n.RecipientID))
	}
	r.store.mu.Unlock()

	r.store.notify(topics...)
	return ns, nil
}

func (r *memoryNotificationRepository) MarkRead(ctx context.Context, userID, notificationID string) error {
	s := r.store
	s.mu.Lock()
	n, ok := s.notifications[userID][notificationID]
	if !ok {
		s.mu.Unlock()
		return errors.NotFound("Notification", nil)
	}
	changed := !n.IsRead
	n.IsRead = true
	s.mu.Unlock()

	if changed {
		s.notify(notificationTopic(userID))
	}
	return nil
}

func (r *memoryNotificationRepository) ListUnread(ctx context.Context, userID string) ([]*entity.Notification, error) {
	return r.store.unreadOf(userID), nil
}

func (r *memoryNotificationRepository) ListenUnread(ctx context.Context, userID string) *realtime.Subscription[*entity.Notification] {
	return memoryListen(ctx, r.store, notificationTopic(userID), func() []*entity.Notification {
		return r.store.unreadOf(userID)
	})
}
