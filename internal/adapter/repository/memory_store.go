package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/pkg/realtime"
)

// MemoryStore is an in-process document store with the same realtime
// semantics as the Firestore adapters: listeners receive the full current
// result set after every committed change. It backs development mode and
// the use case tests.
type MemoryStore struct {
	mu            sync.RWMutex
	lastTime      time.Time
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message
	notifications map[string]map[string]*entity.Notification
	users         map[string]*entity.User
	products      map[string]*entity.Product
	tokens        map[string]*entity.DeviceToken

	// notifyMu serialises snapshot delivery so a stale snapshot is never
	// published after a newer one.
	notifyMu  sync.Mutex
	watchMu   sync.Mutex
	watchers  map[string]map[uint64]func()
	nextWatch uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string][]*entity.Message),
		notifications: make(map[string]map[string]*entity.Notification),
		users:         make(map[string]*entity.User),
		products:      make(map[string]*entity.Product),
		tokens:        make(map[string]*entity.DeviceToken),
		watchers:      make(map[string]map[uint64]func()),
	}
}

// now returns a strictly increasing timestamp. Callers hold mu.
func (s *MemoryStore) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.lastTime) {
		t = s.lastTime.Add(time.Microsecond)
	}
	s.lastTime = t
	return t
}

// PutUser stores a user profile, replacing any existing one.
func (s *MemoryStore) PutUser(u *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

// PutProduct stores a catalog product, replacing any existing one.
func (s *MemoryStore) PutProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	cp.ImageURLs = append([]string(nil), p.ImageURLs...)
	s.products[p.ID] = &cp
}

// PutConversation stores c under its current id as-is. Used to seed
// conversations whose ids predate key-derived ids.
func (s *MemoryStore) PutConversation(c *entity.Conversation) {
	s.mu.Lock()
	cp := copyConversation(c)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.now()
	}
	if cp.LastMessageAt.IsZero() {
		cp.LastMessageAt = cp.CreatedAt
	}
	s.conversations[c.ID] = cp
	s.mu.Unlock()

	s.notify(inboxTopics(cp)...)
}

// DeviceToken returns the stored push token for userID.
func (s *MemoryStore) DeviceToken(userID string) (*entity.DeviceToken, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[userID]
	if !ok {
		return nil, false
	}
	cp := *t
	return &cp, true
}

func copyConversation(c *entity.Conversation) *entity.Conversation {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	return &cp
}

func copyMessage(m *entity.Message) *entity.Message {
	cp := *m
	if m.Deletion != nil {
		d := *m.Deletion
		cp.Deletion = &d
	}
	return &cp
}

func copyUser(u *entity.User) *entity.User {
	cp := *u
	cp.PreferredLocations = append([]string(nil), u.PreferredLocations...)
	cp.PreferredCategories = append([]string(nil), u.PreferredCategories...)
	return &cp
}

func inboxTopic(userID string) string { return "inbox:" + userID }
func threadTopic(conversationID string) string { return "thread:" + conversationID }
func notificationTopic(userID string) string { return "notifications:" + userID }

func inboxTopics(c *entity.Conversation) []string {
	topics := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		topics = append(topics, inboxTopic(p))
	}
	return topics
}

// notify re-delivers snapshots to every listener on topics. Callers must not
// hold mu.
func (s *MemoryStore) notify(topics ...string) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	for _, topic := range topics {
		s.watchMu.Lock()
		refreshers := make([]func(), 0, len(s.watchers[topic]))
		for _, fn := range s.watchers[topic] {
			refreshers = append(refreshers, fn)
		}
		s.watchMu.Unlock()

		for _, fn := range refreshers {
			fn()
		}
	}
}

func (s *MemoryStore) addWatcher(topic string, fn func()) uint64 {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	s.nextWatch++
	id := s.nextWatch
	if s.watchers[topic] == nil {
		s.watchers[topic] = make(map[uint64]func())
	}
	s.watchers[topic][id] = fn
	return id
}

func (s *MemoryStore) removeWatcher(topic string, id uint64) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	delete(s.watchers[topic], id)
	if len(s.watchers[topic]) == 0 {
		delete(s.watchers, topic)
	}
}

// listeners reports how many listeners are attached to topic.
func (s *MemoryStore) listeners(topic string) int {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	return len(s.watchers[topic])
}

func memoryListen[T any](ctx context.Context, s *MemoryStore, topic string, snapshot func() []T) *realtime.Subscription[T] {
	sub := realtime.New[T](ctx)
	refresh := func() { sub.Publish(snapshot()) }

	id := s.addWatcher(topic, refresh)
	s.notifyMu.Lock()
	refresh()
	s.notifyMu.Unlock()

	go func() {
		<-sub.Done()
		s.removeWatcher(topic, id)
	}()
	return sub
}

func (s *MemoryStore) conversationsOf(userID string) []*entity.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Conversation, 0)
	for _, c := range s.conversations {
		if c.HasParticipant(userID) {
			out = append(out, copyConversation(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastMessageAt.Equal(out[j].LastMessageAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out
}

func (s *MemoryStore) thread(conversationID string) []*entity.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.messages[conversationID]
	out := make([]*entity.Message, 0, len(src))
	for _, m := range src {
		out = append(out, copyMessage(m))
	}
	return out
}

func (s *MemoryStore) unreadOf(userID string) []*entity.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Notification, 0)
	for _, n := range s.notifications[userID] {
		if !n.IsRead {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
