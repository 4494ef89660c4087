package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/domain/repository"
	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/realtime"
)

func newConversation() *entity.Conversation {
	return entity.NewConversation("p1", "Study table", "table.jpg",
		entity.Party{ID: "buyer", Name: "Bina"},
		entity.Party{ID: "seller", Name: "Sanjay"})
}

func next[T any](t *testing.T, sub *realtime.Subscription[T]) []T {
	t.Helper()
	select {
	case items, ok := <-sub.Updates():
		require.True(t, ok, "subscription closed")
		return items
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestMemoryFindOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConversationRepository(NewMemoryStore())

	id1, created1, err := repo.FindOrCreate(ctx, newConversation())
	require.NoError(t, err)
	id2, created2, err := repo.FindOrCreate(ctx, newConversation())
	require.NoError(t, err)

	assert.True(t, created1)
	assert.False(t, created2)
	assert.Equal(t, id1, id2)

	all, err := repo.ListByParticipant(ctx, "buyer")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemoryFindOrCreateHonoursLegacyIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	legacy := newConversation()
	legacy.ID = "legacy-random-id"
	store.PutConversation(legacy)

	id, created, err := NewMemoryConversationRepository(store).FindOrCreate(ctx, newConversation())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "legacy-random-id", id)
}

func TestMemoryApplySendAndResetUnread(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConversationRepository(NewMemoryStore())
	id, _, err := repo.FindOrCreate(ctx, newConversation())
	require.NoError(t, err)

	require.NoError(t, repo.SetTyping(ctx, id, entity.RoleBuyer, true))
	require.NoError(t, repo.ApplySend(ctx, id, repository.SendUpdate{Text: "hello", SenderRole: entity.RoleBuyer}))
	require.NoError(t, repo.ApplySend(ctx, id, repository.SendUpdate{Text: "still there?", SenderRole: entity.RoleBuyer}))

	c, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 2, c.SellerUnread)
	assert.EqualValues(t, 0, c.BuyerUnread)
	assert.Equal(t, "still there?", c.LastMessage)
	assert.False(t, c.BuyerTyping)

	require.NoError(t, repo.ResetUnread(ctx, id, entity.RoleSeller))
	c, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, 0, c.SellerUnread)
}

func TestMemoryMissingConversation(t *testing.T) {
	repo := NewMemoryConversationRepository(NewMemoryStore())

	_, err := repo.GetByID(context.Background(), "nope")
	assert.True(t, errors.Is(err, errors.CodeConversationNotFound))

	err = repo.SetBlocked(context.Background(), "nope", true)
	assert.True(t, errors.Is(err, errors.CodeConversationNotFound))
}

func TestMemoryInboxListenerReceivesFullSnapshots(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := NewMemoryConversationRepository(store)

	sub := repo.ListenByParticipant(ctx, "seller")
	assert.Empty(t, next(t, sub))

	id, _, err := repo.FindOrCreate(ctx, newConversation())
	require.NoError(t, err)
	snap := next(t, sub)
	require.Len(t, snap, 1)
	assert.Equal(t, id, snap[0].ID)

	require.NoError(t, repo.ApplySend(ctx, id, repository.SendUpdate{Text: "hi", SenderRole: entity.RoleBuyer}))
	snap = next(t, sub)
	require.Len(t, snap, 1)
	assert.EqualValues(t, 1, snap[0].SellerUnread)

	sub.Close()
	assert.Eventually(t, func() bool { return store.listeners(inboxTopic("seller")) == 0 },
		time.Second, 10*time.Millisecond)
}

func TestMemoryInboxOrdersByLastActivity(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConversationRepository(NewMemoryStore())

	first, _, err := repo.FindOrCreate(ctx, newConversation())
	require.NoError(t, err)
	other := entity.NewConversation("p2", "Cycle", "", entity.Party{ID: "buyer"}, entity.Party{ID: "seller"})
	second, _, err := repo.FindOrCreate(ctx, other)
	require.NoError(t, err)

	list, err := repo.ListByParticipant(ctx, "buyer")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)

	require.NoError(t, repo.ApplySend(ctx, first, repository.SendUpdate{Text: "bump", SenderRole: entity.RoleSeller}))
	list, err = repo.ListByParticipant(ctx, "buyer")
	require.NoError(t, err)
	assert.Equal(t, first, list[0].ID)
}

func TestMemoryMessagesKeepOrderAcrossDeletes(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMessageRepository(NewMemoryStore())

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Append(ctx, &entity.Message{ConversationID: "c1", SenderID: "buyer", Text: text}))
	}
	sub := repo.Listen(ctx, "c1")
	defer sub.Close()
	before := next(t, sub)
	require.Len(t, before, 3)

	deleted, err := repo.Delete(ctx, "c1", before[1].ID, "buyer", entity.DeletedForMe)
	require.NoError(t, err)
	require.NotNil(t, deleted.Deletion)

	after := next(t, sub)
	require.Len(t, after, 3)
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].CreatedAt, after[i].CreatedAt)
	}
	assert.Equal(t, entity.DeletedForMe, after[1].Deletion.Scope)
	assert.True(t, before[0].CreatedAt.Before(before[1].CreatedAt))
}

func TestMemoryDeleteRejectsNonSenderForEveryone(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryMessageRepository(NewMemoryStore())
	msg := &entity.Message{ConversationID: "c1", SenderID: "buyer", Text: "mine"}
	require.NoError(t, repo.Append(ctx, msg))

	_, err := repo.Delete(ctx, "c1", msg.ID, "seller", entity.DeletedForEveryone)
	assert.ErrorIs(t, err, entity.ErrNotMessageSender)

	stored, err := repo.GetByID(ctx, "c1", msg.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Deletion)

	_, err = repo.Delete(ctx, "c1", "missing", "buyer", entity.DeletedForMe)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestMemoryNotificationsUnreadNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryNotificationRepository(NewMemoryStore())

	older := entity.NewNotification("u1", entity.NotificationInput{Message: "older"})
	newer := entity.NewNotification("u1", entity.NotificationInput{Message: "newer"})
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	sub := repo.ListenUnread(ctx, "u1")
	defer sub.Close()
	snap := next(t, sub)
	require.Len(t, snap, 2)
	assert.Equal(t, "newer", snap[0].Message)

	require.NoError(t, repo.MarkRead(ctx, "u1", newer.ID))
	require.NoError(t, repo.MarkRead(ctx, "u1", newer.ID))
	snap = next(t, sub)
	require.Len(t, snap, 1)
	assert.Equal(t, older.ID, snap[0].ID)

	err := repo.MarkRead(ctx, "u1", "missing")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestMemoryProductApproveTransitionsOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.PutProduct(&entity.Product{ID: "p1", Title: "Notes", SellerID: "s"})
	repo := NewMemoryProductRepository(store)

	p, transitioned, err := repo.Approve(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, transitioned)
	assert.True(t, p.Approved)
	assert.NotNil(t, p.ApprovedAt)

	_, transitioned, err = repo.Approve(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, transitioned)
}

func TestMemoryUsersByPreferences(t *testing.T) {
	store := NewMemoryStore()
	store.PutUser(&entity.User{ID: "a", PreferredLocations: []string{"Amravati"}, PreferredCategories: []string{"Books"}})
	store.PutUser(&entity.User{ID: "b", PreferredLocations: []string{"Amravati"}, PreferredCategories: []string{"Food"}})
	store.PutUser(&entity.User{ID: "c"})

	users, err := NewMemoryUserRepository(store).ListByPreferences(context.Background(), "Amravati", "Books")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a", users[0].ID)
}
