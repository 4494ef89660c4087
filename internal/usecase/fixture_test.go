package usecase

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	memory "amravatimarket/internal/adapter/repository"
	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/domain/repository"
	"amravatimarket/internal/domain/service"
	"amravatimarket/pkg/realtime"
)

const (
	buyerID  = "buyer-b"
	sellerID = "seller-s"
	adminID  = "admin-a"
)

type sinkMock struct {
	mock.Mock
}

func (m *sinkMock) Publish(ctx context.Context, event service.NotificationCreated) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *sinkMock) Close() error {
	return m.Called().Error(0)
}

// failingSendRepo fails the counter update that follows a stored message.
type failingSendRepo struct {
	repository.ConversationRepository
}

func (failingSendRepo) ApplySend(ctx context.Context, id string, u repository.SendUpdate) error {
	return stderrors.New("deadline exceeded")
}

type failingNotifier struct{}

func (failingNotifier) Create(ctx context.Context, actorID, recipientID string, in entity.NotificationInput) (*entity.Notification, error) {
	return nil, stderrors.New("notifications unavailable")
}

type fixture struct {
	store            *memory.MemoryStore
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	notificationRepo repository.NotificationRepository
	sink             *sinkMock

	conversations *ConversationUseCase
	messages      *MessageUseCase
	presence      *PresenceUseCase
	notifications *NotificationUseCase
	approvals     *ProductApprovalUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewMemoryStore()
	store.PutUser(&entity.User{ID: buyerID, Name: "Bina"})
	store.PutUser(&entity.User{ID: sellerID, Name: "Sanjay"})
	store.PutUser(&entity.User{ID: adminID, Name: "Admin", Role: "admin"})
	store.PutProduct(&entity.Product{
		ID:        "product-p",
		Title:     "Engineering drawing kit",
		ImageURLs: []string{"https://img/kit.jpg"},
		SellerID:  sellerID,
		Location:  "Amravati",
		Category:  "Books & Notes",
	})

	f := &fixture{
		store:            store,
		conversationRepo: memory.NewMemoryConversationRepository(store),
		messageRepo:      memory.NewMemoryMessageRepository(store),
		notificationRepo: memory.NewMemoryNotificationRepository(store),
		sink:             &sinkMock{},
	}
	f.sink.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	userRepo := memory.NewMemoryUserRepository(store)
	productRepo := memory.NewMemoryProductRepository(store)

	f.notifications = NewNotificationUseCase(f.notificationRepo, f.sink)
	f.conversations = NewConversationUseCase(f.conversationRepo, userRepo, productRepo, nil)
	f.messages = NewMessageUseCase(f.conversationRepo, f.messageRepo, f.notifications, nil)
	f.presence = NewPresenceUseCase(f.conversationRepo, nil)
	f.approvals = NewProductApprovalUseCase(productRepo, userRepo, f.notifications)
	return f
}

func (f *fixture) contact(t *testing.T) string {
	t.Helper()
	res, err := f.conversations.ContactSeller(context.Background(), buyerID, "product-p")
	require.NoError(t, err)
	return res.ConversationID
}

func (f *fixture) conversation(t *testing.T, id string) *entity.Conversation {
	t.Helper()
	c, err := f.conversationRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (f *fixture) send(t *testing.T, id, from, text string) *SendResult {
	t.Helper()
	res, err := f.messages.Send(context.Background(), id, from, text)
	require.NoError(t, err)
	return res
}

func snapshot[T any](t *testing.T, sub *realtime.Subscription[T]) []T {
	t.Helper()
	select {
	case items, ok := <-sub.Updates():
		require.True(t, ok, "subscription closed: %v", sub.Err())
		return items
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func newDeviceTokenRepo(f *fixture) repository.DeviceTokenRepository {
	return memory.NewMemoryDeviceTokenRepository(f.store)
}
