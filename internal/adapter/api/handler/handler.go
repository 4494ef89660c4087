package handler

import (
	ws "amravatimarket/internal/infrastructure/websocket"
	"amravatimarket/internal/usecase"
)

// Handlers groups every HTTP handler so routers can be wired in one call.
type Handlers struct {
	Conversation *ConversationHandler
	Message      *MessageHandler
	Notification *NotificationHandler
	Admin        *AdminHandler
	User         *UserHandler
	WebSocket    *WebSocketHandler
	Health       *HealthHandler
}

type UseCases struct {
	Conversations *usecase.ConversationUseCase
	Messages      *usecase.MessageUseCase
	Presence      *usecase.PresenceUseCase
	Notifications *usecase.NotificationUseCase
	Approvals     *usecase.ProductApprovalUseCase
	DeviceTokens  *usecase.DeviceTokenUseCase
	Users         *usecase.UserUseCase
}

func Setup(uc UseCases, wsManager *ws.Manager, storeDriver string) *Handlers {
	return &Handlers{
		Conversation: NewConversationHandler(uc.Conversations, uc.Presence),
		Message:      NewMessageHandler(uc.Messages),
		Notification: NewNotificationHandler(uc.Notifications, uc.DeviceTokens),
		Admin:        NewAdminHandler(uc.Conversations, uc.Approvals),
		User:         NewUserHandler(uc.Users),
		WebSocket:    NewWebSocketHandler(wsManager, uc.Conversations, uc.Messages, uc.Notifications),
		Health:       NewHealthHandler(storeDriver),
	}
}
