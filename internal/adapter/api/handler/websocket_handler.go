package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"amravatimarket/internal/adapter/api/middleware"
	ws "amravatimarket/internal/infrastructure/websocket"
	"amravatimarket/internal/usecase"
	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/logger"
	"amravatimarket/pkg/realtime"
	"amravatimarket/pkg/response"
)

const (
	StreamInbox         = "inbox"
	StreamThread        = "thread"
	StreamNotifications = "notifications"

	// MaxStreamsPerUser caps the live streams one user may hold open.
	MaxStreamsPerUser = 8
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler serves live snapshots. The listener is opened before the
// upgrade so that authorization failures still get a JSON error response.
type WebSocketHandler struct {
	wsManager           *ws.Manager
	conversationUseCase *usecase.ConversationUseCase
	messageUseCase      *usecase.MessageUseCase
	notificationUseCase *usecase.NotificationUseCase
}

func NewWebSocketHandler(
	wsManager *ws.Manager,
	conversationUseCase *usecase.ConversationUseCase,
	messageUseCase *usecase.MessageUseCase,
	notificationUseCase *usecase.NotificationUseCase,
) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:           wsManager,
		conversationUseCase: conversationUseCase,
		messageUseCase:      messageUseCase,
		notificationUseCase: notificationUseCase,
	}
}

func (h *WebSocketHandler) Inbox(c echo.Context) error {
	userID := middleware.UserID(c)
	sub, err := h.conversationUseCase.ListenInbox(c.Request().Context(), userID)
	return stream(c, h.wsManager, StreamInbox, sub, err)
}

func (h *WebSocketHandler) Thread(c echo.Context) error {
	userID := middleware.UserID(c)
	sub, err := h.messageUseCase.Listen(c.Request().Context(), c.Param("id"), userID)
	return stream(c, h.wsManager, StreamThread, sub, err)
}

func (h *WebSocketHandler) Notifications(c echo.Context) error {
	userID := middleware.UserID(c)
	sub, err := h.notificationUseCase.ListenUnread(c.Request().Context(), userID)
	return stream(c, h.wsManager, StreamNotifications, sub, err)
}

// stream upgrades the request and blocks until the stream ends.
func stream[T any](c echo.Context, m *ws.Manager, name string, sub *realtime.Subscription[T], err error) error {
	if err != nil {
		return response.Error(c, err)
	}
	userID := middleware.UserID(c)
	if m.Count(userID) >= MaxStreamsPerUser {
		sub.Close()
		return response.Error(c, errors.TooManyRequests("Too many open live streams", 0))
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		sub.Close()
		logger.Debug("Websocket upgrade failed", "stream", name, "error", err)
		return nil
	}

	ws.Serve(m, ws.NewClient(conn, userID, name), sub)
	return nil
}
