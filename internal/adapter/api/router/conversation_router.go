package router

import (
	"github.com/labstack/echo/v4"

	"amravatimarket/internal/adapter/api/handler"
	"amravatimarket/internal/adapter/api/middleware"
)

func SetupConversationRouter(v1 *echo.Group, conversationHandler *handler.ConversationHandler, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	conversations := v1.Group("/conversations")
	conversations.Use(authMiddleware.Authenticate)

	conversations.POST("", conversationHandler.ContactSeller)
	conversations.GET("", conversationHandler.ListInbox)
	conversations.GET("/:id", conversationHandler.GetConversation)
	conversations.PUT("/:id/read", conversationHandler.MarkRead)
	conversations.PUT("/:id/typing", conversationHandler.SetTyping)

	conversations.POST("/:id/messages", messageHandler.SendMessage)
	conversations.GET("/:id/messages", messageHandler.ListMessages)
	conversations.GET("/:id/messages/:messageId", messageHandler.GetMessage)
	conversations.DELETE("/:id/messages/:messageId", messageHandler.DeleteMessage)
}
