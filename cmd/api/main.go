package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"amravatimarket/internal/adapter/api"
	"amravatimarket/internal/adapter/api/handler"
	apimiddleware "amravatimarket/internal/adapter/api/middleware"
	"amravatimarket/internal/adapter/api/router"
	"amravatimarket/internal/adapter/repository"
	domainrepo "amravatimarket/internal/domain/repository"
	"amravatimarket/internal/domain/service"
	"amravatimarket/internal/infrastructure/firebase"
	"amravatimarket/internal/infrastructure/kafka"
	"amravatimarket/internal/infrastructure/rabbitmq"
	"amravatimarket/internal/infrastructure/ratelimit"
	"amravatimarket/internal/infrastructure/telemetry"
	"amravatimarket/internal/infrastructure/websocket"
	"amravatimarket/internal/usecase"
	"amravatimarket/pkg/config"
	"amravatimarket/pkg/logger"
	"amravatimarket/pkg/response"
)

type repositories struct {
	conversations domainrepo.ConversationRepository
	messages      domainrepo.MessageRepository
	notifications domainrepo.NotificationRepository
	users         domainrepo.UserRepository
	deviceTokens  domainrepo.DeviceTokenRepository
	products      domainrepo.ProductRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		logger.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	repos, verifier, closeStore := openStore(ctx, cfg)
	defer closeStore()

	sink := openSink(cfg)
	if reason := rabbitmq.PublisherNoopReason(sink); reason != "" {
		logger.Info("Notification events are not published", "reason", reason)
	}

	limiter := ratelimit.NewRateLimiter(map[string]ratelimit.Policy{
		ratelimit.ActionSendMessage:        ratelimit.PerMinute(cfg.SendRatePerMinute),
		ratelimit.ActionTyping:             ratelimit.PerMinute(cfg.TypingRatePerMinute),
		ratelimit.ActionCreateConversation: ratelimit.PerHour(cfg.ContactRatePerHour),
		ratelimit.ActionHTTP:               ratelimit.PerMinute(300),
	})
	limiter.StartCleanupRoutine(ctx)

	notificationUseCase := usecase.NewNotificationUseCase(repos.notifications, sink)
	conversationUseCase := usecase.NewConversationUseCase(repos.conversations, repos.users, repos.products, limiter)
	useCases := handler.UseCases{
		Conversations: conversationUseCase,
		Messages:      usecase.NewMessageUseCase(repos.conversations, repos.messages, notificationUseCase, limiter),
		Presence:      usecase.NewPresenceUseCase(repos.conversations, limiter),
		Notifications: notificationUseCase,
		Approvals:     usecase.NewProductApprovalUseCase(repos.products, repos.users, notificationUseCase),
		DeviceTokens:  usecase.NewDeviceTokenUseCase(repos.deviceTokens),
		Users:         usecase.NewUserUseCase(repos.users),
	}

	wsManager := websocket.NewManager()
	handlers := handler.Setup(useCases, wsManager, cfg.StoreDriver)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = response.HTTPErrorHandler
	e.Validator = api.NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(apimiddleware.Metrics)

	router.Setup(e, handlers,
		apimiddleware.NewAuthMiddleware(verifier),
		apimiddleware.NewAdminMiddleware(repos.users),
		limiter,
	)

	go func() {
		logger.Info("Server starting", "port", cfg.ServerPort, "store", cfg.StoreDriver, "sink", cfg.NotificationSink)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped unexpectedly", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down", "timeout", cfg.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by http.Server.
	wsManager.CloseAll()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	if err := sink.Close(); err != nil {
		logger.Warn("Closing notification sink failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Flushing traces failed", "error", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (repositories, apimiddleware.TokenVerifier, func()) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("Using the in-memory store; data is lost on restart and only dev:<uid> tokens are accepted")
		store := repository.NewMemoryStore()
		return repositories{
			conversations: repository.NewMemoryConversationRepository(store),
			messages:      repository.NewMemoryMessageRepository(store),
			notifications: repository.NewMemoryNotificationRepository(store),
			users:         repository.NewMemoryUserRepository(store),
			deviceTokens:  repository.NewMemoryDeviceTokenRepository(store),
			products:      repository.NewMemoryProductRepository(store),
		}, firebase.NewDevTokenVerifier(nil), func() {}
	}

	clients, err := firebase.NewClients(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Firebase", "error", err)
		os.Exit(1)
	}

	var verifier apimiddleware.TokenVerifier = clients.Auth
	if cfg.IsDevelopment() {
		verifier = firebase.NewDevTokenVerifier(clients.Auth)
	}

	fs := clients.Firestore
	closeStore := func() {
		if err := clients.Close(); err != nil {
			logger.Warn("Closing Firestore client failed", "error", err)
		}
	}
	return repositories{
		conversations: repository.NewFirestoreConversationRepository(fs),
		messages:      repository.NewFirestoreMessageRepository(fs),
		notifications: repository.NewFirestoreNotificationRepository(fs),
		users:         repository.NewFirestoreUserRepository(fs),
		deviceTokens:  repository.NewFirestoreDeviceTokenRepository(fs),
		products:      repository.NewFirestoreProductRepository(fs),
	}, verifier, closeStore
}

func openSink(cfg *config.Config) service.NotificationSink {
	switch cfg.NotificationSink {
	case config.SinkAMQP:
		return rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	case config.SinkKafka:
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, nil)
		if err != nil {
			logger.Warn("Kafka unavailable, notification events disabled", "error", err)
			return rabbitmq.Noop("kafka unavailable")
		}
		return producer
	}
	return rabbitmq.Noop("notification sink disabled")
}
