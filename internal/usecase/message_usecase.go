package usecase

import (
	"context"
	stderrors "errors"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/internal/domain/repository"
	"amravatimarket/internal/infrastructure/ratelimit"
	"amravatimarket/internal/infrastructure/telemetry"
	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/logger"
	"amravatimarket/pkg/metrics"
	"amravatimarket/pkg/realtime"
)

// Follow-up steps of a send, reported in SendResult.Degraded.
const (
	StepCounterUpdate = "counter_update"
	StepNotification  = "notification"
)

const previewLength = 60

var messageTracer = telemetry.Tracer("message")

type MessageUseCase struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	notifier         Notifier
	rateLimiter      RateLimiter
}

func NewMessageUseCase(
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	notifier Notifier,
	rateLimiter RateLimiter,
) *MessageUseCase {
	return &MessageUseCase{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		notifier:         notifier,
		rateLimiter:      rateLimiter,
	}
}

// SendResult is a durably stored message plus the follow-up steps that
// failed after it was stored.
type SendResult struct {
	Message  *entity.Message `json:"message"`
	Degraded []string        `json:"degraded,omitempty"`
}

// Send appends a message. Once the message is stored the call succeeds;
// counter and notification failures are logged and listed in Degraded.
func (uc *MessageUseCase) Send(ctx context.Context, conversationID, senderID, text string) (*SendResult, error) {
	ctx, span := messageTracer.Start(ctx, "message.send")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversationID))

	if err := requireIdentity(senderID); err != nil {
		return nil, err
	}
	c, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if c.IsBlocked {
		return nil, errors.Blocked("This conversation has been blocked")
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, errors.EmptyMessage()
	}
	role, ok := c.RoleOf(senderID)
	if !ok {
		return nil, errors.Unauthorized("You are not a participant in this conversation")
	}
	// Only sends that would be stored spend a token.
	if err := checkRate(uc.rateLimiter, senderID, ratelimit.ActionSendMessage,
		"Rate limit exceeded. Please wait before sending another message"); err != nil {
		return nil, err
	}

	msg := &entity.Message{
		ConversationID: c.ID,
		SenderID:       senderID,
		Text:           trimmed,
		Type:           entity.MessageTypeText,
		Status:         entity.MessageStatusSent,
	}
	if err := uc.messageRepo.Append(ctx, msg); err != nil {
		span.SetStatus(codes.Error, "append failed")
		return nil, err
	}
	metrics.IncMessagesSent()

	// The message is durable from here on; a cancelled request must not
	// abort the bookkeeping.
	followUp := context.WithoutCancel(ctx)
	result := &SendResult{Message: msg}

	err = uc.conversationRepo.ApplySend(followUp, c.ID, repository.SendUpdate{Text: trimmed, SenderRole: role})
	if err != nil {
		uc.bookkeepingFailed(followUp, c.ID, StepCounterUpdate, err)
		result.Degraded = append(result.Degraded, StepCounterUpdate)
	}

	_, err = uc.notifier.Create(followUp, senderID, c.PartyID(role.Other()), entity.NotificationInput{
		Title:   "New message",
		Message: Preview(trimmed),
		Type:    entity.NotificationTypeChat,
		Link:    c.ThreadLink(),
	})
	if err != nil {
		uc.bookkeepingFailed(followUp, c.ID, StepNotification, err)
		result.Degraded = append(result.Degraded, StepNotification)
	}

	return result, nil
}

func (uc *MessageUseCase) bookkeepingFailed(ctx context.Context, conversationID, step string, err error) {
	metrics.IncBookkeepingFailure(step)
	logger.WarnContext(ctx, "Message stored but follow-up failed",
		"conversation_id", conversationID,
		"step", step,
		"error", errors.BookkeepingFailure(step, err))
}

// Preview shortens text to the notification preview length.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLength]) + "…"
}

func (uc *MessageUseCase) participant(ctx context.Context, conversationID, userID string) (*entity.Conversation, error) {
	if err := requireIdentity(userID); err != nil {
		return nil, err
	}
	c, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(userID) {
		return nil, errors.Unauthorized("You are not a participant in this conversation")
	}
	return c, nil
}

// List returns the thread as viewerID should see it, oldest first.
func (uc *MessageUseCase) List(ctx context.Context, conversationID, viewerID string) ([]entity.RenderedMessage, error) {
	if _, err := uc.participant(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}
	messages, err := uc.messageRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return entity.RenderThread(messages, viewerID), nil
}

// Get returns one message as viewerID should see it.
func (uc *MessageUseCase) Get(ctx context.Context, conversationID, messageID, viewerID string) (*entity.RenderedMessage, error) {
	if _, err := uc.participant(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}
	msg, err := uc.messageRepo.GetByID(ctx, conversationID, messageID)
	if err != nil {
		return nil, err
	}
	rendered := msg.RenderFor(viewerID)
	return &rendered, nil
}

// Listen streams the thread rendered for viewerID. Every snapshot carries the
// whole thread, so deletions show up without reordering.
func (uc *MessageUseCase) Listen(ctx context.Context, conversationID, viewerID string) (*realtime.Subscription[entity.RenderedMessage], error) {
	if _, err := uc.participant(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}
	src := uc.messageRepo.Listen(ctx, conversationID)
	return realtime.Map(src, func(messages []*entity.Message) []entity.RenderedMessage {
		return entity.RenderThread(messages, viewerID)
	}), nil
}

func (uc *MessageUseCase) DeleteForMe(ctx context.Context, conversationID, messageID, userID string) (*entity.RenderedMessage, error) {
	return uc.delete(ctx, conversationID, messageID, userID, entity.DeletedForMe)
}

// DeleteForEveryone hides the message from both parties. Only its sender may
// do this.
func (uc *MessageUseCase) DeleteForEveryone(ctx context.Context, conversationID, messageID, userID string) (*entity.RenderedMessage, error) {
	return uc.delete(ctx, conversationID, messageID, userID, entity.DeletedForEveryone)
}

// Delete dispatches on a client supplied scope.
func (uc *MessageUseCase) Delete(ctx context.Context, conversationID, messageID, userID string, scope entity.DeletionScope) (*entity.RenderedMessage, error) {
	if !scope.Valid() {
		return nil, errors.InvalidArgument(entity.ErrInvalidDeletionScope.Error())
	}
	return uc.delete(ctx, conversationID, messageID, userID, scope)
}

func (uc *MessageUseCase) delete(ctx context.Context, conversationID, messageID, userID string, scope entity.DeletionScope) (*entity.RenderedMessage, error) {
	ctx, span := messageTracer.Start(ctx, "message.delete")
	defer span.End()
	span.SetAttributes(attribute.String("conversation.id", conversationID), attribute.String("deletion.scope", string(scope)))

	if _, err := uc.participant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	msg, err := uc.messageRepo.Delete(ctx, conversationID, messageID, userID, scope)
	switch {
	case err == nil:
	case stderrors.Is(err, entity.ErrNotMessageSender):
		return nil, errors.Unauthorized("Only the sender can delete this message for everyone")
	case stderrors.Is(err, entity.ErrDeletedByOtherParty):
		return nil, errors.Conflict("Message was already deleted by the other participant")
	case stderrors.Is(err, entity.ErrInvalidDeletionScope):
		return nil, errors.InvalidArgument(err.Error())
	default:
		return nil, err
	}

	rendered := msg.RenderFor(userID)
	return &rendered, nil
}
