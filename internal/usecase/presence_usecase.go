package usecase

import (
	"context"

	"amravatimarket/internal/domain/repository"
	"amravatimarket/internal/infrastructure/ratelimit"
	"amravatimarket/pkg/errors"
)

// PresenceUseCase tracks typing indicators. Flags are last-write-wins and
// an accepted message clears both.
type PresenceUseCase struct {
	conversationRepo repository.ConversationRepository
	rateLimiter      RateLimiter
}

func NewPresenceUseCase(conversationRepo repository.ConversationRepository, rateLimiter RateLimiter) *PresenceUseCase {
	return &PresenceUseCase{
		conversationRepo: conversationRepo,
		rateLimiter:      rateLimiter,
	}
}

func (uc *PresenceUseCase) SetTyping(ctx context.Context, conversationID, userID string, typing bool) error {
	if err := requireIdentity(userID); err != nil {
		return err
	}
	// Clearing the flag is never limited so a stale indicator can always be removed.
	if typing {
		if err := checkRate(uc.rateLimiter, userID, ratelimit.ActionTyping, "Too many typing updates"); err != nil {
			return err
		}
	}

	c, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	role, ok := c.RoleOf(userID)
	if !ok {
		return errors.Unauthorized("You are not a participant in this conversation")
	}
	if c.Typing(role) == typing {
		return nil
	}
	return uc.conversationRepo.SetTyping(ctx, conversationID, role, typing)
}
