package usecase

import (
	"context"
	"time"

	"amravatimarket/internal/domain/entity"
	"amravatimarket/pkg/errors"
)

// RateLimiter is satisfied by *ratelimit.RateLimiter. A nil RateLimiter
// disables limiting.
type RateLimiter interface {
	Allow(key, action string) (bool, time.Duration)
}

// Notifier creates a notification for recipientID on behalf of actorID.
type Notifier interface {
	Create(ctx context.Context, actorID, recipientID string, in entity.NotificationInput) (*entity.Notification, error)
}

func checkRate(limiter RateLimiter, userID, action, message string) error {
	if limiter == nil {
		return nil
	}
	if ok, wait := limiter.Allow(userID, action); !ok {
		return errors.TooManyRequests(message, wait)
	}
	return nil
}

func requireIdentity(userID string) error {
	if userID == "" {
		return errors.NotAuthenticated("Please log in")
	}
	return nil
}
