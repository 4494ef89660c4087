package errors

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesWrappedAppError(t *testing.T) {
	err := fmt.Errorf("send: %w", Blocked("conversation is blocked"))

	assert.True(t, Is(err, CodeBlocked))
	assert.False(t, Is(err, CodeEmptyMessage))
	assert.False(t, Is(fmt.Errorf("plain"), CodeBlocked))
}

func TestCodeFallsBackToInternal(t *testing.T) {
	assert.Equal(t, CodeEmptyMessage, Code(EmptyMessage()))
	assert.Equal(t, CodeInternal, Code(fmt.Errorf("boom")))
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
	}{
		{NotAuthenticated("please log in"), http.StatusUnauthorized},
		{InvalidArgument("productId is required"), http.StatusBadRequest},
		{ConversationNotFound("c1", nil), http.StatusNotFound},
		{Blocked("blocked"), http.StatusConflict},
		{Unauthorized("not the sender"), http.StatusForbidden},
		{TooManyRequests("slow down", time.Second), http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.Status, tc.err.Code)
	}
}

func TestErrorIncludesCause(t *testing.T) {
	cause := fmt.Errorf("deadline exceeded")
	err := BookkeepingFailure("conversation_update", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "conversation_update failed")
}
