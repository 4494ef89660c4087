package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes surfaced to API clients.
const (
	CodeNotAuthenticated     = "NOT_AUTHENTICATED"
	CodeInvalidArgument      = "INVALID_ARGUMENT"
	CodeConversationNotFound = "CONVERSATION_NOT_FOUND"
	CodeBlocked              = "BLOCKED"
	CodeEmptyMessage         = "EMPTY_MESSAGE"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeBookkeepingFailure   = "BOOKKEEPING_FAILURE"
	CodeNotFound             = "NOT_FOUND"
	CodeForbidden            = "FORBIDDEN"
	CodeConflict             = "CONFLICT"
	CodeTooManyRequests      = "TOO_MANY_REQUESTS"
	CodeInternal             = "INTERNAL_ERROR"
)

type AppError struct {
	Code       string
	Message    string
	Status     int
	Err        error
	RetryAfter time.Duration
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotAuthenticated(message string) *AppError {
	return New(CodeNotAuthenticated, message, http.StatusUnauthorized, nil)
}

func InvalidArgument(message string) *AppError {
	return New(CodeInvalidArgument, message, http.StatusBadRequest, nil)
}

func ConversationNotFound(id string, err error) *AppError {
	return New(CodeConversationNotFound, fmt.Sprintf("conversation %s not found", id), http.StatusNotFound, err)
}

func Blocked(message string) *AppError {
	return New(CodeBlocked, message, http.StatusConflict, nil)
}

func EmptyMessage() *AppError {
	return New(CodeEmptyMessage, "message text is empty", http.StatusBadRequest, nil)
}

// Unauthorized is returned when an authenticated user acts on something they
// do not own, e.g. deleting another sender's message for everyone.
func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusForbidden, nil)
}

// BookkeepingFailure wraps a failed follow-up write that ran after the primary
// write was already durable. It is logged, never returned to the sender.
func BookkeepingFailure(step string, err error) *AppError {
	return New(CodeBookkeepingFailure, step+" failed", http.StatusInternalServerError, err)
}

func NotFound(resource string, err error) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, err)
}

func BadRequest(message string, err error) *AppError {
	return New(CodeInvalidArgument, message, http.StatusBadRequest, err)
}

func Forbidden(message string, err error) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden, err)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict, nil)
}

func Internal(message string, err error) *AppError {
	return New(CodeInternal, message, http.StatusInternalServerError, err)
}

func TooManyRequests(message string, retryAfter time.Duration) *AppError {
	e := New(CodeTooManyRequests, message, http.StatusTooManyRequests, nil)
	e.RetryAfter = retryAfter
	return e
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code returns the AppError code of err, or CodeInternal for foreign errors.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
