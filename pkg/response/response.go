package response

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "amravatimarket/pkg/errors"
	"amravatimarket/pkg/logger"
)

type Response struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp string     `json:"timestamp"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func Success(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

func Created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

func Fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Response{
		Success:   false,
		Timestamp: now(),
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

// Error writes err as the error envelope. AppErrors keep their code and
// status, validation errors become INVALID_ARGUMENT and everything else is
// reported as an opaque internal error.
func Error(c echo.Context, err error) error {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return Fail(c, http.StatusBadRequest, apperrors.CodeInvalidArgument, validationMessage(validationErr))
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}
		return Fail(c, httpErr.Code, codeForStatus(httpErr.Code), message)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.RetryAfter > 0 {
			secs := int(math.Ceil(appErr.RetryAfter.Seconds()))
			c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
		}
		if appErr.Status >= http.StatusInternalServerError {
			logger.Error("Request failed", "path", c.Path(), "code", appErr.Code, "error", err)
		}
		return Fail(c, appErr.Status, appErr.Code, appErr.Message)
	}

	logger.Error("Unhandled error", "path", c.Path(), "error", err)
	return Fail(c, http.StatusInternalServerError, apperrors.CodeInternal, "An unexpected error occurred")
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return apperrors.CodeInvalidArgument
	case http.StatusUnauthorized:
		return apperrors.CodeNotAuthenticated
	case http.StatusForbidden:
		return apperrors.CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apperrors.CodeNotFound
	case http.StatusTooManyRequests:
		return apperrors.CodeTooManyRequests
	}
	return apperrors.CodeInternal
}

func validationMessage(validationErr validator.ValidationErrors) string {
	for _, err := range validationErr {
		field := strings.ToLower(err.Field())
		param := err.Param()

		switch err.Tag() {
		case "required":
			return field + " is required"
		case "min":
			return field + " must be at least " + param
		case "max":
			return field + " must be at most " + param
		case "oneof":
			return field + " must be one of: " + param
		default:
			return field + " is invalid"
		}
	}
	return "Invalid input data"
}

// HTTPErrorHandler renders errors that escape handlers (routing misses,
// middleware rejections) in the same envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if writeErr := Error(c, err); writeErr != nil {
		logger.Error("Failed to write error response", "error", writeErr)
	}
}
