package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"amravatimarket/internal/infrastructure/ratelimit"
	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/logger"
	"amravatimarket/pkg/response"
)

// Limiter is satisfied by *ratelimit.RateLimiter.
type Limiter interface {
	Allow(key, action string) (bool, time.Duration)
}

// RateLimit throttles requests per client IP with the ActionHTTP policy.
func RateLimit(limiter Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ok, wait := limiter.Allow(ip, ratelimit.ActionHTTP); !ok {
				logger.Warn("Rate limit exceeded", "ip", ip, "path", c.Path(), "retry_after", wait)
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded", wait))
			}
			return next(c)
		}
	}
}
