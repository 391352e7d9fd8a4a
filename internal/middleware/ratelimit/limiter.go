package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Config is the sliding-window policy shared by both stores.
type Config struct {
	Limit  int
	Window time.Duration
	// Capacity bounds the number of tracked clients in the memory store.
	Capacity int
}

// DefaultConfig allows 300 requests per client per minute.
func DefaultConfig() Config {
	return Config{Limit: 300, Window: time.Minute, Capacity: 10000}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Limit <= 0 {
		c.Limit = def.Limit
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.Capacity <= 0 {
		c.Capacity = def.Capacity
	}
	return c
}

// Middleware limits requests per client IP using store. skip exempts paths such as health probes.
func Middleware(store middleware.RateLimiterStore, window time.Duration, logger *zap.Logger, skip func(path string) bool) echo.MiddlewareFunc {
	retryAfter := strconv.Itoa(int(window.Seconds()))
	tooMany := func(c echo.Context) error {
		c.Response().Header().Set("Retry-After", retryAfter)
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"success": false,
			"message": "Too many requests. Please try again later.",
			"error":   "RATE_LIMITED",
		})
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return skip != nil && skip(c.Request().URL.Path)
		},
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logger.Warn("rate limit identifier unavailable", zap.Error(err))
			return tooMany(c)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			logger.Info("rate limit exceeded",
				zap.String("ip", identifier),
				zap.String("path", c.Request().URL.Path))
			return tooMany(c)
		},
	})
}
