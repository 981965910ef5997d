package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ppds/orchdash/internal/logger"
)

// RequestLogger logs each request through the structured logger. Health
// probes are only logged when they fail.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if c.Path() == "/health" && status < 400 && err == nil {
			return err
		}

		event := logger.Logger.Info()
		if status >= 500 || err != nil {
			event = logger.Logger.Warn()
		}
		event.
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.IP()).
			Str("method", c.Method()).
			Str("path", c.Path()).
			AnErr("error", err).
			Msg("http request")

		return err
	}
}
