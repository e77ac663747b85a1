package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/nicofratini/prospeo-bolt/internal/logger"
)

// RequestID tags every request with a unique id, mirrors it on the
// response, and binds a child logger carrying the id so all log lines of
// one request correlate.
func RequestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Response().Header().Set("X-Request-ID", id)
		c.Set("request_id", id)
		c.Set("logger", logger.Get().With(zap.String("request_id", id)))
		return next(c)
	}
}
