package middleware

import (
	"storefront/internal/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const RequestIDHeader = "X-Request-Id"

// RequestID はヘッダのIDを引き継ぐ（無ければ採番）。ログのcontextにも載せる。
func RequestID(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Request().Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			c.Response().Header().Set(RequestIDHeader, reqID)

			if log != nil {
				ctx := log.WithRequestID(c.Request().Context(), reqID)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}
