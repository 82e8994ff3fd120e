package middleware

import (
	"time"

	"storefront/internal/logger"
	"storefront/internal/metrics"

	"github.com/labstack/echo/v4"
)

// Logging は1リクエスト1行（request.complete）で出す。メトリクスも同時に記録。
func Logging(log *logger.Logger, m *metrics.Storefront) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			if err := next(c); err != nil {
				// ステータスを確定させるため、ここでエラーハンドラを通す
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			elapsed := time.Since(start)
			route := c.Path()

			m.ObserveRequest(req.Method, route, status, elapsed)
			if log != nil {
				log.InfoFields(req.Context(), "request.complete", map[string]any{
					"method":      req.Method,
					"path":        req.URL.Path,
					"route":       route,
					"status":      status,
					"duration_ms": elapsed.Milliseconds(),
				})
			}
			return nil
		}
	}
}
