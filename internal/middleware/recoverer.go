package middleware

import (
	"fmt"
	"net/http"

	"storefront/internal/logger"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

func Recoverer(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					if log != nil {
						ctx := log.WithField(c.Request().Context(), "panic", fmt.Sprint(rec))
						log.Error(ctx, "panic.recovered", fmt.Errorf("panic: %v", rec))
					}
					err = c.JSON(http.StatusInternalServerError, errorJSON(usecase.CodeInternal, "internal error"))
				}
			}()
			return next(c)
		}
	}
}

func errorJSON(code, msg string) map[string]string {
	return map[string]string{"error": msg, "code": code}
}
