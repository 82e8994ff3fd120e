package handler

import (
	"context"
	"net/http"

	"storefront/internal/logger"

	"github.com/labstack/echo/v4"
)

// Pinger はストアの疎通確認（メモリストアなら nil）
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	ping Pinger
	log  *logger.Logger
}

func NewHealthHandler(ping Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{ping: ping, log: log}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.health)
}

func (h *HealthHandler) health(c echo.Context) error {
	if h.ping != nil {
		if err := h.ping(c.Request().Context()); err != nil {
			if h.log != nil {
				h.log.Warn(c.Request().Context(), "health.store_unreachable")
			}
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
