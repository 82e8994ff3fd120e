package server

import (
	"time"

	"storefront/internal/handler"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Catalog *handler.CatalogHandler
	Cart    *handler.CartHandler
	Orders  *handler.OrderHandler
	Health  *handler.HealthHandler
}

type RouterOptions struct {
	Logger         *logger.Logger
	Metrics        *metrics.Storefront
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
}

// NewRouter は /api 配下と /healthz, /metrics を登録したechoを返す
func NewRouter(h Handlers, opts RouterOptions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()

	e.Use(middleware.Recoverer(opts.Logger))
	e.Use(middleware.RequestID(opts.Logger))
	e.Use(middleware.Logging(opts.Logger, opts.Metrics))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{echo.HeaderContentType, handler.IdempotencyKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
	}))

	if h.Health != nil {
		h.Health.RegisterRoutes(e)
	}
	if opts.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := e.Group("/api", echomw.BodyLimit("1M"), middleware.RequestTimeout(opts.RequestTimeout))
	h.Catalog.RegisterRoutes(api)
	h.Cart.RegisterRoutes(api)
	h.Orders.RegisterRoutes(api)

	return e
}
