package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/logger"

	"github.com/labstack/echo/v4"
)

// Run はctxが終わるまでサーブし、終わったら猶予つきで停止する
func Run(ctx context.Context, e *echo.Echo, addr string, shutdownTimeout time.Duration, log *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.InfoFields(ctx, "server.start", map[string]any{"addr": addr})
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info(shutdownCtx, "server.shutdown")
	return e.Shutdown(shutdownCtx)
}
