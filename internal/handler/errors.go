package handler

import (
	"net/http"

	"storefront/internal/logger"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: usecase.CodeValidation})
}

// writeError は HTTPError をそのまま返す。それ以外は500。
// 5xx は元エラー付きでログに残す。
func writeError(c echo.Context, log *logger.Logger, err error) error {
	if err == nil {
		return nil
	}
	ctx := c.Request().Context()

	if he, ok := usecase.AsHTTPError(err); ok {
		if he.Status >= http.StatusInternalServerError && log != nil {
			log.Error(ctx, "request.failed", err)
		}
		return c.JSON(he.Status, ErrorResponse{Error: he.Message, Code: he.Code})
	}

	//500
	if log != nil {
		log.Error(ctx, "request.failed", err)
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: usecase.CodeInternal})
}
