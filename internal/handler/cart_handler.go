package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/logger"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /api/cartのHTTP
type CartHandler struct {
	uc  *usecase.CartUsecase
	log *logger.Logger
}

// DI
func NewCartHandler(uc *usecase.CartUsecase, log *logger.Logger) *CartHandler {
	return &CartHandler{uc: uc, log: log}
}

type AddCartItemRequest struct {
	CartID    string `json:"cartId" validate:"required,max=128"`
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	// 省略時は1
	Quantity *int64 `json:"quantity"`
}

type UpdateCartItemRequest struct {
	// 0以下は削除
	Quantity *int64 `json:"quantity" validate:"required"`
}

// GETの :id は cartId、PUT/DELETEの :id は明細ID
func (h *CartHandler) RegisterRoutes(g *echo.Group) {
	cart := g.Group("/cart")

	cart.GET("/:id", h.getItems)
	cart.GET("/:id/summary", h.getSummary)
	cart.POST("", h.addItem)
	cart.PUT("/:id", h.updateItem)
	cart.DELETE("/clear/:cartId", h.clear)
	cart.DELETE("/:id", h.deleteItem)
}

func (h *CartHandler) getItems(c echo.Context) error {
	out, err := h.uc.GetCartItems(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) getSummary(c echo.Context) error {
	out, err := h.uc.GetCartSummary(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addItem(c echo.Context) error {
	var req AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.AddItem(c.Request().Context(), usecase.AddItemInput{
		CartID:    req.CartID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) updateItem(c echo.Context) error {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, h.log, err)
	}

	out, removed, err := h.uc.UpdateQuantity(c.Request().Context(), itemID, *req.Quantity)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if removed {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	if err := h.uc.RemoveItem(c.Request().Context(), itemID); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) clear(c echo.Context) error {
	if err := h.uc.ClearCart(c.Request().Context(), c.Param("cartId")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
