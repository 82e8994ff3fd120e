package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/logger"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

const IdempotencyKeyHeader = "X-Idempotency-Key"

type OrderHandler struct {
	uc  *usecase.OrderUsecase
	log *logger.Logger
}

func NewOrderHandler(uc *usecase.OrderUsecase, log *logger.Logger) *OrderHandler {
	return &OrderHandler{uc: uc, log: log}
}

type OrderDraftRequest struct {
	CartID          string `json:"cartId" validate:"required,max=128"`
	CustomerName    string `json:"customerName" validate:"required"`
	CustomerEmail   string `json:"customerEmail" validate:"required,email"`
	CustomerPhone   string `json:"customerPhone" validate:"required"`
	ShippingAddress string `json:"shippingAddress"`
}

type OrderItemRequest struct {
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Quantity  int64  `json:"quantity" validate:"min=1,max=99"`
	Price     *int64 `json:"price" validate:"omitempty,min=0"`
}

// items が空ならサーバー側のカートから作る
type CreateOrderRequest struct {
	Order OrderDraftRequest  `json:"order"`
	Items []OrderItemRequest `json:"items" validate:"dive"`
}

func (h *OrderHandler) RegisterRoutes(g *echo.Group) {
	orders := g.Group("/orders")

	orders.POST("", h.create)
	orders.GET("/cart/:cartId", h.listByCart)
	orders.GET("/:id", h.detail)
}

func (h *OrderHandler) create(c echo.Context) error {
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, h.log, err)
	}

	items := make([]usecase.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.OrderItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	out, created, err := h.uc.CreateOrder(c.Request().Context(), usecase.CreateOrderInput{
		CartID:          req.Order.CartID,
		CustomerName:    req.Order.CustomerName,
		CustomerEmail:   req.Order.CustomerEmail,
		CustomerPhone:   req.Order.CustomerPhone,
		ShippingAddress: req.Order.ShippingAddress,
		Items:           items,
		IdempotencyKey:  c.Request().Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}

	// 同じキーの再送は既存の注文を200で返す
	if !created {
		return c.JSON(http.StatusOK, out)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.GetOrder(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) listByCart(c echo.Context) error {
	out, err := h.uc.ListOrdersByCart(c.Request().Context(), c.Param("cartId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}
