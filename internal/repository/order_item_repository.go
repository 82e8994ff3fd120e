package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type OrderItemRepository interface {
	// 採番済みの明細を返す
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) ([]model.OrderItem, error)
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}
