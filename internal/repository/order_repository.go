package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByCartID(ctx context.Context, cartID string) ([]model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, key string) (model.Order, bool, error)
}
