package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID string) ([]model.CartItem, error)
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	// 無ければ ErrNotFound
	FindByCartAndProduct(ctx context.Context, cartID string, productID int64) (model.CartItem, error)
	// IDを採番して返す
	Create(ctx context.Context, item model.CartItem) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	// 指定カートの明細を全削除（0件でもエラーにしない）
	ClearByCartID(ctx context.Context, cartID string) error
}
