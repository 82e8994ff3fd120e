package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 明細が存在しない商品を参照している（参照整合性エラー）
var ErrIntegrity = errors.New("integrity violation")

// カタログの読み取りだけを約束。商品の更新APIはない。
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	FindCategoryBySlug(ctx context.Context, slug string) (model.Category, error)

	ListProducts(ctx context.Context) ([]model.Product, error)
	ListProductsByCategory(ctx context.Context, categoryID int64) ([]model.Product, error)
	FindProductByID(ctx context.Context, id int64) (model.Product, error)
	FindProductBySlug(ctx context.Context, slug string) (model.Product, error)
	// name / description の部分一致（大文字小文字を区別しない）
	SearchProducts(ctx context.Context, q string) ([]model.Product, error)
	// 割引ありの商品
	ListFeatured(ctx context.Context, limit int) ([]model.Product, error)
	// isNew の商品
	ListNew(ctx context.Context, limit int) ([]model.Product, error)
}

// 一意制約違反（冪等キーの同時作成など）
var ErrDuplicateKey = errors.New("duplicate key")
