package usecase

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// トップページ用の件数上限
const HighlightLimit = 8

type CatalogUsecase struct {
	catalog repo.CatalogRepository
}

// DI
func NewCatalogUsecase(catalog repo.CatalogRepository) *CatalogUsecase {
	return &CatalogUsecase{catalog: catalog}
}

// 商品 + 表示用の在庫ステータス
type ProductOutput struct {
	model.Product
	StockStatus model.StockStatus `json:"stockStatus"`
}

func toProductOutput(p model.Product) ProductOutput {
	return ProductOutput{Product: p, StockStatus: p.StockStatus()}
}

func toProductOutputs(ps []model.Product) []ProductOutput {
	out := make([]ProductOutput, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductOutput(p))
	}
	return out
}

func (u *CatalogUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	cats, err := u.catalog.ListCategories(ctx)
	if err != nil {
		return []model.Category{}, storeError(err)
	}
	return cats, nil
}

func (u *CatalogUsecase) GetCategoryBySlug(ctx context.Context, slug string) (model.Category, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return model.Category{}, validationError("invalid slug")
	}
	c, err := u.catalog.FindCategoryBySlug(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Category{}, notFoundError("category not found")
	}
	if err != nil {
		return model.Category{}, storeError(err)
	}
	return c, nil
}

func (u *CatalogUsecase) ListProducts(ctx context.Context) ([]ProductOutput, error) {
	ps, err := u.catalog.ListProducts(ctx)
	if err != nil {
		return []ProductOutput{}, storeError(err)
	}
	return toProductOutputs(ps), nil
}

func (u *CatalogUsecase) ListProductsByCategory(ctx context.Context, categoryID int64) ([]ProductOutput, error) {
	if categoryID <= 0 {
		return []ProductOutput{}, validationError("invalid category id")
	}
	ps, err := u.catalog.ListProductsByCategory(ctx, categoryID)
	if err != nil {
		return []ProductOutput{}, storeError(err)
	}
	return toProductOutputs(ps), nil
}

func (u *CatalogUsecase) GetProductBySlug(ctx context.Context, slug string) (ProductOutput, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ProductOutput{}, validationError("invalid slug")
	}
	p, err := u.catalog.FindProductBySlug(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, notFoundError("product not found")
	}
	if err != nil {
		return ProductOutput{}, storeError(err)
	}
	return toProductOutput(p), nil
}

// 空のクエリは空の結果（全件は返さない）
func (u *CatalogUsecase) SearchProducts(ctx context.Context, q string) ([]ProductOutput, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []ProductOutput{}, nil
	}
	if len(q) > 100 {
		return []ProductOutput{}, validationError("q too long")
	}
	ps, err := u.catalog.SearchProducts(ctx, q)
	if err != nil {
		return []ProductOutput{}, storeError(err)
	}
	return toProductOutputs(ps), nil
}

func (u *CatalogUsecase) ListFeatured(ctx context.Context) ([]ProductOutput, error) {
	ps, err := u.catalog.ListFeatured(ctx, HighlightLimit)
	if err != nil {
		return []ProductOutput{}, storeError(err)
	}
	return toProductOutputs(ps), nil
}

func (u *CatalogUsecase) ListNew(ctx context.Context) ([]ProductOutput, error) {
	ps, err := u.catalog.ListNew(ctx, HighlightLimit)
	if err != nil {
		return []ProductOutput{}, storeError(err)
	}
	return toProductOutputs(ps), nil
}
