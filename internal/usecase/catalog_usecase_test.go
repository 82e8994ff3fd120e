package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogUsecase(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "0.10")
	uc := usecase.NewCatalogUsecase(env.store.Catalog())

	cats, err := uc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 4)

	_, err = uc.GetCategoryBySlug(ctx, "garden")
	requireHTTPError(t, err, http.StatusNotFound, usecase.CodeNotFound)

	all, err := uc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 9)

	p, err := uc.GetProductBySlug(ctx, "ceramic-dinner-plate")
	require.NoError(t, err)
	assert.Equal(t, model.StockStatusInStock, p.StockStatus)

	_, err = uc.GetProductBySlug(ctx, "missing")
	requireHTTPError(t, err, http.StatusNotFound, usecase.CodeNotFound)

	featured, err := uc.ListFeatured(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(featured), usecase.HighlightLimit)
	for _, f := range featured {
		assert.True(t, f.HasDiscount())
	}

	fresh, err := uc.ListNew(ctx)
	require.NoError(t, err)
	for _, f := range fresh {
		assert.True(t, f.IsNew)
	}

	found, err := uc.SearchProducts(ctx, "ceramic")
	require.NoError(t, err)
	assert.NotEmpty(t, found)

	empty, err := uc.SearchProducts(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = uc.ListProductsByCategory(ctx, 0)
	requireHTTPError(t, err, http.StatusBadRequest, usecase.CodeValidation)
}

func TestProductOutput_StockStatus(t *testing.T) {
	env := newTestEnv(t, "0.10")
	ctx := context.Background()

	p, err := env.store.Catalog().FindProductByID(ctx, basketID)
	require.NoError(t, err)

	for level, want := range map[int64]model.StockStatus{
		0:  model.StockStatusOutOfStock,
		1:  model.StockStatusLowStock,
		10: model.StockStatusLowStock,
		11: model.StockStatusInStock,
	} {
		p.StockLevel = level
		env.store.SaveProduct(p)
		got, err := usecase.NewCatalogUsecase(env.store.Catalog()).GetProductBySlug(ctx, p.Slug)
		require.NoError(t, err)
		assert.Equal(t, want, got.StockStatus, "level %d", level)
	}
}
