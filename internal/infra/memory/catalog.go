package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type catalogView struct {
	t *tables
}

func (v *catalogView) ListCategories(ctx context.Context) ([]model.Category, error) {
	out := make([]model.Category, 0, len(v.t.categories))
	for _, c := range v.t.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b model.Category) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (v *catalogView) FindCategoryBySlug(ctx context.Context, slug string) (model.Category, error) {
	for _, c := range v.t.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return model.Category{}, repo.ErrNotFound
}

func (v *catalogView) filterProducts(keep func(model.Product) bool, limit int) []model.Product {
	out := make([]model.Product, 0)
	for _, p := range v.t.products {
		if keep(p) {
			out = append(out, cloneProduct(p))
		}
	}
	slices.SortFunc(out, func(a, b model.Product) int { return cmp.Compare(a.ID, b.ID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (v *catalogView) ListProducts(ctx context.Context) ([]model.Product, error) {
	return v.filterProducts(func(model.Product) bool { return true }, 0), nil
}

func (v *catalogView) ListProductsByCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	return v.filterProducts(func(p model.Product) bool { return p.CategoryID == categoryID }, 0), nil
}

func (v *catalogView) FindProductByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := v.t.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (v *catalogView) FindProductBySlug(ctx context.Context, slug string) (model.Product, error) {
	for _, p := range v.t.products {
		if p.Slug == slug {
			return cloneProduct(p), nil
		}
	}
	return model.Product{}, repo.ErrNotFound
}

func (v *catalogView) SearchProducts(ctx context.Context, q string) ([]model.Product, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	return v.filterProducts(func(p model.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q)
	}, 0), nil
}

func (v *catalogView) ListFeatured(ctx context.Context, limit int) ([]model.Product, error) {
	return v.filterProducts(model.Product.HasDiscount, limit), nil
}

func (v *catalogView) ListNew(ctx context.Context, limit int) ([]model.Product, error) {
	return v.filterProducts(func(p model.Product) bool { return p.IsNew }, limit), nil
}

// lockedCatalog wraps catalogView with the store's read lock.
type lockedCatalog struct {
	s *Store
}

func (l *lockedCatalog) view() (*catalogView, func()) {
	l.s.mu.RLock()
	return &catalogView{t: l.s.t}, l.s.mu.RUnlock
}

func (l *lockedCatalog) ListCategories(ctx context.Context) ([]model.Category, error) {
	v, unlock := l.view()
	defer unlock()
	return v.ListCategories(ctx)
}

func (l *lockedCatalog) FindCategoryBySlug(ctx context.Context, slug string) (model.Category, error) {
	v, unlock := l.view()
	defer unlock()
	return v.FindCategoryBySlug(ctx, slug)
}

func (l *lockedCatalog) ListProducts(ctx context.Context) ([]model.Product, error) {
	v, unlock := l.view()
	defer unlock()
	return v.ListProducts(ctx)
}

func (l *lockedCatalog) ListProductsByCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	v, unlock := l.view()
	defer unlock()
	return v.ListProductsByCategory(ctx, categoryID)
}

func (l *lockedCatalog) FindProductByID(ctx context.Context, id int64) (model.Product, error) {
	v, unlock := l.view()
	defer unlock()
	return v.FindProductByID(ctx, id)
}

func (l *lockedCatalog) FindProductBySlug(ctx context.Context, slug string) (model.Product, error) {
	v, unlock := l.view()
	defer unlock()
	return v.FindProductBySlug(ctx, slug)
}

func (l *lockedCatalog) SearchProducts(ctx context.Context, q string) ([]model.Product, error) {
	v, unlock := l.view()
	defer unlock()
	return v.SearchProducts(ctx, q)
}

func (l *lockedCatalog) ListFeatured(ctx context.Context, limit int) ([]model.Product, error) {
	v, unlock := l.view()
	defer unlock()
	return v.ListFeatured(ctx, limit)
}

func (l *lockedCatalog) ListNew(ctx context.Context, limit int) ([]model.Product, error) {
	v, unlock := l.view()
	defer unlock()
	return v.ListNew(ctx, limit)
}
