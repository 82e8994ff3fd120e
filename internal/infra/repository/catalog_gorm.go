package repository

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type CatalogGormRepository struct {
	db *gorm.DB
}

// DI
func NewCatalogGormRepository(db *gorm.DB) *CatalogGormRepository {
	return &CatalogGormRepository{db: db}
}

func (r *CatalogGormRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	if err := r.db.WithContext(ctx).Order("id asc").Find(&cats).Error; err != nil {
		return []model.Category{}, err
	}
	return cats, nil
}

func (r *CatalogGormRepository) FindCategoryBySlug(ctx context.Context, slug string) (model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Category{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Category{}, err
	}
	return c, nil
}

// 条件を足したクエリでid順に取得
func (r *CatalogGormRepository) findProducts(ctx context.Context, scope func(*gorm.DB) *gorm.DB, limit int) ([]model.Product, error) {
	var products []model.Product

	tx := scope(r.db.WithContext(ctx).Model(&model.Product{})).Order("id asc")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&products).Error; err != nil {
		return []model.Product{}, err
	}
	return products, nil
}

func all(tx *gorm.DB) *gorm.DB { return tx }

func (r *CatalogGormRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	return r.findProducts(ctx, all, 0)
}

func (r *CatalogGormRepository) ListProductsByCategory(ctx context.Context, categoryID int64) ([]model.Product, error) {
	return r.findProducts(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("category_id = ?", categoryID)
	}, 0)
}

// IDで商品を取得
func (r *CatalogGormRepository) FindProductByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *CatalogGormRepository) FindProductBySlug(ctx context.Context, slug string) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// ILIKEはpostgres専用なのでLOWERで揃える
func (r *CatalogGormRepository) SearchProducts(ctx context.Context, q string) ([]model.Product, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	return r.findProducts(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}, 0)
}

func (r *CatalogGormRepository) ListFeatured(ctx context.Context, limit int) ([]model.Product, error) {
	return r.findProducts(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("discount_price IS NOT NULL AND discount_price < price")
	}, limit)
}

func (r *CatalogGormRepository) ListNew(ctx context.Context, limit int) ([]model.Product, error) {
	return r.findProducts(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("is_new = ?", true)
	}, limit)
}
