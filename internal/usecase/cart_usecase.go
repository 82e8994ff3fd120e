package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/lock"
	"storefront/internal/metrics"
	"storefront/internal/pricing"
	repo "storefront/internal/repository"
)

const maxCartIDLen = 128

// CartUsecase は /api/cart の業務ロジック。
// 同じcartIdへの変更はロックで直列化し、1トランザクションで反映する。
type CartUsecase struct {
	store   repo.Store
	locker  lock.Locker
	calc    pricing.Calculator
	metrics *metrics.Storefront
}

func NewCartUsecase(
	store repo.Store,
	locker lock.Locker,
	calc pricing.Calculator,
	m *metrics.Storefront,
) *CartUsecase {
	return &CartUsecase{
		store:   store,
		locker:  locker,
		calc:    calc,
		metrics: m,
	}
}

// 明細 + 現在の商品
type CartItemOutput struct {
	model.CartItem
	Product ProductOutput `json:"product"`
}

type CartSummaryOutput struct {
	Items []CartItemOutput `json:"items"`
	pricing.Summary
}

type AddItemInput struct {
	CartID    string
	ProductID int64
	// nil なら 1
	Quantity *int64
}

func normalizeCartID(cartID string) (string, error) {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" || len(cartID) > maxCartIDLen {
		return "", validationError("invalid cartId")
	}
	return cartID, nil
}

func validQuantity(q int64) bool {
	return q >= model.MinQuantity && q <= model.MaxQuantity
}

// ロックを取ってからTxを張る
func (u *CartUsecase) withCartLock(ctx context.Context, cartID string, fn func(r repo.TxRepos) error) error {
	unlock, err := u.locker.Lock(ctx, cartID)
	if err != nil {
		return storeError(err)
	}
	defer unlock()

	if err := u.store.WithinTx(ctx, fn); err != nil {
		return storeError(err)
	}
	return nil
}

// AddItem はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddItem(ctx context.Context, in AddItemInput) (item model.CartItem, err error) {
	defer func() { u.metrics.CartMutation("add", err) }()

	cartID, err := normalizeCartID(in.CartID)
	if err != nil {
		return model.CartItem{}, err
	}
	if in.ProductID <= 0 {
		return model.CartItem{}, validationError("invalid productId")
	}
	qty := model.MinQuantity
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	if !validQuantity(qty) {
		return model.CartItem{}, validationError(fmt.Sprintf("quantity must be between %d and %d", model.MinQuantity, model.MaxQuantity))
	}

	err = u.withCartLock(ctx, cartID, func(r repo.TxRepos) error {
		if _, err := r.Catalog().FindProductByID(ctx, in.ProductID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFoundError("product not found")
			}
			return err
		}

		existing, err := r.CartItems().FindByCartAndProduct(ctx, cartID, in.ProductID)
		if err == nil {
			//既存ありだったら数量を増やす
			newQty := existing.Quantity + qty
			if newQty > model.MaxQuantity {
				return validationError(fmt.Sprintf("quantity would exceed %d", model.MaxQuantity))
			}
			if err := r.CartItems().UpdateQuantity(ctx, existing.ID, newQty); err != nil {
				return err
			}
			existing.Quantity = newQty
			item = existing
			return nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		//無い場合は新規作成
		created, err := r.CartItems().Create(ctx, model.CartItem{
			CartID:    cartID,
			ProductID: in.ProductID,
			Quantity:  qty,
		})
		if err != nil {
			return err
		}
		item = created
		return nil
	})
	if err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

// UpdateQuantity は数量を置き換える（加算しない）。
// 0以下なら削除して removed=true を返す。
func (u *CartUsecase) UpdateQuantity(ctx context.Context, itemID int64, qty int64) (item model.CartItem, removed bool, err error) {
	defer func() { u.metrics.CartMutation("update", err) }()

	if itemID <= 0 {
		return model.CartItem{}, false, validationError("invalid id")
	}
	if qty <= 0 {
		// 計測は update の1件だけ
		if err := u.removeItem(ctx, itemID); err != nil {
			return model.CartItem{}, false, err
		}
		return model.CartItem{}, true, nil
	}
	if qty > model.MaxQuantity {
		return model.CartItem{}, false, validationError(fmt.Sprintf("quantity must be at most %d", model.MaxQuantity))
	}

	current, err := u.findItem(ctx, itemID)
	if err != nil {
		return model.CartItem{}, false, err
	}

	err = u.withCartLock(ctx, current.CartID, func(r repo.TxRepos) error {
		if err := r.CartItems().UpdateQuantity(ctx, itemID, qty); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFoundError("cart item not found")
			}
			return err
		}
		updated, err := r.CartItems().FindByID(ctx, itemID)
		item = updated
		return err
	})
	if err != nil {
		return model.CartItem{}, false, err
	}
	return item, false, nil
}

// RemoveItem は明細を削除。無いIDでもエラーにしない。
func (u *CartUsecase) RemoveItem(ctx context.Context, itemID int64) (err error) {
	defer func() { u.metrics.CartMutation("remove", err) }()

	if itemID <= 0 {
		return validationError("invalid id")
	}
	return u.removeItem(ctx, itemID)
}

func (u *CartUsecase) removeItem(ctx context.Context, itemID int64) error {
	current, err := u.findItem(ctx, itemID)
	if he, ok := AsHTTPError(err); ok && he.Code == CodeNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	return u.withCartLock(ctx, current.CartID, func(r repo.TxRepos) error {
		err := r.CartItems().DeleteByID(ctx, itemID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return err
	})
}

// ClearCart はカートを空にする。空でもエラーにしない。
func (u *CartUsecase) ClearCart(ctx context.Context, cartID string) (err error) {
	defer func() { u.metrics.CartMutation("clear", err) }()

	cartID, err = normalizeCartID(cartID)
	if err != nil {
		return err
	}
	return u.withCartLock(ctx, cartID, func(r repo.TxRepos) error {
		return r.CartItems().ClearByCartID(ctx, cartID)
	})
}

// GetCartItems は現在の商品と結合した明細を返す。
// 商品が消えている明細があれば IntegrityError。
func (u *CartUsecase) GetCartItems(ctx context.Context, cartID string) ([]CartItemOutput, error) {
	cartID, err := normalizeCartID(cartID)
	if err != nil {
		return []CartItemOutput{}, err
	}

	var out []CartItemOutput
	err = u.store.WithinTx(ctx, func(r repo.TxRepos) error {
		joined, err := joinCartItems(ctx, r, cartID)
		out = joined
		return err
	})
	if err != nil {
		return []CartItemOutput{}, storeError(err)
	}
	return out, nil
}

func (u *CartUsecase) GetCartSummary(ctx context.Context, cartID string) (CartSummaryOutput, error) {
	items, err := u.GetCartItems(ctx, cartID)
	if err != nil {
		return CartSummaryOutput{}, err
	}
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Line{Product: it.Product.Product, Quantity: it.Quantity})
	}
	return CartSummaryOutput{Items: items, Summary: u.calc.Summarize(lines)}, nil
}

func (u *CartUsecase) findItem(ctx context.Context, itemID int64) (model.CartItem, error) {
	var item model.CartItem
	err := u.store.WithinTx(ctx, func(r repo.TxRepos) error {
		found, err := r.CartItems().FindByID(ctx, itemID)
		item = found
		return err
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartItem{}, notFoundError("cart item not found")
	}
	if err != nil {
		return model.CartItem{}, storeError(err)
	}
	return item, nil
}

func joinCartItems(ctx context.Context, r repo.TxRepos, cartID string) ([]CartItemOutput, error) {
	items, err := r.CartItems().ListByCartID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	out := make([]CartItemOutput, 0, len(items))
	for _, it := range items {
		p, err := r.Catalog().FindProductByID(ctx, it.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, integrityError(fmt.Sprintf("cart item %d references missing product %d", it.ID, it.ProductID))
		}
		if err != nil {
			return nil, err
		}
		out = append(out, CartItemOutput{CartItem: it, Product: toProductOutput(p)})
	}
	return out, nil
}
