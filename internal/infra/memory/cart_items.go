package memory

import (
	"cmp"
	"context"
	"slices"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type cartItemView struct {
	t *tables
	j *journal
}

func (v *cartItemView) ListByCartID(ctx context.Context, cartID string) ([]model.CartItem, error) {
	out := make([]model.CartItem, 0)
	for _, it := range v.t.cartItems {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b model.CartItem) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (v *cartItemView) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	it, ok := v.t.cartItems[cartItemID]
	if !ok {
		return model.CartItem{}, repo.ErrNotFound
	}
	return it, nil
}

func (v *cartItemView) FindByCartAndProduct(ctx context.Context, cartID string, productID int64) (model.CartItem, error) {
	for _, it := range v.t.cartItems {
		if it.CartID == cartID && it.ProductID == productID {
			return it, nil
		}
	}
	return model.CartItem{}, repo.ErrNotFound
}

func (v *cartItemView) Create(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	prevNext := v.t.nextCartItemID
	item.ID = v.t.nextCartItemID
	v.t.nextCartItemID++
	v.t.cartItems[item.ID] = item

	id := item.ID
	v.j.record(func() {
		delete(v.t.cartItems, id)
		v.t.nextCartItemID = prevNext
	})
	return item, nil
}

func (v *cartItemView) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	it, ok := v.t.cartItems[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	before := it
	it.Quantity = qty
	v.t.cartItems[cartItemID] = it

	v.j.record(func() { v.t.cartItems[cartItemID] = before })
	return nil
}

func (v *cartItemView) DeleteByID(ctx context.Context, cartItemID int64) error {
	it, ok := v.t.cartItems[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	delete(v.t.cartItems, cartItemID)

	v.j.record(func() { v.t.cartItems[cartItemID] = it })
	return nil
}

func (v *cartItemView) ClearByCartID(ctx context.Context, cartID string) error {
	for id, it := range v.t.cartItems {
		if it.CartID != cartID {
			continue
		}
		delete(v.t.cartItems, id)

		removed := it
		v.j.record(func() { v.t.cartItems[removed.ID] = removed })
	}
	return nil
}
