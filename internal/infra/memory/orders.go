package memory

import (
	"cmp"
	"context"
	"slices"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type orderView struct {
	t *tables
	j *journal
}

func (v *orderView) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := v.t.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return cloneOrder(o), nil
}

// 新しい順
func (v *orderView) ListByCartID(ctx context.Context, cartID string) ([]model.Order, error) {
	out := make([]model.Order, 0)
	for _, o := range v.t.orders {
		if o.CartID == cartID {
			out = append(out, cloneOrder(o))
		}
	}
	slices.SortFunc(out, func(a, b model.Order) int { return cmp.Compare(b.ID, a.ID) })
	return out, nil
}

func (v *orderView) Create(ctx context.Context, order model.Order) (int64, error) {
	if order.IdempotencyKey != nil {
		if _, found, _ := v.FindByIdempotencyKey(ctx, *order.IdempotencyKey); found {
			return 0, repo.ErrDuplicateKey
		}
	}

	prevNext := v.t.nextOrderID
	order.ID = v.t.nextOrderID
	v.t.nextOrderID++
	v.t.orders[order.ID] = cloneOrder(order)

	id := order.ID
	v.j.record(func() {
		delete(v.t.orders, id)
		v.t.nextOrderID = prevNext
	})
	return id, nil
}

func (v *orderView) FindByIdempotencyKey(ctx context.Context, key string) (model.Order, bool, error) {
	for _, o := range v.t.orders {
		if o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			return cloneOrder(o), true, nil
		}
	}
	return model.Order{}, false, nil
}

type orderItemView struct {
	t *tables
	j *journal
}

func (v *orderItemView) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) ([]model.OrderItem, error) {
	out := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		prevNext := v.t.nextOrderItemID
		it.ID = v.t.nextOrderItemID
		it.OrderID = orderID
		v.t.nextOrderItemID++
		v.t.orderItems[it.ID] = it

		id := it.ID
		v.j.record(func() {
			delete(v.t.orderItems, id)
			v.t.nextOrderItemID = prevNext
		})
		out = append(out, it)
	}
	return out, nil
}

func (v *orderItemView) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	out := make([]model.OrderItem, 0)
	for _, it := range v.t.orderItems {
		if it.OrderID == orderID {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b model.OrderItem) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}
