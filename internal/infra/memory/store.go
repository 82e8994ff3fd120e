// Package memory is the default single-process store: plain maps guarded by
// one RWMutex, with store-owned monotonic id counters.
package memory

import (
	"context"
	"sync"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type tables struct {
	categories map[int64]model.Category
	products   map[int64]model.Product
	cartItems  map[int64]model.CartItem
	orders     map[int64]model.Order
	orderItems map[int64]model.OrderItem

	nextCategoryID  int64
	nextProductID   int64
	nextCartItemID  int64
	nextOrderID     int64
	nextOrderItemID int64
}

// Store owns every table. All access goes through its methods.
type Store struct {
	mu sync.RWMutex
	t  *tables
}

func NewStore() *Store {
	return &Store{t: &tables{
		categories: make(map[int64]model.Category),
		products:   make(map[int64]model.Product),
		cartItems:  make(map[int64]model.CartItem),
		orders:     make(map[int64]model.Order),
		orderItems: make(map[int64]model.OrderItem),

		nextCategoryID:  1,
		nextProductID:   1,
		nextCartItemID:  1,
		nextOrderID:     1,
		nextOrderItemID: 1,
	}}
}

// SeedCatalog inserts categories then products, assigning ids in order.
func (s *Store) SeedCatalog(categories []model.Category, products []model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range categories {
		c.ID = s.t.nextCategoryID
		s.t.nextCategoryID++
		s.t.categories[c.ID] = c
	}
	for _, p := range products {
		p.ID = s.t.nextProductID
		s.t.nextProductID++
		s.t.products[p.ID] = cloneProduct(p)
	}
}

// SaveProduct replaces a product by id, or inserts it with the next id when
// ID is zero.
func (s *Store) SaveProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		p.ID = s.t.nextProductID
		s.t.nextProductID++
	} else if p.ID >= s.t.nextProductID {
		s.t.nextProductID = p.ID + 1
	}
	s.t.products[p.ID] = cloneProduct(p)
	return cloneProduct(p)
}

// Catalog reads take the read lock per call.
func (s *Store) Catalog() repo.CatalogRepository {
	return &lockedCatalog{s: s}
}

// WithinTx runs fn while holding the write lock. Every write made through the
// TxRepos is journaled; an error or panic from fn replays the journal
// backwards so no partial write survives.
func (s *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j := &journal{}
	committed := false
	defer func() {
		if !committed {
			j.rollback()
		}
	}()

	if err := fn(&txRepos{t: s.t, j: j}); err != nil {
		return err
	}
	committed = true
	return nil
}

type journal struct {
	undo []func()
}

func (j *journal) record(f func()) {
	j.undo = append(j.undo, f)
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

type txRepos struct {
	t *tables
	j *journal
}

func (r *txRepos) Catalog() repo.CatalogRepository      { return &catalogView{t: r.t} }
func (r *txRepos) CartItems() repo.CartItemRepository   { return &cartItemView{t: r.t, j: r.j} }
func (r *txRepos) Orders() repo.OrderRepository         { return &orderView{t: r.t, j: r.j} }
func (r *txRepos) OrderItems() repo.OrderItemRepository { return &orderItemView{t: r.t, j: r.j} }

func cloneProduct(p model.Product) model.Product {
	if p.DiscountPrice != nil {
		v := *p.DiscountPrice
		p.DiscountPrice = &v
	}
	return p
}

func cloneOrder(o model.Order) model.Order {
	if o.IdempotencyKey != nil {
		k := *o.IdempotencyKey
		o.IdempotencyKey = &k
	}
	return o
}
