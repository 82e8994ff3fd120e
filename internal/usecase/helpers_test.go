package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/infra/memory"
	"storefront/internal/infra/seed"
	"storefront/internal/lock"
	"storefront/internal/pricing"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// シードの商品ID
const (
	basketID = int64(1) // 15000
	plateID  = int64(2) // 12000 -> 10000
	spoonID  = int64(4) // 8000
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store  *memory.Store
	cart   *usecase.CartUsecase
	orders *usecase.OrderUsecase
}

func newTestEnv(t *testing.T, rate string) testEnv {
	t.Helper()
	s := memory.NewStore()
	s.SeedCatalog(seed.Categories(), seed.Products())
	return newTestEnvWithStore(t, s, s, rate)
}

func newTestEnvWithStore(t *testing.T, s *memory.Store, store repo.Store, rate string) testEnv {
	t.Helper()
	calc, err := pricing.NewCalculator(decimal.RequireFromString(rate))
	require.NoError(t, err)
	locker := lock.NewKeyedMutex()
	return testEnv{
		store:  s,
		cart:   usecase.NewCartUsecase(store, locker, calc, nil),
		orders: usecase.NewOrderUsecase(store, locker, calc, fixedClock{t: testNow}, nil),
	}
}

func qty(v int64) *int64 { return &v }

func requireHTTPError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "expected *HTTPError, got %T: %v", err, err)
	require.Equal(t, status, he.Status, he.Message)
	require.Equal(t, code, he.Code)
}

// failingStore は指定した操作だけ失敗させる
type failingStore struct {
	repo.Store
	failClear bool
}

var errInjected = errors.New("injected failure")

func (s *failingStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return s.Store.WithinTx(ctx, func(r repo.TxRepos) error {
		return fn(&failingTxRepos{TxRepos: r, failClear: s.failClear})
	})
}

type failingTxRepos struct {
	repo.TxRepos
	failClear bool
}

func (r *failingTxRepos) CartItems() repo.CartItemRepository {
	return &failingCartItems{CartItemRepository: r.TxRepos.CartItems(), failClear: r.failClear}
}

type failingCartItems struct {
	repo.CartItemRepository
	failClear bool
}

func (c *failingCartItems) ClearByCartID(ctx context.Context, cartID string) error {
	if c.failClear {
		return errInjected
	}
	return c.CartItemRepository.ClearByCartID(ctx, cartID)
}
