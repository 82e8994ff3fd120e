package cartclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/cartclient"
	"storefront/internal/handler"
	"storefront/internal/infra/memory"
	"storefront/internal/infra/seed"
	"storefront/internal/lock"
	"storefront/internal/logger"
	"storefront/internal/pricing"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	basketID int64 = 1 // 15000
	plateID  int64 = 2 // 12000 -> 10000
	spoonID  int64 = 4 // 8000
)

func newAPI(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	return newAPIWithRate(t, pricing.DefaultTaxRate)
}

func newAPIWithRate(t *testing.T, rate decimal.Decimal) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SeedCatalog(seed.Categories(), seed.Products())

	log := logger.Nop()
	locker := lock.NewKeyedMutex()
	calc := pricing.MustCalculator(rate)

	e := server.NewRouter(server.Handlers{
		Catalog: handler.NewCatalogHandler(usecase.NewCatalogUsecase(store.Catalog()), log),
		Cart:    handler.NewCartHandler(usecase.NewCartUsecase(store, locker, calc, nil), log),
		Orders:  handler.NewOrderHandler(usecase.NewOrderUsecase(store, locker, calc, usecase.SystemClock{}, nil), log),
	}, server.RouterOptions{Logger: log, RequestTimeout: 5 * time.Second})
	return e, store
}

type recorder struct {
	mu   sync.Mutex
	errs []error
}

func (r *recorder) Notify(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func newClient(t *testing.T, baseURL string, rate string, notifier cartclient.Notifier) *cartclient.Client {
	t.Helper()
	calc := pricing.MustCalculator(decimal.RequireFromString(rate))
	c, err := cartclient.New(cartclient.Options{
		BaseURL:        baseURL,
		IDStore:        cartclient.NewMemoryIDStore(""),
		Notifier:       notifier,
		Calculator:     &calc,
		RequestTimeout: 2 * time.Second,
		Retries:        2,
		RetryBase:      time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func findItem(t *testing.T, c *cartclient.Client, productID int64) cartclient.Item {
	t.Helper()
	for _, it := range c.Items() {
		if it.ProductID == productID {
			return it
		}
	}
	t.Fatalf("product %d not in cart", productID)
	return cartclient.Item{}
}

func TestClient_CartFlow(t *testing.T) {
	api, _ := newAPI(t)
	srv := httptest.NewServer(api)
	defer srv.Close()

	ctx := context.Background()
	c := newClient(t, srv.URL, "0.08", nil)

	require.NoError(t, c.Init(ctx))
	assert.True(t, c.Initialized())
	assert.NotEmpty(t, c.CartID())
	assert.Empty(t, c.Items())

	require.NoError(t, c.AddToCart(ctx, plateID, 2))
	require.NoError(t, c.AddToCart(ctx, spoonID, 1))
	require.Len(t, c.Items(), 2)

	assert.Equal(t, int64(28000), c.CartTotal())
	assert.Equal(t, int64(2240), c.TaxAmount())
	assert.Equal(t, int64(30240), c.FinalTotal())
	assert.Equal(t, int64(3), c.ItemCount())

	// 同じ商品は加算
	require.NoError(t, c.AddToCart(ctx, spoonID, 2))
	assert.Equal(t, int64(3), findItem(t, c, spoonID).Quantity)
	require.Len(t, c.Items(), 2)

	spoon := findItem(t, c, spoonID)
	require.NoError(t, c.UpdateQuantity(ctx, spoon.ID, 7))
	assert.Equal(t, int64(7), findItem(t, c, spoonID).Quantity)

	require.NoError(t, c.UpdateQuantity(ctx, spoon.ID, -5))
	require.Len(t, c.Items(), 1)

	require.NoError(t, c.RemoveItem(ctx, 424242))
	require.Len(t, c.Items(), 1)

	require.NoError(t, c.ClearCart(ctx))
	assert.Empty(t, c.Items())
	assert.Zero(t, c.FinalTotal())
	assert.False(t, c.Loading())
	assert.NoError(t, c.LastError())
}

func TestClient_ReusesStoredCartID(t *testing.T) {
	api, _ := newAPI(t)
	srv := httptest.NewServer(api)
	defer srv.Close()

	ctx := context.Background()
	ids := cartclient.NewMemoryIDStore("")

	first, err := cartclient.New(cartclient.Options{BaseURL: srv.URL, IDStore: ids})
	require.NoError(t, err)
	require.NoError(t, first.Init(ctx))
	require.NoError(t, first.AddToCart(ctx, basketID, 1))

	second, err := cartclient.New(cartclient.Options{BaseURL: srv.URL, IDStore: ids})
	require.NoError(t, err)
	require.NoError(t, second.Init(ctx))
	assert.Equal(t, first.CartID(), second.CartID())
	require.Len(t, second.Items(), 1)
	assert.Equal(t, "0.1", second.TaxRate())

	require.NoError(t, second.NewCart(ctx))
	assert.NotEqual(t, first.CartID(), second.CartID())
	assert.Empty(t, second.Items())

	stored, err := ids.Load()
	require.NoError(t, err)
	assert.Equal(t, second.CartID(), stored)
}

func TestClient_AdoptsServerTaxRate(t *testing.T) {
	api, _ := newAPIWithRate(t, decimal.RequireFromString("0.08"))
	srv := httptest.NewServer(api)
	defer srv.Close()

	ctx := context.Background()
	c, err := cartclient.New(cartclient.Options{BaseURL: srv.URL, IDStore: cartclient.NewMemoryIDStore("")})
	require.NoError(t, err)
	require.NoError(t, c.Init(ctx))
	assert.Equal(t, "0.08", c.TaxRate())

	require.NoError(t, c.AddToCart(ctx, basketID, 1))
	require.NoError(t, c.AddToCart(ctx, plateID, 2))
	assert.Equal(t, int64(35000), c.CartTotal())
	assert.Equal(t, int64(2800), c.TaxAmount())
	assert.Equal(t, int64(37800), c.FinalTotal())

	// 明示した税率はサーバーの値で上書きしない
	pinned := newClient(t, srv.URL, "0.10", nil)
	require.NoError(t, pinned.Init(ctx))
	assert.Equal(t, "0.1", pinned.TaxRate())
}

func TestClient_NegativeRetriesDisablesRetry(t *testing.T) {
	var gets atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"request timed out","code":"TIMEOUT"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	once, err := cartclient.New(cartclient.Options{
		BaseURL:   srv.URL,
		IDStore:   cartclient.NewMemoryIDStore(""),
		Retries:   -1,
		RetryBase: time.Millisecond,
	})
	require.NoError(t, err)
	err = once.Init(ctx)
	require.Error(t, err)
	assert.True(t, cartclient.IsTransient(err))
	assert.Equal(t, int64(1), gets.Load())

	gets.Store(0)
	byDefault, err := cartclient.New(cartclient.Options{
		BaseURL:   srv.URL,
		IDStore:   cartclient.NewMemoryIDStore(""),
		RetryBase: time.Millisecond,
	})
	require.NoError(t, err)
	require.Error(t, byDefault.Init(ctx))
	assert.Equal(t, int64(1+cartclient.DefaultRetries), gets.Load())
}

func TestClient_RejectsInvalidQuantityWithoutRequest(t *testing.T) {
	api, _ := newAPI(t)
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		api.ServeHTTP(w, r)
	}))
	defer srv.Close()

	ctx := context.Background()
	rec := &recorder{}
	c := newClient(t, srv.URL, "0.10", rec)
	require.NoError(t, c.Init(ctx))
	before := calls.Load()

	assert.ErrorIs(t, c.AddToCart(ctx, basketID, 100), cartclient.ErrInvalidQuantity)
	assert.ErrorIs(t, c.AddToCart(ctx, basketID, 0), cartclient.ErrInvalidQuantity)
	assert.ErrorIs(t, c.UpdateQuantity(ctx, 1, 100), cartclient.ErrInvalidQuantity)
	_, err := c.Checkout(ctx, cartclient.OrderDraft{CustomerName: "A"})
	assert.ErrorIs(t, err, cartclient.ErrEmptyCart)

	assert.Equal(t, before, calls.Load())
	assert.Equal(t, 4, rec.count())
	assert.ErrorIs(t, c.LastError(), cartclient.ErrEmptyCart)

	c.ResetError()
	assert.NoError(t, c.LastError())
}

func TestClient_APIErrorKeepsItemsAndReleasesGuard(t *testing.T) {
	api, _ := newAPI(t)
	srv := httptest.NewServer(api)
	defer srv.Close()

	ctx := context.Background()
	rec := &recorder{}
	c := newClient(t, srv.URL, "0.10", rec)
	require.NoError(t, c.Init(ctx))
	require.NoError(t, c.AddToCart(ctx, basketID, 1))

	err := c.AddToCart(ctx, 999, 1)
	var apiErr *cartclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, usecase.CodeNotFound, apiErr.Code)
	assert.False(t, cartclient.IsTransient(err))

	err = c.UpdateQuantity(ctx, 424242, 3)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	require.Len(t, c.Items(), 1)
	assert.False(t, c.Loading())
	assert.False(t, c.Updating(424242))
	assert.Equal(t, 2, rec.count())

	require.NoError(t, c.AddToCart(ctx, basketID, 1))
	assert.Equal(t, int64(2), findItem(t, c, basketID).Quantity)
}

func TestClient_TransientFailure(t *testing.T) {
	api, _ := newAPI(t)
	srv := httptest.NewServer(api)

	ctx := context.Background()
	rec := &recorder{}
	c := newClient(t, srv.URL, "0.10", rec)
	require.NoError(t, c.Init(ctx))
	require.NoError(t, c.AddToCart(ctx, basketID, 1))

	srv.Close()

	err := c.AddToCart(ctx, plateID, 1)
	require.Error(t, err)
	assert.True(t, cartclient.IsTransient(err))
	assert.False(t, c.Loading())
	require.Len(t, c.Items(), 1)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, err, c.LastError())
}

func TestClient_InitWithUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := newClient(t, srv.URL, "0.10", nil)
	err := c.Init(context.Background())
	require.Error(t, err)
	assert.True(t, c.Initialized())
	assert.NotEmpty(t, c.CartID())
	assert.Error(t, c.LastError())
}

func TestClient_RetriesRefetchOnUnavailable(t *testing.T) {
	api, _ := newAPI(t)
	var failures atomic.Int64
	failures.Store(2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && failures.Add(-1) >= 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"request timed out","code":"TIMEOUT"}`))
			return
		}
		api.ServeHTTP(w, r)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, "0.10", nil)
	require.NoError(t, c.Init(context.Background()))
	assert.NoError(t, c.LastError())
}

func TestClient_GuardsConcurrentMutations(t *testing.T) {
	api, _ := newAPI(t)
	entered := make(chan struct{})
	unblock := make(chan struct{})
	var block atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && block.Load() {
			close(entered)
			<-unblock
		}
		api.ServeHTTP(w, r)
	}))
	defer srv.Close()

	ctx := context.Background()
	c := newClient(t, srv.URL, "0.10", nil)
	require.NoError(t, c.Init(ctx))
	require.NoError(t, c.AddToCart(ctx, basketID, 1))
	item := findItem(t, c, basketID)

	block.Store(true)
	done := make(chan error, 1)
	go func() {
		done <- c.UpdateQuantity(ctx, item.ID, 4)
	}()
	<-entered

	assert.True(t, c.Loading())
	assert.True(t, c.Updating(item.ID))
	assert.ErrorIs(t, c.UpdateQuantity(ctx, item.ID, 5), cartclient.ErrItemBusy)
	assert.ErrorIs(t, c.AddToCart(ctx, plateID, 1), cartclient.ErrBusy)
	assert.ErrorIs(t, c.Refresh(ctx), cartclient.ErrBusy)

	block.Store(false)
	close(unblock)
	require.NoError(t, <-done)

	assert.False(t, c.Loading())
	assert.False(t, c.Updating(item.ID))
	assert.Equal(t, int64(4), findItem(t, c, basketID).Quantity)
}

func TestClient_Checkout(t *testing.T) {
	api, store := newAPI(t)
	var orderPosts atomic.Int64
	var keys sync.Map
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/api/orders" {
			keys.Store(r.Header.Get("X-Idempotency-Key"), true)
			// 1回目は処理した上で応答を失わせる
			if orderPosts.Add(1) == 1 {
				api.ServeHTTP(httptest.NewRecorder(), r)
				w.WriteHeader(http.StatusBadGateway)
				return
			}
		}
		api.ServeHTTP(w, r)
	}))
	defer srv.Close()

	ctx := context.Background()
	c := newClient(t, srv.URL, "0.10", nil)
	require.NoError(t, c.Init(ctx))
	require.NoError(t, c.AddToCart(ctx, plateID, 2))
	require.NoError(t, c.AddToCart(ctx, spoonID, 1))

	order, err := c.Checkout(ctx, cartclient.OrderDraft{
		CustomerName:  "Aline",
		CustomerEmail: "aline@example.com",
		CustomerPhone: "+250788000000",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), orderPosts.Load())
	assert.Equal(t, int64(28000), order.Subtotal)
	assert.Equal(t, int64(30800), order.TotalAmount)
	require.Len(t, order.Items, 2)
	assert.Empty(t, c.Items())

	nkeys := 0
	keys.Range(func(_, _ any) bool { nkeys++; return true })
	assert.Equal(t, 1, nkeys)

	history, err := c.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, order.ID, history[0].ID)

	// 注文後に価格が変わっても明細の価格は変わらない
	plate, err := store.Catalog().FindProductByID(ctx, plateID)
	require.NoError(t, err)
	plate.DiscountPrice = nil
	plate.Price = 9000
	store.SaveProduct(plate)

	got, err := c.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	for _, line := range got.Items {
		if line.ProductID == plateID {
			assert.Equal(t, int64(10000), line.Price)
			require.NotNil(t, line.Product)
			assert.Equal(t, int64(9000), line.Product.Price)
		}
	}

	_, err = c.GetOrder(ctx, 999)
	var apiErr *cartclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	_, err := cartclient.New(cartclient.Options{BaseURL: "not a url", IDStore: cartclient.NewMemoryIDStore("")})
	assert.Error(t, err)

	_, err = cartclient.New(cartclient.Options{BaseURL: "http://localhost:8080"})
	assert.Error(t, err)
}
