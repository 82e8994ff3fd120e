// Package cartclient is the client-side mirror of one shopping cart.
//
// The mirror is never patched locally: every mutation is sent to the API and
// followed by a full re-fetch of the cart, so the client only ever shows what
// the server holds. One mutation runs at a time per client.
package cartclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/logger"
	"storefront/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultRetries        = 3
	DefaultRetryBase      = 100 * time.Millisecond
)

type Product struct {
	model.Product
	StockStatus model.StockStatus `json:"stockStatus"`
}

// Item は明細 + 現在の商品
type Item struct {
	model.CartItem
	Product Product `json:"product"`
}

type OrderLine struct {
	model.OrderItem
	Product *Product `json:"product,omitempty"`
}

type Order struct {
	model.Order
	Items []OrderLine `json:"items"`
}

// OrderDraft は購入者情報。cartId はクライアントが埋める。
type OrderDraft struct {
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
}

// summary は GET /api/cart/:id/summary の応答。合計はクライアントで再計算する。
type summary struct {
	Items   []Item          `json:"items"`
	TaxRate decimal.Decimal `json:"taxRate"`
}

// Notifier は失敗の通知先（トースト相当）
type Notifier interface {
	Notify(err error)
}

type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) { f(err) }

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	IDStore    IDStore
	Notifier   Notifier
	// nil ならサーバーのサマリーの税率に従う。指定時は固定。
	Calculator *pricing.Calculator
	Logger     *logger.Logger

	RequestTimeout time.Duration
	// 0 なら既定回数、負ならリトライしない
	Retries   int
	RetryBase time.Duration
}

type Client struct {
	baseURL   string
	http      *http.Client
	ids       IDStore
	notifier  Notifier
	log       *logger.Logger
	timeout   time.Duration
	retries   uint64
	retryBase time.Duration

	mu          sync.Mutex
	calc        pricing.Calculator
	pinnedRate  bool
	cartID      string
	items       []Item
	loading     bool
	updating    map[int64]struct{}
	lastErr     error
	initialized bool
}

func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("cartclient: invalid base url %q", opts.BaseURL)
	}
	if opts.IDStore == nil {
		return nil, errors.New("cartclient: id store is required")
	}

	c := &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		http:      opts.HTTPClient,
		ids:       opts.IDStore,
		notifier:  opts.Notifier,
		log:       opts.Logger,
		timeout:   opts.RequestTimeout,
		retryBase: opts.RetryBase,
		updating:  make(map[int64]struct{}),
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	if c.timeout <= 0 {
		c.timeout = DefaultRequestTimeout
	}
	if c.retryBase <= 0 {
		c.retryBase = DefaultRetryBase
	}
	switch {
	case opts.Retries == 0:
		c.retries = DefaultRetries
	case opts.Retries > 0:
		c.retries = uint64(opts.Retries)
	}
	if opts.Calculator != nil {
		c.calc = *opts.Calculator
		c.pinnedRate = true
	} else {
		// 最初の取得まではこの税率
		c.calc = pricing.MustCalculator(pricing.DefaultTaxRate)
	}
	return c, nil
}

// Init は cartId を読み込み（無ければ採番）、カートを取得する。
// 取得に失敗しても初期化済みになる。
func (c *Client) Init(ctx context.Context) error {
	id, err := loadOrCreateID(c.ids)
	if err != nil {
		c.fail(ctx, err)
		return err
	}

	c.mu.Lock()
	c.cartID = id
	c.mu.Unlock()

	release, err := c.begin(0)
	if err != nil {
		return err
	}
	defer release()

	err = c.fetch(ctx)
	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()
	if err != nil {
		c.fail(ctx, err)
	}
	return err
}

// NewCart は新しい cartId に切り替える（空のカートになる）
func (c *Client) NewCart(ctx context.Context) error {
	release, err := c.begin(0)
	if err != nil {
		return err
	}
	defer release()

	id, err := newID(c.ids)
	if err != nil {
		c.fail(ctx, err)
		return err
	}
	c.mu.Lock()
	c.cartID = id
	c.items = nil
	c.initialized = true
	c.mu.Unlock()
	return nil
}

func (c *Client) Refresh(ctx context.Context) error {
	release, err := c.begin(0)
	if err != nil {
		return err
	}
	defer release()

	if err := c.fetch(ctx); err != nil {
		c.fail(ctx, err)
		return err
	}
	return nil
}

func (c *Client) AddToCart(ctx context.Context, productID, quantity int64) error {
	if quantity < model.MinQuantity || quantity > model.MaxQuantity {
		return c.reject(ctx, ErrInvalidQuantity)
	}
	return c.mutate(ctx, 0, func(ctx context.Context, cartID string) error {
		body := map[string]any{"cartId": cartID, "productId": productID, "quantity": quantity}
		return c.do(ctx, http.MethodPost, "/api/cart", body, nil, nil)
	})
}

// UpdateQuantity は数量を置き換える。0以下は RemoveItem。
func (c *Client) UpdateQuantity(ctx context.Context, itemID, quantity int64) error {
	if quantity <= 0 {
		return c.RemoveItem(ctx, itemID)
	}
	if quantity > model.MaxQuantity {
		return c.reject(ctx, ErrInvalidQuantity)
	}
	return c.mutate(ctx, itemID, func(ctx context.Context, _ string) error {
		body := map[string]any{"quantity": quantity}
		return c.do(ctx, http.MethodPut, "/api/cart/"+strconv.FormatInt(itemID, 10), body, nil, nil)
	})
}

func (c *Client) RemoveItem(ctx context.Context, itemID int64) error {
	return c.mutate(ctx, itemID, func(ctx context.Context, _ string) error {
		return c.do(ctx, http.MethodDelete, "/api/cart/"+strconv.FormatInt(itemID, 10), nil, nil, nil)
	})
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.mutate(ctx, 0, func(ctx context.Context, cartID string) error {
		return c.do(ctx, http.MethodDelete, "/api/cart/clear/"+url.PathEscape(cartID), nil, nil, nil)
	})
}

// Checkout は現在の明細で注文する。
// 冪等キーは1回の呼び出しの中の再試行で使い回す。
func (c *Client) Checkout(ctx context.Context, draft OrderDraft) (Order, error) {
	c.mu.Lock()
	lines := make([]map[string]any, 0, len(c.items))
	for _, it := range c.items {
		lines = append(lines, map[string]any{"productId": it.ProductID, "quantity": it.Quantity})
	}
	c.mu.Unlock()
	if len(lines) == 0 {
		return Order{}, c.reject(ctx, ErrEmptyCart)
	}

	key := uuid.NewString()
	var order Order
	err := c.mutate(ctx, 0, func(ctx context.Context, cartID string) error {
		body := map[string]any{
			"order": map[string]any{
				"cartId":          cartID,
				"customerName":    draft.CustomerName,
				"customerEmail":   draft.CustomerEmail,
				"customerPhone":   draft.CustomerPhone,
				"shippingAddress": draft.ShippingAddress,
			},
			"items": lines,
		}
		headers := map[string]string{idempotencyKeyHeader: key}
		return c.withRetry(ctx, func(ctx context.Context) error {
			return c.do(ctx, http.MethodPost, "/api/orders", body, &order, headers)
		})
	})
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID int64) (Order, error) {
	var order Order
	err := c.withRetry(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, "/api/orders/"+strconv.FormatInt(orderID, 10), nil, &order, nil)
	})
	if err != nil {
		c.fail(ctx, err)
		return Order{}, err
	}
	return order, nil
}

// Orders はこのカートから作られた注文（新しい順）
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	cartID := c.CartID()
	if cartID == "" {
		return nil, ErrNotInitialized
	}
	var orders []Order
	err := c.withRetry(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, "/api/orders/cart/"+url.PathEscape(cartID), nil, &orders, nil)
	})
	if err != nil {
		c.fail(ctx, err)
		return nil, err
	}
	return orders, nil
}

// mutate は送信して、成否にかかわらず取り直す
func (c *Client) mutate(ctx context.Context, itemID int64, send func(ctx context.Context, cartID string) error) error {
	release, err := c.begin(itemID)
	if err != nil {
		return err
	}
	defer release()

	sendErr := send(ctx, c.CartID())
	fetchErr := c.fetch(ctx)

	err = multierr.Append(sendErr, fetchErr)
	if err != nil {
		c.fail(ctx, err)
	}
	return err
}

func (c *Client) fetch(ctx context.Context) error {
	cartID := c.CartID()
	var out summary
	err := c.withRetry(ctx, func(ctx context.Context) error {
		out = summary{}
		return c.do(ctx, http.MethodGet, "/api/cart/"+url.PathEscape(cartID)+"/summary", nil, &out, nil)
	})
	if err != nil {
		return err
	}
	items := out.Items
	if items == nil {
		items = []Item{}
	}

	var calc *pricing.Calculator
	if !c.pinnedRate {
		adopted, err := pricing.NewCalculator(out.TaxRate)
		if err != nil {
			return fmt.Errorf("cartclient: server tax rate: %w", err)
		}
		calc = &adopted
	}

	c.mu.Lock()
	c.items = items
	if calc != nil {
		c.calc = *calc
	}
	c.mu.Unlock()
	return nil
}

// begin はガードを取る。解放は必ず defer で。
func (c *Client) begin(itemID int64) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cartID == "" {
		return nil, ErrNotInitialized
	}
	if itemID != 0 {
		if _, ok := c.updating[itemID]; ok {
			return nil, ErrItemBusy
		}
	}
	if c.loading {
		return nil, ErrBusy
	}

	c.loading = true
	if itemID != 0 {
		c.updating[itemID] = struct{}{}
	}
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.loading = false
		if itemID != 0 {
			delete(c.updating, itemID)
		}
	}, nil
}

// reject は送信前の検証エラー
func (c *Client) reject(ctx context.Context, err error) error {
	c.fail(ctx, err)
	return err
}

func (c *Client) fail(ctx context.Context, err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()

	c.log.Warn(c.log.WithField(ctx, "error", err.Error()), "cartclient.failed")
	if c.notifier != nil {
		c.notifier.Notify(err)
	}
}

func (c *Client) CartID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cartID
}

// Items はコピーを返す
func (c *Client) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Client) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Client) Updating(itemID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.updating[itemID]
	return ok
}

func (c *Client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Client) ResetError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = nil
}

func (c *Client) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

func (c *Client) lines() []pricing.Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]pricing.Line, 0, len(c.items))
	for _, it := range c.items {
		lines = append(lines, pricing.Line{Product: it.Product.Product, Quantity: it.Quantity})
	}
	return lines
}

func (c *Client) CartTotal() int64 {
	return pricing.CartTotal(c.lines())
}

func (c *Client) calculator() pricing.Calculator {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calc
}

func (c *Client) TaxAmount() int64 {
	return c.calculator().TaxAmount(c.CartTotal())
}

func (c *Client) FinalTotal() int64 {
	return c.calculator().FinalTotal(c.lines())
}

func (c *Client) ItemCount() int64 {
	return pricing.ItemCount(c.lines())
}

func (c *Client) TaxRate() string {
	return c.calculator().TaxRate().String()
}
