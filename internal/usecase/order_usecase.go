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

	"github.com/go-playground/validator/v10"
)

const maxIdempotencyKeyLen = 255

type OrderUsecase struct {
	store    repo.Store
	locker   lock.Locker
	calc     pricing.Calculator
	clock    Clock
	metrics  *metrics.Storefront
	validate *validator.Validate
}

func NewOrderUsecase(
	store repo.Store,
	locker lock.Locker,
	calc pricing.Calculator,
	clock Clock,
	m *metrics.Storefront,
) *OrderUsecase {
	return &OrderUsecase{
		store:    store,
		locker:   locker,
		calc:     calc,
		clock:    clock,
		metrics:  m,
		validate: validator.New(),
	}
}

type CreateOrderInput struct {
	CartID          string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	// 空ならサーバー側のカートから作る
	Items          []OrderItemInput
	IdempotencyKey string
}

type OrderItemInput struct {
	ProductID int64
	Quantity  int64
	// クライアントが表示していた単価（任意）。実売価格と違えば400。
	Price *int64
}

// 明細（GetOrderのときだけ現在の商品を付ける）
type OrderItemOutput struct {
	model.OrderItem
	Product *ProductOutput `json:"product,omitempty"`
}

type OrderOutput struct {
	model.Order
	Items []OrderItemOutput `json:"items"`
}

// 並行して同じ冪等キーが入ったとき
var errKeyRace = errors.New("idempotency key inserted concurrently")

func (u *OrderUsecase) validateDraft(in *CreateOrderInput) error {
	cartID, err := normalizeCartID(in.CartID)
	if err != nil {
		return err
	}
	in.CartID = cartID
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.ShippingAddress = strings.TrimSpace(in.ShippingAddress)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)

	if in.CustomerName == "" {
		return validationError("customerName required")
	}
	if in.CustomerEmail == "" {
		return validationError("customerEmail required")
	}
	if err := u.validate.Var(in.CustomerEmail, "email"); err != nil {
		return validationError("customerEmail must be a valid email")
	}
	if in.CustomerPhone == "" {
		return validationError("customerPhone required")
	}
	if len(in.IdempotencyKey) > maxIdempotencyKeyLen {
		return validationError("idempotency key too long")
	}
	for i, it := range in.Items {
		if it.ProductID <= 0 {
			return validationError(fmt.Sprintf("items[%d]: invalid productId", i))
		}
		if !validQuantity(it.Quantity) {
			return validationError(fmt.Sprintf("items[%d]: quantity must be between %d and %d", i, model.MinQuantity, model.MaxQuantity))
		}
		if it.Price != nil && *it.Price < 0 {
			return validationError(fmt.Sprintf("items[%d]: price must be >= 0", i))
		}
	}
	return nil
}

// CreateOrder は注文・明細の作成とカートのクリアを1トランザクションで行う。
// 同じ冪等キーなら既存の注文を返す（created=false）。
func (u *OrderUsecase) CreateOrder(ctx context.Context, in CreateOrderInput) (out OrderOutput, created bool, err error) {
	defer func() {
		if created || err != nil {
			u.metrics.OrderCreated(out.TotalAmount, err)
		}
	}()

	if err := u.validateDraft(&in); err != nil {
		return OrderOutput{}, false, err
	}

	unlock, err := u.locker.Lock(ctx, in.CartID)
	if err != nil {
		return OrderOutput{}, false, storeError(err)
	}
	defer unlock()

	out, created, err = u.createOrderTx(ctx, in)
	if errors.Is(err, errKeyRace) {
		// 先に入った方の結果を返す
		out, created, err = u.createOrderTx(ctx, in)
	}
	if err != nil {
		return OrderOutput{}, false, storeError(err)
	}
	return out, created, nil
}

func (u *OrderUsecase) createOrderTx(ctx context.Context, in CreateOrderInput) (OrderOutput, bool, error) {
	var (
		out     OrderOutput
		created bool
	)

	//注文処理はトランザクション
	err := u.store.WithinTx(ctx, func(r repo.TxRepos) error {
		if in.IdempotencyKey != "" {
			// 同じキーなら同じ結果
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if found {
				if existing.CartID != in.CartID {
					return validationError("idempotency key was used for another cart")
				}
				items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
				if err != nil {
					return err
				}
				out = toOrderOutput(existing, items)
				return nil
			}
		}

		orderItems, err := u.snapshotItems(ctx, r, in)
		if err != nil {
			return err
		}
		summary := u.calc.SummarizeSnapshot(orderItems)

		order := model.Order{
			CartID:          in.CartID,
			CustomerName:    in.CustomerName,
			CustomerEmail:   in.CustomerEmail,
			CustomerPhone:   in.CustomerPhone,
			ShippingAddress: in.ShippingAddress,
			Status:          model.OrderStatusPending,
			Subtotal:        summary.Subtotal,
			TaxAmount:       summary.Tax,
			TotalAmount:     summary.Total,
			CreatedAt:       u.clock.Now(),
		}
		if in.IdempotencyKey != "" {
			key := in.IdempotencyKey
			order.IdempotencyKey = &key
		}

		// 注文作成
		orderID, err := r.Orders().Create(ctx, order)
		if errors.Is(err, repo.ErrDuplicateKey) {
			return errKeyRace
		}
		if err != nil {
			return err
		}
		order.ID = orderID

		//注文明細一括作成
		saved, err := r.OrderItems().CreateBulk(ctx, orderID, orderItems)
		if err != nil {
			return err
		}

		//カートをクリア（再注文防止）
		if err := r.CartItems().ClearByCartID(ctx, in.CartID); err != nil {
			return err
		}

		out = toOrderOutput(order, saved)
		created = true
		return nil
	})
	if err != nil {
		return OrderOutput{}, false, err
	}
	return out, created, nil
}

// 明細を確定する。価格は現在の実売価格のスナップショット。
func (u *OrderUsecase) snapshotItems(ctx context.Context, r repo.TxRepos, in CreateOrderInput) ([]model.OrderItem, error) {
	inputs := in.Items
	if len(inputs) == 0 {
		cartItems, err := r.CartItems().ListByCartID(ctx, in.CartID)
		if err != nil {
			return nil, err
		}
		if len(cartItems) == 0 {
			return nil, validationError("cart empty")
		}
		inputs = make([]OrderItemInput, 0, len(cartItems))
		for _, ci := range cartItems {
			inputs = append(inputs, OrderItemInput{ProductID: ci.ProductID, Quantity: ci.Quantity})
		}
	}

	items := make([]model.OrderItem, 0, len(inputs))
	for i, it := range inputs {
		p, err := r.Catalog().FindProductByID(ctx, it.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, integrityError(fmt.Sprintf("product %d does not exist", it.ProductID))
		}
		if err != nil {
			return nil, err
		}

		// 価格は常にサーバー側の実売価格。クライアントの表示価格が古ければ弾く。
		price := pricing.EffectivePrice(p)
		if it.Price != nil && *it.Price != price {
			return nil, validationError(fmt.Sprintf("items[%d]: price %d does not match current price %d", i, *it.Price, price))
		}
		items = append(items, model.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     price,
		})
	}
	return items, nil
}

// GetOrder は注文と明細、表示用に現在の商品を返す。価格はスナップショットのまま。
func (u *OrderUsecase) GetOrder(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, validationError("invalid id")
	}

	var out OrderOutput
	err := u.store.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFoundError("order not found")
		}
		if err != nil {
			return err
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}

		out = toOrderOutput(o, items)
		for i := range out.Items {
			p, err := r.Catalog().FindProductByID(ctx, out.Items[i].ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return integrityError(fmt.Sprintf("order item %d references missing product %d", out.Items[i].ID, out.Items[i].ProductID))
			}
			if err != nil {
				return err
			}
			po := toProductOutput(p)
			out.Items[i].Product = &po
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, storeError(err)
	}
	return out, nil
}

// ListOrdersByCart は新しい順
func (u *OrderUsecase) ListOrdersByCart(ctx context.Context, cartID string) ([]OrderOutput, error) {
	cartID, err := normalizeCartID(cartID)
	if err != nil {
		return []OrderOutput{}, err
	}

	var outs []OrderOutput
	err = u.store.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListByCartID(ctx, cartID)
		if err != nil {
			return err
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return []OrderOutput{}, storeError(err)
	}
	return outs, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{OrderItem: it})
	}
	return OrderOutput{Order: o, Items: outItems}
}
