package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/fekuna/omnipos-pos-terminal/internal/order"
	"github.com/fekuna/omnipos-pos-terminal/internal/pos"
	"github.com/fekuna/omnipos-pos-terminal/internal/product"
	"github.com/fekuna/omnipos-pos-terminal/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type posUseCase struct {
	products product.UseCase
	orders   order.Repository
	feedback pos.FeedbackSink
	notifier pos.OrderNotifier
	logger   logger.ZapLogger
	now      func() time.Time

	mu   sync.Mutex
	cart *pos.Cart
	last *pos.LastScan
}

type Option func(*posUseCase)

// WithNotifier wakes order push after each checkout.
func WithNotifier(n pos.OrderNotifier) Option {
	return func(uc *posUseCase) { uc.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(uc *posUseCase) { uc.now = now }
}

func NewPOSUseCase(
	products product.UseCase,
	orders order.Repository,
	feedback pos.FeedbackSink,
	log logger.ZapLogger,
	opts ...Option,
) pos.UseCase {
	uc := &posUseCase{
		products: products,
		orders:   orders,
		feedback: feedback,
		logger:   log,
		now:      time.Now,
		cart:     pos.NewCart(),
	}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

func (uc *posUseCase) signal(ctx context.Context, s pos.Signal) {
	if uc.feedback != nil {
		uc.feedback.Signal(ctx, s)
	}
}

func (uc *posUseCase) HandleScan(ctx context.Context, code string) (*pos.ScanResult, error) {
	res, err := uc.products.Lookup(ctx, code)
	if err != nil {
		uc.signal(ctx, pos.SignalError)
		return nil, fmt.Errorf("lookup %q: %w", code, err)
	}

	out := &pos.ScanResult{Code: res.Code, Product: res.Product, Found: res.Found}

	uc.mu.Lock()
	last := &pos.LastScan{Code: res.Code, Found: res.Found, At: uc.now()}
	if res.Found {
		last.ProductName = res.Product.Name
		out.Quantity = uc.cart.AddOrIncrement(*res.Product)
	}
	uc.last = last
	uc.mu.Unlock()

	if !res.Found {
		uc.logger.Info("scanned code not in catalog", zap.String("code", res.Code))
		uc.signal(ctx, pos.SignalWarning)
		return out, nil
	}

	uc.logger.Debug("item added",
		zap.String("product_id", res.Product.ID),
		zap.Int64("quantity", out.Quantity),
	)
	uc.signal(ctx, pos.SignalSuccess)
	return out, nil
}

func (uc *posUseCase) AddOrIncrement(ctx context.Context, p model.Product) int64 {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.cart.AddOrIncrement(p)
}

func (uc *posUseCase) AdjustQuantity(ctx context.Context, productID string, delta int64) (int64, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.cart.AdjustQuantity(productID, delta)
}

func (uc *posUseCase) Remove(ctx context.Context, productID string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.cart.Remove(productID)
}

func (uc *posUseCase) Clear(ctx context.Context) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.cart.Clear()
}

// Checkout holds the cart lock across the store write so a concurrent scan
// cannot slip an item into an order that is already being written.
func (uc *posUseCase) Checkout(ctx context.Context, method model.PaymentMethod) (*model.Order, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", pos.ErrInvalidPaymentMethod, method)
	}

	uc.mu.Lock()
	if uc.cart.Empty() {
		uc.mu.Unlock()
		return nil, nil
	}

	ord := uc.buildOrder(method)
	if err := ord.Validate(); err != nil {
		uc.mu.Unlock()
		uc.logger.Error("built an invalid order", zap.String("order_id", ord.ID), zap.Error(err))
		uc.signal(ctx, pos.SignalError)
		return nil, fmt.Errorf("%w: %w", pos.ErrCheckoutFailed, err)
	}

	if err := uc.orders.Create(ctx, ord); err != nil {
		uc.mu.Unlock()
		uc.logger.Error("failed to store order", zap.String("order_id", ord.ID), zap.Error(err))
		uc.signal(ctx, pos.SignalError)
		return nil, fmt.Errorf("%w: %w", pos.ErrCheckoutFailed, err)
	}

	uc.cart.Clear()
	uc.mu.Unlock()

	uc.logger.Info("order completed",
		zap.String("order_id", ord.ID),
		zap.String("total", ord.Total.String()),
		zap.String("payment_method", string(method)),
		zap.Int("items", len(ord.Items)),
	)
	uc.signal(ctx, pos.SignalSuccess)
	if uc.notifier != nil {
		uc.notifier.Notify()
	}
	return ord, nil
}

// buildOrder snapshots the cart. Tax is not applied: tax_rate is carried on
// products but checkout records tax as zero.
func (uc *posUseCase) buildOrder(method model.PaymentMethod) *model.Order {
	lines := uc.cart.Items()
	items := make(model.OrderItems, 0, len(lines))
	for _, l := range lines {
		items = append(items, model.OrderItem{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Quantity:  l.Quantity,
			Price:     l.Product.Price,
		})
	}

	subtotal := uc.cart.Subtotal()
	tax := decimal.Zero
	return &model.Order{
		ID:            uuid.NewString(),
		Items:         items,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         subtotal.Add(tax),
		Status:        model.OrderStatusCompleted,
		CreatedAt:     uc.now().UnixMilli(),
		PaymentMethod: method,
	}
}

func (uc *posUseCase) Items() []pos.CartItem {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.cart.Items()
}

func (uc *posUseCase) Total() decimal.Decimal {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.cart.Subtotal()
}

func (uc *posUseCase) Count() int64 {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.cart.Count()
}

func (uc *posUseCase) LastScan() *pos.LastScan {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.last == nil {
		return nil
	}
	ls := *uc.last
	return &ls
}
