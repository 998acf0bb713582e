package pos

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/shopspring/decimal"
)

var (
	// ErrCheckoutFailed wraps the store error when an order could not be
	// written. The cart is left intact.
	ErrCheckoutFailed       = errors.New("checkout failed")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrNotInCart            = errors.New("product not in cart")
)

// Signal is the outcome rendered by the terminal's sound and display.
type Signal string

const (
	SignalSuccess Signal = "success"
	// SignalWarning means a code was read but is not in the catalog.
	SignalWarning Signal = "warning"
	SignalError   Signal = "error"
)

type FeedbackSink interface {
	Signal(ctx context.Context, s Signal)
}

// FeedbackFunc adapts a function to FeedbackSink.
type FeedbackFunc func(ctx context.Context, s Signal)

func (f FeedbackFunc) Signal(ctx context.Context, s Signal) { f(ctx, s) }

// OrderNotifier is told when a new order is waiting to be pushed.
type OrderNotifier interface {
	Notify()
}

type ScanResult struct {
	Code    string
	Product *model.Product
	Found   bool
	// Quantity is the cart quantity of the product after the scan.
	Quantity int64
}

type LastScan struct {
	Code        string
	ProductName string
	Found       bool
	At          time.Time
}

// UseCase is the Cart/Checkout controller. All cart operations are
// serialized.
type UseCase interface {
	// HandleScan resolves a code and adds the product to the cart. A code
	// missing from the catalog yields Found=false and a warning signal.
	HandleScan(ctx context.Context, code string) (*ScanResult, error)
	AddOrIncrement(ctx context.Context, p model.Product) int64
	AdjustQuantity(ctx context.Context, productID string, delta int64) (int64, error)
	Remove(ctx context.Context, productID string) error
	Clear(ctx context.Context)
	// Checkout writes the cart as a completed order. An empty cart is a
	// no-op returning nil, nil.
	Checkout(ctx context.Context, method model.PaymentMethod) (*model.Order, error)
	Items() []CartItem
	Total() decimal.Decimal
	Count() int64
	LastScan() *LastScan
}
