package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentMethodCash || p == PaymentMethodCard
}

// OrderItem snapshots name and unit price at sale time; later catalog
// changes never rewrite it.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}

// OrderItems is stored as a JSON column.
type OrderItems []OrderItem

func (o OrderItems) Value() (driver.Value, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (o *OrderItems) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*o = nil
		return nil
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	default:
		return fmt.Errorf("order items: unsupported scan type %T", src)
	}
}

type Order struct {
	ID            string          `db:"id" json:"id"`
	Items         OrderItems      `db:"items" json:"items"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
	Tax           decimal.Decimal `db:"tax" json:"tax"`
	Total         decimal.Decimal `db:"total" json:"total"`
	Status        OrderStatus     `db:"status" json:"status"`
	CreatedAt     int64           `db:"created_at" json:"created_at"` // unix millis
	PaymentMethod PaymentMethod   `db:"payment_method" json:"payment_method"`
}

var (
	ErrOrderNoID        = errors.New("order id is required")
	ErrOrderNoItems     = errors.New("order must have at least one item")
	ErrOrderTotals      = errors.New("order totals do not reconcile")
	ErrOrderBadQuantity = errors.New("order item quantity must be at least 1")
	ErrOrderBadStatus   = errors.New("order status is invalid")
	ErrOrderBadPayment  = errors.New("order payment method is invalid")
)

// Validate checks the structural invariants shared by the terminal and the
// backend: total = subtotal + tax and subtotal = sum of line totals.
func (o *Order) Validate() error {
	if o.ID == "" {
		return ErrOrderNoID
	}
	if len(o.Items) == 0 {
		return ErrOrderNoItems
	}
	if !o.Status.Valid() {
		return ErrOrderBadStatus
	}
	if !o.PaymentMethod.Valid() {
		return ErrOrderBadPayment
	}

	sum := decimal.Zero
	for _, it := range o.Items {
		if it.Quantity < 1 {
			return fmt.Errorf("%w: %s", ErrOrderBadQuantity, it.ProductID)
		}
		sum = sum.Add(it.LineTotal())
	}
	if !sum.Equal(o.Subtotal) || !o.Subtotal.Add(o.Tax).Equal(o.Total) {
		return ErrOrderTotals
	}
	if o.Total.IsNegative() || o.Tax.IsNegative() {
		return ErrOrderTotals
	}
	return nil
}
