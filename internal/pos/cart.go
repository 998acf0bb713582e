package pos

import (
	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/shopspring/decimal"
)

type CartItem struct {
	Product  model.Product
	Quantity int64
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(i.Quantity))
}

// Cart is the in-progress sale. Items keep insertion order for display. A
// Cart is not safe for concurrent use; the controller serializes access.
type Cart struct {
	items []CartItem
}

func NewCart() *Cart {
	return &Cart{}
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.items {
		if c.items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// AddOrIncrement bumps the quantity of an existing line or appends a new one
// with quantity 1. It returns the resulting quantity.
func (c *Cart) AddOrIncrement(p model.Product) int64 {
	if i := c.indexOf(p.ID); i >= 0 {
		c.items[i].Quantity++
		return c.items[i].Quantity
	}
	c.items = append(c.items, CartItem{Product: p, Quantity: 1})
	return 1
}

// AdjustQuantity applies delta and clamps the result to at least 1. Use
// Remove to drop a line.
func (c *Cart) AdjustQuantity(productID string, delta int64) (int64, error) {
	i := c.indexOf(productID)
	if i < 0 {
		return 0, ErrNotInCart
	}
	q := c.items[i].Quantity + delta
	if q < 1 {
		q = 1
	}
	c.items[i].Quantity = q
	return q, nil
}

func (c *Cart) Remove(productID string) error {
	i := c.indexOf(productID)
	if i < 0 {
		return ErrNotInCart
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return nil
}

func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the lines.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// Count is the total number of units across lines.
func (c *Cart) Count() int64 {
	var n int64
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Empty() bool {
	return len(c.items) == 0
}
