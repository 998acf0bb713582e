package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. The terminal never mutates it; Catalog Pull
// replaces it wholesale with newer versions from the backend.
type Product struct {
	ID            string          `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Barcode       string          `db:"barcode" json:"barcode"`
	Price         decimal.Decimal `db:"price" json:"price"`
	TaxRate       decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	Category      string          `db:"category" json:"category"`
	ImageURL      *string         `db:"image_url" json:"image_url,omitempty"`
	StockQuantity int64           `db:"stock_quantity" json:"stock_quantity"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}
