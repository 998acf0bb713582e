package model

import "time"

const EventProductsChanged = "ProductsChanged"

// CatalogChangedEvent is published by the backend after products are
// written. Terminals treat it only as a hint to pull; the payload is not
// applied directly.
type CatalogChangedEvent struct {
	EventID   string                `json:"event_id"`
	EventType string                `json:"event_type"`
	Payload   CatalogChangedPayload `json:"payload"`
	Timestamp time.Time             `json:"timestamp"`
}

type CatalogChangedPayload struct {
	ProductIDs   []string  `json:"product_ids"`
	MaxUpdatedAt time.Time `json:"max_updated_at"`
}
