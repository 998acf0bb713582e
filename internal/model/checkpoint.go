package model

import "time"

const (
	StreamProductPull = "product-sync-v1"
	StreamOrderPush   = "order-sync-v1"
)

// ReplicationCheckpoint is the last position a replication stream has fully
// applied. For Catalog Pull that is the updated_at of the newest ingested
// product.
type ReplicationCheckpoint struct {
	Stream    string    `json:"stream"`
	UpdatedAt time.Time `json:"updated_at"`
	SavedAt   time.Time `json:"saved_at"`
}
