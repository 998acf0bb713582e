package syncv1

import (
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
)

type PullProductsRequest struct {
	Since time.Time `json:"since"`
	Limit int32     `json:"limit"`
}

// PullProductsResponse lists products with updated_at strictly after the
// request's Since, ascending. Checkpoint is the updated_at of the last one.
type PullProductsResponse struct {
	Products   []model.Product `json:"products"`
	Checkpoint time.Time       `json:"checkpoint"`
}

type PushOrdersRequest struct {
	Orders []model.Order `json:"orders"`
}

type PushOrdersResponse struct {
	Accepted int32 `json:"accepted"`
}

type UpsertProductsRequest struct {
	Products []model.Product `json:"products"`
}

type UpsertProductsResponse struct {
	Upserted   int32     `json:"upserted"`
	Checkpoint time.Time `json:"checkpoint"`
}
