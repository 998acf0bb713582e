package product

import (
	"context"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
)

// LookupResult is either a hit with Product set or an explicit miss.
type LookupResult struct {
	Code    string
	Product *model.Product
	Found   bool
}

type UseCase interface {
	Lookup(ctx context.Context, code string) (*LookupResult, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
}
