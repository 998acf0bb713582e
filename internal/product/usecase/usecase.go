package usecase

import (
	"context"
	"strings"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/fekuna/omnipos-pos-terminal/internal/product"
	"github.com/fekuna/omnipos-pos-terminal/pkg/logger"
	"go.uber.org/zap"
)

type productUseCase struct {
	repo   product.Repository
	logger logger.ZapLogger
}

func NewProductUseCase(repo product.Repository, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:   repo,
		logger: log,
	}
}

// Lookup resolves a scanned code against the local barcode index. A missing
// product is a normal outcome, never an error.
func (uc *productUseCase) Lookup(ctx context.Context, code string) (*product.LookupResult, error) {
	code = strings.TrimSpace(code)
	res := &product.LookupResult{Code: code}
	if code == "" {
		return res, nil
	}

	p, err := uc.repo.FindByBarcode(ctx, code)
	if err != nil {
		uc.logger.Error("barcode lookup failed", zap.String("code", code), zap.Error(err))
		return nil, err
	}
	if p == nil {
		uc.logger.Debug("barcode not in catalog", zap.String("code", code))
		return res, nil
	}

	res.Product = p
	res.Found = true
	return res, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return uc.repo.FindByID(ctx, id)
}
