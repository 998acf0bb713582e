package handler

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-pos-terminal/internal/auth"
	"github.com/fekuna/omnipos-pos-terminal/internal/backend"
	syncv1 "github.com/fekuna/omnipos-pos-terminal/internal/transport/syncv1"
	"github.com/fekuna/omnipos-pos-terminal/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type SyncHandler struct {
	syncv1.UnimplementedSyncServiceServer

	uc     backend.UseCase
	logger logger.ZapLogger
}

func NewSyncHandler(uc backend.UseCase, log logger.ZapLogger) *SyncHandler {
	return &SyncHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *SyncHandler) PullProducts(ctx context.Context, req *syncv1.PullProductsRequest) (*syncv1.PullProductsResponse, error) {
	page, err := h.uc.PullProducts(ctx, req.Since, int(req.Limit))
	if err != nil {
		return nil, h.toStatus("failed to pull products", err)
	}
	return &syncv1.PullProductsResponse{Products: page.Products, Checkpoint: page.Checkpoint}, nil
}

func (h *SyncHandler) PushOrders(ctx context.Context, req *syncv1.PushOrdersRequest) (*syncv1.PushOrdersResponse, error) {
	terminalID := auth.GetTerminalID(ctx)
	if terminalID == "" {
		return nil, status.Error(codes.Unauthenticated, "missing terminal id")
	}

	n, err := h.uc.PushOrders(ctx, terminalID, req.Orders)
	if err != nil {
		return nil, h.toStatus("failed to push orders", err)
	}
	return &syncv1.PushOrdersResponse{Accepted: int32(n)}, nil
}

func (h *SyncHandler) UpsertProducts(ctx context.Context, req *syncv1.UpsertProductsRequest) (*syncv1.UpsertProductsResponse, error) {
	page, err := h.uc.UpsertProducts(ctx, req.Products)
	if err != nil {
		return nil, h.toStatus("failed to upsert products", err)
	}
	return &syncv1.UpsertProductsResponse{Upserted: int32(len(page.Products)), Checkpoint: page.Checkpoint}, nil
}

func (h *SyncHandler) toStatus(msg string, err error) error {
	switch {
	case errors.Is(err, backend.ErrInvalidOrder),
		errors.Is(err, backend.ErrInvalidProduct),
		errors.Is(err, backend.ErrInvalidPage):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}
	h.logger.Error(msg, zap.Error(err))
	return status.Error(codes.Internal, err.Error())
}
