package replication

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/fekuna/omnipos-pos-terminal/internal/order"
	"github.com/fekuna/omnipos-pos-terminal/pkg/logger"
	"go.uber.org/zap"
)

// OrderPush uploads pending local orders. Orders stay pending until the sink
// acknowledges the whole batch.
type OrderPush struct {
	sink        OrderSink
	orders      order.Repository
	checkpoints CheckpointRepository
	opts        Options
	logger      logger.ZapLogger
	wake        chan struct{}
	state       *streamState
}

func NewOrderPush(
	sink OrderSink,
	orders order.Repository,
	checkpoints CheckpointRepository,
	opts Options,
	log logger.ZapLogger,
) *OrderPush {
	return &OrderPush{
		sink:        sink,
		orders:      orders,
		checkpoints: checkpoints,
		opts:        opts.withDefaults(),
		logger:      log,
		wake:        make(chan struct{}, 1),
		state:       newStreamState(model.StreamOrderPush),
	}
}

// Notify asks for a push ahead of the next poll, typically after checkout.
func (p *OrderPush) Notify() {
	signal(p.wake)
}

func (p *OrderPush) Status() StreamStatus {
	return p.state.snapshot()
}

func (p *OrderPush) Run(ctx context.Context) error {
	p.logger.Info("order push started", zap.String("stream", model.StreamOrderPush))
	defer p.logger.Info("order push stopped")
	return runLoop(ctx, p.opts, p.wake, p.cycle)
}

func (p *OrderPush) cycle(ctx context.Context) (int, error) {
	n, err := p.PushOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("order push failed", zap.Error(err))
			p.state.fail(p.opts.Now(), err)
		}
		return 0, err
	}
	return n, nil
}

// PushOnce sends up to one batch of pending orders, oldest first.
func (p *OrderPush) PushOnce(ctx context.Context) (int, error) {
	pending, err := p.orders.ListPending(ctx, p.opts.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending orders: %w", err)
	}
	if len(pending) == 0 {
		p.state.ok(p.opts.Now(), time.Time{})
		return 0, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, p.opts.CallTimeout)
	err = p.sink.PushOrders(callCtx, pending)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("push %d orders: %w", len(pending), err)
	}

	now := p.opts.Now()
	ids := make([]string, len(pending))
	for i, o := range pending {
		ids[i] = o.ID
	}
	// A failure here re-sends the batch next cycle; the sink upserts by id.
	if err := p.orders.MarkSynced(ctx, ids, now); err != nil {
		return 0, fmt.Errorf("mark %d orders synced: %w", len(ids), err)
	}

	newest := time.UnixMilli(pending[len(pending)-1].CreatedAt).UTC()
	if err := p.checkpoints.Save(ctx, model.StreamOrderPush, newest); err != nil {
		p.logger.Warn("failed to record push checkpoint", zap.Error(err))
	}

	p.state.ok(now, newest)
	p.logger.Info("orders pushed", zap.Int("orders", len(pending)))
	return len(pending), nil
}
