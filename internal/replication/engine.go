package replication

import (
	"context"

	"github.com/fekuna/omnipos-pos-terminal/internal/order"
	"golang.org/x/sync/errgroup"
)

// Runner is a background task bound to the engine's lifetime, such as the
// catalog change listener.
type Runner interface {
	Start(ctx context.Context)
}

// Engine runs Catalog Pull and Order Push side by side. Neither stream's
// failures stop the other.
type Engine struct {
	Pull    *CatalogPull
	Push    *OrderPush
	orders  order.Repository
	runners []Runner
}

func NewEngine(pull *CatalogPull, push *OrderPush, orders order.Repository, runners ...Runner) *Engine {
	return &Engine{Pull: pull, Push: push, orders: orders, runners: runners}
}

// Run blocks until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.Pull.Run(ctx) })
	g.Go(func() error { return e.Push.Run(ctx) })
	for _, r := range e.runners {
		g.Go(func() error {
			r.Start(ctx)
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) Status(ctx context.Context) (Status, error) {
	st := Status{
		Pull: e.Pull.Status(),
		Push: e.Push.Status(),
	}
	n, err := e.orders.CountPending(ctx)
	if err != nil {
		return st, err
	}
	st.PendingOrders = n
	return st, nil
}
