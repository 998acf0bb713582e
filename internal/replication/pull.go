package replication

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fekuna/omnipos-pos-terminal/internal/model"
	"github.com/fekuna/omnipos-pos-terminal/internal/product"
	"github.com/fekuna/omnipos-pos-terminal/pkg/logger"
	"go.uber.org/zap"
)

// CatalogPull copies remote products into the local store, one page at a
// time, resuming from the persisted updated_at checkpoint.
type CatalogPull struct {
	source      CatalogSource
	products    product.Repository
	checkpoints CheckpointRepository
	opts        Options
	logger      logger.ZapLogger
	wake        chan struct{}
	state       *streamState
}

func NewCatalogPull(
	source CatalogSource,
	products product.Repository,
	checkpoints CheckpointRepository,
	opts Options,
	log logger.ZapLogger,
) *CatalogPull {
	return &CatalogPull{
		source:      source,
		products:    products,
		checkpoints: checkpoints,
		opts:        opts.withDefaults(),
		logger:      log,
		wake:        make(chan struct{}, 1),
		state:       newStreamState(model.StreamProductPull),
	}
}

// Notify asks for a pull ahead of the next poll.
func (p *CatalogPull) Notify() {
	signal(p.wake)
}

func (p *CatalogPull) Status() StreamStatus {
	return p.state.snapshot()
}

func (p *CatalogPull) Run(ctx context.Context) error {
	p.logger.Info("catalog pull started", zap.String("stream", model.StreamProductPull))
	defer p.logger.Info("catalog pull stopped")
	return runLoop(ctx, p.opts, p.wake, p.cycle)
}

func (p *CatalogPull) cycle(ctx context.Context) (int, error) {
	n, err := p.PullOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("catalog pull failed", zap.Error(err))
			p.state.fail(p.opts.Now(), err)
		}
		return 0, err
	}
	return n, nil
}

// PullOnce fetches and applies the next page. Products are written before
// the checkpoint moves, so a crash in between re-delivers the page instead of
// skipping it. An empty page leaves the checkpoint unchanged.
func (p *CatalogPull) PullOnce(ctx context.Context) (int, error) {
	since, err := p.checkpoint(ctx)
	if err != nil {
		return 0, err
	}

	callCtx, cancel := context.WithTimeout(ctx, p.opts.CallTimeout)
	page, err := p.source.PullProducts(callCtx, since, p.opts.BatchSize)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("pull products since %s: %w", since.Format("2006-01-02T15:04:05.000Z07:00"), err)
	}

	if page == nil || len(page.Products) == 0 {
		p.state.ok(p.opts.Now(), since)
		return 0, nil
	}

	docs := page.Products
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UpdatedAt.Before(docs[j].UpdatedAt)
	})

	if err := p.products.UpsertBatch(ctx, docs); err != nil {
		return 0, fmt.Errorf("apply %d products: %w", len(docs), err)
	}

	next := docs[len(docs)-1].UpdatedAt
	if err := p.checkpoints.Save(ctx, model.StreamProductPull, next); err != nil {
		return 0, fmt.Errorf("save checkpoint: %w", err)
	}

	p.state.ok(p.opts.Now(), next)
	p.logger.Debug("catalog page applied",
		zap.Int("products", len(docs)),
		zap.Time("checkpoint", next),
	)
	return len(docs), nil
}

func (p *CatalogPull) checkpoint(ctx context.Context) (time.Time, error) {
	cp, err := p.checkpoints.Load(ctx, model.StreamProductPull)
	if err != nil {
		return time.Time{}, fmt.Errorf("load checkpoint: %w", err)
	}
	if cp == nil || cp.UpdatedAt.IsZero() {
		return Epoch, nil
	}
	return cp.UpdatedAt, nil
}
