package replication

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// MaxBatchSize is the largest page the sync service serves.
const MaxBatchSize = 500

type Options struct {
	BatchSize   int
	Interval    time.Duration
	BackoffMax  time.Duration
	CallTimeout time.Duration
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.BatchSize > MaxBatchSize {
		o.BatchSize = MaxBatchSize
	}
	if o.Interval <= 0 {
		o.Interval = 10 * time.Second
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = time.Minute
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 15 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func newBackOff(ceiling time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = min(500*time.Millisecond, ceiling)
	b.MaxInterval = ceiling
	return b
}

// wait blocks for d, until wake fires, or until ctx is done. A nil wake
// channel never fires.
func wait(ctx context.Context, d time.Duration, wake <-chan struct{}) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	case <-wake:
	}
	return nil
}

// signal does a non-blocking send on a buffered-by-one channel so repeated
// nudges coalesce.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// runLoop drives cycle until ctx is done. A full batch is followed
// immediately by another cycle; errors back off exponentially.
func runLoop(ctx context.Context, opts Options, wake <-chan struct{}, cycle func(context.Context) (int, error)) error {
	bo := newBackOff(opts.BackoffMax)
	for {
		n, err := cycle(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if werr := wait(ctx, bo.NextBackOff(), nil); werr != nil {
				return nil
			}
			continue
		}
		bo.Reset()
		if n >= opts.BatchSize {
			continue
		}
		if werr := wait(ctx, opts.Interval, wake); werr != nil {
			return nil
		}
	}
}
