package directory

import (
	"context"
	"time"
)

// Delayed wraps a Source and waits Latency before every search and page.
// The wait ends early when ctx is cancelled.
type Delayed struct {
	Source  Source
	Latency time.Duration
}

// Search implements Source.
func (d Delayed) Search(ctx context.Context, device string) (Pages, Batch, error) {
	if err := sleep(ctx, d.Latency); err != nil {
		return nil, nil, err
	}
	pages, first, err := d.Source.Search(ctx, device)
	if err != nil || pages == nil {
		return pages, first, err
	}
	return delayedPages{pages: pages, latency: d.Latency}, first, nil
}

type delayedPages struct {
	pages   Pages
	latency time.Duration
}

func (p delayedPages) Next(ctx context.Context) (Batch, error) {
	if err := sleep(ctx, p.latency); err != nil {
		return nil, err
	}
	return p.pages.Next(ctx)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
