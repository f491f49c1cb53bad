package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pagesift/pagesift/models"
)

// BatchItem is the per-URL outcome of a batch run. Exactly one of Result
// and Err is set.
type BatchItem struct {
	URL    string
	Result *models.PipelineResult
	Err    error
}

// RunBatch processes urls concurrently with at most workers in flight.
// Failures are isolated: one URL failing never cancels its siblings, and
// results come back in input order.
func (p *Pipeline) RunBatch(ctx context.Context, urls []string, workers int) []BatchItem {
	if workers < 1 {
		workers = 1
	}
	items := make([]BatchItem, len(urls))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, u := range urls {
		g.Go(func() error {
			result, err := p.Run(ctx, u)
			items[i] = BatchItem{URL: u, Result: result, Err: err}
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
		}
	}
	p.log.Info().
		Int("urls", len(urls)).
		Int("failed", failed).
		Int("workers", workers).
		Msg("batch completed")
	return items
}
