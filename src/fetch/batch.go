package fetch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel fetches in FetchAll.
const DefaultConcurrency = 4

// Result is the outcome for one URL.
type Result struct {
	URL     string
	Content string
	Err     error
}

// FetchAll fetches every url with at most limit requests in flight. Failures
// are recorded per URL and never stop the others. Results keep input order.
func FetchAll(ctx context.Context, f Fetcher, urls []string, limit int) []Result {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]Result, len(urls))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, url := range urls {
		g.Go(func() error {
			content, err := f.Fetch(ctx, url)
			results[i] = Result{URL: url, Content: content, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
