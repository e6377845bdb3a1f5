package crawl

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jamscout/jamscout/internal/metrics"
	"github.com/jamscout/jamscout/internal/scrape"
)

// Walker pages through one jam listing feed and accumulates jam IDs.
type Walker struct {
	fetcher  Fetcher
	baseURL  string
	maxPages int
	logger   *zap.Logger
}

// NewWalker constructs a Walker over the given fetcher. A maxPages of zero
// means the walk only stops when a listing page yields no jams.
func NewWalker(fetcher Fetcher, baseURL string, maxPages int, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		fetcher:  fetcher,
		baseURL:  baseURL,
		maxPages: maxPages,
		logger:   logger,
	}
}

// Walk visits the listing pages for kind in order until a page yields no
// jams, the page cap is reached, or the context finishes. On error it
// returns the IDs gathered so far alongside the error.
func (w *Walker) Walk(ctx context.Context, kind string) ([]string, error) {
	var ids []string
	for page := 1; w.maxPages == 0 || page <= w.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return ids, fmt.Errorf("walk %s canceled: %w", kind, err)
		}

		pageURL := fmt.Sprintf("%s/jams/%s?page=%d", w.baseURL, kind, page)
		body, err := w.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return ids, fmt.Errorf("walk %s page %d: %w", kind, page, err)
		}
		metrics.ObserveListingPage(kind)

		pageIDs, err := scrape.ParseListingPage(body)
		if err != nil {
			return ids, fmt.Errorf("walk %s page %d: %w", kind, page, err)
		}
		if len(pageIDs) == 0 {
			break
		}

		w.logger.Debug("listing page walked",
			zap.String("kind", kind),
			zap.Int("page", page),
			zap.Int("jams", len(pageIDs)),
		)
		ids = append(ids, pageIDs...)
	}
	return ids, nil
}
