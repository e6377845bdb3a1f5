package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jamscout/jamscout/internal/classify"
	"github.com/jamscout/jamscout/internal/fetch"
	"github.com/jamscout/jamscout/internal/jam"
	"github.com/jamscout/jamscout/internal/metrics"
	"github.com/jamscout/jamscout/internal/progress"
	"github.com/jamscout/jamscout/internal/scrape"
	"github.com/jamscout/jamscout/internal/store"
)

// Crawler drives discovery and collection for one configured site.
type Crawler struct {
	fetcher    Fetcher
	store      Store
	classifier *classify.Classifier
	emitter    progress.Emitter
	cfg        Config
	logger     *zap.Logger
}

// New constructs a Crawler. A nil classifier falls back to the built-in
// keyword lists, and a nil emitter disables progress reporting.
func New(
	fetcher Fetcher,
	st Store,
	classifier *classify.Classifier,
	emitter progress.Emitter,
	cfg Config,
	logger *zap.Logger,
) *Crawler {
	if classifier == nil {
		classifier = classify.New(classify.DefaultKeywords())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = jam.SiteURL
	}
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = []string{"in-progress", "upcoming"}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Crawler{
		fetcher:    fetcher,
		store:      st,
		classifier: classifier,
		emitter:    emitter,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run walks every configured listing kind and collects the jams it
// discovers. Jams already in the store are skipped unless force is set;
// their stored category survives re-collection either way. Walk failures
// degrade the run rather than aborting it, so a partial listing still
// yields a partial crawl.
func (c *Crawler) Run(ctx context.Context, force bool) (Summary, error) {
	runID := uuid.New()
	summary := Summary{RunID: runID}

	known, err := c.store.KnownIDs(ctx)
	if err != nil {
		return summary, fmt.Errorf("list known jams: %w", err)
	}

	discovered := c.discover(ctx, runID)
	summary.Discovered = len(discovered)

	pending := make([]string, 0, len(discovered))
	for _, id := range discovered {
		if _, ok := known[id]; ok && !force {
			summary.Skipped++
			c.emit(c.event(runID, progress.StageSkipped, id))
			continue
		}
		pending = append(pending, id)
	}

	summary.Crawled, summary.Failed = c.processAll(ctx, runID, pending)

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("crawl interrupted: %w", err)
	}
	return summary, nil
}

// RunIDs collects the given jams unconditionally, refreshing whatever is
// already stored for them. IDs are deduplicated, preserving order.
func (c *Crawler) RunIDs(ctx context.Context, ids []string) (Summary, error) {
	runID := uuid.New()
	summary := Summary{RunID: runID}

	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
		c.emit(c.event(runID, progress.StageDiscovered, id))
	}
	summary.Discovered = len(unique)

	summary.Crawled, summary.Failed = c.processAll(ctx, runID, unique)

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("crawl interrupted: %w", err)
	}
	return summary, nil
}

// discover walks every configured kind and returns the union of jam IDs in
// first-seen order. A kind whose walk fails contributes the IDs gathered
// before the failure.
func (c *Crawler) discover(ctx context.Context, runID uuid.UUID) []string {
	walker := NewWalker(c.fetcher, c.cfg.BaseURL, c.cfg.MaxPages, c.logger)
	seen := make(map[string]struct{})
	var ids []string

	for _, kind := range c.cfg.Kinds {
		kindIDs, err := walker.Walk(ctx, kind)
		if err != nil {
			metrics.ObserveCrawlError("walk")
			c.logger.Warn("listing walk failed",
				zap.String("kind", kind),
				zap.Int("jams", len(kindIDs)),
				zap.Error(err),
			)
		}
		for _, id := range kindIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			c.emit(c.event(runID, progress.StageDiscovered, id))
		}
	}
	return ids
}

// processAll fans the pending IDs out to a bounded worker pool and waits
// for every job to finish. Cancellation stops the feed; in-flight jobs
// still drain.
func (c *Crawler) processAll(ctx context.Context, runID uuid.UUID, ids []string) (crawled, failed int) {
	if len(ids) == 0 {
		return 0, 0
	}

	workers := c.cfg.Workers
	if workers > len(ids) {
		workers = len(ids)
	}

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				err := c.process(ctx, runID, id)
				mu.Lock()
				if err != nil {
					failed++
				} else {
					crawled++
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, id := range ids {
		select {
		case jobs <- id:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return crawled, failed
}

func (c *Crawler) process(ctx context.Context, runID uuid.UUID, id string) error {
	metrics.IncCrawlInFlight()
	defer metrics.DecCrawlInFlight()

	j, err := c.collect(ctx, id)
	if err != nil {
		kind := failureKind(err)
		metrics.ObserveCrawlError(kind)
		c.logger.Warn("jam crawl failed",
			zap.String("jam_id", id),
			zap.String("kind", kind),
			zap.Error(err),
		)
		evt := c.event(runID, progress.StageFailed, id)
		evt.Err = err.Error()
		c.emit(evt)
		return err
	}

	evt := c.event(runID, progress.StageCrawled, id)
	evt.JamName = j.Name
	evt.Category = j.Category
	c.emit(evt)
	return nil
}

// collect fetches and parses one jam page, merges it with whatever is
// already stored, and writes the result back.
func (c *Crawler) collect(ctx context.Context, id string) (*jam.Jam, error) {
	body, err := c.fetcher.Fetch(ctx, c.cfg.BaseURL+"/jam/"+id)
	if err != nil {
		return nil, fmt.Errorf("fetch jam %s: %w", id, err)
	}

	page, err := scrape.ParseJamPage(body)
	if err != nil {
		return nil, fmt.Errorf("parse jam %s: %w", id, err)
	}

	existing := jam.CategoryUnclassified
	current, err := c.store.LoadJam(ctx, id)
	switch {
	case err == nil:
		existing = current.Category
	case errors.Is(err, store.ErrNotFound):
	default:
		return nil, fmt.Errorf("load jam %s: %w", id, err)
	}

	j, err := jam.New(id, page.Name, page.Start, page.DurationDays, page.Owners)
	if err != nil {
		return nil, fmt.Errorf("assemble jam %s: %w", id, err)
	}
	j.Hashtag = page.Hashtag
	j.Description = page.Description
	j.Category = c.classifier.Classify(page.Description, page.Name, existing)

	if err := c.store.UpsertJam(ctx, j); err != nil {
		return nil, fmt.Errorf("store jam %s: %w", id, err)
	}
	return j, nil
}

func (c *Crawler) event(runID uuid.UUID, stage progress.Stage, jamID string) progress.Event {
	return progress.Event{
		RunID: progress.UUIDToBytes(runID),
		At:    time.Now().UTC(),
		Stage: stage,
		JamID: jamID,
	}
}

func (c *Crawler) emit(evt progress.Event) {
	if c.emitter == nil {
		return
	}
	c.emitter.Emit(evt)
}

// failureKind buckets a collection error for metrics and logs.
func failureKind(err error) string {
	var netErr *fetch.NetworkError
	var pageErr *scrape.MalformedPageError
	var storeErr *store.StorageError
	switch {
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &pageErr):
		return "malformed"
	case errors.As(err, &storeErr):
		return "storage"
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return "network"
	default:
		return "malformed"
	}
}
