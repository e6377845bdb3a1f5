package crawl

import (
	"context"

	"github.com/google/uuid"

	"github.com/jamscout/jamscout/internal/jam"
)

// Fetcher retrieves one page over HTTP and returns the raw body.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Store is the subset of the jam store the crawler reads and writes through.
type Store interface {
	KnownIDs(ctx context.Context) (map[string]struct{}, error)
	LoadJam(ctx context.Context, id string) (*jam.Jam, error)
	UpsertJam(ctx context.Context, j *jam.Jam) error
}

// Config holds the settings for a crawl run.
type Config struct {
	// BaseURL is the site root listing and jam URLs are built from.
	BaseURL string
	// Kinds lists the jam listing feeds to walk, e.g. "in-progress".
	Kinds []string
	// Workers bounds the number of concurrent jam page fetches.
	Workers int
	// MaxPages caps how many listing pages a walk visits per kind.
	// Zero means walk until a page comes back empty.
	MaxPages int
}

// Summary aggregates the outcome counts of one crawl run.
type Summary struct {
	RunID      uuid.UUID
	Discovered int
	Crawled    int
	Skipped    int
	Failed     int
}
