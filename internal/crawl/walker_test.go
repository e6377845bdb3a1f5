package crawl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamscout/jamscout/internal/metrics"
)

func TestWalkPagesUntilEmpty(t *testing.T) {
	t.Parallel()
	metrics.Init()

	fetcher := newFakeFetcher()
	fetcher.bodies["https://itch.io/jams/in-progress?page=1"] = listingHTML("summer-jam", "autumn-jam")
	fetcher.bodies["https://itch.io/jams/in-progress?page=2"] = listingHTML("winter-jam")
	fetcher.bodies["https://itch.io/jams/in-progress?page=3"] = listingHTML()

	w := NewWalker(fetcher, "https://itch.io", 0, nil)
	ids, err := w.Walk(context.Background(), "in-progress")
	require.NoError(t, err)
	require.Equal(t, []string{"summer-jam", "autumn-jam", "winter-jam"}, ids)
	require.Equal(t, 1, fetcher.fetchCount("https://itch.io/jams/in-progress?page=3"))
	require.Equal(t, 0, fetcher.fetchCount("https://itch.io/jams/in-progress?page=4"))
}

func TestWalkRespectsMaxPages(t *testing.T) {
	t.Parallel()
	metrics.Init()

	fetcher := newFakeFetcher()
	fetcher.bodies["https://itch.io/jams/upcoming?page=1"] = listingHTML("summer-jam")

	w := NewWalker(fetcher, "https://itch.io", 1, nil)
	ids, err := w.Walk(context.Background(), "upcoming")
	require.NoError(t, err)
	require.Equal(t, []string{"summer-jam"}, ids)
	require.Equal(t, 0, fetcher.fetchCount("https://itch.io/jams/upcoming?page=2"))
}

func TestWalkReturnsPartialOnError(t *testing.T) {
	t.Parallel()
	metrics.Init()

	fetcher := newFakeFetcher()
	fetcher.bodies["https://itch.io/jams/in-progress?page=1"] = listingHTML("summer-jam")
	fetcher.errs["https://itch.io/jams/in-progress?page=2"] = errors.New("connection reset")

	w := NewWalker(fetcher, "https://itch.io", 0, nil)
	ids, err := w.Walk(context.Background(), "in-progress")
	require.Error(t, err)
	require.Contains(t, err.Error(), "walk in-progress page 2")
	require.Equal(t, []string{"summer-jam"}, ids)
}

func TestWalkCanceledContext(t *testing.T) {
	t.Parallel()
	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWalker(newFakeFetcher(), "https://itch.io", 0, nil)
	ids, err := w.Walk(ctx, "in-progress")
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, ids)
}
