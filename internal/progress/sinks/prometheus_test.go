package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/jamscout/jamscout/internal/jam"
	"github.com/jamscout/jamscout/internal/progress"
)

// TestPrometheusSinkRecordsMetrics ensures counters are incremented from events.
func TestPrometheusSinkRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := progress.UUIDToBytes(uuid.New())
	events := []progress.Event{
		{RunID: runID, At: time.Now(), Stage: progress.StageDiscovered, JamID: "summer-jam"},
		{RunID: runID, At: time.Now(), Stage: progress.StageDiscovered, JamID: "winter-jam"},
		{
			RunID:    runID,
			At:       time.Now().Add(time.Second),
			Stage:    progress.StageCrawled,
			JamID:    "summer-jam",
			JamName:  "Summer Jam",
			Category: jam.CategoryTabletop,
		},
		{RunID: runID, At: time.Now().Add(2 * time.Second), Stage: progress.StageSkipped, JamID: "winter-jam"},
		{
			RunID: runID,
			At:    time.Now().Add(3 * time.Second),
			Stage: progress.StageFailed,
			JamID: "autumn-jam",
			Err:   "fetch https://itch.io/jam/autumn-jam: status 500",
		},
	}

	for _, evt := range events {
		require.NoError(t, sink.Consume(context.Background(), evt))
	}

	require.Equal(t, 2.0, testutil.ToFloat64(sink.jamsDiscovered))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.jamsCrawled.WithLabelValues("tabletop")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.jamsCrawled.WithLabelValues("digital")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.jamsSkipped))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.jamsFailed))
	require.Equal(t, 1, testutil.CollectAndCount(sink.jamsCrawled, "jamscout_jams_crawled_total"))
}

// TestPrometheusSinkDuplicateRegistration ensures registration conflicts surface.
func TestPrometheusSinkDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "register progress collector")
}
