package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jamscout/jamscout/internal/progress"
)

// PrometheusSink exports per-jam crawl outcomes. It owns the collectors for
// discovered, crawled, skipped, and failed jams.
type PrometheusSink struct {
	jamsDiscovered prometheus.Counter
	jamsCrawled    *prometheus.CounterVec
	jamsSkipped    prometheus.Counter
	jamsFailed     prometheus.Counter
}

// NewPrometheusSink registers the sink's collectors against the provided
// registry. A nil registry falls back to the default registerer.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	s := &PrometheusSink{
		jamsDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jamscout_jams_discovered_total",
			Help: "Total jam IDs yielded by listing walks.",
		}),
		jamsCrawled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jamscout_jams_crawled_total",
			Help: "Total jams fetched and stored, partitioned by category.",
		}, []string{"category"}),
		jamsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jamscout_jams_skipped_total",
			Help: "Total known jams left untouched by incremental runs.",
		}),
		jamsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jamscout_jams_failed_total",
			Help: "Total jams whose fetch, parse, or store failed.",
		}),
	}

	for _, collector := range []prometheus.Collector{
		s.jamsDiscovered,
		s.jamsCrawled,
		s.jamsSkipped,
		s.jamsFailed,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}

	return s, nil
}

// Consume updates the collectors from one event. It is safe for concurrent
// use because the underlying collectors are.
func (s *PrometheusSink) Consume(_ context.Context, evt progress.Event) error {
	switch evt.Stage {
	case progress.StageDiscovered:
		s.jamsDiscovered.Inc()
	case progress.StageCrawled:
		s.jamsCrawled.WithLabelValues(evt.Category.String()).Inc()
	case progress.StageSkipped:
		s.jamsSkipped.Inc()
	case progress.StageFailed:
		s.jamsFailed.Inc()
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
