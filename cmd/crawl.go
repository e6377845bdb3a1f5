// Package cmd defines and implements the CLI commands for the jamscout executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jamscout/jamscout/internal/api"
	"github.com/jamscout/jamscout/internal/classify"
	"github.com/jamscout/jamscout/internal/config"
	"github.com/jamscout/jamscout/internal/crawl"
	"github.com/jamscout/jamscout/internal/fetch"
	"github.com/jamscout/jamscout/internal/metrics"
	"github.com/jamscout/jamscout/internal/progress"
	"github.com/jamscout/jamscout/internal/progress/sinks"
)

// newCrawlCmd creates and configures the 'crawl' subcommand.
func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [jam-id...]",
		Short: "Discover and collect jams",
		Long: `Walks the configured itch.io jam listings, collects every jam page not
yet stored, classifies it, and writes it to the database. With explicit
jam IDs the listings are skipped and exactly those jams are collected.`,

		RunE: runCrawlCommand,
	}
	cmd.Flags().Bool("force", false, "re-collect jams that are already stored")
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, args []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := appInstance.GetConfig()
	logger := appInstance.GetLogger()

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	fetcher, err := fetch.New(fetch.Config{
		UserAgent:     cfg.HTTP.UserAgent,
		Timeout:       cfg.HTTP.Timeout,
		Delay:         cfg.HTTP.Delay,
		RetryAttempts: cfg.HTTP.RetryAttempts,
		RetryBackoff:  cfg.HTTP.RetryBackoff,
	})
	if err != nil {
		return fmt.Errorf("init fetcher: %w", err)
	}

	classifier, err := buildClassifier(cfg)
	if err != nil {
		return err
	}

	metrics.Init()

	// The ops listener serves /metrics for the duration of the run. It is
	// shut down after the progress hub has flushed its final events.
	if cfg.Metrics.Enabled {
		srv := api.NewServer(cfg.Metrics.Addr, logger)
		srv.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if serr := srv.Shutdown(ctx); serr != nil {
				logger.Warn("Ops listener shutdown incomplete", zap.Error(serr))
			}
		}()
	}

	hub, err := buildProgressHub(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := hub.Close(ctx); cerr != nil {
			logger.Warn("Progress hub close incomplete", zap.Error(cerr))
		}
	}()

	engine := crawl.New(fetcher, appInstance.GetStore(), classifier, hub, crawl.Config{
		BaseURL:  cfg.HTTP.BaseURL,
		Kinds:    cfg.Crawl.Kinds,
		Workers:  cfg.Crawl.Workers,
		MaxPages: cfg.Crawl.MaxPages,
	}, logger)

	var summary crawl.Summary
	if len(args) > 0 {
		summary, err = engine.RunIDs(cmd.Context(), args)
	} else {
		summary, err = engine.Run(cmd.Context(), force)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run crawl: %w", err)
	}

	logger.Info("Crawl finished",
		zap.String("run_id", summary.RunID.String()),
		zap.Int("discovered", summary.Discovered),
		zap.Int("crawled", summary.Crawled),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return nil
}

func buildClassifier(cfg config.Config) (*classify.Classifier, error) {
	kw, err := classify.LoadKeywords(cfg.Keywords.Path)
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}
	return classify.New(kw), nil
}

func buildProgressHub(cfg config.Config, logger *zap.Logger) (*progress.Hub, error) {
	sinkList := []progress.Sink{sinks.NewLogSink(logger)}
	if cfg.Metrics.Enabled {
		promSink, err := sinks.NewPrometheusSink(nil)
		if err != nil {
			return nil, fmt.Errorf("init prometheus sink: %w", err)
		}
		sinkList = append(sinkList, promSink)
	}
	return progress.NewHub(progress.Config{
		Logger: logger,
		OnDrop: metrics.ObserveProgressDrop,
	}, sinkList...), nil
}
