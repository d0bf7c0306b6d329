// Package crawl implements the crawl command: run the full pipeline from
// one or more seed URLs until the frontier quiesces.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/scamintel/cmd/common"
	"github.com/jonesrussell/scamintel/internal/crawler"
	"github.com/jonesrussell/scamintel/internal/fetch"
	"github.com/jonesrussell/scamintel/internal/intel"
	"github.com/jonesrussell/scamintel/internal/logger"
	"github.com/jonesrussell/scamintel/internal/politeness"
	"github.com/jonesrussell/scamintel/internal/score"
	"github.com/jonesrussell/scamintel/internal/storage"
)

// connectTimeout bounds the initial MongoDB connect and ping.
const connectTimeout = 10 * time.Second

// Command returns the crawl command.
func Command() *cobra.Command {
	var (
		maxDepth   int
		maxWorkers int
	)

	cmd := &cobra.Command{
		Use:   "crawl <seed-url> [seed-url...]",
		Short: "Crawl seed URLs and store scored results",
		Long: `Crawl fetches the given seed URLs, follows discovered links up to the
configured depth, extracts fraud indicators, enriches domains with WHOIS and
DNS data, scores each page and stores the results.

Flags override the corresponding config values for this run only.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			cfg := deps.Config
			if cmd.Flags().Changed("max-depth") {
				cfg.Crawl.MaxDepth = maxDepth
			}
			if cmd.Flags().Changed("workers") {
				cfg.Crawl.MaxWorkers = maxWorkers
			}

			return Run(cmd.Context(), deps, args)
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "override crawl.max_depth")
	cmd.Flags().IntVar(&maxWorkers, "workers", 0, "override crawl.max_workers")

	return cmd
}

// Run assembles the pipeline and executes one crawl over the seeds. It
// returns nil on interrupt: a cancelled crawl still produced results.
func Run(ctx context.Context, deps *cmdcommon.Deps, seeds []string) error {
	cfg := deps.Config
	log := deps.Logger

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	store, err := storage.NewMongoStore(connectCtx, storage.Config{
		URI:           cfg.Storage.URI,
		Database:      cfg.Storage.Database,
		RetryAttempts: cfg.Storage.RetryAttempts,
		RetryBackoff:  cfg.Storage.RetryBackoff,
	}, log)
	if err != nil {
		return fmt.Errorf("connect storage: %w", err)
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), connectTimeout)
		defer disconnectCancel()
		_ = store.Disconnect(disconnectCtx)
	}()

	c := crawler.New(
		crawler.Config{
			MaxDepth:   cfg.Crawl.MaxDepth,
			MaxWorkers: cfg.Crawl.MaxWorkers,
			RetryLimit: cfg.Crawl.RetryLimit,
		},
		fetch.NewClient(cfg.Fetch.Timeout, cfg.Fetch.MaxBodyBytes),
		intel.NewGatherer(cfg.Intel.CacheTTL, cfg.Intel.LookupTimeout, log),
		politeness.NewController(cfg.Politeness.MinInterval, cfg.Politeness.MaxWait, cfg.Politeness.UserAgents, log),
		score.NewScorer(score.Config{
			RecentWindow:   cfg.Score.RecentWindow,
			EmailThreshold: cfg.Score.EmailThreshold,
			SuspiciousTXT:  cfg.Score.SuspiciousTXT,
		}),
		store,
		log,
	)

	summary, err := c.Run(ctx, seeds)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("run summary",
		logger.String("run_id", summary.RunID),
		logger.Int("seeds", summary.Seeds),
		logger.Int("pages_done", summary.Done),
		logger.Int("pages_failed", summary.Failed),
		logger.Int("duplicates_skipped", summary.DroppedDupes),
		logger.Int("depth_skipped", summary.DroppedByDepth),
		logger.Duration("elapsed", summary.Elapsed))

	return nil
}
