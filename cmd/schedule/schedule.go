// Package schedule implements the schedule command: run recurring crawls of
// the same seeds on a cron expression.
package schedule

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/scamintel/cmd/common"
	cmdcrawl "github.com/jonesrussell/scamintel/cmd/crawl"
	"github.com/jonesrussell/scamintel/internal/logger"
)

// Command returns the schedule command.
func Command() *cobra.Command {
	var cronExpr string

	cmd := &cobra.Command{
		Use:   "schedule <seed-url> [seed-url...]",
		Short: "Run recurring crawls on a cron schedule",
		Long: `Schedule runs the crawl repeatedly on the given cron expression, for
example "@hourly" or "0 3 * * *". Overlapping runs are skipped: if a crawl is
still in progress when the next tick fires, that tick is dropped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewDeps()
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			return run(cmd.Context(), deps, cronExpr, args)
		},
	}

	cmd.Flags().StringVar(&cronExpr, "cron", "@hourly", "cron expression for recurring runs")

	return cmd
}

func run(ctx context.Context, deps *cmdcommon.Deps, cronExpr string, seeds []string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := deps.Logger

	var running atomic.Bool

	scheduler := cron.New()
	_, err := scheduler.AddFunc(cronExpr, func() {
		if !running.CompareAndSwap(false, true) {
			log.Warn("previous crawl still running, skipping tick")
			return
		}
		defer running.Store(false)

		if crawlErr := cmdcrawl.Run(ctx, deps, seeds); crawlErr != nil {
			log.Error("scheduled crawl failed", logger.Err(crawlErr))
		}
	})
	if err != nil {
		return err
	}

	log.Info("scheduler started",
		logger.String("cron", cronExpr),
		logger.Int("seeds", len(seeds)))

	scheduler.Start()

	<-ctx.Done()

	log.Info("scheduler stopping")
	<-scheduler.Stop().Done()

	return nil
}
