// Package crawler runs the crawl: a fixed pool of workers pulls tasks from
// the frontier and executes the full per-task pipeline, fetch through
// persistence through link discovery. A task's failure never aborts the run;
// the crawl ends on frontier quiescence or external cancellation.
package crawler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/scamintel/internal/domain"
	"github.com/jonesrussell/scamintel/internal/extract"
	"github.com/jonesrussell/scamintel/internal/fetch"
	"github.com/jonesrussell/scamintel/internal/frontier"
	"github.com/jonesrussell/scamintel/internal/logger"
	"github.com/jonesrussell/scamintel/internal/storage"
)

// Fetcher is the HTTP fetch capability.
type Fetcher interface {
	Fetch(ctx context.Context, url, userAgent string) (*fetch.Result, error)
}

// Gatherer enriches a hostname with registration and DNS metadata.
type Gatherer interface {
	Gather(ctx context.Context, hostname string) (*domain.DomainRecord, error)
}

// Pacer enforces politeness and rotates outbound identity.
type Pacer interface {
	Acquire(ctx context.Context, host string) error
	NextIdentity() string
}

// Scorer turns a page result and optional domain record into a score.
type Scorer interface {
	Score(page domain.PageResult, rec *domain.DomainRecord) (int, []string)
}

// Config controls a crawl run.
type Config struct {
	MaxDepth   int
	MaxWorkers int
	RetryLimit int
}

// Summary reports what a finished run did.
type Summary struct {
	RunID          string
	Seeds          int
	Enqueued       int
	Done           int
	Failed         int
	Retries        int
	DroppedDupes   int
	DroppedByDepth int
	Elapsed        time.Duration
}

// Crawler owns the worker pool and is the only component with the authority
// to declare the crawl complete.
type Crawler struct {
	cfg      Config
	fetcher  Fetcher
	gatherer Gatherer
	pacer    Pacer
	scorer   Scorer
	store    storage.Store
	log      logger.Interface

	now func() time.Time
}

// New wires a crawler from its collaborators.
func New(
	cfg Config,
	fetcher Fetcher,
	gatherer Gatherer,
	pacer Pacer,
	scorer Scorer,
	store storage.Store,
	log logger.Interface,
) *Crawler {
	return &Crawler{
		cfg:      cfg,
		fetcher:  fetcher,
		gatherer: gatherer,
		pacer:    pacer,
		scorer:   scorer,
		store:    store,
		log:      log,
		now:      time.Now,
	}
}

// Run crawls from the given seeds until the frontier quiesces or ctx is
// cancelled. Cancellation closes the frontier; in-flight fetches finish or
// time out naturally rather than being aborted mid-write.
func (c *Crawler) Run(ctx context.Context, seeds []string) (*Summary, error) {
	runID := uuid.New().String()
	start := c.now()
	log := c.log.With(logger.String("run_id", runID))

	front := frontier.New(c.cfg.MaxDepth, c.cfg.RetryLimit)

	seeded := 0
	for _, seed := range seeds {
		if err := front.Enqueue(domain.CrawlTask{URL: seed, Depth: 0}); err != nil {
			log.Warn("seed rejected", logger.String("url", seed), logger.Err(err))
			continue
		}
		seeded++
	}

	// Propagate external cancellation to blocked Dequeue calls.
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			front.Close()
		case <-watchDone:
		}
	}()

	log.Info("crawl starting",
		logger.Int("seeds", seeded),
		logger.Int("workers", c.cfg.MaxWorkers),
		logger.Int("max_depth", c.cfg.MaxDepth))

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.MaxWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.worker(ctx, workerID, front, runID, log)
		}(i)
	}

	wg.Wait()
	close(watchDone)

	stats := front.Stats()
	summary := &Summary{
		RunID:          runID,
		Seeds:          seeded,
		Enqueued:       stats.Enqueued,
		Done:           stats.Done,
		Failed:         stats.Failed,
		Retries:        stats.Retries,
		DroppedDupes:   stats.DroppedDupes,
		DroppedByDepth: stats.DroppedByDepth,
		Elapsed:        c.now().Sub(start),
	}

	log.Info("crawl finished",
		logger.Int("done", summary.Done),
		logger.Int("failed", summary.Failed),
		logger.Int("retries", summary.Retries),
		logger.Duration("elapsed", summary.Elapsed))

	if ctx.Err() != nil {
		return summary, ctx.Err()
	}

	return summary, nil
}

// worker is one dequeue-process loop. It exits when the frontier reports
// closure, either from quiescence or external cancellation.
func (c *Crawler) worker(ctx context.Context, workerID int, front *frontier.Frontier, runID string, log logger.Interface) {
	wlog := log.With(logger.Int("worker_id", workerID))

	for {
		task, err := front.Dequeue()
		if errors.Is(err, domain.ErrFrontierClosed) {
			return
		}

		// Cancellation only closes the frontier. A task already dequeued
		// runs its full pipeline under the per-call timeouts, so a page
		// is never left half-persisted by an interrupt.
		c.process(context.WithoutCancel(ctx), front, task, runID, wlog)
	}
}

// process executes the full pipeline for one task. Every failure path
// reports to the frontier and returns; nothing here can take down the run.
func (c *Crawler) process(ctx context.Context, front *frontier.Frontier, task domain.CrawlTask, runID string, log logger.Interface) {
	host, err := frontier.ExtractHost(task.URL)
	if err != nil {
		front.MarkFailed(task.URL, err)
		return
	}

	if acquireErr := c.pacer.Acquire(ctx, host); acquireErr != nil {
		// Cancelled while waiting for the politeness gate.
		front.MarkFailed(task.URL, acquireErr)
		return
	}

	res, err := c.fetcher.Fetch(ctx, task.URL, c.pacer.NextIdentity())
	if err != nil {
		log.Warn("fetch failed",
			logger.String("url", task.URL),
			logger.Int("attempt", task.Attempt),
			logger.Err(err))

		if fe, ok := fetch.AsError(err); ok && !fe.Retryable() {
			front.MarkFailedTerminal(task.URL, err)
			return
		}

		front.MarkFailed(task.URL, err)
		return
	}

	// A malformed document still yields a result with empty extractions;
	// partial signal is never lost.
	result := domain.PageResult{
		URL:         task.URL,
		Domain:      host,
		FetchedAt:   c.now().UTC(),
		Extractions: domain.EmptyExtractions(),
	}

	page, parseErr := extract.ParsePage(task.URL, res.Body)
	if parseErr != nil {
		log.Warn("parse failed, persisting page with empty extractions",
			logger.String("url", task.URL), logger.Err(parseErr))
	} else {
		result.Title = page.Title
		result.Extractions = page.Extractions()
	}

	rec := c.enrich(ctx, host, log)

	scoreVal, reasons := c.scorer.Score(result, rec)
	scored := domain.ScoredResult{
		PageResult:      result,
		SuspiciousScore: scoreVal,
		ScoreReasons:    reasons,
		RunID:           runID,
	}

	if rec != nil {
		if upsertErr := c.store.UpsertDomainRecord(ctx, *rec); upsertErr != nil {
			log.Warn("domain record upsert failed",
				logger.String("domain", host), logger.Err(upsertErr))
		}
	}

	if upsertErr := c.store.UpsertPageResult(ctx, scored); upsertErr != nil {
		front.MarkFailed(task.URL, upsertErr)
		return
	}

	if parseErr == nil {
		c.discover(front, task, page.Links, log)
	}

	front.MarkDone(task.URL)
}

// enrich gathers domain intelligence. Lookup failure is non-fatal: the page
// is scored and persisted without a domain record.
func (c *Crawler) enrich(ctx context.Context, host string, log logger.Interface) *domain.DomainRecord {
	rec, err := c.gatherer.Gather(ctx, host)
	if err != nil {
		log.Warn("domain intelligence unavailable",
			logger.String("domain", host), logger.Err(err))
		return nil
	}

	return rec
}

// discover submits outbound links at depth+1. Duplicates and over-depth
// links are expected rejections, not errors.
func (c *Crawler) discover(front *frontier.Frontier, task domain.CrawlTask, links []string, log logger.Interface) {
	for _, link := range links {
		enqueueErr := front.Enqueue(domain.CrawlTask{
			URL:    link,
			Depth:  task.Depth + 1,
			Origin: task.URL,
		})
		if enqueueErr != nil &&
			!errors.Is(enqueueErr, domain.ErrDuplicateURL) &&
			!errors.Is(enqueueErr, domain.ErrDepthExceeded) &&
			!errors.Is(enqueueErr, domain.ErrFrontierClosed) {
			log.Debug("link rejected", logger.String("url", link), logger.Err(enqueueErr))
		}
	}
}
