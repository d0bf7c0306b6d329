package frontier

import (
	"fmt"
	"sync"

	"github.com/jonesrussell/scamintel/internal/domain"
)

// Stats summarizes a run's frontier activity.
type Stats struct {
	Enqueued       int
	Done           int
	Failed         int
	DroppedDupes   int
	DroppedByDepth int
	Retries        int
}

// entry pairs a task with its visit record so a failed task can be
// re-enqueued with its original depth.
type entry struct {
	task   domain.CrawlTask
	record *domain.VisitRecord
}

// Frontier is the dedup store and work queue for one crawl run. All access
// is synchronized internally; its public methods are the only legal access
// path to visit state.
type Frontier struct {
	mu   sync.Mutex
	cond *sync.Cond

	queue      []domain.CrawlTask
	entries    map[string]*entry
	inProgress int
	closed     bool

	maxDepth   int
	retryLimit int
	stats      Stats
}

// New creates a frontier enforcing the given depth bound and retry limit.
// retryLimit is the number of retries after the initial attempt.
func New(maxDepth, retryLimit int) *Frontier {
	f := &Frontier{
		entries:    make(map[string]*entry),
		maxDepth:   maxDepth,
		retryLimit: retryLimit,
	}
	f.cond = sync.NewCond(&f.mu)

	return f
}

// Enqueue normalizes the task's URL and makes it available for Dequeue.
// Duplicate URLs and tasks beyond the depth bound are rejected with
// domain.ErrDuplicateURL and domain.ErrDepthExceeded respectively; both are
// expected outcomes during link discovery, not faults.
func (f *Frontier) Enqueue(task domain.CrawlTask) error {
	normalized, err := NormalizeURL(task.URL)
	if err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	task.URL = normalized

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return domain.ErrFrontierClosed
	}
	if task.Depth > f.maxDepth {
		f.stats.DroppedByDepth++
		return domain.ErrDepthExceeded
	}
	if _, seen := f.entries[normalized]; seen {
		f.stats.DroppedDupes++
		return domain.ErrDuplicateURL
	}

	f.entries[normalized] = &entry{
		task:   task,
		record: &domain.VisitRecord{URL: normalized, Status: domain.VisitPending},
	}
	f.queue = append(f.queue, task)
	f.stats.Enqueued++
	f.cond.Signal()

	return nil
}

// Dequeue blocks until a task is available, then returns it and transitions
// its record to in_progress. It returns domain.ErrFrontierClosed when the
// frontier has been closed externally or has quiesced: empty queue and no
// task in progress.
func (f *Frontier) Dequeue() (domain.CrawlTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if f.closed {
			return domain.CrawlTask{}, domain.ErrFrontierClosed
		}

		if len(f.queue) > 0 {
			task := f.queue[0]
			f.queue = f.queue[1:]

			ent := f.entries[task.URL]
			ent.record.Status = domain.VisitInProgress
			ent.record.Attempts++
			task.Attempt = ent.record.Attempts
			f.inProgress++

			return task, nil
		}

		if f.inProgress == 0 {
			// Quiescence: nothing queued, nobody working. Wake every
			// blocked worker so they all observe closure.
			f.closed = true
			f.cond.Broadcast()

			return domain.CrawlTask{}, domain.ErrFrontierClosed
		}

		f.cond.Wait()
	}
}

// MarkDone records a terminal successful visit.
func (f *Frontier) MarkDone(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ent, ok := f.entries[url]
	if !ok || ent.record.Status != domain.VisitInProgress {
		return
	}

	ent.record.Status = domain.VisitDone
	f.inProgress--
	f.stats.Done++
	f.cond.Broadcast()
}

// MarkFailed records a failed attempt. While the attempt count is within the
// retry limit the task is re-enqueued at its original depth; otherwise the
// record transitions to its terminal failed state.
func (f *Frontier) MarkFailed(url string, cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ent, ok := f.entries[url]
	if !ok || ent.record.Status != domain.VisitInProgress {
		return
	}

	f.inProgress--
	if cause != nil {
		ent.record.LastError = cause.Error()
	}

	if ent.record.Attempts <= f.retryLimit && !f.closed {
		ent.record.Status = domain.VisitPending
		f.queue = append(f.queue, ent.task)
		f.stats.Retries++
	} else {
		ent.record.Status = domain.VisitFailed
		f.stats.Failed++
	}

	f.cond.Broadcast()
}

// MarkFailedTerminal records a failure that retrying cannot fix (for
// example a 404). The record goes straight to failed regardless of the
// retry budget.
func (f *Frontier) MarkFailedTerminal(url string, cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ent, ok := f.entries[url]
	if !ok || ent.record.Status != domain.VisitInProgress {
		return
	}

	f.inProgress--
	if cause != nil {
		ent.record.LastError = cause.Error()
	}
	ent.record.Status = domain.VisitFailed
	f.stats.Failed++
	f.cond.Broadcast()
}

// Close makes all current and future Dequeue calls return
// domain.ErrFrontierClosed. Used for external cancellation.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.cond.Broadcast()
}

// Record returns a copy of the visit record for a normalized URL.
func (f *Frontier) Record(url string) (domain.VisitRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ent, ok := f.entries[url]
	if !ok {
		return domain.VisitRecord{}, false
	}

	return *ent.record, true
}

// Stats returns a snapshot of the run counters.
func (f *Frontier) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.stats
}
