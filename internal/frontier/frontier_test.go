package frontier_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/scamintel/internal/domain"
	"github.com/jonesrussell/scamintel/internal/frontier"
)

func TestEnqueue_DedupSameRun(t *testing.T) {
	f := frontier.New(3, 2)

	require.NoError(t, f.Enqueue(domain.CrawlTask{URL: "https://example.com/page", Depth: 0}))

	// Equivalent spellings of the same URL are all duplicates.
	err := f.Enqueue(domain.CrawlTask{URL: "https://EXAMPLE.com/page/", Depth: 1})
	assert.ErrorIs(t, err, domain.ErrDuplicateURL)

	err = f.Enqueue(domain.CrawlTask{URL: "https://example.com:443/page#frag", Depth: 0})
	assert.ErrorIs(t, err, domain.ErrDuplicateURL)

	task, err := f.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page", task.URL)

	f.MarkDone(task.URL)

	// One VisitRecord, one dequeue: the next call observes quiescence.
	_, err = f.Dequeue()
	assert.ErrorIs(t, err, domain.ErrFrontierClosed)

	stats := f.Stats()
	assert.Equal(t, 1, stats.Enqueued)
	assert.Equal(t, 2, stats.DroppedDupes)
}

func TestEnqueue_DepthBound(t *testing.T) {
	f := frontier.New(2, 1)

	err := f.Enqueue(domain.CrawlTask{URL: "https://example.com/deep", Depth: 3})
	assert.ErrorIs(t, err, domain.ErrDepthExceeded)

	// Depth == max is still allowed.
	assert.NoError(t, f.Enqueue(domain.CrawlTask{URL: "https://example.com/edge", Depth: 2}))

	stats := f.Stats()
	assert.Equal(t, 1, stats.DroppedByDepth)
	assert.Equal(t, 1, stats.Enqueued)
}

func TestMarkFailed_RetriesThenTerminal(t *testing.T) {
	const retryLimit = 2

	f := frontier.New(1, retryLimit)
	require.NoError(t, f.Enqueue(domain.CrawlTask{URL: "https://example.com/flaky", Depth: 1}))

	// retry_limit=2 allows three attempts in total; the task is never
	// re-enqueued a fourth time.
	for attempt := 1; attempt <= 3; attempt++ {
		task, err := f.Dequeue()
		require.NoError(t, err, "attempt %d should dequeue", attempt)
		assert.Equal(t, attempt, task.Attempt)
		assert.Equal(t, 1, task.Depth, "retried task keeps its depth")

		f.MarkFailed(task.URL, errors.New("boom"))
	}

	_, err := f.Dequeue()
	assert.ErrorIs(t, err, domain.ErrFrontierClosed)

	rec, ok := f.Record("https://example.com/flaky")
	require.True(t, ok)
	assert.Equal(t, domain.VisitFailed, rec.Status)
	assert.Equal(t, 3, rec.Attempts)
	assert.Equal(t, "boom", rec.LastError)
}

func TestMarkFailedTerminal_SkipsRetries(t *testing.T) {
	f := frontier.New(1, 5)
	require.NoError(t, f.Enqueue(domain.CrawlTask{URL: "https://example.com/gone", Depth: 0}))

	task, err := f.Dequeue()
	require.NoError(t, err)

	f.MarkFailedTerminal(task.URL, errors.New("status 404"))

	_, err = f.Dequeue()
	assert.ErrorIs(t, err, domain.ErrFrontierClosed)

	rec, ok := f.Record(task.URL)
	require.True(t, ok)
	assert.Equal(t, domain.VisitFailed, rec.Status)
	assert.Equal(t, 1, rec.Attempts)
}

func TestDequeue_QuiescenceWithWorkers(t *testing.T) {
	const seeds = 5

	f := frontier.New(0, 1)
	for i := 0; i < seeds; i++ {
		require.NoError(t, f.Enqueue(domain.CrawlTask{
			URL:   "https://example.com/page" + string(rune('a'+i)),
			Depth: 0,
		}))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		processed int
	)

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				task, err := f.Dequeue()
				if errors.Is(err, domain.ErrFrontierClosed) {
					return
				}
				mu.Lock()
				processed++
				mu.Unlock()
				f.MarkDone(task.URL)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("workers did not observe quiescence")
	}

	assert.Equal(t, seeds, processed, "exactly one fetch attempt per seed")
	assert.Equal(t, seeds, f.Stats().Done)
}

func TestClose_UnblocksWaiters(t *testing.T) {
	f := frontier.New(3, 1)
	require.NoError(t, f.Enqueue(domain.CrawlTask{URL: "https://example.com/", Depth: 0}))

	// Hold the only task so a second Dequeue blocks.
	_, err := f.Dequeue()
	require.NoError(t, err)

	result := make(chan error, 1)
	go func() {
		_, dequeueErr := f.Dequeue()
		result <- dequeueErr
	}()

	time.Sleep(50 * time.Millisecond)
	f.Close()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, domain.ErrFrontierClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked Dequeue was not released by Close")
	}
}
