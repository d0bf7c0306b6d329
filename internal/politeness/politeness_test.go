package politeness_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/scamintel/internal/logger"
	"github.com/jonesrussell/scamintel/internal/politeness"
)

func TestAcquire_SpacesGrantsPerHost(t *testing.T) {
	const interval = 20 * time.Millisecond

	c := politeness.NewController(interval, 0, nil, logger.NewNoop())
	ctx := context.Background()

	var grants []time.Time
	for i := 0; i < 4; i++ {
		require.NoError(t, c.Acquire(ctx, "example.com"))
		grants = append(grants, time.Now())
	}

	// Timers can fire marginally early, so allow a small tolerance.
	const tolerance = 2 * time.Millisecond
	for i := 1; i < len(grants); i++ {
		gap := grants[i].Sub(grants[i-1])
		assert.GreaterOrEqual(t, gap, interval-tolerance,
			"grant %d followed grant %d after only %v", i, i-1, gap)
	}
}

func TestAcquire_HostsPacedIndependently(t *testing.T) {
	c := politeness.NewController(time.Hour, 0, nil, logger.NewNoop())
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, c.Acquire(ctx, "a.example.com"))
	require.NoError(t, c.Acquire(ctx, "b.example.com"))
	require.NoError(t, c.Acquire(ctx, "c.example.com"))

	assert.Less(t, time.Since(start), time.Second)
}

func TestAcquire_ZeroIntervalNeverBlocks(t *testing.T) {
	c := politeness.NewController(0, 0, nil, logger.NewNoop())

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, c.Acquire(context.Background(), "example.com"))
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestAcquire_ContextCancelUnblocks(t *testing.T) {
	c := politeness.NewController(time.Hour, 0, nil, logger.NewNoop())
	require.NoError(t, c.Acquire(context.Background(), "example.com"))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- c.Acquire(ctx, "example.com")
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after context cancellation")
	}
}

func TestAcquire_WaitCeilingProceedsDegraded(t *testing.T) {
	c := politeness.NewController(time.Hour, 10*time.Millisecond, nil, logger.NewNoop())
	ctx := context.Background()

	require.NoError(t, c.Acquire(ctx, "example.com"))

	start := time.Now()
	require.NoError(t, c.Acquire(ctx, "example.com"))

	elapsed := time.Since(start)
	assert.Less(t, elapsed, time.Second, "second grant should have been capped at the ceiling")
}

func TestNextIdentity_RoundRobin(t *testing.T) {
	agents := []string{"ua-one", "ua-two", "ua-three"}
	c := politeness.NewController(time.Second, 0, agents, logger.NewNoop())

	got := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		got = append(got, c.NextIdentity())
	}

	assert.Equal(t, []string{
		"ua-one", "ua-two", "ua-three",
		"ua-one", "ua-two", "ua-three",
	}, got)
}

func TestNextIdentity_ConcurrentRotationIsBalanced(t *testing.T) {
	agents := []string{"ua-one", "ua-two"}
	c := politeness.NewController(time.Second, 0, agents, logger.NewNoop())

	const calls = 100

	var (
		mu     sync.Mutex
		counts = map[string]int{}
		wg     sync.WaitGroup
	)

	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ua := c.NextIdentity()
			mu.Lock()
			counts[ua]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, calls/2, counts["ua-one"])
	assert.Equal(t, calls/2, counts["ua-two"])
}

func TestNextIdentity_EmptyPool(t *testing.T) {
	c := politeness.NewController(time.Second, 0, nil, logger.NewNoop())

	assert.Empty(t, c.NextIdentity())
}
