// Package politeness paces outbound requests per host and rotates the
// crawler's outbound identity.
package politeness

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/scamintel/internal/logger"
)

// Controller enforces a minimum interval between requests to the same host
// and hands out user-agent strings round-robin. It is safe for concurrent
// use by all workers.
type Controller struct {
	minInterval time.Duration
	maxWait     time.Duration
	userAgents  []string
	log         logger.Interface

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	uaCursor atomic.Uint64
}

// NewController builds a controller. maxWait caps how long Acquire may block
// before proceeding anyway; zero disables the cap.
func NewController(minInterval, maxWait time.Duration, userAgents []string, log logger.Interface) *Controller {
	return &Controller{
		minInterval: minInterval,
		maxWait:     maxWait,
		userAgents:  userAgents,
		log:         log,
		limiters:    make(map[string]*rate.Limiter),
	}
}

// Acquire blocks until at least the configured minimum interval has elapsed
// since the last grant for host, or until ctx is cancelled. If the wait would
// exceed the ceiling, Acquire proceeds after the ceiling and logs a
// degraded-politeness event instead of stalling the worker indefinitely.
func (c *Controller) Acquire(ctx context.Context, host string) error {
	if c.minInterval <= 0 {
		return ctx.Err()
	}

	limiter := c.limiterFor(host)
	res := limiter.Reserve()
	delay := res.Delay()

	if c.maxWait > 0 && delay > c.maxWait {
		c.log.Warn("politeness wait ceiling exceeded, proceeding degraded",
			logger.String("host", host),
			logger.Duration("wanted", delay),
			logger.Duration("ceiling", c.maxWait))
		delay = c.maxWait
	}

	if delay == 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	}
}

// NextIdentity returns the next user-agent string from the pool, round-robin.
// Selection is deterministic so tests can predict rotation.
func (c *Controller) NextIdentity() string {
	if len(c.userAgents) == 0 {
		return ""
	}

	n := c.uaCursor.Add(1) - 1

	return c.userAgents[n%uint64(len(c.userAgents))]
}

// limiterFor returns the per-host limiter, creating it on first use. Burst 1
// means grants for one host can never be closer than the minimum interval.
func (c *Controller) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(c.minInterval), 1)
		c.limiters[host] = limiter
	}

	return limiter
}
