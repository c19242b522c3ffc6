package cache

import (
	"context"
	"time"

	"pincode-pricing/pkg/cache"
	"pincode-pricing/pkg/logger"
)

// Janitor sweeps expired cache entries on a fixed interval, independent of
// request traffic.
type Janitor struct {
	cache    cache.CacheService
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewJanitor starts the sweep loop; call Shutdown to stop it. A non-positive
// interval disables sweeping and leaves expiry to reads.
func NewJanitor(ctx context.Context, c cache.CacheService, interval time.Duration) *Janitor {
	j := &Janitor{
		cache:    c,
		interval: interval,
		done:     make(chan struct{}),
	}
	j.ctx, j.cancel = context.WithCancel(ctx)
	if interval <= 0 {
		logger.Warn().Dur("interval", interval).Msg("Cache janitor disabled")
		close(j.done)
		return j
	}
	go j.loop()
	return j
}

func (j *Janitor) loop() {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.ctx.Done():
			return
		}
	}
}

func (j *Janitor) sweep() {
	start := time.Now()
	removed := j.cache.Cleanup()
	logger.CacheSweep(removed, j.cache.Stats().Size, time.Since(start))
}

// Shutdown stops the loop and waits for an in-progress sweep to finish.
func (j *Janitor) Shutdown() {
	j.cancel()
	<-j.done
}
