package o3

import (
	"sync"

	"github.com/colbase/tsmerge/internal/options"
)

// PoolConfig configures RunPool's worker count.
type PoolConfig struct {
	numWorkers int
}

// PoolOption configures a PoolConfig before RunPool spawns workers.
type PoolOption = options.Option[*PoolConfig]

// WithWorkers sets the number of goroutines RunPool spawns to drain the
// ring concurrently. n <= 0 is ignored, leaving the current count (1 by
// default).
func WithWorkers(n int) PoolOption {
	return options.NoError[*PoolConfig](func(c *PoolConfig) {
		if n > 0 {
			c.numWorkers = n
		}
	})
}

// RunPool spawns a pool of workers, each running job.Run() against the
// same Ring, and blocks until every worker returns (i.e. until the ring is
// closed and fully drained). It returns the first non-nil error any worker
// produced.
//
// Each copy task is consumed by exactly one worker; the Ring itself is
// responsible for ensuring a task is handed to only one Get caller, so
// concurrent workers draining the same Ring is safe by the Ring's own
// contract.
func RunPool(job *Job, opts ...PoolOption) error {
	cfg := &PoolConfig{numWorkers: 1}
	if err := options.Apply(cfg, opts...); err != nil {
		return err
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	wg.Add(cfg.numWorkers)
	for i := 0; i < cfg.numWorkers; i++ {
		go func() {
			defer wg.Done()

			if err := job.Run(); err != nil {
				errOnce.Do(func() { firstErr = err })
			}
		}()
	}

	wg.Wait()

	return firstErr
}
