package resource

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/resourcecache/health"
	"github.com/jonwraymond/resourcecache/key"
)

// Stats is a point-in-time summary of a resource.
type Stats struct {
	Entries  int
	Outdated int
	Loading  int
	Errors   int
	Running  int // operations holding a scheduler slot
	LastErr  error
}

// Stats returns a snapshot of the resource's bookkeeping.
func (c *core[K]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{Entries: c.size()}
	count := func(st *keyState) {
		if st.outdated {
			s.Outdated++
		}
		if st.loading > 0 {
			s.Loading++
		}
		if st.err != nil {
			s.Errors++
			s.LastErr = st.err
		}
	}
	c.meta.Range(func(_ K, st *keyState) bool {
		count(st)
		return true
	})
	c.scopes.Range(func(_ key.Alias, st *keyState) bool {
		count(st)
		return true
	})
	s.Running = c.sched.running()
	return s
}

// HealthChecker reports the resource as degraded while any key's last
// fetch failed.
func (c *core[K]) HealthChecker() health.Checker {
	return health.NewCheckerFunc("resource."+c.name, func(ctx context.Context) health.Result {
		start := time.Now()
		s := c.Stats()

		var r health.Result
		if s.LastErr != nil {
			r = health.Degraded(fmt.Sprintf("%d key(s) failed to load", s.Errors)).WithError(s.LastErr)
		} else {
			r = health.Healthy("serving cached data")
		}

		return r.WithDetails(map[string]any{
			"entries":  s.Entries,
			"outdated": s.Outdated,
			"loading":  s.Loading,
			"errors":   s.Errors,
			"running":  s.Running,
		}).WithDuration(time.Since(start))
	})
}

