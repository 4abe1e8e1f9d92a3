package reconcile

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// View is one built matched-pair view with its build timestamp.
type View struct {
	Pairs []MatchedPair
	Built time.Time
}

// ViewCache collapses concurrent dashboard reads into a single reconcile
// pass and serves the result for the configured TTL.
type ViewCache struct {
	mu   sync.RWMutex
	view *View
	ttl  time.Duration
	sf   singleflight.Group
}

// NewViewCache creates a cache with the given TTL. Zero TTL disables
// caching: every Get rebuilds.
func NewViewCache(ttl time.Duration) *ViewCache {
	return &ViewCache{ttl: ttl}
}

// Get returns a fresh view, building one via the supplied function when
// the cached view is missing or expired.
func (c *ViewCache) Get(ctx context.Context, build func(ctx context.Context) ([]MatchedPair, error)) (*View, error) {
	if c.ttl > 0 {
		c.mu.RLock()
		view := c.view
		c.mu.RUnlock()
		if view != nil && time.Since(view.Built) <= c.ttl {
			return view, nil
		}
	}

	result, err, _ := c.sf.Do("view", func() (any, error) {
		if c.ttl > 0 {
			c.mu.RLock()
			view := c.view
			c.mu.RUnlock()
			if view != nil && time.Since(view.Built) <= c.ttl {
				return view, nil
			}
		}

		pairs, err := build(ctx)
		if err != nil {
			return nil, err
		}
		view := &View{Pairs: pairs, Built: time.Now()}

		c.mu.Lock()
		c.view = view
		c.mu.Unlock()
		return view, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*View), nil
}

// Invalidate drops the cached view so the next Get rebuilds. Called after
// scrapes, ignore toggles and sync runs.
func (c *ViewCache) Invalidate() {
	c.mu.Lock()
	c.view = nil
	c.mu.Unlock()
}
