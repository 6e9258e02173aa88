// Package visited serves visited-status queries through a per-session
// cache that coalesces concurrent duplicate lookups and batches store
// queries. Query failures degrade to "not visited" rather than
// propagating: the annotation pipeline must stay live even when the
// store side has been torn down.
package visited

import (
	"context"
	"sync"

	"github.com/linkmark/linkmark/pkg/model"
	"github.com/linkmark/linkmark/pkg/store"
	"github.com/linkmark/linkmark/pkg/urlnorm"
)

// pendingQuery is an in-flight store lookup. Duplicate requests attach
// to done instead of issuing their own query.
type pendingQuery struct {
	done    chan struct{}
	visited bool
}

// Checker is the client-side query layer for one document session.
// Cache entries never expire within the session; a mark-visited
// notification flips them to true directly.
type Checker struct {
	store store.Store

	mu      sync.Mutex
	cache   map[string]bool
	pending map[string]*pendingQuery
}

// NewChecker creates a checker with an empty session cache.
func NewChecker(st store.Store) *Checker {
	return &Checker{
		store:   st,
		cache:   make(map[string]bool),
		pending: make(map[string]*pendingQuery),
	}
}

// CheckOne resolves the visited status of a single URL. At most one
// store query per normalized URL is ever in flight: a concurrent request
// for the same URL awaits the first one's outcome. Store failures are
// cached as false; a cancelled context returns false without caching.
func (c *Checker) CheckOne(ctx context.Context, rawURL string) bool {
	key, err := urlnorm.Normalize(rawURL)
	if err != nil {
		return false
	}

	c.mu.Lock()
	if v, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return v
	}
	if p, ok := c.pending[key]; ok {
		c.mu.Unlock()
		select {
		case <-p.done:
			return p.visited
		case <-ctx.Done():
			return false
		}
	}
	p := &pendingQuery{done: make(chan struct{})}
	c.pending[key] = p
	c.mu.Unlock()

	visited, qerr := c.store.Has(ctx, key)
	if qerr != nil {
		visited = false
	}

	c.mu.Lock()
	delete(c.pending, key)
	if ctx.Err() == nil {
		c.cache[key] = visited
	}
	c.mu.Unlock()

	p.visited = visited
	close(p.done)
	return visited
}

// CheckMany resolves visited status for a set of URLs: the input is
// de-duplicated to distinct normalized URLs, already-cached entries are
// answered without a query, and the remainder goes to the store as one
// batched lookup. The result holds exactly one entry per distinct URL.
func (c *Checker) CheckMany(ctx context.Context, rawURLs []string) []model.LinkStatus {
	keys := make([]string, 0, len(rawURLs))
	seen := make(map[string]struct{}, len(rawURLs))
	for _, u := range rawURLs {
		key, err := urlnorm.Normalize(u)
		if err != nil {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	values := make(map[string]bool, len(keys))
	var uncached []string

	c.mu.Lock()
	for _, key := range keys {
		if v, ok := c.cache[key]; ok {
			values[key] = v
		} else {
			uncached = append(uncached, key)
		}
	}
	c.mu.Unlock()

	if len(uncached) > 0 {
		found, err := c.store.HasMany(ctx, uncached)

		c.mu.Lock()
		for _, key := range uncached {
			v := false
			if err == nil {
				v = found[key]
			}
			values[key] = v
			if ctx.Err() == nil {
				c.cache[key] = v
			}
		}
		c.mu.Unlock()
	}

	results := make([]model.LinkStatus, 0, len(keys))
	for _, key := range keys {
		results = append(results, model.LinkStatus{URL: key, Visited: values[key]})
	}
	return results
}

// MarkVisited sets the cache entry for a URL to true without a query.
// Pending queries are untouched. Idempotent.
func (c *Checker) MarkVisited(rawURL string) {
	key, err := urlnorm.Normalize(rawURL)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.cache[key] = true
	c.mu.Unlock()
}
