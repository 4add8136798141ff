// Package cache decides when a category needs refetching and keeps the
// persisted story lists up to date.
//
// The UI only ever calls GetStories, IsOutdated and Refresh. Read problems
// are logged and treated as an empty or outdated cache; only fetch failures
// reach the caller.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/abelbrown/hnterm/internal/logging"
	"github.com/abelbrown/hnterm/internal/metrics"
	"github.com/abelbrown/hnterm/internal/otel"
	"github.com/abelbrown/hnterm/internal/store"
)

// maxConcurrentRefreshes limits RefreshAll fan-out.
const maxConcurrentRefreshes = 3

// aggregator interface for dependency injection (testing).
type aggregator interface {
	CategoryStories(ctx context.Context, cat store.Category, extraPages int) ([]store.Story, error)
}

// backend is the subset of store.Store the cache needs.
type backend interface {
	Load(cat store.Category) (store.Entry, bool, error)
	Put(e store.Entry) error
}

// Cache serves story lists from the store and refreshes them on demand.
type Cache struct {
	store      backend
	agg        aggregator
	maxAge     time.Duration
	extraPages int
	logger     *otel.Logger
	now        func() time.Time

	// writeMu serializes every write regardless of category.
	writeMu sync.Mutex
	// inflight collapses concurrent refreshes of one category.
	inflight singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger attaches an event logger.
func WithLogger(l *otel.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithClock replaces time.Now for staleness checks and fetch timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache. Entries older than maxAge are outdated; each refresh
// fetches the first page plus extraPages more.
func New(s backend, agg aggregator, maxAge time.Duration, extraPages int, opts ...Option) *Cache {
	c := &Cache{
		store:      s,
		agg:        agg,
		maxAge:     maxAge,
		extraPages: extraPages,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsOutdated reports whether cat should be refetched: nothing is stored,
// the stored entry is older than maxAge, or the entry cannot be read.
func (c *Cache) IsOutdated(cat store.Category) bool {
	entry, ok, err := c.store.Load(cat)
	if err != nil {
		c.readFailed(cat, err)
		return true
	}
	if !ok {
		metrics.CacheReads.WithLabelValues("miss").Inc()
		return true
	}

	age := entry.Age(c.now())
	if age > c.maxAge {
		metrics.CacheReads.WithLabelValues("stale").Inc()
		c.logger.Emit(otel.Event{
			Level:    otel.LevelDebug,
			Kind:     otel.KindCacheStale,
			Comp:     "cache",
			Category: string(cat),
			Dur:      age,
		})
		return true
	}

	metrics.CacheReads.WithLabelValues("hit").Inc()
	c.logger.Emit(otel.Event{
		Level:    otel.LevelDebug,
		Kind:     otel.KindCacheHit,
		Comp:     "cache",
		Category: string(cat),
		Count:    len(entry.Stories),
		Dur:      age,
	})
	return false
}

// GetStories returns the cached stories of cat, or nil when nothing usable
// is stored.
func (c *Cache) GetStories(cat store.Category) []store.Story {
	entry, ok, err := c.store.Load(cat)
	if err != nil {
		c.readFailed(cat, err)
		return nil
	}
	if !ok {
		return nil
	}
	return entry.Stories
}

// FetchedAt returns when cat was last refreshed.
func (c *Cache) FetchedAt(cat store.Category) (time.Time, bool) {
	entry, ok, err := c.store.Load(cat)
	if err != nil || !ok {
		return time.Time{}, false
	}
	return entry.FetchedAt, true
}

// Refresh refetches cat and replaces its stored entry. Other categories are
// never touched. On any failure, including ctx cancellation, nothing is
// written and the previous entry stays in place.
//
// Concurrent calls for the same category share one fetch. A caller whose
// ctx ends first stops waiting; the shared fetch keeps the leader's ctx.
func (c *Cache) Refresh(ctx context.Context, cat store.Category) error {
	ch := c.inflight.DoChan(string(cat), func() (interface{}, error) {
		return nil, c.refresh(ctx, cat)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (c *Cache) refresh(ctx context.Context, cat store.Category) error {
	rid := uuid.NewString()
	start := time.Now()

	c.logger.Emit(otel.Event{
		Level:     otel.LevelInfo,
		Kind:      otel.KindRefreshStart,
		Comp:      "cache",
		RefreshID: rid,
		Category:  string(cat),
	})

	stories, err := c.agg.CategoryStories(ctx, cat, c.extraPages)
	if err == nil {
		err = c.write(ctx, cat, stories)
	}

	elapsed := time.Since(start)
	metrics.RefreshDuration.WithLabelValues(string(cat)).Observe(elapsed.Seconds())

	if err != nil {
		metrics.RefreshesTotal.WithLabelValues(string(cat), "error").Inc()
		logging.Warn("refresh failed", "category", cat, "rid", rid, "err", err)
		c.logger.Emit(otel.Event{
			Level:     otel.LevelWarn,
			Kind:      otel.KindRefreshError,
			Comp:      "cache",
			RefreshID: rid,
			Category:  string(cat),
			Dur:       elapsed,
			Err:       err.Error(),
		})
		return err
	}

	metrics.RefreshesTotal.WithLabelValues(string(cat), "ok").Inc()
	logging.Info("refreshed", "category", cat, "stories", len(stories), "took", elapsed)
	c.logger.Emit(otel.Event{
		Level:     otel.LevelInfo,
		Kind:      otel.KindRefreshComplete,
		Comp:      "cache",
		RefreshID: rid,
		Category:  string(cat),
		Count:     len(stories),
		Dur:       elapsed,
	})
	return nil
}

// write stores the new entry for cat under writeMu. A ctx that ended while
// fetching or waiting for the lock aborts the write.
func (c *Cache) write(ctx context.Context, cat store.Category, stories []store.Story) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.store.Put(store.Entry{Category: cat, Stories: stories, FetchedAt: c.now()}); err != nil {
		return fmt.Errorf("save %s: %w", cat, err)
	}
	return nil
}

// RefreshAll refreshes each category concurrently. Every category is
// attempted; the failures are returned joined.
func (c *Cache) RefreshAll(ctx context.Context, cats []store.Category) error {
	errs := make([]error, len(cats))

	var g errgroup.Group
	g.SetLimit(maxConcurrentRefreshes)
	for i, cat := range cats {
		g.Go(func() error {
			if err := c.Refresh(ctx, cat); err != nil {
				errs[i] = fmt.Errorf("%s: %w", cat, err)
			}
			return nil
		})
	}
	g.Wait()

	return errors.Join(errs...)
}

func (c *Cache) readFailed(cat store.Category, err error) {
	metrics.CacheReads.WithLabelValues("error").Inc()
	logging.Warn("cache read failed", "category", cat, "err", err)
	c.logger.Emit(otel.Event{
		Level:    otel.LevelWarn,
		Kind:     otel.KindStoreError,
		Comp:     "cache",
		Category: string(cat),
		Err:      err.Error(),
	})
}
