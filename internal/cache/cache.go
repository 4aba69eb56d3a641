// Package cache holds server responses keyed by resource, shares in-flight
// requests per key and refetches observed keys after invalidation.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/xcroster/internal/notify"
	"github.com/okian/xcroster/pkg/logger"
	"github.com/okian/xcroster/pkg/metrics"
)

// Fetcher loads the value for one key.
type Fetcher func(ctx context.Context) (any, error)

// Snapshot is the observable state of one key.
type Snapshot struct {
	Key       Key
	Value     any
	Err       error
	Loading   bool
	Stale     bool
	Fetched   bool
	UpdatedAt time.Time
	// Version increases on every change to the entry.
	Version uint64
}

// Fresh reports whether the snapshot can be served without a request.
func (s Snapshot) Fresh() bool { return s.Fetched && s.Err == nil && !s.Stale }

type entry struct {
	value     any
	err       error
	fetched   bool
	stale     bool
	gen       uint64 // bumped by every invalidation
	flight    *flight
	flights   uint64
	version   uint64
	updatedAt time.Time
	fetcher   Fetcher
	observers notify.Hub[Snapshot]
}

// flight is the one request running for a key. It is set and cleared under
// Cache.mu, and while set its singleflight call is registered.
type flight struct {
	key string
	gen uint64
	fn  func() (any, error)
}

func (e *entry) fresh() bool { return e.fetched && e.err == nil && !e.stale }

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	group   singleflight.Group
	closed  bool

	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	log logger.Logger
	now func() time.Time
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	bg, cancel := context.WithCancel(context.Background())
	c := &Cache{
		entries: make(map[Key]*entry),
		bg:      bg,
		cancel:  cancel,
		log:     logger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) entryLocked(k Key) *entry {
	e, ok := c.entries[k]
	if !ok {
		e = &entry{}
		c.entries[k] = e
	}
	return e
}

func (c *Cache) snapshotLocked(k Key, e *entry) Snapshot {
	return Snapshot{
		Key:       k,
		Value:     e.value,
		Err:       e.err,
		Loading:   e.flight != nil,
		Stale:     e.stale,
		Fetched:   e.fetched,
		UpdatedAt: e.updatedAt,
		Version:   e.version,
	}
}

// changedLocked bumps the entry version and returns what to publish.
func (c *Cache) changedLocked(k Key, e *entry) (Snapshot, *notify.Hub[Snapshot]) {
	e.version++
	return c.snapshotLocked(k, e), &e.observers
}

func publish(s Snapshot, hub *notify.Hub[Snapshot]) {
	if hub == nil {
		return
	}
	hub.Publish(s.Version, s)
}

// Fetch returns the cached value for key when it is fresh. Otherwise it joins
// the request running for the key, or starts one. fetch replaces the key's
// registered fetcher when non-nil. A caller that finds a request started
// before the latest invalidation waits for it and then fetches again, so it
// never returns data older than the invalidation.
//
// Cancelling ctx returns ctx.Err() to this caller only; the shared request
// keeps running and its result is still stored.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, ErrClosed
		}
		e := c.entryLocked(key)
		if fetch != nil {
			e.fetcher = fetch
		}
		if e.fetcher == nil {
			c.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrNoFetcher, key)
		}
		if e.fresh() {
			v := e.value
			c.mu.Unlock()
			metrics.RecordCacheHit(key.Resource)
			return v, nil
		}

		var (
			snap Snapshot
			obs  *notify.Hub[Snapshot]
		)
		joined := e.flight != nil
		if !joined {
			metrics.RecordCacheMiss(key.Resource)
			c.startLocked(ctx, key, e, false)
			snap, obs = c.changedLocked(key, e)
		}
		f := e.flight
		current := f.gen == e.gen
		done := c.group.DoChan(f.key, f.fn)
		c.mu.Unlock()
		publish(snap, obs)

		select {
		case r := <-done:
			if !current {
				continue
			}
			if joined {
				metrics.RecordCacheSharedFetch(key.Resource)
			}
			if r.Err != nil {
				return nil, r.Err
			}
			return r.Val, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// startLocked starts the request for key's current generation. The caller
// holds c.mu and publishes the resulting change. Background requests log
// their failure since nobody reads the result.
func (c *Cache) startLocked(ctx context.Context, key Key, e *entry, background bool) {
	e.flights++
	gen, fetch := e.gen, e.fetcher
	f := &flight{key: fmt.Sprintf("%s#%d", key, e.flights), gen: gen}
	f.fn = func() (any, error) { return c.load(ctx, key, f, fetch) }
	e.flight = f

	done := c.group.DoChan(f.key, f.fn)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		r := <-done
		if background && r.Err != nil {
			c.log.Warn(ctx, "background refetch failed", logger.String("key", key.String()), logger.Error(r.Err))
		}
	}()
}

// load runs f once and stores the outcome. When the key was invalidated
// while f ran and is still observed, one more request is started.
func (c *Cache) load(ctx context.Context, key Key, f *flight, fetch Fetcher) (any, error) {
	fctx, stop := context.WithCancel(context.WithoutCancel(ctx))
	unhook := context.AfterFunc(c.bg, stop)
	v, err := fetch(fctx)
	unhook()
	stop()

	c.mu.Lock()
	e := c.entryLocked(key)
	if err != nil {
		e.err = err
		metrics.RecordCacheFetchError(key.Resource)
	} else {
		e.value, e.err = v, nil
	}
	e.fetched = true
	e.updatedAt = c.now()
	e.stale = f.gen != e.gen
	e.flight = nil
	if e.stale && e.observers.Len() > 0 && !c.closed {
		c.log.Debug(c.bg, "refetching invalidated key", logger.String("key", key.String()))
		c.startLocked(c.bg, key, e, true)
	}
	snap, obs := c.changedLocked(key, e)
	// Observers are called off the flight so one that fetches the same key
	// cannot wait on the call it is running inside.
	c.wg.Add(1)
	c.mu.Unlock()
	go func() {
		defer c.wg.Done()
		publish(snap, obs)
	}()

	if err != nil {
		c.log.Debug(ctx, "cache fetch failed", logger.String("key", key.String()), logger.Error(err))
	}
	return v, err
}

// Invalidate marks every entry matched by a selector stale. Observed entries
// are refetched in the background; the rest are refetched on next Fetch. An
// observed entry with a request already running gets a single refetch once
// that request finishes.
func (c *Cache) Invalidate(selectors ...Selector) {
	type change struct {
		snap Snapshot
		obs  *notify.Hub[Snapshot]
	}
	var changes []change

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	for k, e := range c.entries {
		if !matchAny(selectors, k) {
			continue
		}
		e.gen++
		e.stale = true
		metrics.RecordCacheInvalidation(k.Resource)
		if e.flight == nil && e.observers.Len() > 0 && e.fetcher != nil {
			c.log.Debug(c.bg, "refetching invalidated key", logger.String("key", k.String()))
			c.startLocked(c.bg, k, e, true)
		}
		snap, obs := c.changedLocked(k, e)
		changes = append(changes, change{snap: snap, obs: obs})
	}
	c.mu.Unlock()

	for _, ch := range changes {
		publish(ch.snap, ch.obs)
	}
}

func matchAny(selectors []Selector, k Key) bool {
	for _, s := range selectors {
		if s.Match(k) {
			return true
		}
	}
	return false
}

// Mutate runs op and, only when it succeeds, invalidates the selected keys.
// A failed op leaves the cache untouched and returns its error.
func (c *Cache) Mutate(ctx context.Context, op func(ctx context.Context) error, selectors ...Selector) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if err := op(ctx); err != nil {
		return err
	}
	c.Invalidate(selectors...)
	return nil
}

// Register sets the fetcher used for background refetches of key without
// issuing a request.
func (c *Cache) Register(key Key, fetch Fetcher) {
	if fetch == nil {
		return
	}
	c.mu.Lock()
	c.entryLocked(key).fetcher = fetch
	c.mu.Unlock()
}

// Subscribe calls fn with a snapshot on every change to key, in version
// order. Once the returned func returns no new call to fn starts, so results
// arriving after a view is torn down are discarded.
func (c *Cache) Subscribe(key Key, fn func(Snapshot)) func() {
	c.mu.Lock()
	e := c.entryLocked(key)
	c.mu.Unlock()
	return e.observers.Subscribe(fn)
}

// Peek returns the current snapshot of key without fetching.
func (c *Cache) Peek(key Key) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Snapshot{Key: key}, false
	}
	return c.snapshotLocked(key, e), true
}

// Close cancels background refetches and waits for running requests to finish.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return nil
}

// Get is a typed Fetch.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var f Fetcher
	if fetch != nil {
		f = func(ctx context.Context) (any, error) { return fetch(ctx) }
	}
	v, err := c.Fetch(ctx, key, f)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ErrType, key, v)
	}
	return t, nil
}
