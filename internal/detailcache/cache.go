// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package detailcache memoizes external recipe details for the life of the
// process. Concurrent requests for the same id share one provider call, and a
// batch lookup commits either every detail it fetched or none of them.
package detailcache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pdiddy/cookbook/pkg/types"
)

// Fetcher loads one external recipe detail. The provider gateway satisfies it.
type Fetcher interface {
	FetchDetail(ctx context.Context, ref types.RecipeRef) (types.ExternalDetail, error)
}

// Stats counts cache activity since construction.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Fetches   uint64 `json:"fetches"`
	Coalesced uint64 `json:"coalesced"`
	Entries   int    `json:"entries"`
}

// Cache is safe for concurrent use.
type Cache struct {
	fetcher Fetcher
	log     *slog.Logger

	mu       sync.Mutex
	entries  entryStore
	inflight map[types.RecipeRef]*flight
	stats    Stats
}

// flight is one provider call. done is closed once detail and err are set.
type flight struct {
	done    chan struct{}
	detail  types.ExternalDetail
	err     error
	waiters int
}

// New returns a cache. maxEntries > 0 bounds it with least-recently-used
// eviction; otherwise entries are never evicted.
func New(fetcher Fetcher, maxEntries int, log *slog.Logger) (*Cache, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	c := &Cache{
		fetcher:  fetcher,
		log:      log,
		inflight: make(map[types.RecipeRef]*flight),
	}
	if maxEntries > 0 {
		l, err := lru.New[types.RecipeRef, types.ExternalDetail](maxEntries)
		if err != nil {
			return nil, fmt.Errorf("creating detail cache: %w", err)
		}
		c.entries = lruStore{l}
	} else {
		c.entries = mapStore{}
	}
	return c, nil
}

// Get returns a cached detail without touching the provider.
func (c *Cache) Get(ref types.RecipeRef) (types.ExternalDetail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.get(ref)
}

// Len returns the number of cached details.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.len()
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.entries.len()
	return s
}

// GetOrFetch returns details for every ref, fetching the missing ones
// concurrently. Duplicate refs are looked up once. Local refs are rejected
// before anything is fetched.
//
// If any fetch fails the first error (in ref order) is returned and nothing
// fetched by this call is committed. An id that another call is already
// fetching is awaited rather than requested again. Fetches are detached from
// ctx so a cancelled caller does not fail the other waiters; ctx only bounds
// how long this call waits.
func (c *Cache) GetOrFetch(ctx context.Context, refs []types.RecipeRef) (map[types.RecipeRef]types.ExternalDetail, error) {
	for _, ref := range refs {
		if !ref.IsExternal() {
			return nil, fmt.Errorf("detail cache: %q is not an external recipe: %w", ref, types.ErrInvalid)
		}
	}

	out := make(map[types.RecipeRef]types.ExternalDetail, len(refs))
	var (
		order  []types.RecipeRef
		wait   = make(map[types.RecipeRef]*flight)
		owned  = make(map[types.RecipeRef]*flight)
		detach = context.WithoutCancel(ctx)
	)

	c.mu.Lock()
	for _, ref := range refs {
		if _, seen := out[ref]; seen {
			continue
		}
		if _, seen := wait[ref]; seen {
			continue
		}
		if d, ok := c.entries.get(ref); ok {
			c.stats.Hits++
			out[ref] = d
			continue
		}
		c.stats.Misses++
		order = append(order, ref)
		if f, ok := c.inflight[ref]; ok && !f.failed() {
			c.stats.Coalesced++
			f.waiters++
			wait[ref] = f
			continue
		}
		f := &flight{done: make(chan struct{})}
		c.inflight[ref] = f
		c.stats.Fetches++
		wait[ref] = f
		owned[ref] = f
		go c.fetch(detach, ref, f)
	}
	c.mu.Unlock()

	if len(order) == 0 {
		return out, nil
	}

	var firstErr error
	for _, ref := range order {
		f := wait[ref]
		select {
		case <-f.done:
		case <-ctx.Done():
			c.release(owned)
			return nil, ctx.Err()
		}
		if f.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("fetching detail %s: %w", ref, f.err)
		}
	}

	if firstErr != nil {
		c.release(owned)
		c.log.Debug("detail batch aborted", slog.Int("refs", len(order)), slog.Any("error", firstErr))
		return nil, firstErr
	}

	c.mu.Lock()
	for _, ref := range order {
		f := wait[ref]
		c.entries.add(ref, f.detail)
		out[ref] = f.detail
		if owned[ref] != nil {
			c.forget(ref, f)
		}
	}
	c.mu.Unlock()

	return out, nil
}

func (c *Cache) fetch(ctx context.Context, ref types.RecipeRef, f *flight) {
	f.detail, f.err = c.fetcher.FetchDetail(ctx, ref)
	if f.err == nil {
		f.detail.ID = ref
	}
	c.log.Debug("fetched detail", slog.String("id", ref.String()), slog.Bool("ok", f.err == nil))
	close(f.done)
}

// release drops an aborted batch's flights from the in-flight table. Flights
// still running stay joinable until they finish.
func (c *Cache) release(owned map[types.RecipeRef]*flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ref, f := range owned {
		select {
		case <-f.done:
			c.forget(ref, f)
		default:
			go func() {
				<-f.done
				c.mu.Lock()
				c.forget(ref, f)
				c.mu.Unlock()
			}()
		}
	}
}

// forget removes f from the in-flight table. c.mu must be held.
func (c *Cache) forget(ref types.RecipeRef, f *flight) {
	if c.inflight[ref] == f {
		delete(c.inflight, ref)
	}
}

// failed reports whether the flight finished with an error.
func (f *flight) failed() bool {
	select {
	case <-f.done:
		return f.err != nil
	default:
		return false
	}
}

// waiting reports how many callers joined the flight for ref.
func (c *Cache) waiting(ref types.RecipeRef) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.inflight[ref]; ok {
		return f.waiters
	}
	return 0
}

type entryStore interface {
	get(types.RecipeRef) (types.ExternalDetail, bool)
	add(types.RecipeRef, types.ExternalDetail)
	len() int
}

type mapStore map[types.RecipeRef]types.ExternalDetail

func (m mapStore) get(ref types.RecipeRef) (types.ExternalDetail, bool) {
	d, ok := m[ref]
	return d, ok
}

func (m mapStore) add(ref types.RecipeRef, d types.ExternalDetail) { m[ref] = d }

func (m mapStore) len() int { return len(m) }

type lruStore struct {
	l *lru.Cache[types.RecipeRef, types.ExternalDetail]
}

func (s lruStore) get(ref types.RecipeRef) (types.ExternalDetail, bool) { return s.l.Get(ref) }

func (s lruStore) add(ref types.RecipeRef, d types.ExternalDetail) { s.l.Add(ref, d) }

func (s lruStore) len() int { return s.l.Len() }
