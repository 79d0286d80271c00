// Package querycache is a keyed, versioned store of server query results.
// Entries go stale after a configurable window, refetch in the background
// while they are observed, and are garbage-collected once nobody has used
// them for the GC window.
package querycache

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bassista/go_quill/internal/logger"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ErrNoFetcher is returned when a key is fetched before any fetcher was
// registered for it.
var ErrNoFetcher = errors.New("querycache: no fetcher registered for key")

type Status int

const (
	StatusPending Status = iota
	StatusFresh
	StatusStale
)

func (s Status) String() string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusStale:
		return "stale"
	default:
		return "pending"
	}
}

// FetchFunc loads the authoritative value of one key.
type FetchFunc func(ctx context.Context) (any, error)

// Updater transforms the cached value of a key. It runs under the cache lock:
// it must be pure and must not call back into the cache. Returning ok=false
// leaves the entry untouched.
type Updater func(current any, exists bool) (next any, ok bool)

// Result is what observers see for a key.
type Result struct {
	Data    any
	Status  Status
	Version uint64
	Err     error
}

// Snapshot is the captured state of one key, used to undo optimistic writes.
type Snapshot struct {
	Key       Key
	Data      any
	Exists    bool
	Version   uint64
	UpdatedAt time.Time
}

type Options struct {
	StaleTime     time.Duration
	GCTime        time.Duration
	SweepInterval time.Duration
	Metrics       *Metrics
	Now           func() time.Time
}

type entry struct {
	key         Key
	data        any
	hasData     bool
	version     uint64
	updatedAt   time.Time
	invalidated bool
	fetchGen    uint64
	fetching    int
	fetcher     FetchFunc
	err         error
	subs        map[uint64]func(Result)
	lastUsed    time.Time

	// While layers are pending, base holds the last server-confirmed value
	// and data is base with every layer applied in order.
	base       any
	baseExists bool
	layers     []layer
}

type layer struct {
	owner   uint64
	updater Updater
}

type note struct {
	fn  func(Result)
	res Result
}

// Cache is safe for concurrent use. Every state transition happens under a
// single mutex; subscriber callbacks run after it is released.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	clock   uint64
	subSeq  uint64
	baseCtx context.Context
	closed  bool

	opts  Options
	group singleflight.Group
	wg    sync.WaitGroup
	log   *logrus.Entry
}

func New(opts Options) *Cache {
	if opts.StaleTime < 0 {
		opts.StaleTime = 0
	}
	if opts.GCTime <= 0 {
		opts.GCTime = 10 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		entries: make(map[string]*entry),
		baseCtx: context.Background(),
		opts:    opts,
		log:     logger.WithComponent("querycache"),
	}
}

// Read returns whatever is cached for key and schedules a background fetch
// when the entry is missing or stale. fetch becomes the key's fetcher for
// later invalidations.
func (c *Cache) Read(key Key, fetch FetchFunc) Result {
	now := c.opts.Now()

	c.mu.Lock()
	e := c.entryLocked(key, now)
	if fetch != nil {
		e.fetcher = fetch
	}
	c.expireLocked(e, now)
	e.lastUsed = now
	res := c.resultLocked(e, now)
	refetch := res.Status != StatusFresh && e.fetcher != nil
	c.mu.Unlock()

	if res.Status == StatusFresh {
		c.opts.Metrics.hit()
	} else {
		c.opts.Metrics.miss()
	}
	if refetch {
		c.background(key)
	}
	return res
}

// Fetch returns fresh cached data or blocks on a fetch. Concurrent fetches of
// the same key share one call.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch FetchFunc) (any, error) {
	now := c.opts.Now()

	c.mu.Lock()
	e := c.entryLocked(key, now)
	if fetch != nil {
		e.fetcher = fetch
	}
	c.expireLocked(e, now)
	e.lastUsed = now
	if e.hasData && !c.staleLocked(e, now) {
		data := e.data
		c.mu.Unlock()
		c.opts.Metrics.hit()
		return data, nil
	}
	c.mu.Unlock()

	c.opts.Metrics.miss()
	return c.fetch(ctx, key)
}

// Peek returns the cached result without registering a use or fetching.
func (c *Cache) Peek(key Key) (Result, bool) {
	now := c.opts.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok || !e.hasData {
		return Result{}, false
	}
	return c.resultLocked(e, now), true
}

// Version is the current version of key; zero when the key is absent.
func (c *Cache) Version(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key.String()]; ok {
		return e.version
	}
	return 0
}

// Write applies updater to key and returns the new version. When the updater
// declines, the entry and its version are unchanged and ok is false.
func (c *Cache) Write(key Key, updater Updater) (version uint64, ok bool) {
	_, version, ok = c.Apply(key, updater)
	return version, ok
}

// Apply is Write that also returns the state the entry had, captured in the
// same critical section as the write. On an entry with pending layers the
// updater transforms the confirmed base and the layers are replayed on top.
func (c *Cache) Apply(key Key, updater Updater) (before Snapshot, version uint64, ok bool) {
	now := c.opts.Now()

	c.mu.Lock()
	e, found := c.entries[key.String()]
	before = Snapshot{Key: key.clone()}
	if found {
		before.Data = e.data
		before.Exists = e.hasData
		before.Version = e.version
		before.UpdatedAt = e.updatedAt
	} else {
		e = &entry{key: key.clone(), lastUsed: now}
	}
	if !c.writeLocked(e, updater, now) {
		c.mu.Unlock()
		return before, before.Version, false
	}
	if !found {
		c.entries[key.String()] = e
	}
	version = e.version
	notes := c.notesLocked(e, now)
	c.mu.Unlock()

	deliver(notes)
	return before, version, true
}

// Push applies updater to key as an optimistic layer owned by owner. The
// entry keeps its confirmed value aside until every layer is popped, so
// later server values are shown with the pending layers replayed on top.
// A declining updater pushes nothing.
func (c *Cache) Push(key Key, owner uint64, updater Updater) (version uint64, ok bool) {
	now := c.opts.Now()

	c.mu.Lock()
	e, found := c.entries[key.String()]
	var data any
	var exists bool
	if found {
		data, exists = e.data, e.hasData
	}
	next, write := updater(data, exists)
	if !write {
		c.mu.Unlock()
		return 0, false
	}
	if !found {
		e = c.entryLocked(key, now)
	}
	if len(e.layers) == 0 {
		e.base, e.baseExists = e.data, e.hasData
	}
	e.layers = append(e.layers, layer{owner: owner, updater: updater})
	c.setLocked(e, next, now)
	version = e.version
	notes := c.notesLocked(e, now)
	c.mu.Unlock()

	deliver(notes)
	return version, true
}

// Pop removes the layers of owner from key and rebuilds the entry from its
// confirmed value and the layers still pending. With confirm the popped
// layers are folded into the confirmed value first, as the server accepted
// them. It returns how many layers of other owners remain.
func (c *Cache) Pop(key Key, owner uint64, confirm bool) (remaining int, ok bool) {
	now := c.opts.Now()

	c.mu.Lock()
	e, found := c.entries[key.String()]
	if !found || len(e.layers) == 0 {
		c.mu.Unlock()
		return 0, false
	}
	kept := e.layers[:0:0]
	for _, l := range e.layers {
		if l.owner != owner {
			kept = append(kept, l)
			continue
		}
		ok = true
		if !confirm {
			continue
		}
		if next, accepted := l.updater(e.base, e.baseExists); accepted {
			e.base, e.baseExists = next, true
		}
	}
	if !ok {
		c.mu.Unlock()
		return len(e.layers), false
	}
	e.layers = kept
	c.rebuildLocked(e)
	if len(kept) == 0 {
		e.base, e.baseExists = nil, false
	}
	notes := c.notesLocked(e, now)
	c.mu.Unlock()

	deliver(notes)
	return len(kept), true
}

// Keys lists the cached keys with data in the families of filters, sorted by
// their canonical form.
func (c *Cache) Keys(filters ...Key) []Key {
	if len(filters) == 0 {
		filters = []Key{{}}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Key
	for _, e := range c.entries {
		if e.hasData && matchesAny(e.key, filters) {
			out = append(out, e.key.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// WriteMatching applies updater to every cached key in the family of filter
// and returns how many entries changed.
func (c *Cache) WriteMatching(filter Key, updater Updater) int {
	now := c.opts.Now()

	c.mu.Lock()
	var notes []note
	n := 0
	for _, e := range c.entries {
		if !e.hasData || !e.key.Matches(filter) {
			continue
		}
		if !c.writeLocked(e, updater, now) {
			continue
		}
		notes = append(notes, c.notesLocked(e, now)...)
		n++
	}
	c.mu.Unlock()

	deliver(notes)
	return n
}

// Invalidate marks every matching entry stale. Observed entries refetch in
// the background; concurrent refetches of one key are coalesced, so repeated
// invalidation converges to the same state as a single one. No filter means
// every entry.
func (c *Cache) Invalidate(filters ...Key) int {
	if len(filters) == 0 {
		filters = []Key{{}}
	}

	c.mu.Lock()
	var refetch []Key
	n := 0
	for _, e := range c.entries {
		if !matchesAny(e.key, filters) {
			continue
		}
		e.invalidated = true
		n++
		if len(e.subs) > 0 && e.fetcher != nil {
			refetch = append(refetch, e.key)
		}
	}
	c.mu.Unlock()

	c.opts.Metrics.invalidated(n)
	for _, k := range refetch {
		c.background(k)
	}
	return n
}

// Snapshot captures the matching keys, sorted by their canonical form.
func (c *Cache) Snapshot(filters ...Key) []Snapshot {
	if len(filters) == 0 {
		filters = []Key{{}}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Snapshot
	for _, e := range c.entries {
		if !matchesAny(e.key, filters) {
			continue
		}
		out = append(out, Snapshot{
			Key:       e.key.clone(),
			Data:      e.data,
			Exists:    e.hasData,
			Version:   e.version,
			UpdatedAt: e.updatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

// Restore puts s back only if the key is still at expectVersion, i.e. nothing
// has written it since the caller did. It reports whether it restored.
func (c *Cache) Restore(s Snapshot, expectVersion uint64) bool {
	now := c.opts.Now()

	c.mu.Lock()
	e, found := c.entries[s.Key.String()]
	var current uint64
	if found {
		current = e.version
	}
	if current != expectVersion {
		c.mu.Unlock()
		return false
	}
	if found && len(e.layers) > 0 {
		e.base, e.baseExists = s.Data, s.Exists
		c.rebuildLocked(e)
	} else if !s.Exists {
		if !found || !e.hasData {
			c.mu.Unlock()
			return true
		}
		e.data = nil
		e.hasData = false
		e.version = c.tickLocked()
	} else {
		if !found {
			e = c.entryLocked(s.Key, now)
		}
		e.data = s.Data
		e.hasData = true
		e.updatedAt = s.UpdatedAt
		e.version = c.tickLocked()
	}
	notes := c.notesLocked(e, now)
	c.mu.Unlock()

	deliver(notes)
	return true
}

// Cancel makes the results of fetches already in flight for the matching keys
// be discarded when they arrive.
func (c *Cache) Cancel(filters ...Key) int {
	if len(filters) == 0 {
		filters = []Key{{}}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if matchesAny(e.key, filters) {
			e.fetchGen++
			n++
		}
	}
	return n
}

// Subscribe registers fn to be called with every new result of key. The
// entry is kept alive until the returned function is called.
func (c *Cache) Subscribe(key Key, fn func(Result)) (unsubscribe func()) {
	now := c.opts.Now()

	c.mu.Lock()
	e := c.entryLocked(key, now)
	c.subSeq++
	id := c.subSeq
	if e.subs == nil {
		e.subs = make(map[uint64]func(Result))
	}
	e.subs[id] = fn
	e.lastUsed = now
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if e, ok := c.entries[key.String()]; ok {
				delete(e.subs, id)
				e.lastUsed = c.opts.Now()
			}
		})
	}
}

// Len is the number of entries, with or without data.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep evicts entries that have no subscribers, no fetch in flight and have
// not been used for longer than the GC window.
func (c *Cache) Sweep() int {
	now := c.opts.Now()

	c.mu.Lock()
	n := 0
	for s, e := range c.entries {
		if c.pinnedLocked(e) {
			continue
		}
		if now.Sub(e.lastUsed) > c.opts.GCTime {
			delete(c.entries, s)
			n++
		}
	}
	c.mu.Unlock()

	c.opts.Metrics.evicted(n)
	return n
}

// Start runs the GC sweeper until ctx is done. Background fetches use ctx
// from now on. The returned channel is closed once the sweeper has stopped
// and in-flight background fetches have drained.
func (c *Cache) Start(ctx context.Context) <-chan struct{} {
	c.mu.Lock()
	c.baseCtx = ctx
	c.mu.Unlock()

	done := make(chan struct{})
	ticker := time.NewTicker(c.opts.SweepInterval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				c.mu.Lock()
				c.closed = true
				c.mu.Unlock()
				c.wg.Wait()
				c.log.Debug("query cache sweeper stopped")
				return
			case <-ticker.C:
				if n := c.Sweep(); n > 0 {
					c.log.Debugf("evicted %d idle query entries", n)
				}
			}
		}
	}()
	return done
}

// Wait blocks until the background fetches started so far have finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) background(key Key) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	ctx := c.baseCtx
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		if _, err := c.fetch(ctx, key); err != nil {
			c.log.WithField("key", key.String()).Debugf("background fetch failed: %v", err)
		}
	}()
}

func (c *Cache) fetch(ctx context.Context, key Key) (any, error) {
	c.mu.Lock()
	e := c.entryLocked(key, c.opts.Now())
	fn := e.fetcher
	gen := e.fetchGen
	c.mu.Unlock()

	if fn == nil {
		return nil, ErrNoFetcher
	}

	flight := key.String() + "#" + strconv.FormatUint(gen, 10)
	v, err, _ := c.group.Do(flight, func() (any, error) {
		c.mu.Lock()
		if e, ok := c.entries[key.String()]; ok {
			e.fetching++
		}
		c.mu.Unlock()

		data, err := fn(ctx)
		return c.settleFetch(key, gen, data, err)
	})
	return v, err
}

// settleFetch stores a fetch result unless the key was cancelled meanwhile.
func (c *Cache) settleFetch(key Key, gen uint64, data any, err error) (any, error) {
	now := c.opts.Now()

	c.mu.Lock()
	e, ok := c.entries[key.String()]
	if !ok {
		c.mu.Unlock()
		return data, err
	}
	if e.fetching > 0 {
		e.fetching--
	}
	if e.fetchGen != gen {
		current, has := e.data, e.hasData
		c.mu.Unlock()
		c.opts.Metrics.fetched("discarded")
		if has {
			return current, nil
		}
		return data, err
	}
	if err != nil {
		e.err = err
		notes := c.notesLocked(e, now)
		c.mu.Unlock()
		c.opts.Metrics.fetched("error")
		deliver(notes)
		return nil, err
	}
	c.storeLocked(e, data, now)
	notes := c.notesLocked(e, now)
	c.mu.Unlock()

	c.opts.Metrics.fetched("ok")
	deliver(notes)
	return data, nil
}

func (c *Cache) entryLocked(key Key, now time.Time) *entry {
	s := key.String()
	e, ok := c.entries[s]
	if !ok {
		e = &entry{key: key.clone(), lastUsed: now}
		c.entries[s] = e
	}
	return e
}

func (c *Cache) setLocked(e *entry, data any, now time.Time) {
	e.data = data
	e.hasData = true
	e.err = nil
	e.invalidated = false
	e.updatedAt = now
	e.version = c.tickLocked()
}

// storeLocked records a server value. Pending layers are replayed on it.
func (c *Cache) storeLocked(e *entry, data any, now time.Time) {
	c.setLocked(e, data, now)
	if len(e.layers) > 0 {
		e.base, e.baseExists = data, true
		c.rebuildLocked(e)
	}
}

// writeLocked applies updater to the confirmed value of e and reports
// whether it accepted.
func (c *Cache) writeLocked(e *entry, updater Updater, now time.Time) bool {
	if len(e.layers) == 0 {
		next, ok := updater(e.data, e.hasData)
		if !ok {
			return false
		}
		c.setLocked(e, next, now)
		return true
	}
	next, ok := updater(e.base, e.baseExists)
	if !ok {
		return false
	}
	c.storeLocked(e, next, now)
	return true
}

// rebuildLocked recomputes data from base and the pending layers. Layers
// that decline are skipped.
func (c *Cache) rebuildLocked(e *entry) {
	data, exists := e.base, e.baseExists
	for _, l := range e.layers {
		if next, ok := l.updater(data, exists); ok {
			data, exists = next, true
		}
	}
	e.data, e.hasData = data, exists
	e.version = c.tickLocked()
}

// pinnedLocked reports whether e is in use and must not be collected.
func (c *Cache) pinnedLocked(e *entry) bool {
	return len(e.subs) > 0 || e.fetching > 0 || len(e.layers) > 0
}

// expireLocked drops the data of an unobserved entry idle past the GC
// window that the sweeper has not reached yet.
func (c *Cache) expireLocked(e *entry, now time.Time) {
	if !e.hasData || c.pinnedLocked(e) || now.Sub(e.lastUsed) <= c.opts.GCTime {
		return
	}
	e.data = nil
	e.hasData = false
	e.err = nil
	e.invalidated = false
	e.version = c.tickLocked()
	c.opts.Metrics.evicted(1)
}

func (c *Cache) tickLocked() uint64 {
	c.clock++
	return c.clock
}

func (c *Cache) staleLocked(e *entry, now time.Time) bool {
	return e.invalidated || now.Sub(e.updatedAt) >= c.opts.StaleTime
}

func (c *Cache) resultLocked(e *entry, now time.Time) Result {
	res := Result{Data: e.data, Version: e.version, Err: e.err}
	switch {
	case !e.hasData:
		res.Status = StatusPending
	case c.staleLocked(e, now):
		res.Status = StatusStale
	default:
		res.Status = StatusFresh
	}
	return res
}

func (c *Cache) notesLocked(e *entry, now time.Time) []note {
	if len(e.subs) == 0 {
		return nil
	}
	res := c.resultLocked(e, now)
	notes := make([]note, 0, len(e.subs))
	for _, fn := range e.subs {
		notes = append(notes, note{fn: fn, res: res})
	}
	return notes
}

func deliver(notes []note) {
	for _, n := range notes {
		n.fn(n.res)
	}
}
