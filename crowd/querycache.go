package crowd

import "github.com/arenacore/simcore/entities"

// DefaultCacheSize is the fixed slot count of a QueryCache.
const DefaultCacheSize = 64

type cacheKey struct {
	cx, cy int32
	radius int32
}

func quantize(center entities.Vec2, radius float32) cacheKey {
	return cacheKey{
		cx:     int32(center.X / QuantizeBucket),
		cy:     int32(center.Y / QuantizeBucket),
		radius: int32(radius / QuantizeBucket),
	}
}

type cacheEntry struct {
	key       cacheKey
	frame     uint64
	neighbors []Neighbor
	valid     bool
}

// QueryCache is a thread-local, fixed-size, frame-scoped cache of neighbor
// query results. It is not safe for concurrent use -- each worker owns its
// own instance, matching the spec's "ThreadLocal caches require no
// locking" concurrency note. Invalidation is zero-cost: BeginFrame bumps a
// counter that renders every stored entry stale without touching memory.
type QueryCache struct {
	entries []cacheEntry
	frame   uint64
	next    int
}

// NewQueryCache allocates a cache with size fixed slots.
func NewQueryCache(size int) *QueryCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &QueryCache{entries: make([]cacheEntry, size)}
}

// BeginFrame advances the cache's frame counter. Call once per tick before
// any Lookup/Store pair for that frame.
func (c *QueryCache) BeginFrame() {
	c.frame++
}

// Lookup returns a cached neighbor slice for (center, radius) if one was
// stored this frame, else (nil, false).
func (c *QueryCache) Lookup(center entities.Vec2, radius float32) ([]Neighbor, bool) {
	key := quantize(center, radius)
	for i := range c.entries {
		e := &c.entries[i]
		if e.valid && e.frame == c.frame && e.key == key {
			return e.neighbors, true
		}
	}
	return nil, false
}

// Store records neighbors for (center, radius) at the current frame,
// overwriting the least-recently-written slot (a simple modular ring,
// matching the spec's "overwrites by modular index").
func (c *QueryCache) Store(center entities.Vec2, radius float32, neighbors []Neighbor) {
	key := quantize(center, radius)
	idx := c.next
	c.next = (c.next + 1) % len(c.entries)
	c.entries[idx] = cacheEntry{key: key, frame: c.frame, neighbors: neighbors, valid: true}
}
