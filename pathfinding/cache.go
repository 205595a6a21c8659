package pathfinding

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/arenacore/simcore/entities"
	"github.com/arenacore/simcore/events"
)

// DefaultMaxCachedPaths is the soft size cap before LRU eviction kicks in.
const DefaultMaxCachedPaths = 1024

// QuantizeCellSize is the bucket width used to hash (start, goal) pairs;
// per spec §6 it MUST match the spatial-tolerance constant below.
const QuantizeCellSize = 64.0

// MatchTolerance is the max per-endpoint distance for a bucket entry to be
// considered a hit for a new (start, goal) query.
const MatchTolerance = 64.0

// NegativeCacheTTL is how long a failed pathfinding attempt suppresses
// retries for the same quantized (start, goal) pair. The original source
// declared but never wired a TTL for this (cacheNegative/hasNegativeCached);
// here it is a fixed 1s package constant (see DESIGN.md Open Questions).
const NegativeCacheTTL = time.Second

// DefaultMaxAge purges an entry once older than this and rarely reused.
const DefaultMaxAge = 30 * time.Second

// DefaultMinUseCount is the use-count floor below which DefaultMaxAge
// eviction applies.
const DefaultMinUseCount = 2

type pathEntry struct {
	start, goal  entities.Vec2
	waypoints    []entities.Vec2
	createdAt    time.Time
	lastUsedAt   time.Time
	useCount     int
}

type negativeEntry struct {
	expiresAt time.Time
}

// Cache is the PathCache: an LRU-bounded positive cache plus a short-lived
// negative cache, both keyed by a quantized endpoint hash.
type Cache struct {
	mu sync.Mutex

	buckets  *lru.Cache[uint64, []*pathEntry]
	negative map[uint64]negativeEntry

	now func() time.Time

	queries            atomic.Int64
	hits               atomic.Int64
	misses             atomic.Int64
	evictedPaths       atomic.Int64
	congestionEvicted  atomic.Int64
}

// Stats is a point-in-time snapshot of cache effectiveness, mirroring the
// original engine's PathCacheStats.
type Stats struct {
	Queries            int64
	Hits               int64
	Misses             int64
	EvictedPaths       int64
	CongestionEvictions int64
	HitRate            float64
}

// Stats reports cache hit-rate and eviction counters for a telemetry tick.
func (c *Cache) Stats() Stats {
	s := Stats{
		Queries:             c.queries.Load(),
		Hits:                c.hits.Load(),
		Misses:              c.misses.Load(),
		EvictedPaths:        c.evictedPaths.Load(),
		CongestionEvictions: c.congestionEvicted.Load(),
	}
	if s.Queries > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Queries)
	}
	return s
}

// NewCache builds a PathCache with the default soft size cap.
func NewCache() *Cache {
	return NewCacheWithCapacity(DefaultMaxCachedPaths)
}

// NewCacheWithCapacity builds a PathCache with an explicit bucket capacity.
func NewCacheWithCapacity(capacity int) *Cache {
	buckets, _ := lru.New[uint64, []*pathEntry](capacity)
	return &Cache{
		buckets:  buckets,
		negative: make(map[uint64]negativeEntry),
		now:      time.Now,
	}
}

func quantize(p entities.Vec2) (int32, int32) {
	return int32(p.X / QuantizeCellSize), int32(p.Y / QuantizeCellSize)
}

// key is an FNV-1a mix of the quantized start/goal cell coordinates, per
// spec §4.3.2.
func key(start, goal entities.Vec2) uint64 {
	sx, sy := quantize(start)
	gx, gy := quantize(goal)
	h := fnv.New64a()
	var buf [16]byte
	putInt32(buf[0:4], sx)
	putInt32(buf[4:8], sy)
	putInt32(buf[8:12], gx)
	putInt32(buf[12:16], gy)
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

func putInt32(b []byte, v int32) {
	u := uint32(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
}

// Lookup returns a positive hit (waypoints with endpoints snapped to the
// exact requested start/goal), a negative hit (found=true, ok=false), or a
// miss (found=false).
func (c *Cache) Lookup(start, goal entities.Vec2) (waypoints []entities.Vec2, found, ok bool) {
	k := key(start, goal)
	c.queries.Add(1)

	c.mu.Lock()
	defer c.mu.Unlock()

	if bucket, hit := c.buckets.Get(k); hit {
		for _, e := range bucket {
			if withinTolerance(e.start, start) && withinTolerance(e.goal, goal) {
				e.useCount++
				e.lastUsedAt = c.now()
				out := make([]entities.Vec2, len(e.waypoints))
				copy(out, e.waypoints)
				if len(out) > 0 {
					out[0] = start
					out[len(out)-1] = goal
				}
				c.hits.Add(1)
				return out, true, true
			}
		}
	}

	if neg, hit := c.negative[k]; hit {
		if c.now().Before(neg.expiresAt) {
			c.hits.Add(1)
			return nil, true, false
		}
		delete(c.negative, k)
	}

	c.misses.Add(1)
	return nil, false, false
}

func withinTolerance(a, b entities.Vec2) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx+dy*dy <= MatchTolerance*MatchTolerance
}

// Store inserts a successful path.
func (c *Cache) Store(start, goal entities.Vec2, waypoints []entities.Vec2) {
	k := key(start, goal)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.negative, k)
	bucket, _ := c.buckets.Get(k)
	bucket = append(bucket, &pathEntry{
		start: start, goal: goal, waypoints: waypoints,
		createdAt: now, lastUsedAt: now, useCount: 0,
	})
	c.buckets.Add(k, bucket)
}

// StoreNegative records a failed attempt, suppressing retries for
// NegativeCacheTTL.
func (c *Cache) StoreNegative(start, goal entities.Vec2) {
	k := key(start, goal)
	c.mu.Lock()
	c.negative[k] = negativeEntry{expiresAt: c.now().Add(NegativeCacheTTL)}
	c.mu.Unlock()
}

// AgeCleanup purges entries older than maxAge with fewer than minUseCount
// uses. Intended to run periodically from PathfindingScheduler's batch
// cleanup step.
func (c *Cache) AgeCleanup(maxAge time.Duration, minUseCount int) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range c.buckets.Keys() {
		bucket, ok := c.buckets.Peek(k)
		if !ok {
			continue
		}
		kept := bucket[:0]
		for _, e := range bucket {
			if now.Sub(e.createdAt) > maxAge && e.useCount < minUseCount {
				c.evictedPaths.Add(1)
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			c.buckets.Remove(k)
		} else {
			c.buckets.Add(k, kept)
		}
	}
	for k, neg := range c.negative {
		if now.After(neg.expiresAt) {
			delete(c.negative, k)
		}
	}
}

// CongestionQuery reports, for a sampled point, how many dynamic bodies
// lie within radius; the scheduler supplies this via the collision
// engine's query API.
type CongestionQuery func(point entities.Vec2, radius float32) int

// CongestionEvict samples up to maxSamples waypoints per cached path; a
// path with a sampled waypoint within radius of center and congestion ≥
// threshold is evicted (spec §4.3.2).
func (c *Cache) CongestionEvict(center entities.Vec2, radius float32, threshold int, maxSamples int, query CongestionQuery) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range c.buckets.Keys() {
		bucket, ok := c.buckets.Peek(k)
		if !ok {
			continue
		}
		kept := bucket[:0]
		for _, e := range bucket {
			if pathCongested(e.waypoints, center, radius, threshold, maxSamples, query) {
				c.congestionEvicted.Add(1)
				c.evictedPaths.Add(1)
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			c.buckets.Remove(k)
		} else {
			c.buckets.Add(k, kept)
		}
	}
}

func pathCongested(waypoints []entities.Vec2, center entities.Vec2, radius float32, threshold, maxSamples int, query CongestionQuery) bool {
	n := len(waypoints)
	if n == 0 {
		return false
	}
	step := 1
	if n > maxSamples {
		step = (n + maxSamples - 1) / maxSamples
	}
	for i := 0; i < n; i += step {
		wp := waypoints[i]
		dx, dy := wp.X-center.X, wp.Y-center.Y
		if dx*dx+dy*dy > radius*radius {
			continue
		}
		if query(wp, radius) >= threshold {
			return true
		}
	}
	return false
}

// InvalidateObstacle evicts every cached path whose AABB envelope contains
// the obstacle-change position, called from CollisionObstacleChanged
// handling.
func (c *Cache) InvalidateObstacle(ev events.CollisionObstacleChanged) {
	pos := entities.Vec2{X: ev.Position.X, Y: ev.Position.Y}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range c.buckets.Keys() {
		bucket, ok := c.buckets.Peek(k)
		if !ok {
			continue
		}
		kept := bucket[:0]
		for _, e := range bucket {
			if pathEnvelopeContains(e.waypoints, pos) {
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			c.buckets.Remove(k)
		} else {
			c.buckets.Add(k, kept)
		}
	}
}

func pathEnvelopeContains(waypoints []entities.Vec2, p entities.Vec2) bool {
	if len(waypoints) == 0 {
		return false
	}
	minX, minY := waypoints[0].X, waypoints[0].Y
	maxX, maxY := minX, minY
	for _, wp := range waypoints[1:] {
		if wp.X < minX {
			minX = wp.X
		}
		if wp.X > maxX {
			maxX = wp.X
		}
		if wp.Y < minY {
			minY = wp.Y
		}
		if wp.Y > maxY {
			maxY = wp.Y
		}
	}
	return p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY
}

// Len reports the number of occupied buckets (diagnostic only; a bucket
// may hold more than one path).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buckets.Len()
}
