package pathfinding

import (
	"testing"
	"time"

	"github.com/arenacore/simcore/entities"
	"github.com/arenacore/simcore/events"
)

func TestCacheStoreThenLookupHits(t *testing.T) {
	c := NewCache()
	start := entities.Vec2{X: 10, Y: 10}
	goal := entities.Vec2{X: 500, Y: 500}
	path := []entities.Vec2{start, {X: 250, Y: 250}, goal}

	c.Store(start, goal, path)

	got, found, ok := c.Lookup(start, goal)
	if !found || !ok {
		t.Fatalf("expected cache hit, found=%v ok=%v", found, ok)
	}
	if len(got) != len(path) {
		t.Fatalf("expected %d waypoints, got %d", len(path), len(got))
	}
}

func TestCacheStatsTracksHitRate(t *testing.T) {
	c := NewCache()
	start := entities.Vec2{X: 10, Y: 10}
	goal := entities.Vec2{X: 500, Y: 500}
	c.Store(start, goal, []entities.Vec2{start, goal})

	c.Lookup(start, goal)
	c.Lookup(entities.Vec2{X: 9000, Y: 9000}, entities.Vec2{X: 9500, Y: 9500})

	stats := c.Stats()
	if stats.Queries != 2 || stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("expected queries=2 hits=1 misses=1, got %+v", stats)
	}
	if stats.HitRate != 0.5 {
		t.Fatalf("expected hit rate 0.5, got %f", stats.HitRate)
	}
}

func TestCacheLookupWithinToleranceStillHits(t *testing.T) {
	c := NewCache()
	start := entities.Vec2{X: 0, Y: 0}
	goal := entities.Vec2{X: 1000, Y: 0}
	c.Store(start, goal, []entities.Vec2{start, goal})

	nearStart := entities.Vec2{X: 20, Y: 10}
	_, found, ok := c.Lookup(nearStart, goal)
	if !found || !ok {
		t.Fatalf("expected near-start query to hit within tolerance")
	}
}

func TestCacheNegativeLookupSuppressesRetry(t *testing.T) {
	c := NewCache()
	start := entities.Vec2{X: 0, Y: 0}
	goal := entities.Vec2{X: 64, Y: 64}
	c.StoreNegative(start, goal)

	_, found, ok := c.Lookup(start, goal)
	if !found || ok {
		t.Fatalf("expected negative hit, found=%v ok=%v", found, ok)
	}
}

func TestCacheNegativeLookupExpiresAfterTTL(t *testing.T) {
	c := NewCache()
	base := time.Now()
	c.now = func() time.Time { return base }

	start := entities.Vec2{X: 0, Y: 0}
	goal := entities.Vec2{X: 64, Y: 64}
	c.StoreNegative(start, goal)

	c.now = func() time.Time { return base.Add(NegativeCacheTTL + time.Millisecond) }
	_, found, _ := c.Lookup(start, goal)
	if found {
		t.Fatalf("expected negative cache entry to have expired")
	}
}

func TestCacheAgeCleanupPurgesColdUnderusedEntries(t *testing.T) {
	c := NewCache()
	base := time.Now()
	c.now = func() time.Time { return base }

	start := entities.Vec2{X: 0, Y: 0}
	goal := entities.Vec2{X: 64, Y: 64}
	c.Store(start, goal, []entities.Vec2{start, goal})

	c.now = func() time.Time { return base.Add(DefaultMaxAge + time.Second) }
	c.AgeCleanup(DefaultMaxAge, DefaultMinUseCount)

	_, found, _ := c.Lookup(start, goal)
	if found {
		t.Fatalf("expected aged, underused entry to be purged")
	}
}

func TestCacheInvalidateObstacleEvictsContainingPath(t *testing.T) {
	c := NewCache()
	start := entities.Vec2{X: 0, Y: 0}
	goal := entities.Vec2{X: 400, Y: 0}
	c.Store(start, goal, []entities.Vec2{start, {X: 200, Y: 0}, goal})

	c.InvalidateObstacle(events.CollisionObstacleChanged{
		Position: events.Vec2{X: 200, Y: 0},
		Radius:   16,
		Kind:     events.ObstacleAdded,
	})

	_, found, _ := c.Lookup(start, goal)
	if found {
		t.Fatalf("expected path through the obstacle change to be evicted")
	}
}
