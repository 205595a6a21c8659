package crowd

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/arenacore/simcore/entities"
)

func TestQueryRadiusClampsToSpecBounds(t *testing.T) {
	cfg := DefaultConfig()

	if r := QueryRadius(0, cfg); r != 24 {
		t.Fatalf("expected floor radius 24 at zero speed, got %f", r)
	}
	// With the default radius 24 the 1.5x speed clamp tops out at 36, so the
	// 96 cap is only reachable with a larger base radius (1.5 * 80 = 120).
	big := cfg
	big.Radius = 80
	if r := QueryRadius(10000, big); r != maxQueryRadius {
		t.Fatalf("expected cap at %f for huge speed, got %f", maxQueryRadius, r)
	}
}

func TestSeparateWithNoNeighborsReturnsIntendedDirectionAtSpeed(t *testing.T) {
	cfg := DefaultConfig()
	intended := entities.Vec2{X: 1, Y: 0}
	out := Separate(entities.Vec2{X: 0, Y: 0}, intended, 100, cfg, nil, nil)

	if math.Abs(float64(out.X-100)) > 0.001 || math.Abs(float64(out.Y)) > 0.001 {
		t.Fatalf("expected (100,0), got (%f,%f)", out.X, out.Y)
	}
}

func TestSeparateStrongRepulsionWhenNeighborAheadInCriticalZone(t *testing.T) {
	cfg := DefaultConfig()
	position := entities.Vec2{X: 0, Y: 0}
	intended := entities.Vec2{X: 1, Y: 0}
	// Neighbor directly ahead, well inside the critical zone.
	neighbors := []Neighbor{{Position: entities.Vec2{X: 5, Y: 0}}}

	out := Separate(position, intended, 100, cfg, neighbors, rand.New(rand.NewPCG(1, 1)))

	// Critical-zone branch must steer away from straight ahead.
	if out.X == 100 && out.Y == 0 {
		t.Fatalf("expected steering correction, got unchanged intended velocity")
	}
	mag := float32(math.Sqrt(float64(out.X*out.X + out.Y*out.Y)))
	if math.Abs(float64(mag-100)) > 1 {
		t.Fatalf("expected output renormalized to target speed 100, got magnitude %f", mag)
	}
}

func TestSeparateLateralRedirectionWhenNeighborAheadOnPath(t *testing.T) {
	cfg := DefaultConfig()
	position := entities.Vec2{X: 0, Y: 0}
	intended := entities.Vec2{X: 100, Y: 0}
	// Neighbor ahead, on-axis, in the normal (not critical) zone -- spec §8
	// Scenario 6.
	neighbors := []Neighbor{{Position: entities.Vec2{X: 20, Y: 0}}}

	out := Separate(position, intended, 100, cfg, neighbors, rand.New(rand.NewPCG(1, 1)))

	if math.Abs(float64(out.Y)) < 1e-6 {
		t.Fatalf("expected nonzero lateral component, got (%f,%f)", out.X, out.Y)
	}
	if out.X <= 0 {
		t.Fatalf("expected forward bias preserved, got vx=%f", out.X)
	}
	mag := float32(math.Sqrt(float64(out.X*out.X + out.Y*out.Y)))
	if math.Abs(float64(mag-100)) > 1 {
		t.Fatalf("expected output renormalized to target speed 100, got magnitude %f", mag)
	}
}

func TestSeparateEmergencyPushUsesProvidedRNGDeterministically(t *testing.T) {
	cfg := DefaultConfig()
	position := entities.Vec2{X: 0, Y: 0}
	intended := entities.Vec2{X: 1, Y: 0}
	neighbors := []Neighbor{{Position: entities.Vec2{X: 0.1, Y: 0}}}

	out1 := Separate(position, intended, 100, cfg, neighbors, rand.New(rand.NewPCG(42, 42)))
	out2 := Separate(position, intended, 100, cfg, neighbors, rand.New(rand.NewPCG(42, 42)))

	if out1 != out2 {
		t.Fatalf("expected identical output for identical seed, got %v vs %v", out1, out2)
	}
}

func TestAdaptiveStrengthSaturatesAtNeighborLimit(t *testing.T) {
	cfg := Config{Radius: 24, Strength: 0.2, NeighborLimit: 2}
	s := adaptiveStrength(cfg, 2, 50, 24)
	if s < 0.5 || s > 0.6 {
		t.Fatalf("expected adaptive strength clamped to [0.5,0.6], got %f", s)
	}
}

func TestQueryCacheMissAfterBeginFrame(t *testing.T) {
	c := NewQueryCache(4)
	center := entities.Vec2{X: 10, Y: 10}
	c.Store(center, 32, []Neighbor{{Position: center}})

	if _, ok := c.Lookup(center, 32); !ok {
		t.Fatalf("expected cache hit within the same frame")
	}

	c.BeginFrame()
	if _, ok := c.Lookup(center, 32); ok {
		t.Fatalf("expected cache miss after BeginFrame invalidation")
	}
}

func TestToroidalDeltaTakesShortestPath(t *testing.T) {
	dx, dy := toroidalDelta(10, 10, 990, 10, 1000, 1000)
	if dx != -20 {
		t.Fatalf("expected wrap-around delta -20, got %f", dx)
	}
	if dy != 0 {
		t.Fatalf("expected zero y delta, got %f", dy)
	}
}
