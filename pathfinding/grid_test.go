package pathfinding

import (
	"testing"

	"github.com/arenacore/simcore/entities"
)

func TestClassifyBySize(t *testing.T) {
	cases := []struct {
		radius float32
		want   SizeClass
	}{
		{5, SizeSmall},
		{11.9, SizeSmall},
		{12, SizeMedium},
		{23.9, SizeMedium},
		{24, SizeLarge},
		{100, SizeLarge},
	}
	for _, c := range cases {
		if got := ClassifyBySize(c.radius); got != c.want {
			t.Errorf("ClassifyBySize(%v) = %v, want %v", c.radius, got, c.want)
		}
	}
}

func TestGridBoundsAreBlocked(t *testing.T) {
	g := NewGrid(320, 320)
	if !g.IsBlocked(-1, 0) || !g.IsBlocked(0, -1) {
		t.Fatalf("expected out-of-bounds cells to be blocked")
	}
}

func TestAddWeightRegionRaisesCost(t *testing.T) {
	g := NewGrid(320, 320)
	gx, gy := g.WorldToGrid(160, 160)
	if g.costAt(gx, gy) != 1.0 {
		t.Fatalf("expected default unit cost before weighting")
	}

	g.AddWeightRegion(entities.Vec2{X: 160, Y: 160}, 40, 3.0)
	if g.costAt(gx, gy) != 3.0 {
		t.Fatalf("expected weighted cost 3.0, got %f", g.costAt(gx, gy))
	}
}

func TestGridSetInflationGrowsWithSizeClass(t *testing.T) {
	obstacles := []Obstacle{{Position: entities.Vec2{X: 160, Y: 160}, Radius: 4}}
	gs := NewGridSet(320, 320, obstacles)

	small := gs.Grid(SizeSmall)
	large := gs.Grid(SizeLarge)

	blockedSmall, blockedLarge := 0, 0
	for gy := 0; gy < small.height; gy++ {
		for gx := 0; gx < small.width; gx++ {
			if small.IsBlocked(gx, gy) {
				blockedSmall++
			}
			if large.IsBlocked(gx, gy) {
				blockedLarge++
			}
		}
	}
	if blockedLarge <= blockedSmall {
		t.Fatalf("expected large size class to inflate more cells (%d) than small (%d)", blockedLarge, blockedSmall)
	}
}
