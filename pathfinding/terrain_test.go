package pathfinding

import "testing"

func TestSeedWeightRegionsRaisesSomeCellWeights(t *testing.T) {
	g := NewGrid(256, 256)
	tw := NewTerrainWeighter(3, 0.02)
	tw.SeedWeightRegions(g, 256, 256, 16, 0.5, 4.0)

	raised := false
	for gy := 0; gy < g.height && !raised; gy++ {
		for gx := 0; gx < g.width; gx++ {
			if g.costAt(gx, gy) > 1.0 {
				raised = true
				break
			}
		}
	}
	if !raised {
		t.Fatalf("expected terrain seeding to raise at least one cell's weight above 1.0")
	}
}

func TestSeedWeightRegionsNeverExceedsMaxWeight(t *testing.T) {
	g := NewGrid(256, 256)
	tw := NewTerrainWeighter(9, 0.02)
	tw.SeedWeightRegions(g, 256, 256, 16, 0.3, 5.0)

	for gy := 0; gy < g.height; gy++ {
		for gx := 0; gx < g.width; gx++ {
			if c := g.costAt(gx, gy); c > 5.0 {
				t.Fatalf("cell (%d,%d) weight %f exceeds max 5.0", gx, gy, c)
			}
		}
	}
}
