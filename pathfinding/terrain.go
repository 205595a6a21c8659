package pathfinding

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/arenacore/simcore/entities"
)

// TerrainWeighter derives cost-region weights from 2D OpenSimplex noise,
// the same generator the teacher seeds its resource-field capacity grid
// with (systems/resource_field.go), here reused to scatter terrain-cost
// penalties (mud, underbrush, ...) across a grid instead of animated
// resource hotspots.
type TerrainWeighter struct {
	noise opensimplex.Noise
	scale float64
}

// NewTerrainWeighter builds a weighter seeded from seed.
func NewTerrainWeighter(seed int64, scale float64) *TerrainWeighter {
	if scale <= 0 {
		scale = 0.01
	}
	return &TerrainWeighter{noise: opensimplex.New(seed), scale: scale}
}

// SeedWeightRegions samples the noise field on a coarse step grid and
// raises the cost multiplier of every region whose sampled value exceeds
// threshold, proportionally to how far above threshold it lands (capped at
// maxWeight). This is a one-shot terrain generation step, not a per-tick
// animation -- unlike the teacher's resource field, pathfinding weights
// don't need to morph over time.
func (tw *TerrainWeighter) SeedWeightRegions(g *Grid, worldWidth, worldHeight, step, threshold, maxWeight float32) {
	for y := float32(0); y < worldHeight; y += step {
		for x := float32(0); x < worldWidth; x += step {
			n := float32((tw.noise.Eval2(float64(x)*tw.scale, float64(y)*tw.scale) + 1) * 0.5)
			if n <= threshold {
				continue
			}
			weight := 1 + (n-threshold)/(1-threshold)*(maxWeight-1)
			g.AddWeightRegion(entities.Vec2{X: x, Y: y}, step*0.75, weight)
		}
	}
}
