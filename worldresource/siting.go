package worldresource

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/arenacore/simcore/entities"
)

// HarvestableSiter scatters initial harvestable nodes across a world using
// the same 2D OpenSimplex FBM the teacher uses to seed its resource-field
// capacity grid (systems/resource_field.go fbmTiled), sampled at a coarser
// octave count since siting runs once at world-load time rather than every
// tick.
type HarvestableSiter struct {
	noise      opensimplex.Noise
	scale      float64
	octaves    int
	lacunarity float64
	gain       float64
	threshold  float64
}

// NewHarvestableSiter builds a siter seeded from seed; density controls how
// much of the noise field clears the siting threshold (0 = nothing sites,
// 1 = every sampled point sites).
func NewHarvestableSiter(seed int64, density float64) *HarvestableSiter {
	if density < 0 {
		density = 0
	}
	if density > 1 {
		density = 1
	}
	return &HarvestableSiter{
		noise:      opensimplex.New(seed),
		scale:      0.015,
		octaves:    3,
		lacunarity: 2.0,
		gain:       0.5,
		threshold:  1 - density,
	}
}

// Sample returns the FBM value in [0, 1] at a world position, matching the
// teacher's fbmTiled shape (sum of octaves, each half the amplitude of the
// last) but over plain 2D coordinates instead of a 4D torus, since siting
// has no time-animation requirement.
func (s *HarvestableSiter) Sample(pos entities.Vec2) float64 {
	sum := 0.0
	amp := 0.5
	freq := s.scale
	x, y := float64(pos.X), float64(pos.Y)
	for o := 0; o < s.octaves; o++ {
		n := (s.noise.Eval2(x*freq, y*freq) + 1) * 0.5
		sum += amp * n
		freq *= s.lacunarity
		amp *= s.gain
	}
	return sum
}

// ShouldSiteAt reports whether a harvestable node should be placed at pos,
// given the configured density threshold.
func (s *HarvestableSiter) ShouldSiteAt(pos entities.Vec2) bool {
	return s.Sample(pos) >= s.threshold
}

// SiteHarvestables walks a world-space bounding region on a stepSize grid
// and invokes place for every coordinate the noise field selects. place is
// responsible for creating the harvestable entity (EDS) and registering it
// with the registry; this generator only decides where.
func SiteHarvestables(s *HarvestableSiter, worldWidth, worldHeight, stepSize float32, place func(pos entities.Vec2)) {
	for y := float32(0); y < worldHeight; y += stepSize {
		for x := float32(0); x < worldWidth; x += stepSize {
			pos := entities.Vec2{X: x, Y: y}
			if s.ShouldSiteAt(pos) {
				place(pos)
			}
		}
	}
}
