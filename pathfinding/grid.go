// Package pathfinding implements PathfindingGrid, PathCache, and
// PathfindingScheduler: a uniform weighted A* grid, an LRU-and-spatial
// result cache, and a priority-queued, worker-pool-backed dispatcher.
package pathfinding

import "github.com/arenacore/simcore/entities"

// CellSize is the PathfindingGrid cell edge length, in world units.
const CellSize = 16.0

// SizeClass buckets entities by collision footprint for grid inflation,
// mirroring the per-size-class navigation meshes the teacher precomputes
// for small/medium/large organisms (systems/navgrid.go).
type SizeClass uint8

const (
	SizeSmall SizeClass = iota
	SizeMedium
	SizeLarge
	numSizeClasses
)

// ClassifyBySize returns the SizeClass for a collision half-extent.
func ClassifyBySize(halfExtent float32) SizeClass {
	switch {
	case halfExtent < 12:
		return SizeSmall
	case halfExtent < 24:
		return SizeMedium
	default:
		return SizeLarge
	}
}

// Grid is a uniform weighted grid over world space: each cell carries a
// blocking flag and a traversal cost multiplier (1.0 by default, higher
// where a weight region overlaps it).
type Grid struct {
	blocked []bool
	weight  []float32

	cellSize      float32
	width, height int
}

// NewGrid allocates an all-open, unit-weight grid covering worldWidth x
// worldHeight world units.
func NewGrid(worldWidth, worldHeight float32) *Grid {
	w := int(worldWidth/CellSize) + 1
	h := int(worldHeight/CellSize) + 1
	g := &Grid{
		blocked:  make([]bool, w*h),
		weight:   make([]float32, w*h),
		cellSize: CellSize,
		width:    w,
		height:   h,
	}
	for i := range g.weight {
		g.weight[i] = 1.0
	}
	return g
}

// SetBlocked marks or clears a cell's blocking flag.
func (g *Grid) SetBlocked(gx, gy int, blocked bool) {
	if !g.inBounds(gx, gy) {
		return
	}
	g.blocked[gy*g.width+gx] = blocked
}

// AddWeightRegion raises the cost multiplier of every cell whose center
// falls within radius of center, to weight (applied as max(existing, weight)
// so overlapping regions compound toward the higher penalty).
func (g *Grid) AddWeightRegion(center entities.Vec2, radius, weight float32) {
	minGX, minGY := g.WorldToGrid(center.X-radius, center.Y-radius)
	maxGX, maxGY := g.WorldToGrid(center.X+radius, center.Y+radius)
	for gy := clampInt(minGY, 0, g.height-1); gy <= clampInt(maxGY, 0, g.height-1); gy++ {
		for gx := clampInt(minGX, 0, g.width-1); gx <= clampInt(maxGX, 0, g.width-1); gx++ {
			cx, cy := g.GridToWorld(gx, gy)
			dx, dy := cx-center.X, cy-center.Y
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			idx := gy*g.width + gx
			if weight > g.weight[idx] {
				g.weight[idx] = weight
			}
		}
	}
}

// IsBlocked reports whether (gx, gy) is blocked or out of bounds.
func (g *Grid) IsBlocked(gx, gy int) bool {
	if !g.inBounds(gx, gy) {
		return true
	}
	return g.blocked[gy*g.width+gx]
}

// IsBlockedWorld is IsBlocked in world coordinates.
func (g *Grid) IsBlockedWorld(p entities.Vec2) bool {
	gx, gy := g.WorldToGrid(p.X, p.Y)
	return g.IsBlocked(gx, gy)
}

func (g *Grid) inBounds(gx, gy int) bool {
	return gx >= 0 && gx < g.width && gy >= 0 && gy < g.height
}

func (g *Grid) costAt(gx, gy int) float32 {
	if !g.inBounds(gx, gy) {
		return 1
	}
	return g.weight[gy*g.width+gx]
}

// WorldToGrid converts world coordinates to grid cell coordinates.
func (g *Grid) WorldToGrid(x, y float32) (gx, gy int) {
	return int(x / g.cellSize), int(y / g.cellSize)
}

// GridToWorld returns the world-space center of a grid cell.
func (g *Grid) GridToWorld(gx, gy int) (x, y float32) {
	return (float32(gx) + 0.5) * g.cellSize, (float32(gy) + 0.5) * g.cellSize
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// GridSet holds one Grid per SizeClass, each with progressively larger
// obstacle inflation so larger bodies never plan through gaps they could
// not physically fit through.
type GridSet struct {
	grids      [numSizeClasses]*Grid
	inflation  [numSizeClasses]float32
	worldW     float32
	worldH     float32
}

// defaultInflation mirrors the teacher's per-class inflation values
// (systems/navgrid.go NewNavGridSet): 8/16/28 px for small/medium/large.
var defaultInflation = [numSizeClasses]float32{8, 16, 28}

// NewGridSet builds one grid per size class by inflating the blocking mask
// from the obstacle list by that class's inflation radius.
func NewGridSet(worldWidth, worldHeight float32, obstacles []Obstacle) *GridSet {
	gs := &GridSet{inflation: defaultInflation, worldW: worldWidth, worldH: worldHeight}
	for sc := SizeClass(0); sc < numSizeClasses; sc++ {
		gs.grids[sc] = buildInflatedGrid(worldWidth, worldHeight, obstacles, gs.inflation[sc])
	}
	return gs
}

// Obstacle is a circular static-body footprint contributed by the
// collision engine's static hash.
type Obstacle struct {
	Position entities.Vec2
	Radius   float32
}

func buildInflatedGrid(worldWidth, worldHeight float32, obstacles []Obstacle, inflation float32) *Grid {
	g := NewGrid(worldWidth, worldHeight)
	for gy := 0; gy < g.height; gy++ {
		for gx := 0; gx < g.width; gx++ {
			cx, cy := g.GridToWorld(gx, gy)
			blocked := cx < inflation || cy < inflation || cx > worldWidth-inflation || cy > worldHeight-inflation
			for i := 0; i < len(obstacles) && !blocked; i++ {
				o := obstacles[i]
				dx, dy := cx-o.Position.X, cy-o.Position.Y
				r := o.Radius + inflation
				if dx*dx+dy*dy < r*r {
					blocked = true
				}
			}
			if blocked {
				g.blocked[gy*g.width+gx] = true
			}
		}
	}
	return g
}

// Grid returns the grid for a size class, clamping unknown classes to Large.
func (gs *GridSet) Grid(sc SizeClass) *Grid {
	if sc >= numSizeClasses {
		sc = SizeLarge
	}
	return gs.grids[sc]
}

// InvalidateRegion rebuilds the whole blocking mask of every class's grid
// from obstacles (the full grid, not only the area around the change);
// called from CollisionObstacleChanged handling. Cost region weights are
// carried over from the previous grids -- only blocking flags are affected
// by static-obstacle churn.
func (gs *GridSet) InvalidateRegion(obstacles []Obstacle) {
	for sc := SizeClass(0); sc < numSizeClasses; sc++ {
		rebuilt := buildInflatedGrid(gs.worldW, gs.worldH, obstacles, gs.inflation[sc])
		if old := gs.grids[sc]; old != nil {
			copy(rebuilt.weight, old.weight)
		}
		gs.grids[sc] = rebuilt
	}
}
