package collision

import (
	"github.com/arenacore/simcore/entities"
	"github.com/arenacore/simcore/events"
)

// TileWorld is the minimal read-only surface the collision engine needs
// from a loaded world's tile grid. A production world implementation
// supplies this; the engine never parses tile data itself.
type TileWorld interface {
	TileSize() float32
	Dimensions() (cols, rows int)
	IsBlocking(col, row int) bool
}

func tileBody(world TileWorld, col, row int) (entities.Vec2, *Body) {
	size := world.TileSize()
	center := entities.Vec2{X: (float32(col) + 0.5) * size, Y: (float32(row) + 0.5) * size}
	body := &Body{
		Owner:        staticTileHandle(col, row),
		HalfWidth:    size / 2,
		HalfHeight:   size / 2,
		Type:         Static,
		Layer:        1,
		CollidesWith: ^LayerMask(0),
		Enabled:      true,
	}
	return center, body
}

// staticTileHandle synthesizes a stable handle for a tile's static body.
// Tile bodies are not EDS entities (no inventory, no cold data) so this
// packs (col, row) directly into the handle's ID rather than allocating a
// Store slot per blocking tile.
func staticTileHandle(col, row int) entities.Handle {
	return entities.Handle{ID: uint64(row)<<32 | uint64(uint32(col)) + 1, Kind: entities.KindStaticObstacle, Generation: 1}
}

// RebuildStaticFromWorld enumerates every blocking tile in world and
// creates a static body at its center with tile-sized half extents,
// replacing any previously registered tile bodies.
func (e *Engine) RebuildStaticFromWorld(world TileWorld) {
	e.mu.Lock()
	for owner, body := range e.bodies {
		if owner.Kind == entities.KindStaticObstacle {
			e.static.remove(owner, body.lastMinCol, body.lastMaxCol, body.lastMinRow, body.lastMaxRow)
			delete(e.bodies, owner)
		}
	}
	e.mu.Unlock()

	cols, rows := world.Dimensions()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if !world.IsBlocking(col, row) {
				continue
			}
			e.addTileBody(world, col, row)
		}
	}
}

func (e *Engine) addTileBody(world TileWorld, col, row int) {
	center, body := tileBody(world, col, row)

	e.mu.Lock()
	box := body.aabb(center)
	minCol, maxCol, minRow, maxRow := e.static.cellRange(box)
	body.lastMinCol, body.lastMaxCol = minCol, maxCol
	body.lastMinRow, body.lastMaxRow = minRow, maxRow
	body.center = center
	e.bodies[body.Owner] = body
	e.static.insert(body.Owner, box)
	e.mu.Unlock()

	e.publishObstacleChanged(body, center, events.ObstacleAdded)
}

// OnTileChanged removes the static body for (col, row) if one exists, and
// adds a new one if the tile now blocks. Both sides publish
// CollisionObstacleChanged so pathfinding invalidates the affected region.
func (e *Engine) OnTileChanged(world TileWorld, col, row int) {
	owner := staticTileHandle(col, row)
	e.RemoveBody(owner)
	if world.IsBlocking(col, row) {
		e.addTileBody(world, col, row)
	}
}
