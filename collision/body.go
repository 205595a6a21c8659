// Package collision implements the CollisionEngine: broadphase/narrowphase
// detection, resolution, trigger state machines, and the static/dynamic
// spatial hashes backing both collision queries and the pathfinding grid's
// obstacle list.
package collision

import "github.com/arenacore/simcore/entities"

// BodyType classifies how a body participates in resolution.
type BodyType uint8

const (
	Static BodyType = iota
	Kinematic
	Dynamic
)

// LayerMask is a bitmask used for layer/collidesWith filtering.
type LayerMask uint32

// Body is the collision-specific state for one entity. Position is read
// from entities.HotData each tick; Body stores only what collision needs.
type Body struct {
	Owner entities.Handle

	HalfWidth, HalfHeight float32

	Type         BodyType
	Layer        LayerMask
	CollidesWith LayerMask
	Enabled      bool

	IsTrigger       bool
	TriggerTag      string
	TriggerCooldown float32 // seconds suppressing Enter re-emission for the same pair

	Mass        float32
	Friction    float32
	Restitution float32

	// cached for movement-threshold optimization
	lastMinCol, lastMaxCol int
	lastMinRow, lastMaxRow int
	center                 entities.Vec2
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	MinX, MinY, MaxX, MaxY float32
}

func (b *Body) aabb(center entities.Vec2) AABB {
	return AABB{
		MinX: center.X - b.HalfWidth, MinY: center.Y - b.HalfHeight,
		MaxX: center.X + b.HalfWidth, MaxY: center.Y + b.HalfHeight,
	}
}

// shouldCollideWith reports whether a and b should be tested at all:
// both enabled, and each one's layer intersects the other's collidesWith
// mask.
func shouldCollideWith(a, b *Body) bool {
	if !a.Enabled || !b.Enabled {
		return false
	}
	return a.Layer&b.CollidesWith != 0 && b.Layer&a.CollidesWith != 0
}

// overlaps performs strict AABB-vs-AABB overlap (edge-touching does not
// collide) and, on overlap, returns the minimum translation vector that
// would move a out of b along the smaller-penetration axis.
func overlaps(a, b AABB) (mtvX, mtvY float32, hit bool) {
	if a.MinX >= b.MaxX || a.MaxX <= b.MinX || a.MinY >= b.MaxY || a.MaxY <= b.MinY {
		return 0, 0, false
	}

	// Penetration along X: how far a would need to move to clear b,
	// choosing whichever direction (left or right) is shorter.
	penLeft := a.MaxX - b.MinX  // a moves -X to clear b's left edge
	penRight := b.MaxX - a.MinX // a moves +X to clear b's right edge
	penX := penLeft
	dirX := float32(-1)
	if penRight < penLeft {
		penX = penRight
		dirX = 1
	}

	penDown := a.MaxY - b.MinY
	penUp := b.MaxY - a.MinY
	penY := penDown
	dirY := float32(-1)
	if penUp < penDown {
		penY = penUp
		dirY = 1
	}

	if penX < penY {
		return penX * dirX, 0, true
	}
	return 0, penY * dirY, true
}
