package entities

import "github.com/mlange-42/ark/ecs"

// Vec2 is a plain 2D vector, matching components.Position/Velocity in the
// teacher repo but unified into one type since the core does not need a
// render-facing distinction between position and velocity types.
type Vec2 struct {
	X, Y float32
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v*s.
func (v Vec2) Scale(s float32) Vec2 { return Vec2{v.X * s, v.Y * s} }

// HotData is the per-entity data touched every tick. It is stored in one
// contiguous slice (entities.Store.hot) rather than through the ECS, so
// iterating live entities never pays a component-lookup indirection.
type HotData struct {
	Position, PreviousPosition, Velocity, Acceleration Vec2

	HalfWidth, HalfHeight float32

	Kind       Kind
	Tier       Tier
	Flags      Flags
	Generation uint8

	// ColdRef is the opaque ark entity backing this entity's type-local
	// cold data (cold.go). It plays the role the spec
	// calls "typeLocalIndex": ark's archetype storage already performs the
	// dense-index swap-remove and back-link patching the spec describes
	// for hand-rolled cold arrays, so the core references cold data through
	// this handle instead of a raw integer index. See DESIGN.md.
	ColdRef ecs.Entity

	// InventoryIndex, when non-negative, is the dense slot of this
	// entity's inventory in the shared InventoryPool.
	InventoryIndex int32
}

func (h *HotData) alive() bool  { return h.Flags.Has(FlagAlive) }
func (h *HotData) pendingDestroy() bool { return h.Flags.Has(FlagPendingDestroy) }
