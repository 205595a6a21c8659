// Package events defines the core's published/consumed event payloads.
// The event bus itself is an out-of-scope external collaborator (§1); this
// package only gives the core a typed "fire and forget" shape to publish
// through, plus a minimal in-process Bus good enough for tests and for
// wiring WorldResourceRegistry's own subscriptions.
package events

import "github.com/arenacore/simcore/resource"

// TriggerPhase distinguishes trigger Enter from Exit.
type TriggerPhase uint8

const (
	TriggerEnter TriggerPhase = iota
	TriggerExit
)

// ObstacleChangeKind distinguishes a static body being added from removed.
type ObstacleChangeKind uint8

const (
	ObstacleAdded ObstacleChangeKind = iota
	ObstacleRemoved
)

// Vec2 mirrors entities.Vec2 without importing entities (avoids a cycle:
// entities -> events for ResourceChange).
type Vec2 struct{ X, Y float32 }

// CollisionObstacleChanged is fired when a static body is added or removed;
// PathfindingScheduler/PathCache listen to invalidate affected paths.
type CollisionObstacleChanged struct {
	Position    Vec2
	Radius      float32
	Kind        ObstacleChangeKind
	Description string
}

// WorldTrigger is fired on trigger Enter/Exit.
type WorldTrigger struct {
	PlayerID  uint64
	TriggerID uint64
	Tag       string
	Position  Vec2
	Phase     TriggerPhase
}

// ResourceChange is fired by inventories on any quantity transition.
type ResourceChange struct {
	Owner       interface{} // entities.Handle, kept untyped here to avoid a cycle
	Resource    resource.Handle
	OldQuantity uint32
	NewQuantity uint32
	Reason      string
}

// WorldLoaded/WorldUnloaded are consumed by WorldResourceRegistry.
type WorldLoaded struct{ WorldID [16]byte }
type WorldUnloaded struct{ WorldID [16]byte }

// Handler receives one event value. Handlers are invoked synchronously and
// outside of any emitter lock (§9 callback re-architecture note); a handler
// must not re-enter the emitter it was called from.
type Handler func(any)

// Bus is a minimal typed-by-convention pub/sub used to wire the core's
// published events to out-of-core listeners in tests and small tools. A
// production deployment plugs in its own event-bus implementation; Bus only
// exists so the core has something concrete to publish through without a
// hard external dependency.
type Bus struct {
	handlers []Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus { return &Bus{} }

// Subscribe registers a handler invoked for every published event.
func (b *Bus) Subscribe(h Handler) { b.handlers = append(b.handlers, h) }

// Publish invokes all handlers with ev, in subscription order.
func (b *Bus) Publish(ev any) {
	for _, h := range b.handlers {
		h(ev)
	}
}
