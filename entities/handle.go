// Package entities implements the EntityDataStore (EDS): the single source
// of truth for entity positions, kinds, tiers, type-local cold data, and
// inventories. Hot data lives in one contiguous slice for cache locality;
// cold, per-kind data is backed by github.com/mlange-42/ark component maps,
// the same ECS the teacher repo uses to get dense, swap-remove-on-delete
// storage without hand-rolling archetype bookkeeping.
package entities

import "fmt"

// Kind enumerates every entity category the core knows about.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindNPC
	KindDroppedItem
	KindContainer
	KindHarvestable
	KindProjectile
	KindAreaEffect
	KindProp
	KindTrigger
	KindStaticObstacle
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "Player"
	case KindNPC:
		return "NPC"
	case KindDroppedItem:
		return "DroppedItem"
	case KindContainer:
		return "Container"
	case KindHarvestable:
		return "Harvestable"
	case KindProjectile:
		return "Projectile"
	case KindAreaEffect:
		return "AreaEffect"
	case KindProp:
		return "Prop"
	case KindTrigger:
		return "Trigger"
	case KindStaticObstacle:
		return "StaticObstacle"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Tier is the simulation quality-of-update bucket selected by an external
// tier manager based on distance from a reference point.
type Tier uint8

const (
	TierActive Tier = iota
	TierBackground
	TierHibernated
)

// Flags packs the hot per-entity boolean state.
type Flags uint8

const (
	FlagAlive Flags = 1 << iota
	FlagDirty
	FlagPendingDestroy
	FlagCollisionEnabled
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Handle is the stable, 16-byte-equivalent external reference to an entity:
// {id, kind, generation}. It is safe to copy and cheap to compare. Handle
// is invalid when ID == 0 or Generation == 0.
type Handle struct {
	ID         uint64
	Kind       Kind
	Generation uint8
}

// IsValid reports whether h could possibly reference a live entity. It does
// not check liveness against a Store — use Store.GetIndex for that.
func (h Handle) IsValid() bool {
	return h.ID != 0 && h.Generation != 0
}

func (h Handle) String() string {
	return fmt.Sprintf("Handle{id:%d,kind:%s,gen:%d}", h.ID, h.Kind, h.Generation)
}

// slot extracts the 0-based dense-array slot this handle was minted for.
// Handle.ID is 1-based (0 is reserved for the invalid handle) so slot and
// generation can be recovered without an auxiliary id->slot map.
func (h Handle) slot() uint32 { return uint32(h.ID - 1) }

func handleFor(slot uint32, kind Kind, generation uint8) Handle {
	return Handle{ID: uint64(slot) + 1, Kind: kind, Generation: generation}
}

// bumpGeneration advances a generation counter, wrapping 255 -> 1 (never 0,
// which is reserved to mark an invalid/never-allocated slot).
func bumpGeneration(g uint8) uint8 {
	if g == 255 {
		return 1
	}
	return g + 1
}
