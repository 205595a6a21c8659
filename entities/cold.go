package entities

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/arenacore/simcore/resource"
)

// InteractionMemory is one entry in a character's ring of recent
// interactions with another entity.
type InteractionMemory struct {
	Other EntityRef
	Kind  string
	Tick  int64
}

// EntityRef is a lightweight cross-reference to another entity, stored
// inside cold data where importing the full Handle would be redundant
// (Handle is reconstructable: the ref already carries kind+generation).
type EntityRef struct {
	ID         uint64
	Kind       Kind
	Generation uint8
}

// memoryRingSize bounds CharacterData's recent-interaction ring.
const memoryRingSize = 8

// CharacterData is the cold SoA record for Player and NPC entities.
type CharacterData struct {
	Health, MaxHealth float32
	StateFlags        uint32
	AIBehaviorTag      string
	InventoryIndex    int32

	memory     [memoryRingSize]InteractionMemory
	memoryNext int
}

// RecordInteraction appends to the character's interaction memory ring,
// overwriting the oldest entry once full.
func (c *CharacterData) RecordInteraction(m InteractionMemory) {
	c.memory[c.memoryNext] = m
	c.memoryNext = (c.memoryNext + 1) % memoryRingSize
}

// RecentInteractions returns the memory ring in least-recent-first order.
func (c *CharacterData) RecentInteractions() []InteractionMemory {
	out := make([]InteractionMemory, 0, memoryRingSize)
	for i := 0; i < memoryRingSize; i++ {
		idx := (c.memoryNext + i) % memoryRingSize
		if !c.memory[idx].Other.validForRing() {
			continue
		}
		out = append(out, c.memory[idx])
	}
	return out
}

func (r EntityRef) validForRing() bool { return r.ID != 0 }

// ItemData is the cold SoA record for DroppedItem entities.
type ItemData struct {
	ResourceHandle resource.Handle
	Quantity       uint32
	WorldID        WorldID
}

// HarvestableData is the cold SoA record for Harvestable entities.
type HarvestableData struct {
	YieldResource         resource.Handle
	YieldMin, YieldMax     uint32
	RespawnTime           float32
	CurrentRespawn        float32
	IsDepleted            bool
	WorldID               WorldID
}

// ContainerData is the cold SoA record for Container entities.
type ContainerData struct {
	InventoryIndex int32
	IsOpen         bool
	LootTable      uint32
}

// ProjectileData is the cold SoA record for Projectile entities.
type ProjectileData struct {
	Owner        EntityRef
	Damage       float32
	Lifetime     float32
	VelocityCap  float32
}

// WorldID identifies a loaded game world. Defined here (rather than in
// worldresource) since ItemData/HarvestableData must carry it for
// registration with the WorldResourceRegistry.
type WorldID = [16]byte

// coldPools owns one ark World and one Map1 per cold-data kind. A single
// shared World (mirroring the teacher's single ecs.World in game.Game) is
// enough: ark keys every map by the same ecs.Entity space, so a Character
// cold entity and a Projectile cold entity are simply different archetypes
// in the same world.
type coldPools struct {
	world *ecs.World

	characters   *ecs.Map1[CharacterData]
	items        *ecs.Map1[ItemData]
	harvestables *ecs.Map1[HarvestableData]
	containers   *ecs.Map1[ContainerData]
	projectiles  *ecs.Map1[ProjectileData]
}

func newColdPools() *coldPools {
	world := ecs.NewWorld()
	return &coldPools{
		world:        world,
		characters:   ecs.NewMap1[CharacterData](world),
		items:        ecs.NewMap1[ItemData](world),
		harvestables: ecs.NewMap1[HarvestableData](world),
		containers:   ecs.NewMap1[ContainerData](world),
		projectiles:  ecs.NewMap1[ProjectileData](world),
	}
}

// create allocates the cold-data ark entity backing hot slot for kind,
// seeding it from whichever TypeData field matches. Kinds that carry no
// cold payload (AreaEffect, Prop, Trigger, StaticObstacle) get the zero
// ecs.Entity -- callers never dereference ColdRef for those kinds.
func (c *coldPools) create(kind Kind, data TypeData) (ecs.Entity, error) {
	switch kind {
	case KindPlayer, KindNPC:
		d := data.Character
		if d == nil {
			d = &CharacterData{}
		}
		return c.characters.NewEntity(d), nil
	case KindDroppedItem:
		d := data.Item
		if d == nil {
			d = &ItemData{}
		}
		return c.items.NewEntity(d), nil
	case KindHarvestable:
		d := data.Harvestable
		if d == nil {
			d = &HarvestableData{}
		}
		return c.harvestables.NewEntity(d), nil
	case KindContainer:
		d := data.Container
		if d == nil {
			d = &ContainerData{}
		}
		return c.containers.NewEntity(d), nil
	case KindProjectile:
		d := data.Projectile
		if d == nil {
			d = &ProjectileData{}
		}
		return c.projectiles.NewEntity(d), nil
	default:
		return ecs.Entity{}, nil
	}
}

// destroy releases the cold-data ark entity for kind, if any.
func (c *coldPools) destroy(kind Kind, ref ecs.Entity) {
	switch kind {
	case KindPlayer, KindNPC:
		c.characters.Remove(ref)
	case KindDroppedItem:
		c.items.Remove(ref)
	case KindHarvestable:
		c.harvestables.Remove(ref)
	case KindContainer:
		c.containers.Remove(ref)
	case KindProjectile:
		c.projectiles.Remove(ref)
	}
}
