package entities

import (
	"testing"

	"github.com/arenacore/simcore/resource"
)

func newTestRegistry() *resource.Registry {
	reg := resource.NewRegistry()
	reg.Load(resource.Template{
		Handle:       resource.Handle{ID: 1, Generation: 1},
		Name:         "iron-ore",
		MaxStackSize: 99,
		IsStackable:  true,
	})
	return reg
}

func TestCreateEntityAssignsIncreasingSlots(t *testing.T) {
	s := NewStore(0, newTestRegistry(), nil)

	h1, err := s.CreateEntity(KindNPC, Vec2{X: 1, Y: 1}, 8, 8, TypeData{Character: &CharacterData{Health: 10, MaxHealth: 10}})
	if err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}
	h2, err := s.CreateEntity(KindNPC, Vec2{X: 2, Y: 2}, 8, 8, TypeData{Character: &CharacterData{Health: 5, MaxHealth: 10}})
	if err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}

	if h1 == h2 {
		t.Fatalf("expected distinct handles, got %v twice", h1)
	}
	if h1.Generation != 1 || h2.Generation != 1 {
		t.Fatalf("expected first allocation of each slot to be generation 1, got %d and %d", h1.Generation, h2.Generation)
	}

	idx1, ok := s.GetIndex(h1)
	if !ok || idx1 != 0 {
		t.Fatalf("expected h1 at index 0, got %d ok=%v", idx1, ok)
	}
	idx2, ok := s.GetIndex(h2)
	if !ok || idx2 != 1 {
		t.Fatalf("expected h2 at index 1, got %d ok=%v", idx2, ok)
	}

	c1 := s.GetCharacterData(h1)
	if c1 == nil || c1.Health != 10 {
		t.Fatalf("expected character data for h1 to round-trip, got %+v", c1)
	}
}

func TestDestroyEntityIsDeferredUntilCommit(t *testing.T) {
	s := NewStore(0, newTestRegistry(), nil)
	h, _ := s.CreateEntity(KindProp, Vec2{}, 4, 4, TypeData{})

	s.DestroyEntity(h)

	if _, ok := s.GetIndex(h); !ok {
		t.Fatalf("expected handle to remain resolvable before commit")
	}

	s.CommitPendingDestroys()

	if _, ok := s.GetIndex(h); ok {
		t.Fatalf("expected handle to be invalid after commit")
	}
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	s := NewStore(0, newTestRegistry(), nil)
	h1, _ := s.CreateEntity(KindProp, Vec2{}, 4, 4, TypeData{})
	s.DestroyEntity(h1)
	s.CommitPendingDestroys()

	h2, err := s.CreateEntity(KindProp, Vec2{}, 4, 4, TypeData{})
	if err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}
	if h2.slot() != h1.slot() {
		t.Fatalf("expected slot reuse, got h1 slot %d, h2 slot %d", h1.slot(), h2.slot())
	}
	if h2.Generation != h1.Generation+1 {
		t.Fatalf("expected generation to advance by 1, got h1=%d h2=%d", h1.Generation, h2.Generation)
	}

	if _, ok := s.GetIndex(h1); ok {
		t.Fatalf("expected stale handle h1 to be rejected after slot reuse")
	}
	if _, ok := s.GetIndex(h2); !ok {
		t.Fatalf("expected fresh handle h2 to resolve")
	}
}

func TestGenerationWrapsSkippingZero(t *testing.T) {
	g := uint8(255)
	g = bumpGeneration(g)
	if g != 1 {
		t.Fatalf("expected generation to wrap 255 -> 1, got %d", g)
	}
}

func TestGetIndicesByKindTracksCreatesAndDestroys(t *testing.T) {
	s := NewStore(0, newTestRegistry(), nil)
	h1, _ := s.CreateEntity(KindHarvestable, Vec2{}, 4, 4, TypeData{Harvestable: &HarvestableData{YieldMin: 1, YieldMax: 3}})
	_, _ = s.CreateEntity(KindNPC, Vec2{}, 8, 8, TypeData{Character: &CharacterData{}})
	h3, _ := s.CreateEntity(KindHarvestable, Vec2{}, 4, 4, TypeData{Harvestable: &HarvestableData{YieldMin: 2, YieldMax: 4}})

	indices := s.GetIndicesByKind(KindHarvestable)
	if len(indices) != 2 {
		t.Fatalf("expected 2 harvestables, got %d", len(indices))
	}

	s.DestroyEntity(h1)
	s.CommitPendingDestroys()

	indices = s.GetIndicesByKind(KindHarvestable)
	if len(indices) != 1 {
		t.Fatalf("expected 1 harvestable after destroy, got %d", len(indices))
	}
	remaining, ok := s.GetHandle(indices[0])
	if !ok || remaining != h3 {
		t.Fatalf("expected remaining harvestable to be h3, got %v ok=%v", remaining, ok)
	}
}

func TestCreateEntityRespectsMaxCapacity(t *testing.T) {
	s := NewStore(1, newTestRegistry(), nil)
	if _, err := s.CreateEntity(KindProp, Vec2{}, 1, 1, TypeData{}); err != nil {
		t.Fatalf("first CreateEntity should succeed: %v", err)
	}
	if _, err := s.CreateEntity(KindProp, Vec2{}, 1, 1, TypeData{}); err != ErrNoCapacity {
		t.Fatalf("expected ErrNoCapacity, got %v", err)
	}
}

func TestDestroyHookFiresBeforeSlotReuse(t *testing.T) {
	s := NewStore(0, newTestRegistry(), nil)
	var destroyed []Handle
	s.OnDestroy(func(h Handle, hot *HotData) {
		destroyed = append(destroyed, h)
	})

	h, _ := s.CreateEntity(KindProjectile, Vec2{}, 2, 2, TypeData{Projectile: &ProjectileData{Damage: 4}})
	s.DestroyEntity(h)
	s.CommitPendingDestroys()

	if len(destroyed) != 1 || destroyed[0] != h {
		t.Fatalf("expected destroy hook to fire once with %v, got %v", h, destroyed)
	}
}

func TestAllocateInventoryAndAddToInventory(t *testing.T) {
	s := NewStore(0, newTestRegistry(), nil)
	h, _ := s.CreateEntity(KindPlayer, Vec2{}, 8, 8, TypeData{Character: &CharacterData{Health: 10, MaxHealth: 10}})

	invIdx, ok := s.AllocateInventory(h, WorldID{1}, 4)
	if !ok {
		t.Fatalf("expected inventory allocation to succeed")
	}

	ore := resource.Handle{ID: 1, Generation: 1}
	if !s.AddToInventory(invIdx, ore, 10) {
		t.Fatalf("expected AddToInventory to succeed")
	}
	if got := s.Inventories.Get(invIdx).Quantity(ore); got != 10 {
		t.Fatalf("expected quantity 10, got %d", got)
	}
}
