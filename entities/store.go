package entities

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/arenacore/simcore/resource"
)

// ErrNoCapacity is returned by CreateEntity when the pool has reached its
// hard cap and the free list is empty.
var ErrNoCapacity = errors.New("entities: no capacity")

// DestroyHook is invoked during commitPendingDestroys for every entity
// actually removed, before its slot returns to the free list. Hooks are
// how CollisionEngine/WorldResourceRegistry unregister themselves without
// this package importing them (they register a hook against the Store
// instead).
type DestroyHook func(h Handle, hot *HotData)

// Store is the EntityDataStore: single source of truth for all entity
// positions, kinds, tiers, type-local data, and inventories.
type Store struct {
	mu sync.RWMutex // structural lock: creation, destruction, kind-bucket rebuild, inventory alloc

	hot         []HotData
	freeList    []uint32
	maxCapacity int

	cold *coldPools

	kindBuckets   [kindCount][]uint32
	kindDirty     [kindCount]bool

	Inventories *InventoryPool
	Resources   *resource.Registry

	destroyHooks []DestroyHook

	log *slog.Logger
}

// NewStore creates an EDS with the given hard capacity (0 = unbounded).
func NewStore(maxCapacity int, reg *resource.Registry, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		maxCapacity: maxCapacity,
		cold:        newColdPools(),
		Inventories: newInventoryPool(),
		Resources:   reg,
		log:         log,
	}
	for k := range s.kindDirty {
		s.kindDirty[k] = true
	}
	return s
}

// OnDestroy registers a hook invoked for every entity removed by
// commitPendingDestroys.
func (s *Store) OnDestroy(hook DestroyHook) {
	s.destroyHooks = append(s.destroyHooks, hook)
}

// TypeData is the union of cold-data payloads a caller can pass to
// CreateEntity; exactly one field should be set, matching hot.Kind.
type TypeData struct {
	Character   *CharacterData
	Item        *ItemData
	Harvestable *HarvestableData
	Container   *ContainerData
	Projectile  *ProjectileData
}

// CreateEntity allocates a new entity of the given kind at position with
// the given collision half-extents and type-local cold data. Per spec
// §4.1 algorithm: pop a free slot (bumping its generation) or grow the
// pool; on success the hot slot starts alive, dirty, Active-tier.
func (s *Store) CreateEntity(kind Kind, position Vec2, halfWidth, halfHeight float32, data TypeData) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var slot uint32
	var generation uint8
	if n := len(s.freeList); n > 0 {
		slot = s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		generation = bumpGeneration(s.hot[slot].Generation)
	} else {
		if s.maxCapacity > 0 && len(s.hot) >= s.maxCapacity {
			return Handle{}, ErrNoCapacity
		}
		slot = uint32(len(s.hot))
		s.hot = append(s.hot, HotData{})
		generation = 1
	}

	h := handleFor(slot, kind, generation)

	coldRef, err := s.cold.create(kind, data)
	if err != nil {
		// Roll back the slot reservation; no partial state was written.
		s.freeList = append(s.freeList, slot)
		return Handle{}, err
	}

	s.hot[slot] = HotData{
		Position:         position,
		PreviousPosition: position,
		HalfWidth:        halfWidth,
		HalfHeight:       halfHeight,
		Kind:             kind,
		Tier:             TierActive,
		Flags:            FlagAlive | FlagDirty,
		Generation:       generation,
		ColdRef:          coldRef,
		InventoryIndex:   -1,
	}

	s.kindDirty[kind] = true
	return h, nil
}

// DestroyEntity requests destruction. No-op on a stale handle. Actual
// removal is deferred to CommitPendingDestroys, per spec's two-phase
// lifecycle (§3).
func (s *Store) DestroyEntity(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexLocked(h)
	if !ok {
		return
	}
	s.hot[idx].Flags |= FlagPendingDestroy
}

// CommitPendingDestroys removes every entity marked pendingDestroy: runs
// onDestroy hooks, frees the inventory slot, clears flags, bumps the
// generation lazily at next allocation, and returns the slot to the free
// list. Called once per tick.
func (s *Store) CommitPendingDestroys() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.hot {
		hot := &s.hot[i]
		if !hot.alive() || !hot.pendingDestroy() {
			continue
		}

		h := handleFor(uint32(i), hot.Kind, hot.Generation)
		for _, hook := range s.destroyHooks {
			hook(h, hot)
		}

		if hot.InventoryIndex >= 0 {
			s.Inventories.Free(hot.InventoryIndex)
		}
		s.cold.destroy(hot.Kind, hot.ColdRef)

		s.kindDirty[hot.Kind] = true
		generation := hot.Generation
		*hot = HotData{}
		hot.Generation = generation // preserved: CreateEntity's pop-path bumps from here, not from 0
		s.freeList = append(s.freeList, uint32(i))
	}
}

// GetHandle reconstructs the external handle for a dense index, or the
// zero Handle if the slot is not currently alive.
func (s *Store) GetHandle(index int) (Handle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.hot) || !s.hot[index].alive() {
		return Handle{}, false
	}
	hot := &s.hot[index]
	return handleFor(uint32(index), hot.Kind, hot.Generation), true
}

// GetIndex resolves a handle to its dense index, checking generation.
// Returns false (never panics) on a stale or unknown handle.
func (s *Store) GetIndex(h Handle) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(h)
}

func (s *Store) indexLocked(h Handle) (int, bool) {
	if !h.IsValid() {
		return 0, false
	}
	slot := h.slot()
	if int(slot) >= len(s.hot) {
		return 0, false
	}
	hot := &s.hot[slot]
	if !hot.alive() || hot.Generation != h.Generation {
		return 0, false
	}
	return int(slot), true
}

// GetHotData returns a pointer to the hot data for a handle, valid until
// the next structural mutation (CreateEntity/CommitPendingDestroys).
func (s *Store) GetHotData(h Handle) *HotData {
	idx, ok := s.GetIndex(h)
	if !ok {
		return nil
	}
	return &s.hot[idx]
}

// GetHotDataByIndex is the zero-check fast path for callers already holding
// a dense index from GetActiveIndices/GetIndicesByKind.
func (s *Store) GetHotDataByIndex(index int) *HotData {
	if index < 0 || index >= len(s.hot) {
		return nil
	}
	return &s.hot[index]
}

// GetCharacterData returns the cold CharacterData for a Player/NPC handle.
func (s *Store) GetCharacterData(h Handle) *CharacterData {
	hot := s.GetHotData(h)
	if hot == nil {
		return nil
	}
	return s.cold.characters.Get(hot.ColdRef)
}

// GetItemData returns the cold ItemData for a DroppedItem handle.
func (s *Store) GetItemData(h Handle) *ItemData {
	hot := s.GetHotData(h)
	if hot == nil {
		return nil
	}
	return s.cold.items.Get(hot.ColdRef)
}

// GetHarvestableData returns the cold HarvestableData for a Harvestable handle.
func (s *Store) GetHarvestableData(h Handle) *HarvestableData {
	hot := s.GetHotData(h)
	if hot == nil {
		return nil
	}
	return s.cold.harvestables.Get(hot.ColdRef)
}

// GetContainerData returns the cold ContainerData for a Container handle.
func (s *Store) GetContainerData(h Handle) *ContainerData {
	hot := s.GetHotData(h)
	if hot == nil {
		return nil
	}
	return s.cold.containers.Get(hot.ColdRef)
}

// GetProjectileData returns the cold ProjectileData for a Projectile handle.
func (s *Store) GetProjectileData(h Handle) *ProjectileData {
	hot := s.GetHotData(h)
	if hot == nil {
		return nil
	}
	return s.cold.projectiles.Get(hot.ColdRef)
}

// GetActiveIndices returns all live, non-Hibernated dense indices.
func (s *Store) GetActiveIndices() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, 0, len(s.hot))
	for i := range s.hot {
		if s.hot[i].alive() && s.hot[i].Tier != TierHibernated {
			out = append(out, i)
		}
	}
	return out
}

// GetIndicesByKind returns the maintained kind bucket, rebuilding it first
// if dirty (per spec §4.1: "rebuild on next read").
func (s *Store) GetIndicesByKind(kind Kind) []int {
	s.mu.Lock()
	if s.kindDirty[kind] {
		s.rebuildKindBucketLocked(kind)
	}
	bucket := s.kindBuckets[kind]
	s.mu.Unlock()

	out := make([]int, len(bucket))
	for i, slot := range bucket {
		out[i] = int(slot)
	}
	return out
}

func (s *Store) rebuildKindBucketLocked(kind Kind) {
	bucket := s.kindBuckets[kind][:0]
	for i := range s.hot {
		if s.hot[i].alive() && s.hot[i].Kind == kind {
			bucket = append(bucket, uint32(i))
		}
	}
	s.kindBuckets[kind] = bucket
	s.kindDirty[kind] = false
}

// AllocateInventory reserves an inventory for an entity and binds it in
// both directions (hot.InventoryIndex and the inventory's Owner/WorldID).
func (s *Store) AllocateInventory(h Handle, worldID WorldID, capacity int) (int32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexLocked(h)
	if !ok {
		return -1, false
	}
	invIdx := s.Inventories.Alloc(h, capacity)
	s.Inventories.Get(invIdx).WorldID = worldID
	s.hot[idx].InventoryIndex = invIdx
	return invIdx, true
}

// AddToInventory adds qty of resource r to the inventory at inventoryIndex.
// Returns false if the inventory is unknown or full (spec §4.1).
func (s *Store) AddToInventory(inventoryIndex int32, r resource.Handle, qty uint32) bool {
	inv := s.Inventories.Get(inventoryIndex)
	if inv == nil {
		return false
	}
	return inv.Add(s.Resources, r, qty, "add")
}

// Len returns the number of dense slots ever allocated (including freed
// ones still occupying array space).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hot)
}
