// Package worldresource implements the WorldResourceRegistry (WRR):
// per-world spatial indices answering "what's near here?" for dropped
// items and harvestables, plus aggregate inventory/yield totals. WRR is a
// pure registry -- quantities live in entities.Store; WRR only indexes
// which inventories/harvestables belong to which world and where.
package worldresource

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/arenacore/simcore/entities"
	"github.com/arenacore/simcore/events"
	"github.com/arenacore/simcore/resource"
)

// CellSize is the per-world spatial index cell edge length (spec §4.4).
const CellSize = 64.0

// worldIndex is the per-world state: membership sets plus a spatial hash
// for fast radius queries, per kind (items, harvestables).
type worldIndex struct {
	inventories   map[int32]struct{}
	harvestables  map[int32]struct{}

	itemCells        map[cellKey][]int32
	harvestableCells map[cellKey][]int32

	// reverse lookups for O(1) removal without a full cell scan.
	itemCellOf        map[int32]cellKey
	harvestableCellOf map[int32]cellKey
}

type cellKey struct{ x, y int32 }

func newWorldIndex() *worldIndex {
	return &worldIndex{
		inventories:       make(map[int32]struct{}),
		harvestables:      make(map[int32]struct{}),
		itemCells:         make(map[cellKey][]int32),
		harvestableCells:  make(map[cellKey][]int32),
		itemCellOf:        make(map[int32]cellKey),
		harvestableCellOf: make(map[int32]cellKey),
	}
}

func cellOf(p entities.Vec2) cellKey {
	return cellKey{int32(p.X / CellSize), int32(p.Y / CellSize)}
}

// Registry is the WorldResourceRegistry.
type Registry struct {
	mu     sync.RWMutex
	worlds map[entities.WorldID]*worldIndex

	store *entities.Store

	active entities.WorldID

	activeItemCount        atomic.Int64
	activeHarvestableCount atomic.Int64

	queryCount atomic.Int64
}

// Stats is a snapshot of WRR-wide bookkeeping counters, mirroring the
// original engine's WorldResourceStats. QueryCount is an atomic counter;
// the world and registration counts are computed under the registry's
// read lock.
type Stats struct {
	WorldsTracked          int
	InventoriesRegistered  int
	HarvestablesRegistered int
	QueryCount             int64
}

// Stats reports per-registry totals across every tracked world.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Stats{WorldsTracked: len(r.worlds), QueryCount: r.queryCount.Load()}
	for _, idx := range r.worlds {
		s.InventoriesRegistered += len(idx.inventories)
		s.HarvestablesRegistered += len(idx.harvestables)
	}
	return s
}

// PrepareForStateTransition zeroes the active-world fast-path counters so
// an in-flight query reads nothing stale while the caller tears down or
// swaps the active world (mirrors WorldResourceManager's state-transition
// hook: stop the fast path before the slow teardown runs).
func (r *Registry) PrepareForStateTransition() {
	r.activeItemCount.Store(0)
	r.activeHarvestableCount.Store(0)
}

// NewRegistry builds an empty WRR bound to an EntityDataStore for reading
// positions and inventory quantities.
func NewRegistry(store *entities.Store) *Registry {
	return &Registry{
		worlds: make(map[entities.WorldID]*worldIndex),
		store:  store,
	}
}

// NewWorldID mints a fresh identity for a world about to be loaded.
func NewWorldID() entities.WorldID {
	return entities.WorldID(uuid.New())
}

// HandleWorldLoaded creates the index for a newly loaded world and marks
// it active (spec §4.4 event wiring).
func (r *Registry) HandleWorldLoaded(ev events.WorldLoaded) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.worlds[entities.WorldID(ev.WorldID)] = newWorldIndex()
	r.active = entities.WorldID(ev.WorldID)
	r.recomputeActiveCountsLocked()
}

// HandleWorldUnloaded clears a world's spatial data.
func (r *Registry) HandleWorldUnloaded(ev events.WorldUnloaded) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.worlds, entities.WorldID(ev.WorldID))
	if r.active == entities.WorldID(ev.WorldID) {
		r.active = entities.WorldID{}
		r.activeItemCount.Store(0)
		r.activeHarvestableCount.Store(0)
	}
}

func (r *Registry) recomputeActiveCountsLocked() {
	idx, ok := r.worlds[r.active]
	if !ok {
		r.activeItemCount.Store(0)
		r.activeHarvestableCount.Store(0)
		return
	}
	r.activeItemCount.Store(int64(len(idx.inventories)))
	r.activeHarvestableCount.Store(int64(len(idx.harvestables)))
}

// RegisterItem indexes a dropped item's inventory slot at position in
// worldID.
func (r *Registry) RegisterItem(worldID entities.WorldID, inventoryIndex int32, position entities.Vec2) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.worldFor(worldID)
	idx.inventories[inventoryIndex] = struct{}{}
	key := cellOf(position)
	idx.itemCells[key] = append(idx.itemCells[key], inventoryIndex)
	idx.itemCellOf[inventoryIndex] = key
	if worldID == r.active {
		r.activeItemCount.Add(1)
	}
}

// UnregisterItem removes an inventory from worldID's item index.
func (r *Registry) UnregisterItem(worldID entities.WorldID, inventoryIndex int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.worlds[worldID]
	if !ok {
		return
	}
	if _, present := idx.inventories[inventoryIndex]; !present {
		return
	}
	delete(idx.inventories, inventoryIndex)
	if key, ok := idx.itemCellOf[inventoryIndex]; ok {
		idx.itemCells[key] = removeFromSlice(idx.itemCells[key], inventoryIndex)
		delete(idx.itemCellOf, inventoryIndex)
	}
	if worldID == r.active {
		r.activeItemCount.Add(-1)
	}
}

// RegisterHarvestable indexes a harvestable's type-local slot at position
// in worldID.
func (r *Registry) RegisterHarvestable(worldID entities.WorldID, harvestableIndex int32, position entities.Vec2) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.worldFor(worldID)
	idx.harvestables[harvestableIndex] = struct{}{}
	key := cellOf(position)
	idx.harvestableCells[key] = append(idx.harvestableCells[key], harvestableIndex)
	idx.harvestableCellOf[harvestableIndex] = key
	if worldID == r.active {
		r.activeHarvestableCount.Add(1)
	}
}

// UnregisterHarvestable removes a harvestable from worldID's index.
func (r *Registry) UnregisterHarvestable(worldID entities.WorldID, harvestableIndex int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.worlds[worldID]
	if !ok {
		return
	}
	if _, present := idx.harvestables[harvestableIndex]; !present {
		return
	}
	delete(idx.harvestables, harvestableIndex)
	if key, ok := idx.harvestableCellOf[harvestableIndex]; ok {
		idx.harvestableCells[key] = removeFromSlice(idx.harvestableCells[key], harvestableIndex)
		delete(idx.harvestableCellOf, harvestableIndex)
	}
	if worldID == r.active {
		r.activeHarvestableCount.Add(-1)
	}
}

func (r *Registry) worldFor(worldID entities.WorldID) *worldIndex {
	idx, ok := r.worlds[worldID]
	if !ok {
		idx = newWorldIndex()
		r.worlds[worldID] = idx
	}
	return idx
}

func removeFromSlice(s []int32, v int32) []int32 {
	for i, x := range s {
		if x == v {
			s[i] = s[len(s)-1]
			return s[:len(s)-1]
		}
	}
	return s
}

// queryCells returns every index present in cells overlapping center ±
// radius (step 1-2 of spec §4.4's spatial query algorithm); callers filter
// by precise distance (step 3).
func queryCells(cells map[cellKey][]int32, center entities.Vec2, radius float32) []int32 {
	minX, minY := int32((center.X-radius)/CellSize), int32((center.Y-radius)/CellSize)
	maxX, maxY := int32((center.X+radius)/CellSize), int32((center.Y+radius)/CellSize)

	var out []int32
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			out = append(out, cells[cellKey{x, y}]...)
		}
	}
	return out
}

// QueryItemsInRadius returns item inventory indices within radius of
// center in worldID, precisely filtered (spec §4.4 step 3) via positions
// supplied by the caller (item entities' EDS hot positions).
func (r *Registry) QueryItemsInRadius(worldID entities.WorldID, center entities.Vec2, radius float32, positionOf func(inventoryIndex int32) (entities.Vec2, bool)) []int32 {
	r.mu.RLock()
	idx, ok := r.worlds[worldID]
	if !ok {
		r.mu.RUnlock()
		return nil
	}
	candidates := queryCells(idx.itemCells, center, radius)
	r.mu.RUnlock()

	radiusSq := radius * radius
	out := candidates[:0]
	for _, c := range candidates {
		pos, ok := positionOf(c)
		if !ok {
			continue
		}
		dx, dy := pos.X-center.X, pos.Y-center.Y
		if dx*dx+dy*dy <= radiusSq {
			out = append(out, c)
		}
	}
	return out
}

// FindClosestDroppedItem returns the nearest item inventory index within
// radius, or false if none are in range.
func (r *Registry) FindClosestDroppedItem(worldID entities.WorldID, center entities.Vec2, radius float32, positionOf func(inventoryIndex int32) (entities.Vec2, bool)) (int32, bool) {
	candidates := r.QueryItemsInRadius(worldID, center, radius, positionOf)
	best := int32(-1)
	bestDistSq := radius * radius
	for _, c := range candidates {
		pos, ok := positionOf(c)
		if !ok {
			continue
		}
		dx, dy := pos.X-center.X, pos.Y-center.Y
		distSq := dx*dx + dy*dy
		if distSq <= bestDistSq {
			best = c
			bestDistSq = distSq
		}
	}
	return best, best >= 0
}

// QueryInventoryTotal sums the quantity of resourceHandle across every
// inventory registered in worldID.
func (r *Registry) QueryInventoryTotal(worldID entities.WorldID, resourceHandle resource.Handle) uint32 {
	r.queryCount.Add(1)
	r.mu.RLock()
	idx, ok := r.worlds[worldID]
	if !ok {
		r.mu.RUnlock()
		return 0
	}
	indices := make([]int32, 0, len(idx.inventories))
	for i := range idx.inventories {
		indices = append(indices, i)
	}
	r.mu.RUnlock()

	var total uint32
	for _, i := range indices {
		if inv := r.store.Inventories.Get(i); inv != nil {
			total += inv.Quantity(resourceHandle)
		}
	}
	return total
}

// QueryHarvestableTotal sums yieldMax across every non-depleted
// harvestable registered in worldID.
func (r *Registry) QueryHarvestableTotal(worldID entities.WorldID, harvestableOf func(index int32) (*entities.HarvestableData, bool)) uint32 {
	r.queryCount.Add(1)
	r.mu.RLock()
	idx, ok := r.worlds[worldID]
	if !ok {
		r.mu.RUnlock()
		return 0
	}
	indices := make([]int32, 0, len(idx.harvestables))
	for i := range idx.harvestables {
		indices = append(indices, i)
	}
	r.mu.RUnlock()

	var total uint32
	for _, i := range indices {
		data, ok := harvestableOf(i)
		if !ok || data.IsDepleted {
			continue
		}
		total += data.YieldMax
	}
	return total
}

// QueryWorldTotal sums the inventory and harvestable totals of
// resourceHandle across worldID, matching WorldResourceManager's combined
// "how much of R exists in this world, period" query.
func (r *Registry) QueryWorldTotal(worldID entities.WorldID, resourceHandle resource.Handle, harvestableOf func(index int32) (*entities.HarvestableData, bool)) uint32 {
	return r.QueryInventoryTotal(worldID, resourceHandle) + r.QueryHarvestableTotal(worldID, harvestableOf)
}

// HasResource reports whether worldID holds at least minimumQuantity of
// resourceHandle, combining inventories and harvestables. minimumQuantity
// of 0 is treated as 1, matching the original engine's default threshold.
func (r *Registry) HasResource(worldID entities.WorldID, resourceHandle resource.Handle, minimumQuantity uint32, harvestableOf func(index int32) (*entities.HarvestableData, bool)) bool {
	if minimumQuantity == 0 {
		minimumQuantity = 1
	}
	return r.QueryWorldTotal(worldID, resourceHandle, harvestableOf) >= minimumQuantity
}

// ActiveWorld returns the currently active world ID and its fast-path
// counts (spec §4.4 atomic early-out).
func (r *Registry) ActiveWorld() (entities.WorldID, int64, int64) {
	r.mu.RLock()
	active := r.active
	r.mu.RUnlock()
	return active, r.activeItemCount.Load(), r.activeHarvestableCount.Load()
}
