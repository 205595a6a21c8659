package entities

import (
	"github.com/arenacore/simcore/events"
	"github.com/arenacore/simcore/resource"
)

// InventorySlot holds one stack.
type InventorySlot struct {
	ResourceHandle resource.Handle
	Quantity       uint32
}

// Inventory is a dense, fixed-capacity set of stacks plus an O(1)
// per-resource quantity cache, per spec §3.
type Inventory struct {
	Owner    Handle
	WorldID  WorldID
	slots    []InventorySlot
	quantity map[resource.Handle]uint32
	changeCB []ChangeCallback
	free     bool
}

// ChangeCallback is invoked, outside any Inventory lock, whenever a slot's
// quantity transitions. Per the spec's callback-closures re-architecture
// note (§9), callbacks are values held by the emitter and must not re-enter
// it.
type ChangeCallback func(events.ResourceChange)

// newInventory allocates an inventory with the given slot capacity.
func newInventory(owner Handle, capacity int) *Inventory {
	return &Inventory{
		Owner:    owner,
		slots:    make([]InventorySlot, capacity),
		quantity: make(map[resource.Handle]uint32),
	}
}

func (inv *Inventory) reset(owner Handle, capacity int) {
	if cap(inv.slots) < capacity {
		inv.slots = make([]InventorySlot, capacity)
	} else {
		inv.slots = inv.slots[:capacity]
		for i := range inv.slots {
			inv.slots[i] = InventorySlot{}
		}
	}
	inv.Owner = owner
	inv.WorldID = WorldID{}
	for k := range inv.quantity {
		delete(inv.quantity, k)
	}
	inv.changeCB = inv.changeCB[:0]
	inv.free = false
}

// Subscribe registers a change callback, returning an unsubscribe func.
func (inv *Inventory) Subscribe(cb ChangeCallback) func() {
	inv.changeCB = append(inv.changeCB, cb)
	idx := len(inv.changeCB) - 1
	return func() {
		if idx < len(inv.changeCB) {
			inv.changeCB[idx] = nil
		}
	}
}

func (inv *Inventory) emit(ev events.ResourceChange) {
	cbs := inv.changeCB
	for _, cb := range cbs {
		if cb != nil {
			cb(ev)
		}
	}
}

// Quantity returns the O(1) cached total for a resource across all slots.
func (inv *Inventory) Quantity(r resource.Handle) uint32 {
	return inv.quantity[r]
}

// Add stacks qty of r into available slots, respecting maxStackSize from
// reg. Returns false (and makes no change) if the inventory cannot hold the
// full quantity -- per spec §4.1 addToInventory, Add is all-or-nothing.
func (inv *Inventory) Add(reg *resource.Registry, r resource.Handle, qty uint32, reason string) bool {
	if qty == 0 || !r.IsValid() {
		return false
	}
	maxStack := reg.MaxStackSize(r)
	if maxStack == 0 {
		return false
	}

	remaining := qty
	// Dry run: verify capacity exists before mutating anything.
	free := make([]int, 0, len(inv.slots))
	fill := make([]uint32, len(inv.slots))
	for i, s := range inv.slots {
		if s.ResourceHandle == r && s.Quantity < maxStack {
			room := maxStack - s.Quantity
			take := room
			if take > remaining {
				take = remaining
			}
			fill[i] = take
			remaining -= take
			if remaining == 0 {
				break
			}
		}
	}
	if remaining > 0 {
		for i, s := range inv.slots {
			if remaining == 0 {
				break
			}
			if s.Quantity == 0 && fill[i] == 0 {
				take := maxStack
				if take > remaining {
					take = remaining
				}
				free = append(free, i)
				fill[i] = take
				remaining -= take
			}
		}
	}
	if remaining > 0 {
		return false // not enough room for the full amount
	}

	for i, take := range fill {
		if take == 0 {
			continue
		}
		old := inv.slots[i].Quantity
		inv.slots[i].ResourceHandle = r
		inv.slots[i].Quantity = old + take
		inv.emit(events.ResourceChange{
			Owner: inv.Owner, Resource: r,
			OldQuantity: old, NewQuantity: inv.slots[i].Quantity, Reason: reason,
		})
	}
	inv.quantity[r] += qty
	return true
}

// Remove takes qty of r out of the inventory, draining matching slots in
// slot-index order regardless of how full each one is. Returns false if the
// inventory does not hold at least qty.
func (inv *Inventory) Remove(r resource.Handle, qty uint32, reason string) bool {
	if qty == 0 || inv.quantity[r] < qty {
		return false
	}
	remaining := qty
	for i := range inv.slots {
		if remaining == 0 {
			break
		}
		s := &inv.slots[i]
		if s.ResourceHandle != r || s.Quantity == 0 {
			continue
		}
		take := s.Quantity
		if take > remaining {
			take = remaining
		}
		old := s.Quantity
		s.Quantity -= take
		if s.Quantity == 0 {
			s.ResourceHandle = resource.Handle{}
		}
		remaining -= take
		inv.emit(events.ResourceChange{
			Owner: inv.Owner, Resource: r,
			OldQuantity: old, NewQuantity: s.Quantity, Reason: reason,
		})
	}
	inv.quantity[r] -= qty
	if inv.quantity[r] == 0 {
		delete(inv.quantity, r)
	}
	return true
}

// SlotCount returns the inventory's fixed slot capacity.
func (inv *Inventory) SlotCount() int { return len(inv.slots) }

// Slot returns the slot at i (read-only view).
func (inv *Inventory) Slot(i int) InventorySlot { return inv.slots[i] }

// InventoryPool is a dense, growable pool of inventories referenced by
// InventoryIndex, with its own free list (mirrors the Store's entity free
// list, one level down).
type InventoryPool struct {
	items    []*Inventory
	freeList []int32
}

func newInventoryPool() *InventoryPool {
	return &InventoryPool{}
}

// Alloc reserves an inventory with the given capacity and returns its
// dense index.
func (p *InventoryPool) Alloc(owner Handle, capacity int) int32 {
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		p.items[idx].reset(owner, capacity)
		return idx
	}
	p.items = append(p.items, newInventory(owner, capacity))
	return int32(len(p.items) - 1)
}

// Get returns the inventory at idx, or nil if idx is out of range or freed.
func (p *InventoryPool) Get(idx int32) *Inventory {
	if idx < 0 || int(idx) >= len(p.items) {
		return nil
	}
	inv := p.items[idx]
	if inv.free {
		return nil
	}
	return inv
}

// Free returns the inventory slot to the pool.
func (p *InventoryPool) Free(idx int32) {
	if idx < 0 || int(idx) >= len(p.items) {
		return
	}
	p.items[idx].free = true
	p.freeList = append(p.freeList, idx)
}
