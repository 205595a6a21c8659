package collision

import (
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/arenacore/simcore/entities"
	"github.com/arenacore/simcore/events"
)

// MovementThreshold: at or below this much center movement, only the cached AABB
// is refreshed; cell membership is left alone (spec §4.2).
const MovementThreshold = 2.0

// SafetyMargin is added to a static body's larger half-extent when
// computing the radius for CollisionObstacleChanged (spec §4.2).
const SafetyMargin = 4.0

type pairKey struct {
	a, b entities.Handle
}

func makePairKey(a, b entities.Handle) pairKey {
	if less(b, a) {
		a, b = b, a
	}
	return pairKey{a, b}
}

func less(a, b entities.Handle) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}

// triggerPairState is recorded on Enter and consulted on Exit, so the
// trigger/other sides of a pair are never re-derived from pairKey's
// dedup sort order (which sorts by Kind then ID, not by IsTrigger).
type triggerPairState struct {
	triggerHandle, otherHandle entities.Handle
	tag                        string
}

// Engine is the CollisionEngine: two spatial hashes, per-body state, and
// the trigger state machine.
type Engine struct {
	mu sync.RWMutex

	store *entities.Store
	bus   *events.Bus

	width, height float32
	static        *hash
	dynamic       *hash

	bodies map[entities.Handle]*Body

	// triggerActive holds the (trigger, other) pairs currently Inside,
	// keyed by the dedup-sorted pairKey but carrying which handle is
	// actually the trigger side -- pairKey's sort order (Kind then ID)
	// does not track that, per spec §4.2's per-pair state machine.
	triggerActive map[pairKey]triggerPairState
	// triggerCooldownUntil suppresses Enter re-emission for a pair until
	// this time has passed (spec §4.2). Exit is never cooldown-gated.
	triggerCooldownUntil map[pairKey]time.Time

	now func() time.Time

	log *slog.Logger
}

// NewEngine builds an Engine over worldWidth x worldHeight, with separate
// static and dynamic hashes at cellSize.
func NewEngine(store *entities.Store, bus *events.Bus, worldWidth, worldHeight, cellSize float32, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:                store,
		bus:                  bus,
		width:                worldWidth,
		height:               worldHeight,
		static:               newHash(worldWidth, worldHeight, cellSize),
		dynamic:              newHash(worldWidth, worldHeight, cellSize),
		bodies:               make(map[entities.Handle]*Body),
		triggerActive:        make(map[pairKey]triggerPairState),
		triggerCooldownUntil: make(map[pairKey]time.Time),
		now:                  time.Now,
		log:                  log,
	}
}

// AddBody registers a collision body for an already-created entity and
// inserts it into the appropriate hash. Returns false if the handle is
// already registered.
func (e *Engine) AddBody(body *Body) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.bodies[body.Owner]; exists {
		return false
	}

	hot := e.store.GetHotData(body.Owner)
	if hot == nil {
		return false
	}

	box := body.aabb(hot.Position)
	minCol, maxCol, minRow, maxRow := e.hashFor(body).cellRange(box)
	body.lastMinCol, body.lastMaxCol = minCol, maxCol
	body.lastMinRow, body.lastMaxRow = minRow, maxRow
	body.center = hot.Position

	e.bodies[body.Owner] = body
	e.hashFor(body).insert(body.Owner, box)

	if body.Type == Static {
		e.publishObstacleChanged(body, hot.Position, events.ObstacleAdded)
	}
	return true
}

// RemoveBody unregisters a body, per spec a no-op returning false on an
// unknown handle.
func (e *Engine) RemoveBody(owner entities.Handle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	body, ok := e.bodies[owner]
	if !ok {
		return false
	}
	e.hashFor(body).remove(owner, body.lastMinCol, body.lastMaxCol, body.lastMinRow, body.lastMaxRow)
	delete(e.bodies, owner)

	if body.Type == Static {
		e.publishObstacleChanged(body, body.center, events.ObstacleRemoved)
	}
	return true
}

func (e *Engine) hashFor(b *Body) *hash {
	if b.Type == Static {
		return e.static
	}
	return e.dynamic
}

func (e *Engine) publishObstacleChanged(b *Body, position entities.Vec2, kind events.ObstacleChangeKind) {
	if e.bus == nil {
		return
	}
	radius := b.HalfWidth
	if b.HalfHeight > radius {
		radius = b.HalfHeight
	}
	e.bus.Publish(events.CollisionObstacleChanged{
		Position:    events.Vec2{X: position.X, Y: position.Y},
		Radius:      radius + SafetyMargin,
		Kind:        kind,
		Description: b.Owner.String(),
	})
}

// RefreshPositions re-synchronizes every dynamic/kinematic body's cell
// membership with its current EDS position (movement-threshold gated),
// the per-tick step before broadphase.
func (e *Engine) RefreshPositions() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for owner, body := range e.bodies {
		if body.Type == Static {
			continue
		}
		hot := e.store.GetHotData(owner)
		if hot == nil {
			continue
		}

		dx, dy := hot.Position.X-body.center.X, hot.Position.Y-body.center.Y
		if dx*dx+dy*dy <= MovementThreshold*MovementThreshold {
			body.center = hot.Position
			continue
		}

		box := body.aabb(hot.Position)
		minCol, maxCol, minRow, maxRow := e.dynamic.cellRange(box)
		if minCol != body.lastMinCol || maxCol != body.lastMaxCol || minRow != body.lastMinRow || maxRow != body.lastMaxRow {
			e.dynamic.remove(owner, body.lastMinCol, body.lastMaxCol, body.lastMinRow, body.lastMaxRow)
			e.dynamic.insert(owner, box)
			body.lastMinCol, body.lastMaxCol = minCol, maxCol
			body.lastMinRow, body.lastMaxRow = minRow, maxRow
		}
		body.center = hot.Position
	}
}

// Pair is a deduped, filtered broadphase candidate.
type Pair struct {
	A, B entities.Handle
}

// Broadphase generates candidate pairs for every dynamic body against
// both hashes, parallelized per chunk of dynamic bodies (spec §5); the chunk
// results are merged and deduped here, each pair ordered by less(), before
// they are returned for narrowphase.
func (e *Engine) Broadphase() []Pair {
	e.mu.RLock()
	dynamicOwners := make([]entities.Handle, 0, len(e.bodies))
	for owner, b := range e.bodies {
		if b.Type != Static {
			dynamicOwners = append(dynamicOwners, owner)
		}
	}
	e.mu.RUnlock()

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(dynamicOwners) {
		numWorkers = len(dynamicOwners)
	}
	if numWorkers < 1 {
		return nil
	}

	chunkResults := make([][]Pair, numWorkers)
	var wg sync.WaitGroup
	chunkSize := (len(dynamicOwners) + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(dynamicOwners) {
			end = len(dynamicOwners)
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			chunkResults[w] = e.broadphaseChunk(dynamicOwners[start:end])
		}(w, start, end)
	}
	wg.Wait()

	seen := make(map[pairKey]struct{})
	var out []Pair
	for _, chunk := range chunkResults {
		for _, p := range chunk {
			k := makePairKey(p.A, p.B)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, Pair{A: k.a, B: k.b})
		}
	}
	return out
}

func (e *Engine) broadphaseChunk(owners []entities.Handle) []Pair {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []Pair
	var buf []entities.Handle
	for _, owner := range owners {
		body := e.bodies[owner]
		hot := e.store.GetHotData(owner)
		if hot == nil {
			continue
		}
		box := body.aabb(hot.Position)

		buf = buf[:0]
		buf = e.static.queryRegion(buf, box)
		buf = e.dynamic.queryRegion(buf, box)

		for _, other := range buf {
			if other == owner {
				continue
			}
			otherBody := e.bodies[other]
			if otherBody == nil || !shouldCollideWith(body, otherBody) {
				continue
			}
			out = append(out, Pair{A: owner, B: other})
		}
	}
	return out
}

// Contact is a resolved (or trigger-only) narrowphase result.
type Contact struct {
	A, B       entities.Handle
	MTVX, MTVY float32
	IsTrigger  bool
}

// Narrowphase runs AABB overlap tests per pair in parallel, then returns
// contacts sorted by (A, B) handle order -- Kind first, then ID, as less()
// compares them -- the deterministic order resolution requires.
func (e *Engine) Narrowphase(pairs []Pair) []Contact {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(pairs) {
		numWorkers = len(pairs)
	}
	if numWorkers < 1 {
		return nil
	}

	results := make([][]Contact, numWorkers)
	var wg sync.WaitGroup
	chunkSize := (len(pairs) + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(pairs) {
			end = len(pairs)
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			results[w] = e.narrowphaseChunk(pairs[start:end])
		}(w, start, end)
	}
	wg.Wait()

	var contacts []Contact
	for _, r := range results {
		contacts = append(contacts, r...)
	}
	sort.Slice(contacts, func(i, j int) bool {
		return less(contacts[i].A, contacts[j].A) ||
			(contacts[i].A == contacts[j].A && less(contacts[i].B, contacts[j].B))
	})
	return contacts
}

func (e *Engine) narrowphaseChunk(pairs []Pair) []Contact {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []Contact
	for _, p := range pairs {
		bodyA, bodyB := e.bodies[p.A], e.bodies[p.B]
		hotA, hotB := e.store.GetHotData(p.A), e.store.GetHotData(p.B)
		if bodyA == nil || bodyB == nil || hotA == nil || hotB == nil {
			continue
		}
		mtvX, mtvY, hit := overlaps(bodyA.aabb(hotA.Position), bodyB.aabb(hotB.Position))
		if !hit {
			continue
		}
		out = append(out, Contact{A: p.A, B: p.B, MTVX: mtvX, MTVY: mtvY, IsTrigger: bodyA.IsTrigger || bodyB.IsTrigger})
	}
	return out
}

// Resolve applies positional/velocity resolution serially, in the order
// contacts were given (already sorted deterministically by Narrowphase),
// and advances the trigger state machine. Returns the trigger-phase
// transitions observed this call so the caller can publish them.
func (e *Engine) Resolve(contacts []Contact) []events.WorldTrigger {
	e.mu.Lock()
	defer e.mu.Unlock()

	seenThisTick := make(map[pairKey]struct{}, len(contacts))
	var transitions []events.WorldTrigger

	for _, c := range contacts {
		bodyA, bodyB := e.bodies[c.A], e.bodies[c.B]
		if bodyA == nil || bodyB == nil {
			continue
		}

		if c.IsTrigger {
			key := makePairKey(c.A, c.B)
			seenThisTick[key] = struct{}{}
			if _, wasActive := e.triggerActive[key]; !wasActive {
				triggerBody, otherBody := bodyA, bodyB
				triggerHandle, otherHandle := c.A, c.B
				if !bodyA.IsTrigger {
					triggerBody, otherBody = bodyB, bodyA
					triggerHandle, otherHandle = c.B, c.A
				}

				tag := triggerBody.TriggerTag
				if tag == "" {
					tag = otherBody.TriggerTag
				}
				e.triggerActive[key] = triggerPairState{triggerHandle: triggerHandle, otherHandle: otherHandle, tag: tag}

				now := e.now()
				if until, cooling := e.triggerCooldownUntil[key]; !cooling || !now.Before(until) {
					cooldown := triggerBody.TriggerCooldown
					if cooldown == 0 {
						cooldown = otherBody.TriggerCooldown
					}
					e.triggerCooldownUntil[key] = now.Add(time.Duration(cooldown * float32(time.Second)))
					transitions = append(transitions, events.WorldTrigger{
						PlayerID: otherHandle.ID, TriggerID: triggerHandle.ID, Tag: tag,
						Position: e.positionOf(triggerHandle), Phase: events.TriggerEnter,
					})
				}
			}
			continue
		}

		e.resolvePositional(bodyA, bodyB, c.MTVX, c.MTVY)
	}

	for key, state := range e.triggerActive {
		if _, stillActive := seenThisTick[key]; stillActive {
			continue
		}
		delete(e.triggerActive, key)
		transitions = append(transitions, events.WorldTrigger{
			PlayerID: state.otherHandle.ID, TriggerID: state.triggerHandle.ID, Tag: state.tag,
			Position: e.positionOf(state.triggerHandle), Phase: events.TriggerExit,
		})
	}

	return transitions
}

// positionOf reads a handle's current EDS position for a trigger event,
// returning the zero Vec2 if the entity is no longer live.
func (e *Engine) positionOf(h entities.Handle) events.Vec2 {
	hot := e.store.GetHotData(h)
	if hot == nil {
		return events.Vec2{}
	}
	return events.Vec2{X: hot.Position.X, Y: hot.Position.Y}
}

func (e *Engine) resolvePositional(a, b *Body, mtvX, mtvY float32) {
	switch {
	case a.Type == Static && b.Type == Dynamic:
		e.pushOut(b, -mtvX, -mtvY, a.Restitution, a.Friction)
	case a.Type == Dynamic && b.Type == Static:
		e.pushOut(a, mtvX, mtvY, b.Restitution, b.Friction)
	case a.Type == Kinematic && b.Type == Dynamic:
		e.pushOut(b, -mtvX, -mtvY, 0, 0)
	case a.Type == Dynamic && b.Type == Kinematic:
		e.pushOut(a, mtvX, mtvY, 0, 0)
	case a.Type == Dynamic && b.Type == Dynamic:
		totalInvMass := invMass(a.Mass) + invMass(b.Mass)
		if totalInvMass == 0 {
			return
		}
		shareA := invMass(a.Mass) / totalInvMass
		shareB := invMass(b.Mass) / totalInvMass
		e.pushOut(a, mtvX*shareA, mtvY*shareA, 0, 0)
		e.pushOut(b, -mtvX*shareB, -mtvY*shareB, 0, 0)
	default:
		// Static/Kinematic vs Static/Kinematic: no positional change.
	}
}

func invMass(mass float32) float32 {
	if mass <= 0 {
		return 0
	}
	return 1 / mass
}

// pushOut displaces body by the resolved MTV and reflects/damps the
// velocity component along the push axis: restitution bounces it,
// friction (applied to the perpendicular component) slows sliding.
func (e *Engine) pushOut(body *Body, dx, dy, restitution, friction float32) {
	hot := e.store.GetHotData(body.Owner)
	if hot == nil {
		return
	}
	hot.Position.X += dx
	hot.Position.Y += dy

	if dx != 0 {
		hot.Velocity.X = -hot.Velocity.X * restitution
		hot.Velocity.Y *= 1 - friction
	} else if dy != 0 {
		hot.Velocity.Y = -hot.Velocity.Y * restitution
		hot.Velocity.X *= 1 - friction
	}
}

// QueryArea returns every handle stored in a hash cell that box overlaps,
// unioned from both hashes and deduplicated. Membership is cell-level: a
// returned body's own AABB is not tested against box.
func (e *Engine) QueryArea(box AABB) []entities.Handle {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var raw []entities.Handle
	raw = e.static.queryRegion(raw, box)
	raw = e.dynamic.queryRegion(raw, box)

	seen := make(map[entities.Handle]struct{}, len(raw))
	out := make([]entities.Handle, 0, len(raw))
	for _, h := range raw {
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

// CountInRadius returns the number of enabled dynamic/kinematic bodies
// within radius of center; used by the pathfinding cache's congestion
// eviction.
func (e *Engine) CountInRadius(center entities.Vec2, radius float32) int {
	box := AABB{MinX: center.X - radius, MinY: center.Y - radius, MaxX: center.X + radius, MaxY: center.Y + radius}
	radiusSq := radius * radius

	e.mu.RLock()
	defer e.mu.RUnlock()

	var raw []entities.Handle
	raw = e.dynamic.queryRegion(raw, box)

	seen := make(map[entities.Handle]struct{}, len(raw))
	count := 0
	for _, h := range raw {
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		if b := e.bodies[h]; b == nil || !b.Enabled {
			continue
		}
		hot := e.store.GetHotData(h)
		if hot == nil {
			continue
		}
		dx, dy := hot.Position.X-center.X, hot.Position.Y-center.Y
		if dx*dx+dy*dy <= radiusSq {
			count++
		}
	}
	return count
}
