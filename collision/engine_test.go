package collision

import (
	"testing"

	"github.com/arenacore/simcore/entities"
	"github.com/arenacore/simcore/events"
	"github.com/arenacore/simcore/resource"
)

func newTestEngine(t *testing.T) (*entities.Store, *Engine) {
	t.Helper()
	store := entities.NewStore(0, resource.NewRegistry(), nil)
	engine := NewEngine(store, events.NewBus(), 1000, 1000, DefaultCellSize, nil)
	return store, engine
}

func spawnBody(t *testing.T, store *entities.Store, engine *Engine, pos entities.Vec2, half float32, typ BodyType) entities.Handle {
	t.Helper()
	h, err := store.CreateEntity(entities.KindProp, pos, half, half, entities.TypeData{})
	if err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}
	ok := engine.AddBody(&Body{
		Owner: h, HalfWidth: half, HalfHeight: half,
		Type: typ, Layer: 1, CollidesWith: ^LayerMask(0), Enabled: true,
	})
	if !ok {
		t.Fatalf("AddBody failed for %v", h)
	}
	return h
}

func TestBroadphaseFindsOverlappingDynamicAndStaticPair(t *testing.T) {
	store, engine := newTestEngine(t)
	static := spawnBody(t, store, engine, entities.Vec2{X: 100, Y: 100}, 10, Static)
	dynamic := spawnBody(t, store, engine, entities.Vec2{X: 105, Y: 100}, 10, Dynamic)

	pairs := engine.Broadphase()
	found := false
	for _, p := range pairs {
		if (p.A == static && p.B == dynamic) || (p.A == dynamic && p.B == static) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected broadphase to report overlapping pair, got %v", pairs)
	}
}

func TestResolveStaticVsDynamicPushesDynamicOut(t *testing.T) {
	store, engine := newTestEngine(t)
	spawnBody(t, store, engine, entities.Vec2{X: 100, Y: 100}, 10, Static)
	dynamicHandle := spawnBody(t, store, engine, entities.Vec2{X: 105, Y: 100}, 10, Dynamic)

	before := store.GetHotData(dynamicHandle).Position

	pairs := engine.Broadphase()
	contacts := engine.Narrowphase(pairs)
	engine.Resolve(contacts)

	after := store.GetHotData(dynamicHandle).Position
	if after == before {
		t.Fatalf("expected dynamic body to be pushed out of the static body")
	}
}

func TestTriggerEnterThenExit(t *testing.T) {
	store, engine := newTestEngine(t)
	triggerHandle, err := store.CreateEntity(entities.KindTrigger, entities.Vec2{X: 200, Y: 200}, 20, 20, entities.TypeData{})
	if err != nil {
		t.Fatalf("CreateEntity: %v", err)
	}
	engine.AddBody(&Body{
		Owner: triggerHandle, HalfWidth: 20, HalfHeight: 20,
		Type: Static, Layer: 1, CollidesWith: ^LayerMask(0), Enabled: true,
		IsTrigger: true, TriggerTag: "zone",
	})
	playerHandle := spawnBody(t, store, engine, entities.Vec2{X: 205, Y: 200}, 8, Dynamic)

	pairs := engine.Broadphase()
	contacts := engine.Narrowphase(pairs)
	transitions := engine.Resolve(contacts)

	if len(transitions) != 1 || transitions[0].Phase != events.TriggerEnter {
		t.Fatalf("expected one Enter transition, got %v", transitions)
	}

	// Move the player out of the trigger zone.
	store.GetHotData(playerHandle).Position = entities.Vec2{X: 500, Y: 500}

	pairs = engine.Broadphase()
	contacts = engine.Narrowphase(pairs)
	transitions = engine.Resolve(contacts)

	if len(transitions) != 1 || transitions[0].Phase != events.TriggerExit {
		t.Fatalf("expected one Exit transition after leaving, got %v", transitions)
	}
}

func TestQueryAreaDedupesAcrossHashes(t *testing.T) {
	store, engine := newTestEngine(t)
	h := spawnBody(t, store, engine, entities.Vec2{X: 50, Y: 50}, 40, Dynamic)

	results := engine.QueryArea(AABB{MinX: 0, MinY: 0, MaxX: 200, MaxY: 200})
	count := 0
	for _, r := range results {
		if r == h {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected handle to appear exactly once in query results, got %d", count)
	}
}

func TestRemoveBodyUnknownHandleIsNoOp(t *testing.T) {
	_, engine := newTestEngine(t)
	if engine.RemoveBody(entities.Handle{ID: 999, Kind: entities.KindProp, Generation: 1}) {
		t.Fatalf("expected removing an unknown handle to return false")
	}
}
