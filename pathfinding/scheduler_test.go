package pathfinding

import (
	"testing"

	"github.com/arenacore/simcore/entities"
)

func newTestScheduler() *Scheduler {
	grids := NewGridSet(512, 512, nil)
	planner := NewPlanner(grids)
	cache := NewCache()
	return NewScheduler(planner, cache, nil, nil)
}

func TestSchedulerSubmitThenRunBatchInvokesCallback(t *testing.T) {
	s := newTestScheduler()
	h := entities.Handle{ID: 1, Kind: entities.KindNPC, Generation: 1}

	var gotStatus Status
	var gotPath []entities.Vec2
	s.Submit(Request{
		EntityID: h,
		Start:    entities.Vec2{X: 10, Y: 10},
		Goal:     entities.Vec2{X: 400, Y: 400},
		Priority: PriorityMedium,
		Callback: func(waypoints []entities.Vec2, status Status) {
			gotPath = waypoints
			gotStatus = status
		},
	})

	s.RunBatch()

	if gotStatus != Success {
		t.Fatalf("expected Success, got %v", gotStatus)
	}
	if len(gotPath) == 0 {
		t.Fatalf("expected non-empty path")
	}
}

func TestSchedulerThrottlesDuplicatePendingRequest(t *testing.T) {
	s := newTestScheduler()
	h := entities.Handle{ID: 1, Kind: entities.KindNPC, Generation: 1}

	s.Submit(Request{EntityID: h, Start: entities.Vec2{X: 0, Y: 0}, Goal: entities.Vec2{X: 400, Y: 400}, Callback: func([]entities.Vec2, Status) {}})

	var secondStatus Status
	called := false
	s.Submit(Request{EntityID: h, Start: entities.Vec2{X: 0, Y: 0}, Goal: entities.Vec2{X: 400, Y: 400}, Callback: func(_ []entities.Vec2, status Status) {
		called = true
		secondStatus = status
	}})

	if !called {
		t.Fatalf("expected throttled duplicate to still invoke its callback")
	}
	if secondStatus != Blocked {
		t.Fatalf("expected throttled duplicate to report Blocked, got %v", secondStatus)
	}
}

func TestAdjustPriorityRaisesNearReferencePoint(t *testing.T) {
	got := adjustPriority(PriorityLow, entities.Vec2{X: 0, Y: 0}, entities.Vec2{X: 100, Y: 0})
	if got != PriorityHigh {
		t.Fatalf("expected close requests to be raised to High, got %v", got)
	}

	got = adjustPriority(PriorityCritical, entities.Vec2{X: 0, Y: 0}, entities.Vec2{X: 5000, Y: 0})
	if got != PriorityLow {
		t.Fatalf("expected far requests to be lowered to Low, got %v", got)
	}
}

func TestSchedulerQueueCapRejectsOverflow(t *testing.T) {
	s := newTestScheduler()
	noop := func([]entities.Vec2, Status) {}

	for i := 0; i < DefaultQueueCap; i++ {
		h := entities.Handle{ID: uint64(i + 1), Kind: entities.KindNPC, Generation: 1}
		s.Submit(Request{EntityID: h, Start: entities.Vec2{X: float32(i), Y: 0}, Goal: entities.Vec2{X: 400, Y: 400}, Callback: noop})
	}

	rejected := false
	overflowHandle := entities.Handle{ID: uint64(DefaultQueueCap + 1), Kind: entities.KindNPC, Generation: 1}
	s.Submit(Request{EntityID: overflowHandle, Start: entities.Vec2{X: 999, Y: 0}, Goal: entities.Vec2{X: 400, Y: 400}, Callback: func(_ []entities.Vec2, status Status) {
		rejected = status == Blocked
	}})

	if s.QueueDepth() != DefaultQueueCap {
		t.Fatalf("expected queue depth to stay at cap %d, got %d", DefaultQueueCap, s.QueueDepth())
	}
	if !rejected {
		t.Fatalf("expected overflow submission to be rejected with Blocked")
	}
}
