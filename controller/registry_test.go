package controller

import "testing"

type fakeUpdatable struct {
	ticks int
}

func (f *fakeUpdatable) Update(dt float32) { f.ticks++ }

type fakeSubscriber struct {
	subscribed bool
	events     int
}

func (f *fakeSubscriber) Subscribe()   { f.subscribed = true }
func (f *fakeSubscriber) Unsubscribe() { f.subscribed = false }

type fakeSuspendable struct {
	suspended bool
}

func (f *fakeSuspendable) Suspend() { f.suspended = true }
func (f *fakeSuspendable) Resume()  { f.suspended = false }

func TestAddIsIdempotent(t *testing.T) {
	r := NewRegistry()
	a := Add(r, &fakeUpdatable{})
	b := Add(r, &fakeUpdatable{ticks: 99})

	if a != b {
		t.Fatalf("expected second Add to return the existing instance")
	}
	if r.Len() != 1 {
		t.Fatalf("expected exactly one registered controller, got %d", r.Len())
	}
}

func TestGetReturnsRegisteredInstance(t *testing.T) {
	r := NewRegistry()
	Add(r, &fakeUpdatable{})

	got, ok := Get[fakeUpdatable](r)
	if !ok || got == nil {
		t.Fatalf("expected to find registered controller")
	}

	if _, ok := Get[fakeSubscriber](r); ok {
		t.Fatalf("expected no match for an unregistered type")
	}
}

func TestHasReportsMembershipWithoutTypeAssertion(t *testing.T) {
	r := NewRegistry()
	Add(r, &fakeUpdatable{})

	if !Has[fakeUpdatable](r) {
		t.Fatalf("expected Has to find registered controller")
	}
	if Has[fakeSubscriber](r) {
		t.Fatalf("expected Has false for an unregistered type")
	}
}

func TestUpdateAllSkipsSuspendedAndNonUpdatable(t *testing.T) {
	r := NewRegistry()
	u := Add(r, &fakeUpdatable{})
	Add(r, &fakeSubscriber{})

	r.UpdateAll(0.016)
	if u.ticks != 1 {
		t.Fatalf("expected update to fire once, got %d", u.ticks)
	}

	r.SuspendAll()
	r.UpdateAll(0.016)
	if u.ticks != 1 {
		t.Fatalf("expected no update while suspended, got %d", u.ticks)
	}
}

func TestSuspendAllDefaultsToUnsubscribeWithoutSuspendable(t *testing.T) {
	r := NewRegistry()
	s := Add(r, &fakeSubscriber{})
	r.SubscribeAll()
	if !s.subscribed {
		t.Fatalf("expected subscribe to fire")
	}

	r.SuspendAll()
	if s.subscribed {
		t.Fatalf("expected default suspend behavior to unsubscribe")
	}

	r.ResumeAll()
	if !s.subscribed {
		t.Fatalf("expected default resume behavior to resubscribe")
	}
}

func TestSuspendAllUsesSuspendableOverride(t *testing.T) {
	r := NewRegistry()
	s := Add(r, &fakeSuspendable{})

	r.SuspendAll()
	if !s.suspended {
		t.Fatalf("expected Suspendable.Suspend to be invoked")
	}

	r.ResumeAll()
	if s.suspended {
		t.Fatalf("expected Suspendable.Resume to be invoked")
	}
}

func TestClearUnsubscribesAndEmptiesRegistry(t *testing.T) {
	r := NewRegistry()
	s := Add(r, &fakeSubscriber{})
	r.SubscribeAll()

	r.Clear()

	if s.subscribed {
		t.Fatalf("expected Clear to unsubscribe remaining controllers")
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry after Clear, got %d", r.Len())
	}
}
