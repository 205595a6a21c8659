// Package controller implements the ControllerRegistry: a type-keyed
// collection of heterogeneous helper objects bound to a running game
// state, with batched lifecycle dispatch (subscribe/unsubscribe/suspend/
// resume) and per-frame update for the subset that opts in.
package controller

import "reflect"

// Subscriber is implemented by controllers that need to attach to an
// event bus or similar external source when activated.
type Subscriber interface {
	Subscribe()
}

// Unsubscriber is the inverse of Subscriber.
type Unsubscriber interface {
	Unsubscribe()
}

// Suspendable lets a controller override the default suspend/resume
// behavior (unsubscribe/resubscribe) to keep its subscriptions live while
// suspended -- e.g. a controller that must keep observing state changes
// even when its own update is paused.
type Suspendable interface {
	Suspend()
	Resume()
}

// Updatable is implemented by controllers with per-frame work. Capability
// detection is a type assertion that UpdateAll performs on each registered
// instance on every call; the result is not cached at registration. No
// reflection is used in that loop.
type Updatable interface {
	Update(dt float32)
}

// Registry owns every controller instance for one game state.
type Registry struct {
	order     []reflect.Type
	items     map[reflect.Type]any
	suspended map[reflect.Type]bool
}

// NewRegistry creates an empty controller registry.
func NewRegistry() *Registry {
	return &Registry{
		items:     make(map[reflect.Type]any),
		suspended: make(map[reflect.Type]bool),
	}
}

// Add registers instance under its concrete type and returns it. If a
// value of the same type is already registered, Add is a no-op and
// returns the existing instance instead (idempotent per spec §4.6).
func Add[T any](r *Registry, instance *T) *T {
	t := reflect.TypeOf(instance)
	if existing, ok := r.items[t]; ok {
		return existing.(*T)
	}
	r.items[t] = instance
	r.order = append(r.order, t)
	return instance
}

// Has reports whether a controller of type *T is registered, without the
// type assertion Get needs from its caller.
func Has[T any](r *Registry) bool {
	t := reflect.TypeOf((*T)(nil))
	_, ok := r.items[t]
	return ok
}

// Get returns the registered instance of type *T, or (nil, false) if none
// has been added.
func Get[T any](r *Registry) (*T, bool) {
	t := reflect.TypeOf((*T)(nil))
	v, ok := r.items[t]
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// SubscribeAll invokes Subscribe on every registered controller that
// implements Subscriber.
func (r *Registry) SubscribeAll() {
	for _, t := range r.order {
		if s, ok := r.items[t].(Subscriber); ok {
			s.Subscribe()
		}
	}
}

// UnsubscribeAll invokes Unsubscribe on every registered controller that
// implements Unsubscriber.
func (r *Registry) UnsubscribeAll() {
	for _, t := range r.order {
		if u, ok := r.items[t].(Unsubscriber); ok {
			u.Unsubscribe()
		}
	}
}

// SuspendAll marks every controller suspended. A controller implementing
// Suspendable gets its own Suspend() called; otherwise the default
// behavior applies -- Unsubscribe(), if implemented.
func (r *Registry) SuspendAll() {
	for _, t := range r.order {
		if r.suspended[t] {
			continue
		}
		r.suspended[t] = true
		inst := r.items[t]
		if s, ok := inst.(Suspendable); ok {
			s.Suspend()
			continue
		}
		if u, ok := inst.(Unsubscriber); ok {
			u.Unsubscribe()
		}
	}
}

// ResumeAll un-suspends every controller. A Suspendable controller gets
// Resume() called; otherwise the default behavior applies -- Subscribe(),
// if implemented.
func (r *Registry) ResumeAll() {
	for _, t := range r.order {
		if !r.suspended[t] {
			continue
		}
		r.suspended[t] = false
		inst := r.items[t]
		if s, ok := inst.(Suspendable); ok {
			s.Resume()
			continue
		}
		if sub, ok := inst.(Subscriber); ok {
			sub.Subscribe()
		}
	}
}

// UpdateAll invokes Update(dt) on every registered controller that
// implements Updatable and is not currently suspended.
func (r *Registry) UpdateAll(dt float32) {
	for _, t := range r.order {
		if r.suspended[t] {
			continue
		}
		if u, ok := r.items[t].(Updatable); ok {
			u.Update(dt)
		}
	}
}

// Clear unsubscribes and discards every controller.
func (r *Registry) Clear() {
	r.UnsubscribeAll()
	r.order = nil
	r.items = make(map[reflect.Type]any)
	r.suspended = make(map[reflect.Type]bool)
}

// Len returns the number of registered controllers.
func (r *Registry) Len() int { return len(r.order) }
