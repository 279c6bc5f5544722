package object

import (
	"slices"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/errors"
)

// Registry maps handles to managed instances.
type Registry struct {
	entries   map[scriptbridge.Handle]*Entry
	byNative  map[scriptbridge.Counterpart]scriptbridge.Handle
	observers []Observer
	counter   int64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[scriptbridge.Handle]*Entry),
		byNative: make(map[scriptbridge.Counterpart]scriptbridge.Handle),
	}
}

// Fold reduces a counter value to a handle. Zero maps to -1.
func Fold(n int64) scriptbridge.Handle {
	h := scriptbridge.Handle(int32(uint32(n) ^ uint32(uint64(n)>>32)))
	if h == scriptbridge.NoObject {
		return -1
	}
	return h
}

// Allocate returns a handle that is not currently live. The handle is not
// reserved until Insert.
func (r *Registry) Allocate() scriptbridge.Handle {
	for {
		r.counter++
		h := Fold(r.counter)
		if _, live := r.entries[h]; !live {
			return h
		}
	}
}

// Insert adds e under e.Handle.
func (r *Registry) Insert(e Entry) error {
	if e.Handle == scriptbridge.NoObject {
		return errors.InvalidInput(errors.PhaseObject, "handle 0 is reserved")
	}
	if _, live := r.entries[e.Handle]; live {
		return errors.New(errors.PhaseObject, errors.KindRegistration).
			Value(e.Handle).
			Detail("handle %d already live", e.Handle).
			Build()
	}
	entry := e
	r.entries[e.Handle] = &entry
	if e.Counterpart != 0 {
		r.byNative[e.Counterpart] = e.Handle
	}
	r.notify(Event{Type: EventInserted, Handle: e.Handle, Counterpart: e.Counterpart, TypeName: e.TypeName, Value: e.Value})
	return nil
}

// Get returns the entry for h.
func (r *Registry) Get(h scriptbridge.Handle) (*Entry, bool) {
	e, ok := r.entries[h]
	return e, ok
}

// Contains reports whether h is live.
func (r *Registry) Contains(h scriptbridge.Handle) bool {
	_, ok := r.entries[h]
	return ok
}

// ByCounterpart resolves a native counterpart to its live entry.
func (r *Registry) ByCounterpart(c scriptbridge.Counterpart) (*Entry, bool) {
	h, ok := r.byNative[c]
	if !ok {
		return nil, false
	}
	return r.Get(h)
}

// Remove drops h, releases its value and notifies observers.
func (r *Registry) Remove(h scriptbridge.Handle) (*Entry, bool) {
	e, ok := r.entries[h]
	if !ok {
		return nil, false
	}
	delete(r.entries, h)
	if e.Counterpart != 0 && r.byNative[e.Counterpart] == h {
		delete(r.byNative, e.Counterpart)
	}
	if rel, ok := e.Value.(Releaser); ok {
		rel.Release()
	}
	r.notify(Event{Type: EventRemoved, Handle: h, Counterpart: e.Counterpart, TypeName: e.TypeName, Value: e.Value})
	return e, true
}

// Clear removes every entry. Managed teardown hooks are not run; values
// are only released.
func (r *Registry) Clear() {
	for _, h := range r.Handles() {
		r.Remove(h)
	}
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Handles returns live handles in ascending order.
func (r *Registry) Handles() []scriptbridge.Handle {
	hs := make([]scriptbridge.Handle, 0, len(r.entries))
	for h := range r.entries {
		hs = append(hs, h)
	}
	slices.Sort(hs)
	return hs
}

// Each calls fn for every live entry in handle order until fn returns false.
func (r *Registry) Each(fn func(*Entry) bool) {
	for _, h := range r.Handles() {
		e, ok := r.entries[h]
		if !ok {
			continue
		}
		if !fn(e) {
			return
		}
	}
}

// Subscribe adds an observer.
func (r *Registry) Subscribe(o Observer) {
	r.observers = append(r.observers, o)
}

// Unsubscribe removes an observer. Only comparable observers can be
// removed.
func (r *Registry) Unsubscribe(o Observer) {
	for i, obs := range r.observers {
		if obs == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

func (r *Registry) notify(e Event) {
	for _, o := range r.observers {
		o.OnObjectEvent(e)
	}
}
