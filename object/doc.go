// Package object provides the managed object registry: the mapping from
// integer handles to live managed instances for one load generation.
//
// # Handles
//
// Handles come from a 64-bit counter that only ever increases. Each value
// is folded to 32 bits (low word XOR high word); a folded value of zero is
// remapped to -1 because zero means "no object". Allocation skips handles
// that are still live, so a handle is never shared by two entries. After
// removal the same number may be issued again for a new object.
//
//	reg := object.NewRegistry()
//	h := reg.Allocate()
//	reg.Insert(object.Entry{Handle: h, TypeName: "Cube", Value: inst})
//
//	e, ok := reg.Get(h)
//	reg.Remove(h)
//
// # Observers
//
// Observers are notified after every insert and removal:
//
//	reg.Subscribe(object.ObserverFunc(func(e object.Event) {
//	    if e.Type == object.EventRemoved {
//	        log.Printf("object %d removed", e.Handle)
//	    }
//	}))
//
// The registry performs no locking. It is owned by a single simulation
// goroutine.
package object
