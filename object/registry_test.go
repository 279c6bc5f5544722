package object

import (
	"testing"

	scriptbridge "github.com/wippyai/script-bridge"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnObjectEvent(e Event) {
	o.events = append(o.events, e)
}

type releasable struct {
	released int
}

func (r *releasable) Release() { r.released++ }

func TestRegistry_Basic(t *testing.T) {
	reg := NewRegistry()

	h := reg.Allocate()
	if h == scriptbridge.NoObject {
		t.Fatal("expected non-zero handle")
	}
	if err := reg.Insert(Entry{Handle: h, TypeName: "Cube", Value: "cube", Counterpart: 0xbeef}); err != nil {
		t.Fatal(err)
	}

	e, ok := reg.Get(h)
	if !ok || e.Value != "cube" || e.TypeName != "Cube" {
		t.Fatalf("Get = %+v, %v", e, ok)
	}
	if e, ok := reg.ByCounterpart(0xbeef); !ok || e.Handle != h {
		t.Fatalf("ByCounterpart = %+v, %v", e, ok)
	}

	if _, ok := reg.Remove(h); !ok {
		t.Fatal("Remove failed")
	}
	if reg.Contains(h) || reg.Len() != 0 {
		t.Fatal("entry should be gone")
	}
	if _, ok := reg.ByCounterpart(0xbeef); ok {
		t.Fatal("counterpart index should be cleared")
	}
	if _, ok := reg.Remove(h); ok {
		t.Fatal("second Remove should report absent")
	}
}

func TestRegistry_InsertValidation(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Insert(Entry{Handle: scriptbridge.NoObject}); err == nil {
		t.Error("handle 0 must be rejected")
	}
	h := reg.Allocate()
	_ = reg.Insert(Entry{Handle: h})
	if err := reg.Insert(Entry{Handle: h}); err == nil {
		t.Error("live handle must be rejected")
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		n    int64
		want scriptbridge.Handle
	}{
		{1, 1},
		{2, 2},
		{1 << 32, 1},
		{1<<32 | 1, -1},
		{0, -1},
		{0x7fffffff, 0x7fffffff},
		{0x80000000, -0x80000000},
	}
	for _, tt := range tests {
		if got := Fold(tt.n); got != tt.want {
			t.Errorf("Fold(%#x) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestRegistry_AllocateSkipsLive(t *testing.T) {
	reg := NewRegistry()
	h := reg.Allocate()
	_ = reg.Insert(Entry{Handle: h})

	// Rewind so the next candidate is the live handle.
	reg.counter = 0
	next := reg.Allocate()
	if next == h {
		t.Fatalf("Allocate returned live handle %d", h)
	}
	if next == scriptbridge.NoObject {
		t.Fatal("Allocate returned 0")
	}
}

func TestRegistry_AllocateWrapToZero(t *testing.T) {
	reg := NewRegistry()
	reg.counter = 1 << 32 // next value folds to zero
	if h := reg.Allocate(); h != -1 {
		t.Fatalf("Allocate = %d, want -1", h)
	}
}

func TestRegistry_UniqueHandles(t *testing.T) {
	reg := NewRegistry()
	seen := make(map[scriptbridge.Handle]bool)
	for i := 0; i < 1000; i++ {
		h := reg.Allocate()
		if h == scriptbridge.NoObject || seen[h] {
			t.Fatalf("duplicate or zero handle %d at %d", h, i)
		}
		seen[h] = true
		_ = reg.Insert(Entry{Handle: h})
	}
}

func TestRegistry_Observer(t *testing.T) {
	reg := NewRegistry()
	obs := &testObserver{}
	reg.Subscribe(obs)

	h := reg.Allocate()
	_ = reg.Insert(Entry{Handle: h, TypeName: "Cube"})
	reg.Remove(h)

	if len(obs.events) != 2 {
		t.Fatalf("got %d events, want 2", len(obs.events))
	}
	if obs.events[0].Type != EventInserted || obs.events[1].Type != EventRemoved {
		t.Errorf("events = %v", obs.events)
	}
	if obs.events[1].TypeName != "Cube" || obs.events[1].Handle != h {
		t.Errorf("removed event = %+v", obs.events[1])
	}

	reg.Unsubscribe(obs)
	h = reg.Allocate()
	_ = reg.Insert(Entry{Handle: h})
	if len(obs.events) != 2 {
		t.Error("unsubscribed observer still notified")
	}
}

func TestRegistry_ClearReleases(t *testing.T) {
	reg := NewRegistry()
	values := []*releasable{{}, {}, {}}
	for _, v := range values {
		_ = reg.Insert(Entry{Handle: reg.Allocate(), Value: v})
	}

	reg.Clear()
	if reg.Len() != 0 {
		t.Fatalf("Len = %d after Clear", reg.Len())
	}
	for i, v := range values {
		if v.released != 1 {
			t.Errorf("value %d released %d times", i, v.released)
		}
	}
}

func TestRegistry_EachOrder(t *testing.T) {
	reg := NewRegistry()
	for i := 0; i < 5; i++ {
		_ = reg.Insert(Entry{Handle: reg.Allocate()})
	}
	var prev scriptbridge.Handle
	count := 0
	reg.Each(func(e *Entry) bool {
		if count > 0 && e.Handle <= prev {
			t.Errorf("Each out of order: %d after %d", e.Handle, prev)
		}
		prev = e.Handle
		count++
		return count < 3
	})
	if count != 3 {
		t.Errorf("Each visited %d entries, want 3 (early stop)", count)
	}
}
