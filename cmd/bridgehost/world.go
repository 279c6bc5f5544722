package main

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/bridge"
	"github.com/wippyai/script-bridge/native"
	"github.com/wippyai/script-bridge/object"
)

// world is the demo native side: it owns native pointers, transforms,
// names, mesh components and sounds, and publishes the natives managed code
// expects from an engine.
type world struct {
	bridge     *bridge.Bridge
	log        *zap.Logger
	nextPtr    scriptbridge.Counterpart
	transforms map[scriptbridge.Counterpart]scriptbridge.Transform
	names      map[scriptbridge.Counterpart]string
	meshes     map[scriptbridge.Counterpart]scriptbridge.Counterpart // mesh -> owner
	sounds     map[scriptbridge.Counterpart]string
	gamepads   int32
	scene      string
	console    []string
	shakes     int
}

func newWorld(log *zap.Logger) *world {
	return &world{
		log:        log,
		nextPtr:    0x1000,
		gamepads:   1,
		transforms: make(map[scriptbridge.Counterpart]scriptbridge.Transform),
		names:      make(map[scriptbridge.Counterpart]string),
		meshes:     make(map[scriptbridge.Counterpart]scriptbridge.Counterpart),
		sounds:     make(map[scriptbridge.Counterpart]string),
	}
}

// attach binds w to b and drops native state of objects b removes.
func (w *world) attach(b *bridge.Bridge) {
	w.bridge = b
	b.Objects().Subscribe(object.ObserverFunc(func(e object.Event) {
		if e.Type == object.EventRemoved && e.Counterpart != 0 {
			delete(w.transforms, e.Counterpart)
			delete(w.names, e.Counterpart)
		}
	}))
}

func (w *world) alloc() scriptbridge.Counterpart {
	w.nextPtr += 0x10
	return w.nextPtr
}

// spawn creates the native side of a new object, pairs it with a managed
// instance and runs its Begin hook.
func (w *world) spawn(typeName string, t scriptbridge.Transform) (scriptbridge.Handle, scriptbridge.Counterpart) {
	ptr := w.alloc()
	w.transforms[ptr] = t
	w.names[ptr] = typeName
	h := w.bridge.Instantiate(typeName, t, ptr)
	if h == scriptbridge.NoObject {
		delete(w.transforms, ptr)
		delete(w.names, ptr)
		return scriptbridge.NoObject, 0
	}
	w.bridge.ExecuteNamedMethod(h, "Begin")
	return h, ptr
}

func (w *world) destroy(ptr scriptbridge.Counterpart) {
	if e, ok := w.bridge.Objects().ByCounterpart(ptr); ok {
		w.bridge.Destroy(e.Handle)
	}
	for mesh, owner := range w.meshes {
		if owner == ptr {
			delete(w.meshes, mesh)
		}
	}
}

// RegisterNatives publishes the demo engine natives.
func (w *world) RegisterNatives(b *bridge.Bridge) error {
	const (
		void      = scriptbridge.KindVoid
		ptr       = scriptbridge.KindPointer
		str       = scriptbridge.KindString
		vec       = scriptbridge.KindVector
		transform = scriptbridge.KindTransform
	)
	natives := []struct {
		name string
		sig  native.Signature
		fn   native.Handler
	}{
		{"GetObjectTransform", native.Sig(transform, ptr), func(a native.Args) (any, error) {
			t, ok := w.transforms[a.Pointer(0)]
			if !ok {
				return nil, fmt.Errorf("no native object %#x", uint64(a.Pointer(0)))
			}
			return t, nil
		}},
		{"SetObjectTransform", native.Sig(void, ptr, transform), func(a native.Args) (any, error) {
			if _, ok := w.transforms[a.Pointer(0)]; !ok {
				return nil, fmt.Errorf("no native object %#x", uint64(a.Pointer(0)))
			}
			w.transforms[a.Pointer(0)] = a.Transform(1)
			return nil, nil
		}},
		{"GetObjectName", native.Sig(str, ptr), func(a native.Args) (any, error) {
			return w.names[a.Pointer(0)], nil
		}},
		{"SetObjectName", native.Sig(void, ptr, str), func(a native.Args) (any, error) {
			w.names[a.Pointer(0)] = a.String(1)
			return nil, nil
		}},
		{"NewCSObject", native.Sig(ptr, str, transform), func(a native.Args) (any, error) {
			_, p := w.spawn(a.String(0), a.Transform(1))
			if p == 0 {
				return nil, fmt.Errorf("spawn %s failed", a.String(0))
			}
			return p, nil
		}},
		{"DestroyObject", native.Sig(void, ptr), func(a native.Args) (any, error) {
			w.destroy(a.Pointer(0))
			return nil, nil
		}},
		{"NewMeshComponent", native.Sig(ptr, str, ptr), func(a native.Args) (any, error) {
			mesh := w.alloc()
			w.meshes[mesh] = a.Pointer(1)
			w.log.Debug("mesh loaded", zap.String("file", a.String(0)), zap.Uint64("mesh", uint64(mesh)))
			return mesh, nil
		}},
		{"DestroyComponent", native.Sig(void, ptr, ptr), func(a native.Args) (any, error) {
			delete(w.meshes, a.Pointer(0))
			return nil, nil
		}},
		{"RunConsoleCommand", native.Sig(str, str), func(a native.Args) (any, error) {
			w.console = append(w.console, a.String(0))
			return "ok: " + a.String(0), nil
		}},
		{"LoadScene", native.Sig(void, str), func(a native.Args) (any, error) {
			w.scene = a.String(0)
			return nil, nil
		}},
		{"PlayCameraShake", native.Sig(void, scriptbridge.KindF32), func(native.Args) (any, error) {
			w.shakes++
			return nil, nil
		}},
		{"LoadSound", native.Sig(ptr, str), func(a native.Args) (any, error) {
			p := w.alloc()
			w.sounds[p] = a.String(0)
			return p, nil
		}},
		{"PlaySound", native.Sig(void, ptr), func(a native.Args) (any, error) {
			if _, ok := w.sounds[a.Pointer(0)]; !ok {
				return nil, fmt.Errorf("sound %#x is not loaded", uint64(a.Pointer(0)))
			}
			return nil, nil
		}},
		{"ReleaseSound", native.Sig(void, ptr), func(a native.Args) (any, error) {
			delete(w.sounds, a.Pointer(0))
			return nil, nil
		}},
		{"LineTrace", native.Sig(scriptbridge.KindBool, vec, vec), func(a native.Args) (any, error) {
			return w.lineTrace(a.Vector(0), a.Vector(1)), nil
		}},
		{"GetNumGamepads", native.Sig(scriptbridge.KindS32), func(native.Args) (any, error) {
			return w.gamepads, nil
		}},
	}
	for _, n := range natives {
		fn, err := native.NewFunc(n.sig, n.fn)
		if err != nil {
			return err
		}
		if err := b.RegisterNativeFunction(n.name, fn); err != nil {
			return err
		}
	}
	return nil
}

// traceRadius is the collision radius of every object.
const traceRadius = 0.5

// lineTrace reports whether the segment from..to passes within traceRadius
// of any object position.
func (w *world) lineTrace(from, to scriptbridge.Vector) bool {
	d := to.Add(from.Scale(-1))
	length2 := d.X*d.X + d.Y*d.Y + d.Z*d.Z
	for _, t := range w.transforms {
		p := t.Position.Add(from.Scale(-1))
		s := float32(0)
		if length2 > 0 {
			s = (p.X*d.X + p.Y*d.Y + p.Z*d.Z) / length2
			s = float32(math.Max(0, math.Min(1, float64(s))))
		}
		q := p.Add(d.Scale(-s))
		if q.X*q.X+q.Y*q.Y+q.Z*q.Z <= traceRadius*traceRadius {
			return true
		}
	}
	return false
}
