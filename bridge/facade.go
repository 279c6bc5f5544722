package bridge

import (
	stderrors "errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/native"
	"github.com/wippyai/script-bridge/object"
)

// Instantiate constructs an object of typeName, pairs it with counterpart
// and applies t. It returns NoObject when the type is unknown or
// construction fails; the registry is not touched in that case.
func (b *Bridge) Instantiate(typeName string, t scriptbridge.Transform, counterpart scriptbridge.Counterpart) (h scriptbridge.Handle) {
	defer b.guard("Instantiate", zap.String("type", typeName))

	if b.state != StateLoaded {
		b.log.Warn("instantiate without a loaded domain", zap.String("type", typeName))
		return scriptbridge.NoObject
	}
	desc, ok := b.types.Lookup(typeName)
	if !ok {
		b.log.Warn("no world-object type with this name", zap.String("type", typeName))
		return scriptbridge.NoObject
	}

	inst, err := b.construct(desc, counterpart)
	if err != nil {
		b.log.Warn("construct instance", zap.String("type", typeName), zap.Error(err))
		return scriptbridge.NoObject
	}

	h = b.objects.Allocate()
	if err := b.objects.Insert(object.Entry{
		Handle:      h,
		TypeName:    desc.QualifiedName(),
		Value:       inst,
		Counterpart: counterpart,
	}); err != nil {
		b.log.Warn("register instance", zap.String("type", typeName), zap.Error(err))
		return scriptbridge.NoObject
	}

	for _, c := range []struct {
		name string
		v    scriptbridge.Vector
	}{
		{scriptbridge.FieldPosition, t.Position},
		{scriptbridge.FieldRotation, t.Rotation},
		{scriptbridge.FieldScale, t.Scale},
	} {
		if err := desc.Fields.SetVector(inst, c.name, c.v); err != nil {
			b.log.Warn("apply transform", zap.Int32("handle", int32(h)), zap.String("field", c.name), zap.Error(err))
		}
	}
	return h
}

func (b *Bridge) construct(desc *domain.TypeDesc, counterpart scriptbridge.Counterpart) (inst domain.Instance, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Instantiation(desc.QualifiedName(), fmt.Errorf("panic: %v", r))
		}
	}()
	inst, err = desc.New()
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, errors.Instantiation(desc.QualifiedName(), nil)
	}
	if err := desc.Fields.Set(inst, scriptbridge.FieldNative, counterpart); err != nil {
		if rel, ok := inst.(object.Releaser); ok {
			rel.Release()
		}
		return nil, errors.Instantiation(desc.QualifiedName(), err)
	}
	return inst, nil
}

// Destroy runs the object's Destroy hook, destroys its components in
// attachment order, clears the component list and removes the handle.
// Unknown handles are ignored.
func (b *Bridge) Destroy(h scriptbridge.Handle) {
	defer b.guard("Destroy", zap.Int32("handle", int32(h)))

	inst, ok := b.GetByHandle(h)
	if !ok || b.destroying[h] {
		return
	}
	b.destroying[h] = true
	defer delete(b.destroying, h)

	if err := inst.Call("Destroy"); err != nil && !isNotFound(err) {
		b.log.Warn("destroy hook failed", zap.Int32("handle", int32(h)), zap.Error(err))
	}
	for i, c := range slices.Clone(inst.Components()) {
		if err := c.Destroy(); err != nil {
			b.log.Warn("component destroy failed", zap.Int32("handle", int32(h)), zap.Int("component", i), zap.Error(err))
		}
	}
	inst.ClearComponents()
	b.objects.Remove(h)
}

// GetByHandle returns the live instance for h.
func (b *Bridge) GetByHandle(h scriptbridge.Handle) (domain.Instance, bool) {
	e, ok := b.objects.Get(h)
	if !ok {
		return nil, false
	}
	inst, ok := e.Value.(domain.Instance)
	return inst, ok
}

// GetByCounterpart returns the live instance paired with c.
func (b *Bridge) GetByCounterpart(c scriptbridge.Counterpart) (domain.Instance, bool) {
	e, ok := b.objects.ByCounterpart(c)
	if !ok {
		return nil, false
	}
	inst, ok := e.Value.(domain.Instance)
	return inst, ok
}

// ExecuteNamedMethod calls a parameterless method on the object. Missing
// objects and methods are logged and ignored.
func (b *Bridge) ExecuteNamedMethod(h scriptbridge.Handle, method string) {
	defer b.guard("ExecuteNamedMethod", zap.Int32("handle", int32(h)), zap.String("method", method))

	inst, ok := b.GetByHandle(h)
	if !ok {
		b.log.Warn("execute method on unknown object", zap.Int32("handle", int32(h)), zap.String("method", method))
		return
	}
	if err := inst.Call(method); err != nil {
		if isNotFound(err) {
			b.log.Warn("object has no such method",
				zap.Int32("handle", int32(h)),
				zap.String("type", inst.Type().QualifiedName()),
				zap.String("method", method))
			return
		}
		b.log.Warn("method failed", zap.Int32("handle", int32(h)), zap.String("method", method), zap.Error(err))
	}
}

// GetVectorField reads a vector field. Unknown objects or fields yield the
// zero vector and an advisory.
func (b *Bridge) GetVectorField(h scriptbridge.Handle, name string) (v scriptbridge.Vector) {
	defer b.guard("GetVectorField", zap.Int32("handle", int32(h)), zap.String("field", name))

	inst, ok := b.GetByHandle(h)
	if !ok {
		b.log.Warn("get field of unknown object", zap.Int32("handle", int32(h)), zap.String("field", name))
		return scriptbridge.Vector{}
	}
	v, err := inst.Type().Fields.GetVector(inst, name)
	if err != nil {
		b.log.Warn("get vector field", zap.Int32("handle", int32(h)), zap.String("field", name), zap.Error(err))
		return scriptbridge.Vector{}
	}
	return v
}

// SetVectorField writes a vector field. Unknown objects or fields are
// logged and ignored.
func (b *Bridge) SetVectorField(h scriptbridge.Handle, name string, v scriptbridge.Vector) {
	defer b.guard("SetVectorField", zap.Int32("handle", int32(h)), zap.String("field", name))

	inst, ok := b.GetByHandle(h)
	if !ok {
		b.log.Warn("set field of unknown object", zap.Int32("handle", int32(h)), zap.String("field", name))
		return
	}
	if err := inst.Type().Fields.SetVector(inst, name, v); err != nil {
		b.log.Warn("set vector field", zap.Int32("handle", int32(h)), zap.String("field", name), zap.Error(err))
	}
}

// GetField reads any field by name.
func (b *Bridge) GetField(h scriptbridge.Handle, name string) (v any, ok bool) {
	defer b.guard("GetField", zap.Int32("handle", int32(h)), zap.String("field", name))

	inst, found := b.GetByHandle(h)
	if !found {
		b.log.Warn("get field of unknown object", zap.Int32("handle", int32(h)), zap.String("field", name))
		return nil, false
	}
	v, err := inst.Type().Fields.Get(inst, name)
	if err != nil {
		b.log.Warn("get field", zap.Int32("handle", int32(h)), zap.String("field", name), zap.Error(err))
		return nil, false
	}
	return v, true
}

// SetField writes any field by name and reports whether it was applied.
func (b *Bridge) SetField(h scriptbridge.Handle, name string, v any) (ok bool) {
	defer b.guard("SetField", zap.Int32("handle", int32(h)), zap.String("field", name))

	inst, found := b.GetByHandle(h)
	if !found {
		b.log.Warn("set field of unknown object", zap.Int32("handle", int32(h)), zap.String("field", name))
		return false
	}
	if err := inst.Type().Fields.Set(inst, name, v); err != nil {
		b.log.Warn("set field", zap.Int32("handle", int32(h)), zap.String("field", name), zap.Error(err))
		return false
	}
	return true
}

// EditorProperties lists the editor-exposed fields of the object as
// "kind Category:Name;" tokens.
func (b *Bridge) EditorProperties(h scriptbridge.Handle) string {
	inst, ok := b.GetByHandle(h)
	if !ok {
		b.log.Warn("editor properties of unknown object", zap.Int32("handle", int32(h)))
		return ""
	}
	return inst.Type().Fields.EditorProperties()
}

// SetDeltaTime publishes the frame delta to Engine.Stats.DeltaTime and then
// refreshes managed input state through Engine.Input.UpdateGamepadList.
// This is the only place input is refreshed, so a host that never sets the
// delta never updates gamepads.
func (b *Bridge) SetDeltaTime(seconds float32) {
	defer b.guard("SetDeltaTime")

	if b.current == nil {
		return
	}
	b.setStatic(domain.StaticStats, "DeltaTime", seconds)

	input, ok := b.current.Static(domain.StaticInput)
	if !ok {
		b.log.Warn("domain has no input type", zap.String("static", domain.StaticInput))
		return
	}
	if _, err := input.Call("UpdateGamepadList"); err != nil {
		b.log.Warn("refresh input", zap.Error(err))
	}
}

// UpdateComponents ticks the object's components in attachment order.
func (b *Bridge) UpdateComponents(h scriptbridge.Handle) {
	defer b.guard("UpdateComponents", zap.Int32("handle", int32(h)))

	inst, ok := b.GetByHandle(h)
	if !ok {
		b.log.Warn("update components of unknown object", zap.Int32("handle", int32(h)))
		return
	}
	for i, c := range slices.Clone(inst.Components()) {
		if err := c.Tick(); err != nil {
			b.log.Warn("component tick failed", zap.Int32("handle", int32(h)), zap.Int("component", i), zap.Error(err))
		}
	}
}

// Tick runs Update and then ticks components of one object.
func (b *Bridge) Tick(h scriptbridge.Handle) {
	b.ExecuteNamedMethod(h, "Update")
	if b.objects.Contains(h) {
		b.UpdateComponents(h)
	}
}

// TickAll ticks every object live at the start of the call, in handle
// order. Objects destroyed mid-frame are skipped.
func (b *Bridge) TickAll() {
	for _, h := range b.objects.Handles() {
		if b.objects.Contains(h) {
			b.Tick(h)
		}
	}
}

// RegisterNativeFunction publishes fn to the managed domain under name.
func (b *Bridge) RegisterNativeFunction(name string, fn *native.Func) error {
	return b.natives.Register(name, fn)
}

// Invoke calls a registered native function by name.
func (b *Bridge) Invoke(name string, sig native.Signature, args ...any) (any, error) {
	return b.natives.Invoke(name, sig, args...)
}

func (b *Bridge) setStatic(static, name string, v any) {
	s, ok := b.current.Static(static)
	if !ok {
		b.log.Warn("domain has no such static type", zap.String("static", static))
		return
	}
	if err := s.Set(name, v); err != nil {
		b.log.Warn("set static field", zap.String("static", static), zap.String("field", name), zap.Error(err))
	}
}

// guard downgrades a panic escaping managed code to an error log. It must
// be deferred directly.
func (b *Bridge) guard(op string, fields ...zap.Field) {
	if r := recover(); r != nil {
		b.log.Error("recovered panic at bridge boundary",
			append(fields, zap.String("op", op), zap.Any("panic", r))...)
	}
}

func isNotFound(err error) bool {
	var be *errors.Error
	if stderrors.As(err, &be) {
		return be.Kind == errors.KindNotFound
	}
	return false
}
