package assembly

import (
	"slices"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/field"
)

// Object is the world-object base. Embed it in every world-object type.
type Object struct {
	Position  scriptbridge.Vector
	Rotation  scriptbridge.Vector
	Scale     scriptbridge.Vector
	NativePtr scriptbridge.Counterpart

	components []domain.Component
	env        *Env
	self       domain.Instance
}

func (o *Object) object() *Object { return o }

// Begin runs once after the object is placed. Override in the embedding type.
func (o *Object) Begin() error { return nil }

// Update runs every frame. Override in the embedding type.
func (o *Object) Update() error { return nil }

// Destroy runs before the object's components are destroyed. Override in
// the embedding type.
func (o *Object) Destroy() error { return nil }

// Env returns the domain environment the object was constructed in.
func (o *Object) Env() *Env { return o.env }

// Self returns the instance wrapping this object.
func (o *Object) Self() domain.Instance { return o.self }

// Attach appends c to the component list.
func (o *Object) Attach(c domain.Component) {
	if pc, ok := c.(*Component); ok {
		pc.Parent = o
	}
	o.components = append(o.components, c)
	if a, ok := c.(interface{ OnAttached() }); ok {
		a.OnAttached()
	}
}

// Detach removes c without destroying it.
func (o *Object) Detach(c domain.Component) {
	for i, cur := range o.components {
		if cur == c {
			o.components = slices.Delete(slices.Clone(o.components), i, i+1)
			return
		}
	}
}

// Components returns a copy of the attached components in attachment order.
func (o *Object) Components() []domain.Component { return slices.Clone(o.components) }

// UpdateComponents ticks every component in attachment order and returns
// the first error.
func (o *Object) UpdateComponents() error {
	var first error
	for _, c := range slices.Clone(o.components) {
		if err := c.Tick(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Native calls a native function through the domain.
func (o *Object) Native(name string, args ...any) (any, error) {
	if o.env == nil {
		return nil, errors.NotInitialized(errors.PhaseDomain, "object environment")
	}
	return o.env.Native(name, args...)
}

// GetTransform reads the native transform of the object.
func (o *Object) GetTransform() (scriptbridge.Transform, error) {
	v, err := o.Native("GetObjectTransform", o.NativePtr)
	if err != nil {
		return scriptbridge.Transform{}, err
	}
	t, _ := v.(scriptbridge.Transform)
	return t, nil
}

// SetTransform writes the native transform of the object.
func (o *Object) SetTransform(t scriptbridge.Transform) error {
	_, err := o.Native("SetObjectTransform", o.NativePtr, t)
	return err
}

// SetPosition updates the native position, keeping rotation and scale.
func (o *Object) SetPosition(v scriptbridge.Vector) error {
	return o.updateTransform(func(t *scriptbridge.Transform) { t.Position = v })
}

// SetRotation updates the native rotation, keeping position and scale.
func (o *Object) SetRotation(v scriptbridge.Vector) error {
	return o.updateTransform(func(t *scriptbridge.Transform) { t.Rotation = v })
}

// SetScale updates the native scale, keeping position and rotation.
func (o *Object) SetScale(v scriptbridge.Vector) error {
	return o.updateTransform(func(t *scriptbridge.Transform) { t.Scale = v })
}

func (o *Object) updateTransform(set func(*scriptbridge.Transform)) error {
	t, err := o.GetTransform()
	if err != nil {
		return err
	}
	set(&t)
	return o.SetTransform(t)
}

// Spawn asks the host to create a new object of typeName and returns the
// managed instance paired with the native pointer the host reports.
func (o *Object) Spawn(typeName string, t scriptbridge.Transform) (domain.Instance, bool) {
	v, err := o.Native("NewCSObject", typeName, t)
	if err != nil {
		return nil, false
	}
	ptr, ok := v.(scriptbridge.Counterpart)
	if !ok {
		return nil, false
	}
	return o.env.LookupNative(ptr)
}

// DestroyObject asks the host to destroy this object.
func (o *Object) DestroyObject() error {
	_, err := o.Native("DestroyObject", o.NativePtr)
	return err
}

func baseOf(inst any) (*Object, error) {
	if h, ok := inst.(interface{ base() *Object }); ok {
		return h.base(), nil
	}
	return nil, errors.InvalidInput(errors.PhaseField, "instance does not embed assembly.Object")
}

func objectField[V any](name string, kind scriptbridge.Kind, sel func(*Object) *V) field.Accessor {
	return field.Accessor{
		Name: name,
		Kind: kind,
		Get: func(inst any) (any, error) {
			o, err := baseOf(inst)
			if err != nil {
				return nil, err
			}
			return *sel(o), nil
		},
		Set: func(inst any, v any) error {
			o, err := baseOf(inst)
			if err != nil {
				return err
			}
			cv, ok := v.(V)
			if !ok {
				return errors.TypeMismatch(errors.PhaseField, []string{name}, "", kind.String())
			}
			*sel(o) = cv
			return nil
		},
	}
}

func baseFields() []field.Accessor {
	return []field.Accessor{
		objectField(scriptbridge.FieldPosition, scriptbridge.KindVector, func(o *Object) *scriptbridge.Vector { return &o.Position }),
		objectField(scriptbridge.FieldRotation, scriptbridge.KindVector, func(o *Object) *scriptbridge.Vector { return &o.Rotation }),
		objectField(scriptbridge.FieldScale, scriptbridge.KindVector, func(o *Object) *scriptbridge.Vector { return &o.Scale }),
		objectField(scriptbridge.FieldNative, scriptbridge.KindPointer, func(o *Object) *scriptbridge.Counterpart { return &o.NativePtr }),
	}
}

// Component is a native-backed component. A zero NativePtr means the
// native side has not created it yet.
type Component struct {
	NativePtr scriptbridge.Counterpart
	Parent    *Object
	OnTick    func() error
	OnDestroy func() error
}

// Tick runs OnTick when set.
func (c *Component) Tick() error {
	if c.OnTick == nil {
		return nil
	}
	return c.OnTick()
}

// Destroy runs OnDestroy and then releases the native side.
func (c *Component) Destroy() error {
	if c.OnDestroy != nil {
		if err := c.OnDestroy(); err != nil {
			return err
		}
	}
	if c.NativePtr == 0 || c.Parent == nil {
		return nil
	}
	_, err := c.Parent.Native("DestroyComponent", c.NativePtr, c.Parent.NativePtr)
	c.NativePtr = 0
	return err
}

// Native returns the native pointer.
func (c *Component) Native() (scriptbridge.Counterpart, bool) {
	return c.NativePtr, c.NativePtr != 0
}

// NewMesh creates a native mesh component from file and attaches it.
func NewMesh(o *Object, file string) (*Component, error) {
	v, err := o.Native("NewMeshComponent", file, o.NativePtr)
	if err != nil {
		return nil, err
	}
	ptr, _ := v.(scriptbridge.Counterpart)
	c := &Component{NativePtr: ptr}
	o.Attach(c)
	return c, nil
}
