package wasmdomain

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/field"
)

// Base type the guest must declare.
const (
	BaseNamespace = "Engine"
	BaseName      = "WorldObject"
)

// Field kinds a guest may declare. Every kind lives in f32 slots; a vector
// takes three consecutive slots.
var slotKinds = map[scriptbridge.Kind]int32{
	scriptbridge.KindF32:    1,
	scriptbridge.KindS32:    1,
	scriptbridge.KindBool:   1,
	scriptbridge.KindVector: 3,
}

type typeDef struct {
	id       int32
	ns       string
	name     string
	baseID   int32
	abstract bool
	fields   []fieldDef
	methods  map[string]int32
	desc     *domain.TypeDesc
	base     *typeDef
}

type fieldDef struct {
	name   string
	kind   scriptbridge.Kind
	slot   int32
	editor bool
}

func (d *Domain) defineType(id int32, ns, name string, baseID int32, abstract bool) {
	if id <= 0 {
		d.fail(errors.Registration(errors.PhaseType, name, fmt.Errorf("type id %d must be positive", id)))
		return
	}
	if _, dup := d.byID[id]; dup {
		d.fail(errors.Registration(errors.PhaseType, name, fmt.Errorf("type id %d already declared", id)))
		return
	}
	t := &typeDef{id: id, ns: ns, name: name, baseID: baseID, abstract: abstract, methods: make(map[string]int32)}
	d.byID[id] = t
	d.defs = append(d.defs, t)
}

func (d *Domain) defineField(typeID int32, f fieldDef) {
	t, ok := d.byID[typeID]
	if !ok {
		d.fail(errors.Registration(errors.PhaseType, f.name, fmt.Errorf("field on undeclared type %d", typeID)))
		return
	}
	if _, ok := slotKinds[f.kind]; !ok {
		d.fail(errors.New(errors.PhaseType, errors.KindRegistration).
			Path(t.name, f.name).
			Detail("field kind %s cannot live in f32 slots", f.kind).
			Build())
		return
	}
	if f.slot < 0 {
		d.fail(errors.New(errors.PhaseType, errors.KindRegistration).
			Path(t.name, f.name).
			Detail("negative slot %d", f.slot).
			Build())
		return
	}
	t.fields = append(t.fields, f)
}

func (d *Domain) defineMethod(typeID int32, name string, id int32) {
	t, ok := d.byID[typeID]
	if !ok {
		d.fail(errors.Registration(errors.PhaseType, name, fmt.Errorf("method on undeclared type %d", typeID)))
		return
	}
	t.methods[name] = id
}

// buildTypes links bases and builds descriptors in declaration order. A
// base must be declared before its subclasses.
func (d *Domain) buildTypes() error {
	for _, t := range d.defs {
		t.desc = &domain.TypeDesc{Namespace: t.ns, Name: t.name}
		if t.baseID != 0 {
			b, ok := d.byID[t.baseID]
			if !ok || b.desc == nil {
				return errors.New(errors.PhaseType, errors.KindRegistration).
					ManagedType(t.desc.QualifiedName()).
					Detail("base %d not declared before subclass", t.baseID).
					Build()
			}
			t.base = b
			t.desc.Base = b.desc
		}
		if err := d.buildFields(t); err != nil {
			return err
		}
		if !t.abstract {
			t.desc.New = d.constructor(t)
		}
		d.types = append(d.types, t.desc)
		if t.ns == BaseNamespace && t.name == BaseName {
			d.base = t.desc
		}
	}
	return nil
}

// buildFields copies base accessors, then adds the type's own. Root types
// also get the host-side NativePtr field.
func (d *Domain) buildFields(t *typeDef) error {
	tbl := field.NewTable(t.desc.QualifiedName())
	if t.base != nil {
		for _, a := range t.base.desc.Fields.Fields() {
			if err := tbl.Add(*a); err != nil {
				return err
			}
		}
	}
	for _, f := range t.fields {
		if _, dup := tbl.Lookup(f.name); dup {
			continue
		}
		if err := tbl.Add(d.accessor(f)); err != nil {
			return err
		}
	}
	if _, ok := tbl.Lookup(scriptbridge.FieldNative); !ok {
		if err := tbl.Add(d.nativeAccessor()); err != nil {
			return err
		}
	}
	t.desc.Fields = tbl
	return nil
}

// method resolves a method id along the base chain.
func (t *typeDef) method(name string) (int32, bool) {
	for c := t; c != nil; c = c.base {
		if id, ok := c.methods[name]; ok {
			return id, true
		}
	}
	return 0, false
}

func (d *Domain) accessor(f fieldDef) field.Accessor {
	return field.Accessor{
		Name:   f.name,
		Kind:   f.kind,
		Editor: f.editor,
		Get: func(inst any) (any, error) {
			o, err := d.own(inst)
			if err != nil {
				return nil, err
			}
			if f.kind == scriptbridge.KindVector {
				var v [3]float32
				for i := range v {
					if v[i], err = o.slot(f.slot + int32(i)); err != nil {
						return nil, err
					}
				}
				return scriptbridge.Vector{X: v[0], Y: v[1], Z: v[2]}, nil
			}
			x, err := o.slot(f.slot)
			if err != nil {
				return nil, err
			}
			switch f.kind {
			case scriptbridge.KindS32:
				return int32(x), nil
			case scriptbridge.KindBool:
				return x != 0, nil
			}
			return x, nil
		},
		Set: func(inst any, v any) error {
			o, err := d.own(inst)
			if err != nil {
				return err
			}
			switch x := v.(type) {
			case scriptbridge.Vector:
				for i, c := range [3]float32{x.X, x.Y, x.Z} {
					if err := o.setSlot(f.slot+int32(i), c); err != nil {
						return err
					}
				}
				return nil
			case int32:
				return o.setSlot(f.slot, float32(x))
			case bool:
				if x {
					return o.setSlot(f.slot, 1)
				}
				return o.setSlot(f.slot, 0)
			case float32:
				return o.setSlot(f.slot, x)
			}
			return errors.TypeMismatch(errors.PhaseField, []string{f.name}, fmt.Sprintf("%T", v), f.kind.String())
		},
	}
}

// nativeAccessor keeps NativePtr on the host side and mirrors it to
// engine_set_native when the guest exports it.
func (d *Domain) nativeAccessor() field.Accessor {
	return field.Accessor{
		Name: scriptbridge.FieldNative,
		Kind: scriptbridge.KindPointer,
		Get: func(inst any) (any, error) {
			o, err := d.own(inst)
			if err != nil {
				return nil, err
			}
			return o.native, nil
		},
		Set: func(inst any, v any) error {
			o, err := d.own(inst)
			if err != nil {
				return err
			}
			o.native = v.(scriptbridge.Counterpart)
			if !d.exported(ExportSetNative) {
				return nil
			}
			_, err = d.invoke(ExportSetNative, api.EncodeI32(o.id), uint64(o.native))
			return err
		},
	}
}

func (d *Domain) own(inst any) (*object, error) {
	o, ok := inst.(*object)
	if !ok || o.d != d {
		return nil, errors.TypeMismatch(errors.PhaseField, nil, fmt.Sprintf("%T", inst), "wasm object")
	}
	if o.released {
		return nil, errors.NotInitialized(errors.PhaseField, "released wasm object")
	}
	return o, nil
}

// constructor calls engine_new(type). A negative id is a failed
// construction.
func (d *Domain) constructor(t *typeDef) func() (domain.Instance, error) {
	return func() (domain.Instance, error) {
		res, err := d.invoke(ExportNew, api.EncodeI32(t.id))
		if err != nil {
			return nil, errors.Instantiation(t.desc.QualifiedName(), err)
		}
		id := api.DecodeI32(res[0])
		if id < 0 {
			return nil, errors.Instantiation(t.desc.QualifiedName(), fmt.Errorf("%s returned %d", ExportNew, id))
		}
		return &object{d: d, def: t, id: id}, nil
	}
}
