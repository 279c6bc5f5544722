package luadomain

import (
	"fmt"

	"github.com/Shopify/go-lua"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/field"
)

type prop struct {
	name     string
	kind     scriptbridge.Kind
	editor   bool
	category string
}

type class struct {
	desc   *domain.TypeDesc
	ref    int
	baseID int
	props  []prop
}

// collectTypes reads Engine.Types in declaration order and builds a
// descriptor per class. Bases are declared before their subclasses, so a
// single pass links them.
func (d *Domain) collectTypes() error {
	var classes []*class
	err := d.protect(func(l *lua.State) error {
		l.Global("Engine")
		if !l.IsTable(-1) {
			return nil
		}
		l.Field(-1, "Types")
		if !l.IsTable(-1) {
			return nil
		}
		n := l.RawLength(-1)
		for i := 1; i <= n; i++ {
			l.RawGetInt(-1, i)
			c, err := d.readClass(l)
			if err != nil {
				return err
			}
			classes = append(classes, c)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i, c := range classes {
		if c.baseID > 0 {
			if c.baseID > i {
				return errors.New(errors.PhaseType, errors.KindRegistration).
					ManagedType(c.desc.QualifiedName()).
					Detail("base declared after subclass").
					Build()
			}
			c.desc.Base = classes[c.baseID-1].desc
		}
		if err := d.buildFields(c); err != nil {
			return err
		}
		d.types = append(d.types, c.desc)
		if c.desc.Namespace == "Engine" && c.desc.Name == "WorldObject" {
			d.base = c.desc
		}
	}
	return nil
}

// readClass consumes the class table on top of the stack.
func (d *Domain) readClass(l *lua.State) (*class, error) {
	c := &class{desc: &domain.TypeDesc{
		Namespace: stringField(l, "__namespace"),
		Name:      stringField(l, "__name"),
	}}
	abstract := boolField(l, "__abstract")

	l.Field(-1, "__base")
	if l.IsTable(-1) {
		l.Field(-1, "__id")
		c.baseID, _ = l.ToInteger(-1)
		l.Pop(1)
	}
	l.Pop(1)

	l.Field(-1, "__props")
	if l.IsTable(-1) {
		n := l.RawLength(-1)
		for i := 1; i <= n; i++ {
			l.RawGetInt(-1, i)
			p := prop{
				name:     stringField(l, "name"),
				editor:   boolField(l, "editor"),
				category: stringField(l, "category"),
			}
			kindName := stringField(l, "kind")
			l.Pop(1)
			k, ok := scriptbridge.KindByName(kindName)
			if !ok || k == scriptbridge.KindVoid {
				return nil, errors.New(errors.PhaseType, errors.KindRegistration).
					Path(c.desc.Name, p.name).
					Detail("unknown field kind %q", kindName).
					Build()
			}
			p.kind = k
			c.props = append(c.props, p)
		}
	}
	l.Pop(1)

	c.ref = d.ref(l)
	if !abstract {
		c.desc.New = d.constructor(c)
	}
	return c, nil
}

// buildFields copies the base accessors first, then adds the class's own
// fields. A redeclared field keeps the inherited accessor.
func (d *Domain) buildFields(c *class) error {
	t := field.NewTable(c.desc.QualifiedName())
	if c.desc.Base != nil && c.desc.Base.Fields != nil {
		for _, a := range c.desc.Base.Fields.Fields() {
			if err := t.Add(*a); err != nil {
				return err
			}
		}
	}
	for _, p := range c.props {
		if _, dup := t.Lookup(p.name); dup {
			continue
		}
		if err := t.Add(d.accessor(p)); err != nil {
			return err
		}
	}
	c.desc.Fields = t
	return nil
}

func (d *Domain) accessor(p prop) field.Accessor {
	return field.Accessor{
		Name:     p.name,
		Kind:     p.kind,
		Editor:   p.editor,
		Category: p.category,
		Get: func(inst any) (any, error) {
			o, err := d.own(inst)
			if err != nil {
				return nil, err
			}
			var out any
			err = d.protect(func(l *lua.State) error {
				d.deref(l, o.ref)
				l.Field(-1, p.name)
				v, err := d.pull(l, -1)
				if err != nil {
					return err
				}
				cv, ok := scriptbridge.Coerce(p.kind, v)
				if !ok {
					return errors.TypeMismatch(errors.PhaseField, []string{p.name}, fmt.Sprintf("%T", v), p.kind.String())
				}
				out = cv
				return nil
			})
			return out, err
		},
		Set: func(inst any, v any) error {
			o, err := d.own(inst)
			if err != nil {
				return err
			}
			return d.protect(func(l *lua.State) error {
				d.deref(l, o.ref)
				d.push(l, v)
				l.SetField(-2, p.name)
				return nil
			})
		},
	}
}

func (d *Domain) own(inst any) (*object, error) {
	o, ok := inst.(*object)
	if !ok || o.d != d {
		return nil, errors.TypeMismatch(errors.PhaseField, nil, fmt.Sprintf("%T", inst), "lua object")
	}
	if o.released {
		return nil, errors.NotInitialized(errors.PhaseField, "released lua object")
	}
	return o, nil
}

// constructor calls Engine.New(class) and keeps the result referenced.
func (d *Domain) constructor(c *class) func() (domain.Instance, error) {
	return func() (domain.Instance, error) {
		var o *object
		err := d.protect(func(l *lua.State) error {
			l.Global("Engine")
			l.Field(-1, "New")
			d.deref(l, c.ref)
			if err := l.ProtectedCall(1, 1, 0); err != nil {
				return errors.Instantiation(c.desc.QualifiedName(), err)
			}
			if !l.IsTable(-1) {
				return errors.Instantiation(c.desc.QualifiedName(), nil)
			}
			o = &object{d: d, desc: c.desc, ref: d.ref(l)}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return o, nil
	}
}

func stringField(l *lua.State, name string) string {
	l.Field(-1, name)
	s, _ := l.ToString(-1)
	l.Pop(1)
	return s
}

func boolField(l *lua.State, name string) bool {
	l.Field(-1, name)
	b := l.ToBoolean(-1)
	l.Pop(1)
	return b
}
