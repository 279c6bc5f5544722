// Package assembly is a managed domain made of statically linked Go types.
//
// Types are registered explicitly with Define when the assembly is built.
// Every world-object type embeds Object, which carries the base contract:
// the Position, Rotation, Scale and NativePtr fields, the Begin, Update and
// Destroy hooks, and an ordered component list.
//
//	type Cube struct {
//	    assembly.Object
//	    Speed float32
//	}
//
//	func (c *Cube) Update() error {
//	    c.Position.X += c.Speed * c.Env().Stats().DeltaTime
//	    return nil
//	}
//
//	asm := assembly.New("demo")
//	assembly.Define[Cube](asm, "Game", "Cube", nil).
//	    Field(field.Editor(field.Ref("Speed", scriptbridge.KindF32,
//	        func(c *Cube) *float32 { return &c.Speed }), "Movement"))
//
// A Loader maps images of the form "assembly:<name>" to assemblies.
package assembly

import (
	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/field"
)

// Base type coordinates.
const (
	BaseNamespace = "Engine"
	BaseName      = "WorldObject"
)

// Option configures an Assembly.
type Option func(*Assembly)

// WithoutWorldObject builds an assembly that does not provide the
// world-object base. Loading it fails.
func WithoutWorldObject() Option {
	return func(a *Assembly) { a.noBase = true }
}

// StaticMethod is a type-level function.
type StaticMethod func(env *Env, args []any) (any, error)

// Assembly is a named set of type and static definitions.
type Assembly struct {
	name    string
	types   []template
	statics map[string]map[string]StaticMethod
	noBase  bool
}

type template interface {
	build(env *Env, base *domain.TypeDesc) (*domain.TypeDesc, error)
}

// New creates an empty assembly.
func New(name string, opts ...Option) *Assembly {
	a := &Assembly{
		name:    name,
		statics: make(map[string]map[string]StaticMethod),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the assembly name used in images.
func (a *Assembly) Name() string {
	return a.name
}

// Static adds a static method to the named static type.
func (a *Assembly) Static(typeName, method string, fn StaticMethod) *Assembly {
	m, ok := a.statics[typeName]
	if !ok {
		m = make(map[string]StaticMethod)
		a.statics[typeName] = m
	}
	m[method] = fn
	return a
}

type objectPtr[T any] interface {
	*T
	object() *Object
}

// Type is the definition of one world-object type.
type Type[T any, PT objectPtr[T]] struct {
	namespace string
	name      string
	ctor      func() *T
	fields    []field.Accessor
	methods   map[string]func(*T) error
	abstract  bool
}

// Define registers a world-object type. A nil ctor allocates a zero T.
func Define[T any, PT objectPtr[T]](a *Assembly, namespace, name string, ctor func() *T) *Type[T, PT] {
	t := &Type[T, PT]{
		namespace: namespace,
		name:      name,
		ctor:      ctor,
		methods:   make(map[string]func(*T) error),
	}
	a.types = append(a.types, t)
	return t
}

// Field adds a field accessor. Accessors built with field.Ref[T] receive
// the *T behind the instance.
func (t *Type[T, PT]) Field(a field.Accessor) *Type[T, PT] {
	t.fields = append(t.fields, a)
	return t
}

// Method adds a named parameterless method.
func (t *Type[T, PT]) Method(name string, fn func(*T) error) *Type[T, PT] {
	t.methods[name] = fn
	return t
}

// Abstract marks the type as not instantiable.
func (t *Type[T, PT]) Abstract() *Type[T, PT] {
	t.abstract = true
	return t
}

func (t *Type[T, PT]) build(env *Env, base *domain.TypeDesc) (*domain.TypeDesc, error) {
	tbl := field.NewTable(t.name)
	for _, a := range baseFields() {
		if err := tbl.Add(a); err != nil {
			return nil, err
		}
	}
	for _, a := range t.fields {
		if err := tbl.Add(a); err != nil {
			return nil, err
		}
	}

	desc := &domain.TypeDesc{
		Namespace: t.namespace,
		Name:      t.name,
		Base:      base,
		Fields:    tbl,
	}
	if t.abstract {
		return desc, nil
	}
	desc.New = func() (domain.Instance, error) {
		var v *T
		if t.ctor != nil {
			v = t.ctor()
		} else {
			v = new(T)
		}
		if v == nil {
			return nil, errors.Instantiation(desc.QualifiedName(), errors.InvalidInput(errors.PhaseObject, "constructor returned nil"))
		}
		inst := &instance[T, PT]{desc: desc, typ: t, val: v}
		obj := PT(v).object()
		obj.env = env
		obj.self = inst
		return inst, nil
	}
	return desc, nil
}
