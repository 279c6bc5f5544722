// Package field provides per-type field-descriptor tables: get and set of a
// named attribute on a managed instance without runtime introspection.
//
// A Table is built once when a type is registered. Accessors close over the
// instance storage, so Set writes through to the instance rather than to a
// copy returned by Get.
package field

import (
	"fmt"
	"strings"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/errors"
)

// Getter reads a field from an instance.
type Getter func(inst any) (any, error)

// Setter writes an already coerced value into an instance.
type Setter func(inst any, v any) error

// Accessor describes one field of a managed type.
type Accessor struct {
	Name     string
	Kind     scriptbridge.Kind
	Editor   bool   // exposed to the editor property panel
	Category string // editor category; empty means the type name
	Get      Getter
	Set      Setter
}

// Table is the field-descriptor table of one managed type.
type Table struct {
	typeName string
	byName   map[string]*Accessor
	order    []*Accessor
}

// NewTable creates an empty table for typeName.
func NewTable(typeName string) *Table {
	return &Table{
		typeName: typeName,
		byName:   make(map[string]*Accessor),
	}
}

// TypeName returns the owning type name.
func (t *Table) TypeName() string {
	return t.typeName
}

// Add registers a field. Names are unique per table.
func (t *Table) Add(a Accessor) error {
	if a.Name == "" {
		return errors.InvalidInput(errors.PhaseType, "field name cannot be empty")
	}
	if a.Get == nil || a.Set == nil {
		return errors.New(errors.PhaseType, errors.KindInvalidInput).
			Path(t.typeName, a.Name).
			Detail("field needs both getter and setter").
			Build()
	}
	if a.Kind == scriptbridge.KindVoid {
		return errors.New(errors.PhaseType, errors.KindInvalidInput).
			Path(t.typeName, a.Name).
			Detail("field kind cannot be void").
			Build()
	}
	if _, exists := t.byName[a.Name]; exists {
		return errors.New(errors.PhaseType, errors.KindRegistration).
			Path(t.typeName, a.Name).
			Detail("duplicate field").
			Build()
	}
	acc := a
	t.byName[a.Name] = &acc
	t.order = append(t.order, &acc)
	return nil
}

// MustAdd is Add that panics on error.
func (t *Table) MustAdd(a Accessor) *Table {
	if err := t.Add(a); err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the accessor for name.
func (t *Table) Lookup(name string) (*Accessor, bool) {
	a, ok := t.byName[name]
	return a, ok
}

// Fields returns accessors in registration order.
func (t *Table) Fields() []*Accessor {
	return t.order
}

// Len returns the number of fields.
func (t *Table) Len() int {
	return len(t.order)
}

// Get returns the current value of the named field.
func (t *Table) Get(inst any, name string) (any, error) {
	a, ok := t.byName[name]
	if !ok {
		return nil, t.notFound(name)
	}
	v, err := a.Get(inst)
	if err != nil {
		return nil, errors.New(errors.PhaseField, errors.KindManaged).
			Path(t.typeName, name).
			Cause(err).
			Build()
	}
	return v, nil
}

// Set coerces v to the field's kind and writes it into inst. A missing
// field yields a not-found error that callers treat as advisory.
func (t *Table) Set(inst any, name string, v any) error {
	a, ok := t.byName[name]
	if !ok {
		return t.notFound(name)
	}
	cv, ok := scriptbridge.Coerce(a.Kind, v)
	if !ok {
		return errors.TypeMismatch(errors.PhaseField, []string{t.typeName, name}, fmt.Sprintf("%T", v), a.Kind.String())
	}
	if err := a.Set(inst, cv); err != nil {
		return errors.New(errors.PhaseField, errors.KindManaged).
			Path(t.typeName, name).
			Cause(err).
			Build()
	}
	return nil
}

// GetVector reads a vector field as a unit.
func (t *Table) GetVector(inst any, name string) (scriptbridge.Vector, error) {
	v, err := t.Get(inst, name)
	if err != nil {
		return scriptbridge.Vector{}, err
	}
	vec, ok := v.(scriptbridge.Vector)
	if !ok {
		return scriptbridge.Vector{}, t.vectorMismatch(name, v)
	}
	return vec, nil
}

// SetVector reads the parent field, assigns its three components and
// writes the parent back.
func (t *Table) SetVector(inst any, name string, vec scriptbridge.Vector) error {
	cur, err := t.Get(inst, name)
	if err != nil {
		return err
	}
	if _, ok := cur.(scriptbridge.Vector); !ok {
		return t.vectorMismatch(name, cur)
	}
	src := any(vec)
	for _, c := range Components.Fields() {
		cv, _ := Components.Get(&src, c.Name)
		if err := Components.Set(&cur, c.Name, cv); err != nil {
			return err
		}
	}
	return t.Set(inst, name, cur)
}

// EditorProperties lists editor-exposed fields as "kind Category:Name;"
// tokens concatenated in registration order.
func (t *Table) EditorProperties() string {
	var b strings.Builder
	for _, a := range t.order {
		if !a.Editor {
			continue
		}
		category := a.Category
		if category == "" {
			category = t.typeName
		}
		b.WriteString(a.Kind.String())
		b.WriteByte(' ')
		b.WriteString(category)
		b.WriteByte(':')
		b.WriteString(a.Name)
		b.WriteByte(';')
	}
	return b.String()
}

func (t *Table) notFound(name string) error {
	return errors.New(errors.PhaseField, errors.KindNotFound).
		Path(t.typeName, name).
		Detail("type %s has no field %q", t.typeName, name).
		Build()
}

func (t *Table) vectorMismatch(name string, v any) error {
	return errors.TypeMismatch(errors.PhaseField, []string{t.typeName, name}, fmt.Sprintf("%T", v), scriptbridge.KindVector.String())
}
