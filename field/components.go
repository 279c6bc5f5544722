package field

import (
	"fmt"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/errors"
)

// Components is the sub-attribute table of a vector value. Its instances
// are *any boxes holding a scriptbridge.Vector; Set replaces the boxed
// value so the change is visible to whoever owns the box.
var Components = newComponents()

func newComponents() *Table {
	t := NewTable(scriptbridge.KindVector.String())
	for _, c := range []struct {
		name string
		sel  func(*scriptbridge.Vector) *float32
	}{
		{"X", func(v *scriptbridge.Vector) *float32 { return &v.X }},
		{"Y", func(v *scriptbridge.Vector) *float32 { return &v.Y }},
		{"Z", func(v *scriptbridge.Vector) *float32 { return &v.Z }},
	} {
		sel := c.sel
		t.MustAdd(Accessor{
			Name: c.name,
			Kind: scriptbridge.KindF32,
			Get: func(inst any) (any, error) {
				_, vec, err := unbox(inst)
				if err != nil {
					return nil, err
				}
				return *sel(&vec), nil
			},
			Set: func(inst any, v any) error {
				box, vec, err := unbox(inst)
				if err != nil {
					return err
				}
				*sel(&vec) = v.(float32)
				*box = vec
				return nil
			},
		})
	}
	return t
}

func unbox(inst any) (*any, scriptbridge.Vector, error) {
	box, ok := inst.(*any)
	if !ok || box == nil {
		return nil, scriptbridge.Vector{}, errors.TypeMismatch(errors.PhaseField, nil, fmt.Sprintf("%T", inst), "*any")
	}
	vec, ok := (*box).(scriptbridge.Vector)
	if !ok {
		return nil, scriptbridge.Vector{}, errors.TypeMismatch(errors.PhaseField, nil, fmt.Sprintf("%T", *box), scriptbridge.KindVector.String())
	}
	return box, vec, nil
}

// Ref builds an accessor over a Go struct field selected by sel. V must be
// the canonical Go type of kind (float32 for f32, scriptbridge.Vector for
// vec3, and so on).
func Ref[T any, V any](name string, kind scriptbridge.Kind, sel func(*T) *V) Accessor {
	return Accessor{
		Name: name,
		Kind: kind,
		Get: func(inst any) (any, error) {
			p, err := target[T](inst)
			if err != nil {
				return nil, err
			}
			return *sel(p), nil
		},
		Set: func(inst any, v any) error {
			p, err := target[T](inst)
			if err != nil {
				return err
			}
			cv, ok := v.(V)
			if !ok {
				return errors.TypeMismatch(errors.PhaseField, []string{name}, fmt.Sprintf("%T", v), kind.String())
			}
			*sel(p) = cv
			return nil
		},
	}
}

// Editor marks an accessor as editor-exposed under category.
func Editor(a Accessor, category string) Accessor {
	a.Editor = true
	a.Category = category
	return a
}

func target[T any](inst any) (*T, error) {
	if h, ok := inst.(interface{ Target() any }); ok {
		inst = h.Target()
	}
	p, ok := inst.(*T)
	if !ok || p == nil {
		var zero T
		return nil, errors.TypeMismatch(errors.PhaseField, nil, fmt.Sprintf("%T", inst), fmt.Sprintf("*%T", zero))
	}
	return p, nil
}
