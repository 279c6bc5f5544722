package domain

import (
	"strings"

	"github.com/wippyai/script-bridge/field"
)

// TypeDesc describes one managed type.
type TypeDesc struct {
	Namespace string
	Name      string
	Base      *TypeDesc
	Fields    *field.Table
	New       func() (Instance, error)
}

// QualifiedName returns the namespace with '.' replaced by '/', followed
// by '/' and the type name. Types without a namespace return the bare name.
func (t *TypeDesc) QualifiedName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return strings.ReplaceAll(t.Namespace, ".", "/") + "/" + t.Name
}

// DerivesFrom reports whether base appears in t's base chain. A type does
// not derive from itself.
func (t *TypeDesc) DerivesFrom(base *TypeDesc) bool {
	seen := 0
	for b := t.Base; b != nil; b = b.Base {
		if b == base {
			return true
		}
		seen++
		if seen > 256 {
			return false
		}
	}
	return false
}

// Registry is the set of instantiable world-object types of the current
// load generation.
type Registry struct {
	byName      map[string]*TypeDesc
	byQualified map[string]*TypeDesc
	order       []*TypeDesc
}

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:      make(map[string]*TypeDesc),
		byQualified: make(map[string]*TypeDesc),
	}
}

// Rebuild replaces the registry with the types that transitively derive
// from base. Abstract types (nil constructor) are skipped. When two types
// share a simple name the first declared keeps it; both stay reachable by
// qualified name.
func (r *Registry) Rebuild(types []*TypeDesc, base *TypeDesc) {
	r.Clear()
	for _, t := range types {
		if t == nil || t == base || t.New == nil || !t.DerivesFrom(base) {
			continue
		}
		q := t.QualifiedName()
		if _, dup := r.byQualified[q]; dup {
			continue
		}
		r.byQualified[q] = t
		if _, taken := r.byName[t.Name]; !taken {
			r.byName[t.Name] = t
		}
		r.order = append(r.order, t)
	}
}

// Clear empties the registry.
func (r *Registry) Clear() {
	clear(r.byName)
	clear(r.byQualified)
	r.order = nil
}

// Lookup resolves a simple or qualified type name. Qualified names may use
// '/' or '.' as separator.
func (r *Registry) Lookup(name string) (*TypeDesc, bool) {
	if t, ok := r.byQualified[name]; ok {
		return t, true
	}
	if t, ok := r.byQualified[strings.ReplaceAll(name, ".", "/")]; ok {
		return t, true
	}
	t, ok := r.byName[name]
	return t, ok
}

// Types returns admitted types in declaration order.
func (r *Registry) Types() []*TypeDesc {
	return r.order
}

// Len returns the number of admitted types.
func (r *Registry) Len() int {
	return len(r.order)
}

// Names renders every admitted type as its qualified name followed by a
// single space.
func (r *Registry) Names() string {
	var b strings.Builder
	for _, t := range r.order {
		b.WriteString(t.QualifiedName())
		b.WriteByte(' ')
	}
	return b.String()
}
