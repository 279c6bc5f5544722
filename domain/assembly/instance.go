package assembly

import (
	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/errors"
)

type instance[T any, PT objectPtr[T]] struct {
	desc *domain.TypeDesc
	typ  *Type[T, PT]
	val  *T
}

func (i *instance[T, PT]) Type() *domain.TypeDesc { return i.desc }

// Target exposes the embedding value to field.Ref accessors.
func (i *instance[T, PT]) Target() any { return i.val }

func (i *instance[T, PT]) base() *Object { return PT(i.val).object() }

func (i *instance[T, PT]) Call(method string) error {
	if fn, ok := i.typ.methods[method]; ok {
		return fn(i.val)
	}
	v := any(i.val)
	switch method {
	case "Begin":
		return v.(interface{ Begin() error }).Begin()
	case "Update":
		return v.(interface{ Update() error }).Update()
	case "Destroy":
		return v.(interface{ Destroy() error }).Destroy()
	case "UpdateComponents":
		return i.base().UpdateComponents()
	}
	return errors.New(errors.PhaseDomain, errors.KindNotFound).
		Path(i.desc.QualifiedName(), method).
		Detail("no method %q", method).
		Build()
}

func (i *instance[T, PT]) Components() []domain.Component {
	return i.base().Components()
}

func (i *instance[T, PT]) ClearComponents() {
	i.base().components = nil
}

// Release drops the back-references so a destroyed object cannot reach the
// domain any more.
func (i *instance[T, PT]) Release() {
	o := i.base()
	o.env = nil
	o.self = nil
}
