package native

import (
	"fmt"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/errors"
)

// Handler is the Go side of a native function. Arguments arrive already
// coerced to the kinds declared by the function's Signature.
type Handler func(args Args) (any, error)

// Func is a native callable together with its call descriptor.
type Func struct {
	sig     Signature
	handler Handler
}

// NewFunc validates sig once and binds it to handler.
func NewFunc(sig Signature, handler Handler) (*Func, error) {
	if handler == nil {
		return nil, errors.InvalidInput(errors.PhaseNative, "handler cannot be nil")
	}
	if err := sig.validate(); err != nil {
		return nil, err
	}
	return &Func{sig: sig, handler: handler}, nil
}

// MustFunc is NewFunc that panics on error.
func MustFunc(sig Signature, handler Handler) *Func {
	f, err := NewFunc(sig, handler)
	if err != nil {
		panic(err)
	}
	return f
}

// Signature returns the call descriptor.
func (f *Func) Signature() Signature {
	return f.sig
}

// Call coerces args to the declared parameter kinds, runs the handler and
// coerces its result to the declared result kind. Void functions return nil.
func (f *Func) Call(args ...any) (any, error) {
	if len(args) != len(f.sig.Params) {
		return nil, errors.New(errors.PhaseNative, errors.KindInvalidInput).
			Detail("expected %d argument(s), got %d", len(f.sig.Params), len(args)).
			Build()
	}

	coerced := make(Args, len(args))
	for i, k := range f.sig.Params {
		v, ok := scriptbridge.Coerce(k, args[i])
		if !ok {
			return nil, errors.New(errors.PhaseNative, errors.KindTypeMismatch).
				Path(fmt.Sprintf("arg%d", i)).
				GoType(fmt.Sprintf("%T", args[i])).
				ManagedType(k.String()).
				Build()
		}
		coerced[i] = v
	}

	res, err := f.handler(coerced)
	if err != nil {
		return nil, err
	}
	if f.sig.Result == scriptbridge.KindVoid {
		return nil, nil
	}

	out, ok := scriptbridge.Coerce(f.sig.Result, res)
	if !ok {
		return nil, errors.New(errors.PhaseNative, errors.KindTypeMismatch).
			Path("result").
			GoType(fmt.Sprintf("%T", res)).
			ManagedType(f.sig.Result.String()).
			Build()
	}
	return out, nil
}

// Args holds coerced arguments. Accessors assume the declared kind and
// return the zero value on mismatch.
type Args []any

func (a Args) Bool(i int) bool {
	v, _ := a[i].(bool)
	return v
}

func (a Args) S32(i int) int32 {
	v, _ := a[i].(int32)
	return v
}

func (a Args) S64(i int) int64 {
	v, _ := a[i].(int64)
	return v
}

func (a Args) F32(i int) float32 {
	v, _ := a[i].(float32)
	return v
}

func (a Args) F64(i int) float64 {
	v, _ := a[i].(float64)
	return v
}

func (a Args) String(i int) string {
	v, _ := a[i].(string)
	return v
}

func (a Args) Vector(i int) scriptbridge.Vector {
	v, _ := a[i].(scriptbridge.Vector)
	return v
}

func (a Args) Transform(i int) scriptbridge.Transform {
	v, _ := a[i].(scriptbridge.Transform)
	return v
}

func (a Args) Pointer(i int) scriptbridge.Counterpart {
	v, _ := a[i].(scriptbridge.Counterpart)
	return v
}

func (a Args) Handle(i int) scriptbridge.Handle {
	v, _ := a[i].(scriptbridge.Handle)
	return v
}
