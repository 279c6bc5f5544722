package assembly

import (
	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/field"
	"github.com/wippyai/script-bridge/native"
)

// Stats is the per-domain frame state.
type Stats struct {
	DeltaTime float32
	InEditor  bool
}

// Input is the per-domain input state.
type Input struct {
	Gamepads int32
}

// Env is the environment of one loaded assembly domain. It is rebuilt on
// every load, so statics reset with each generation.
type Env struct {
	log     domain.LogFunc
	call    domain.NativeCaller
	lookup  domain.Lookup
	stats   Stats
	input   Input
	natives map[string]native.Signature
}

func newEnv() *Env {
	return &Env{natives: make(map[string]native.Signature)}
}

// Log forwards a line to the bridge log sink.
func (e *Env) Log(severity int, msg string) {
	if e.log != nil {
		e.log(severity, msg)
	}
}

// Native calls a native function by name.
func (e *Env) Native(name string, args ...any) (any, error) {
	if e.call == nil {
		return nil, errors.NotInitialized(errors.PhaseDomain, "native caller")
	}
	return e.call(name, args...)
}

// HasNative reports whether name was published to this domain.
func (e *Env) HasNative(name string) bool {
	_, ok := e.natives[name]
	return ok
}

// Lookup resolves a handle to a live instance.
func (e *Env) Lookup(h scriptbridge.Handle) (domain.Instance, bool) {
	if e.lookup == nil {
		return nil, false
	}
	return e.lookup.ByHandle(h)
}

// LookupNative resolves a native counterpart to a live instance.
func (e *Env) LookupNative(c scriptbridge.Counterpart) (domain.Instance, bool) {
	if e.lookup == nil {
		return nil, false
	}
	return e.lookup.ByCounterpart(c)
}

// Stats returns the current frame state.
func (e *Env) Stats() Stats { return e.stats }

// Input returns the current input state.
func (e *Env) Input() Input { return e.input }

// Publish implements native.Sink.
func (e *Env) Publish(name string, sig native.Signature) error {
	e.natives[name] = sig
	return nil
}

func (e *Env) updateGamepadList([]any) (any, error) {
	if !e.HasNative("GetNumGamepads") {
		e.input.Gamepads = 0
		return nil, nil
	}
	v, err := e.Native("GetNumGamepads")
	if err != nil {
		return nil, err
	}
	n, _ := v.(int32)
	e.input.Gamepads = n
	return nil, nil
}

type static struct {
	name    string
	env     *Env
	methods map[string]StaticMethod
	fields  *field.Table
	target  any
}

func (s *static) Call(method string, args ...any) (any, error) {
	fn, ok := s.methods[method]
	if !ok {
		return nil, errors.New(errors.PhaseDomain, errors.KindNotFound).
			Path(s.name, method).
			Detail("no static method %q", method).
			Build()
	}
	return fn(s.env, args)
}

func (s *static) Get(name string) (any, error) {
	if s.fields == nil {
		return nil, errors.NotFound(errors.PhaseField, "static field", s.name+"."+name)
	}
	return s.fields.Get(s.target, name)
}

func (s *static) Set(name string, v any) error {
	if s.fields == nil {
		return errors.NotFound(errors.PhaseField, "static field", s.name+"."+name)
	}
	return s.fields.Set(s.target, name, v)
}

var statsFields = field.NewTable("Stats").
	MustAdd(field.Ref("DeltaTime", scriptbridge.KindF32, func(s *Stats) *float32 { return &s.DeltaTime })).
	MustAdd(field.Ref("InEditor", scriptbridge.KindBool, func(s *Stats) *bool { return &s.InEditor }))

var inputFields = field.NewTable("Input").
	MustAdd(field.Ref("Gamepads", scriptbridge.KindS32, func(i *Input) *int32 { return &i.Gamepads }))
