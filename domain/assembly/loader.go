package assembly

import (
	"context"
	"strings"

	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/native"
)

// ImagePrefix starts every assembly image.
const ImagePrefix = "assembly:"

// Image returns the image bytes that load asm.
func Image(asm *Assembly) []byte {
	return []byte(ImagePrefix + asm.name)
}

// Loader loads registered assemblies by name.
type Loader struct {
	assemblies map[string]*Assembly
}

// NewLoader creates a loader over asms.
func NewLoader(asms ...*Assembly) *Loader {
	l := &Loader{assemblies: make(map[string]*Assembly)}
	for _, a := range asms {
		l.assemblies[a.name] = a
	}
	return l
}

// BindSupport accepts only the built-in support; the engine statics of an
// assembly are part of this package.
func (l *Loader) BindSupport(_ context.Context, path string) error {
	if path != "" {
		return errors.Unsupported(errors.PhaseLoad, "assemblies do not take an external support library")
	}
	return nil
}

// Load resolves "assembly:<name>" and builds a fresh domain.
func (l *Loader) Load(_ context.Context, image []byte) (domain.Domain, error) {
	text := string(image)
	if !strings.HasPrefix(text, ImagePrefix) {
		return nil, errors.Load("not an assembly image", nil)
	}
	name := strings.TrimSpace(strings.TrimPrefix(text, ImagePrefix))
	asm, ok := l.assemblies[name]
	if !ok {
		return nil, errors.Load("assembly "+name+" is not registered", nil)
	}
	return newDomain(asm)
}

// Close is a no-op.
func (l *Loader) Close(context.Context) error { return nil }

// Domain is one load of an assembly.
type Domain struct {
	asm   *Assembly
	env   *Env
	base  *domain.TypeDesc
	types []*domain.TypeDesc
}

func newDomain(asm *Assembly) (*Domain, error) {
	d := &Domain{asm: asm, env: newEnv()}
	if !asm.noBase {
		d.base = &domain.TypeDesc{Namespace: BaseNamespace, Name: BaseName}
		d.types = append(d.types, d.base)
	}
	for _, t := range asm.types {
		desc, err := t.build(d.env, d.base)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseType, errors.KindRegistration, err, "build assembly "+asm.name)
		}
		d.types = append(d.types, desc)
	}
	return d, nil
}

func (d *Domain) Name() string { return ImagePrefix + d.asm.name }

func (d *Domain) BindLog(fn domain.LogFunc) { d.env.log = fn }

func (d *Domain) WorldObjectBase() (*domain.TypeDesc, bool) {
	return d.base, d.base != nil
}

func (d *Domain) BindLookup(l domain.Lookup) { d.env.lookup = l }

func (d *Domain) BindNatives(call domain.NativeCaller) { d.env.call = call }

func (d *Domain) Types() ([]*domain.TypeDesc, error) { return d.types, nil }

func (d *Domain) NativeSink() native.Sink { return d.env }

func (d *Domain) UnregisterNatives() { clear(d.env.natives) }

// Env exposes the domain environment.
func (d *Domain) Env() *Env { return d.env }

func (d *Domain) Static(name string) (domain.Static, bool) {
	switch name {
	case domain.StaticStats:
		return &static{name: name, env: d.env, fields: statsFields, target: &d.env.stats}, true
	case domain.StaticInput:
		return &static{
			name:    name,
			env:     d.env,
			fields:  inputFields,
			target:  &d.env.input,
			methods: map[string]StaticMethod{"UpdateGamepadList": (*Env).updateGamepadList},
		}, true
	}
	methods, ok := d.asm.statics[name]
	if !ok {
		return nil, false
	}
	return &static{name: name, env: d.env, methods: methods}, true
}

func (d *Domain) Close(context.Context) error {
	d.env.call = nil
	d.env.lookup = nil
	d.env.log = nil
	return nil
}
