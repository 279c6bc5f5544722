// Package wasmdomain hosts managed code compiled to WebAssembly on wazero.
//
// A guest imports the "engine" host module, declares its types from the
// engine_register export and exposes constructors, method dispatch and
// f32 field slots as exports. Each load runs in its own wazero runtime;
// closing the domain closes the runtime and every guest object with it.
package wasmdomain

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/native"
)

// Domain is one loaded guest module.
type Domain struct {
	rt     wazero.Runtime
	mod    api.Module
	log    domain.LogFunc
	call   domain.NativeCaller
	lookup domain.Lookup

	defs    []*typeDef
	byID    map[int32]*typeDef
	regErr  error
	base    *domain.TypeDesc
	types   []*domain.TypeDesc
	natives map[string]native.Signature

	stats stats
	input input
}

func newDomain(rt wazero.Runtime) *Domain {
	return &Domain{
		rt:      rt,
		byID:    make(map[int32]*typeDef),
		natives: make(map[string]native.Signature),
	}
}

func (d *Domain) Name() string { return "wasm" }

func (d *Domain) BindLog(fn domain.LogFunc) { d.log = fn }

func (d *Domain) WorldObjectBase() (*domain.TypeDesc, bool) {
	return d.base, d.base != nil
}

func (d *Domain) BindLookup(l domain.Lookup) { d.lookup = l }

func (d *Domain) BindNatives(call domain.NativeCaller) { d.call = call }

func (d *Domain) Types() ([]*domain.TypeDesc, error) { return d.types, nil }

func (d *Domain) NativeSink() native.Sink { return sink{d} }

// UnregisterNatives forgets published natives and runs engine_unload.
func (d *Domain) UnregisterNatives() {
	clear(d.natives)
	if !d.exported(ExportUnload) {
		return
	}
	if _, err := d.invoke(ExportUnload); err != nil {
		Logger().Warn("unregister natives", zap.Error(err))
	}
}

// Module exposes the guest instance.
func (d *Domain) Module() api.Module { return d.mod }

func (d *Domain) Static(name string) (domain.Static, bool) {
	switch name {
	case domain.StaticStats:
		return &static{d: d, name: name, fields: d.statsFields()}, true
	case domain.StaticInput:
		return &static{
			d:       d,
			name:    name,
			fields:  d.inputFields(),
			methods: map[string]staticMethod{"UpdateGamepadList": (*Domain).updateGamepadList},
		}, true
	case domain.StaticProject:
		methods := d.projectMethods()
		if len(methods) == 0 {
			return nil, false
		}
		return &static{d: d, name: name, methods: methods}, true
	}
	return nil, false
}

// Close closes the runtime. Objects of this domain become inert.
func (d *Domain) Close(ctx context.Context) error {
	d.call = nil
	d.lookup = nil
	d.log = nil
	d.mod = nil
	if d.rt == nil {
		return nil
	}
	rt := d.rt
	d.rt = nil
	return rt.Close(ctx)
}

func (d *Domain) exported(name string) bool {
	return d.mod != nil && d.mod.ExportedFunction(name) != nil
}

// invoke calls a guest export. A closed domain reports not-initialized.
func (d *Domain) invoke(name string, params ...uint64) ([]uint64, error) {
	if d.mod == nil {
		return nil, errors.NotInitialized(errors.PhaseDomain, "wasm guest")
	}
	fn := d.mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseDomain, "guest export", name)
	}
	return fn.Call(context.Background(), params...)
}

// fail records the first registration error raised from a host callback.
func (d *Domain) fail(err error) {
	if d.regErr == nil {
		d.regErr = err
	}
}

type sink struct {
	d *Domain
}

// Publish makes name callable through native_call.
func (s sink) Publish(name string, sig native.Signature) error {
	s.d.natives[name] = sig
	return nil
}
