// Package luadomain hosts managed code written in Lua on Shopify/go-lua.
//
// A Lua image declares classes with Engine.Class on top of the support
// library (engine.lua, embedded). Each load runs in its own lua.State, so a
// reload drops every class, object and static of the previous generation
// with the state.
package luadomain

import (
	"context"
	"strings"

	"github.com/Shopify/go-lua"
	"go.uber.org/zap"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/native"
)

const refsKey = "scriptbridge.refs"

// Domain is one loaded Lua image.
type Domain struct {
	l       *lua.State
	log     domain.LogFunc
	call    domain.NativeCaller
	lookup  domain.Lookup
	base    *domain.TypeDesc
	types   []*domain.TypeDesc
	nextRef int
}

func (d *Domain) Name() string { return "lua" }

func (d *Domain) BindLog(fn domain.LogFunc) { d.log = fn }

func (d *Domain) WorldObjectBase() (*domain.TypeDesc, bool) {
	return d.base, d.base != nil
}

func (d *Domain) BindLookup(l domain.Lookup) { d.lookup = l }

func (d *Domain) BindNatives(call domain.NativeCaller) { d.call = call }

func (d *Domain) Types() ([]*domain.TypeDesc, error) { return d.types, nil }

func (d *Domain) NativeSink() native.Sink { return sink{d} }

// UnregisterNatives empties Engine.Native.registry.
func (d *Domain) UnregisterNatives() {
	err := d.protect(func(l *lua.State) error {
		if !d.engineFunc(l, "Native", "UnloadAll") {
			return nil
		}
		return l.ProtectedCall(0, 0, 0)
	})
	if err != nil {
		Logger().Warn("unregister natives", zap.Error(err))
	}
}

// Static resolves a dotted global path such as "Engine.Stats" to a table.
func (d *Domain) Static(name string) (domain.Static, bool) {
	s := &static{d: d, name: name, path: strings.Split(name, ".")}
	found := false
	_ = d.protect(func(l *lua.State) error {
		found = s.resolve(l)
		return nil
	})
	if !found {
		return nil, false
	}
	return s, true
}

// Close drops the Lua state. Objects of this domain become inert.
func (d *Domain) Close(context.Context) error {
	d.l = nil
	d.call = nil
	d.lookup = nil
	d.log = nil
	return nil
}

// protect runs fn against the live state and restores the stack afterwards.
func (d *Domain) protect(fn func(l *lua.State) error) error {
	l := d.l
	if l == nil {
		return errors.NotInitialized(errors.PhaseDomain, "lua state")
	}
	top := l.Top()
	defer l.SetTop(top)
	return fn(l)
}

// engineFunc pushes Engine.<table>.<fn> and reports whether it is a function.
func (d *Domain) engineFunc(l *lua.State, table, fn string) bool {
	l.Global("Engine")
	if !l.IsTable(-1) {
		return false
	}
	l.Field(-1, table)
	if !l.IsTable(-1) {
		return false
	}
	l.Field(-1, fn)
	return l.IsFunction(-1)
}

// ref pops the value on top of the stack into the reference table.
func (d *Domain) ref(l *lua.State) int {
	d.nextRef++
	l.Field(lua.RegistryIndex, refsKey)
	l.Insert(-2)
	l.RawSetInt(-2, d.nextRef)
	l.Pop(1)
	return d.nextRef
}

func (d *Domain) deref(l *lua.State, id int) {
	l.Field(lua.RegistryIndex, refsKey)
	l.RawGetInt(-1, id)
	l.Remove(-2)
}

func (d *Domain) unref(id int) {
	_ = d.protect(func(l *lua.State) error {
		l.Field(lua.RegistryIndex, refsKey)
		l.PushNil()
		l.RawSetInt(-2, id)
		return nil
	})
}

func (d *Domain) pushHost(l *lua.State) {
	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "log", Function: d.hostLog},
		{Name: "native", Function: d.hostNative},
		{Name: "lookup", Function: d.hostLookup},
		{Name: "lookup_native", Function: d.hostLookupNative},
	}, 0)
}

func (d *Domain) hostLog(l *lua.State) int {
	severity := lua.CheckInteger(l, 1)
	msg := lua.CheckString(l, 2)
	if d.log == nil {
		Logger().Debug("managed log before bind", zap.Int("severity", severity), zap.String("msg", msg))
		return 0
	}
	d.log(severity, msg)
	return 0
}

func (d *Domain) hostNative(l *lua.State) int {
	name := lua.CheckString(l, 1)
	args := make([]any, 0, l.Top()-1)
	for i := 2; i <= l.Top(); i++ {
		v, err := d.pull(l, i)
		if err != nil {
			lua.Errorf(l, "native %s: argument %d: %s", name, i-1, err.Error())
			return 0
		}
		args = append(args, v)
	}
	if d.call == nil {
		lua.Errorf(l, "native %s: natives are not bound", name)
		return 0
	}
	res, err := d.call(name, args...)
	if err != nil {
		lua.Errorf(l, "native %s: %s", name, err.Error())
		return 0
	}
	d.push(l, res)
	return 1
}

func (d *Domain) hostLookup(l *lua.State) int {
	h := scriptbridge.Handle(lua.CheckInteger(l, 1))
	if d.lookup == nil {
		l.PushNil()
		return 1
	}
	inst, ok := d.lookup.ByHandle(h)
	if !ok {
		l.PushNil()
		return 1
	}
	d.push(l, inst)
	return 1
}

func (d *Domain) hostLookupNative(l *lua.State) int {
	n := lua.CheckNumber(l, 1)
	if d.lookup == nil || n < 0 {
		l.PushNil()
		return 1
	}
	inst, ok := d.lookup.ByCounterpart(scriptbridge.Counterpart(uint64(n)))
	if !ok {
		l.PushNil()
		return 1
	}
	d.push(l, inst)
	return 1
}

type sink struct {
	d *Domain
}

// Publish records name in Engine.Native.registry.
func (s sink) Publish(name string, sig native.Signature) error {
	return s.d.protect(func(l *lua.State) error {
		if !s.d.engineFunc(l, "Native", "RegisterNativeFunction") {
			return errors.MissingCapability("Engine.Native.RegisterNativeFunction")
		}
		l.PushString(name)
		l.PushString(sig.String())
		if err := l.ProtectedCall(2, 0, 0); err != nil {
			return errors.Managed([]string{"Engine.Native", name}, err)
		}
		return nil
	})
}
