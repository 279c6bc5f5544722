// Package domain defines the contract between the bridge and a loaded
// managed domain, plus the world-object type registry.
//
// A Loader turns an image into a Domain. The bridge drives every Domain
// through the same sequence on each load: bind the log sink, check the
// world-object base, bind the lookup and native callers, read the
// declared types and set configuration flags on static types.
package domain

import (
	"context"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/native"
)

// Severity levels used by managed log calls.
const (
	SeverityInfo  = 0
	SeverityWarn  = 1
	SeverityError = 2
)

// Well-known static types.
const (
	StaticStats   = "Engine.Stats"
	StaticInput   = "Engine.Input"
	StaticProject = "Project"
)

// LogFunc receives managed-side log lines.
type LogFunc func(severity int, msg string)

// Lookup resolves handles and native counterparts to live instances.
type Lookup interface {
	ByHandle(h scriptbridge.Handle) (Instance, bool)
	ByCounterpart(c scriptbridge.Counterpart) (Instance, bool)
}

// NativeCaller invokes a native function by name on behalf of managed code.
type NativeCaller func(name string, args ...any) (any, error)

// Domain is one loaded unit of managed code and its type set.
type Domain interface {
	// Name identifies the domain in logs.
	Name() string

	// BindLog routes managed log calls to fn.
	BindLog(fn LogFunc)

	// WorldObjectBase returns the base world-object type, or false when
	// the domain does not provide one.
	WorldObjectBase() (*TypeDesc, bool)

	// BindLookup lets managed code resolve handles to instances.
	BindLookup(l Lookup)

	// BindNatives lets managed code call native functions by name.
	BindNatives(call NativeCaller)

	// Types returns every type the domain declared, base included.
	Types() ([]*TypeDesc, error)

	// NativeSink returns the managed registry that receives native
	// function registrations, or nil when the domain designates none.
	NativeSink() native.Sink

	// UnregisterNatives drops managed-side native bindings. Best effort.
	UnregisterNatives()

	// Static returns a static type by qualified name.
	Static(name string) (Static, bool)

	// Close releases the domain. Instances must not be used afterwards.
	Close(ctx context.Context) error
}

// Static is a type-level surface: static methods and fields.
type Static interface {
	Call(method string, args ...any) (any, error)
	Get(field string) (any, error)
	Set(field string, v any) error
}

// Instance is one constructed managed object.
type Instance interface {
	Type() *TypeDesc

	// Call invokes a parameterless method. Missing methods return a
	// not-found error.
	Call(method string) error

	// Components returns attached components in attachment order.
	Components() []Component

	// ClearComponents empties the component list.
	ClearComponents()
}

// Component is a unit attached to exactly one instance.
type Component interface {
	// Tick runs the per-frame update.
	Tick() error

	// Destroy runs the teardown hook.
	Destroy() error

	// Native returns the native pointer; false means "not yet loaded".
	Native() (scriptbridge.Counterpart, bool)
}

// Loader creates domains from images.
type Loader interface {
	// BindSupport binds the engine support library found at path. An empty
	// path selects the built-in library where the loader has one. Called
	// once, before the first Load.
	BindSupport(ctx context.Context, path string) error

	// Load parses image and returns a fresh domain.
	Load(ctx context.Context, image []byte) (Domain, error)

	// Close releases loader-wide resources.
	Close(ctx context.Context) error
}
