package bridge

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/native"
	"github.com/wippyai/script-bridge/object"
)

const tracerName = "github.com/wippyai/script-bridge/bridge"

// State is the load state of a bridge.
type State uint8

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	}
	return "unknown"
}

// Generation describes the span between one successful load and the next.
type Generation struct {
	LoadedAt time.Time
	Image    string
	Domain   string
	Number   uint64
	Digest   uint64 // xxhash of the image bytes
	Types    int
}

// NativeProvider publishes host functions into a freshly loaded generation.
type NativeProvider interface {
	RegisterNatives(b *Bridge) error
}

// NativeProviderFunc adapts a function to NativeProvider.
type NativeProviderFunc func(b *Bridge) error

func (f NativeProviderFunc) RegisterNatives(b *Bridge) error { return f(b) }

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger for advisories and managed log lines.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	}
}

// WithTracerProvider sets the provider used for load spans. The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(b *Bridge) {
		if tp != nil {
			b.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithNativeProvider adds a provider run after every successful load.
func WithNativeProvider(p NativeProvider) Option {
	return func(b *Bridge) {
		b.providers = append(b.providers, p)
	}
}

// Bridge owns the native function table, the object registry and the type
// registry of the current load generation. It is not safe for concurrent
// use; drive it from one simulation goroutine.
type Bridge struct {
	loader     domain.Loader
	log        *zap.Logger
	tracer     trace.Tracer
	natives    *native.Table
	objects    *object.Registry
	types      *domain.Registry
	current    domain.Domain
	destroying map[scriptbridge.Handle]bool
	providers  []NativeProvider
	gen        Generation
	state      State
	supportSet bool
}

// New creates an unloaded bridge that loads domains through loader.
func New(loader domain.Loader, opts ...Option) *Bridge {
	b := &Bridge{
		loader:     loader,
		log:        Logger(),
		tracer:     otel.Tracer(tracerName),
		objects:    object.NewRegistry(),
		types:      domain.NewRegistry(),
		destroying: make(map[scriptbridge.Handle]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.natives = native.NewTable(b.log)
	return b
}

// State returns the current load state.
func (b *Bridge) State() State { return b.state }

// Generation returns the current load generation. Number is zero before the
// first successful load.
func (b *Bridge) Generation() Generation { return b.gen }

// Domain returns the loaded domain, or nil.
func (b *Bridge) Domain() domain.Domain { return b.current }

// Natives returns the native function table.
func (b *Bridge) Natives() *native.Table { return b.natives }

// Objects returns the object registry.
func (b *Bridge) Objects() *object.Registry { return b.objects }

// Types returns the type registry.
func (b *Bridge) Types() *domain.Registry { return b.types }

// Close drops every object, closes the current domain and the loader.
func (b *Bridge) Close(ctx context.Context) error {
	b.objects.Clear()
	b.types.Clear()
	b.natives.Clear()
	b.natives.SetSink(nil)
	if b.current != nil {
		b.retire(ctx, b.current)
		b.current = nil
	}
	b.state = StateUnloaded
	return b.loader.Close(ctx)
}
