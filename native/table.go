package native

import (
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/script-bridge/errors"
)

// Sink is the managed-side registry a domain designates to receive native
// function registrations. A table without a sink accepts no registrations.
type Sink interface {
	Publish(name string, sig Signature) error
}

// Entry is one registered native function.
type Entry struct {
	Name string
	Func *Func
}

// Table maps native function names to callables for one load generation.
// It is not safe for concurrent use.
type Table struct {
	entries map[string]*Entry
	sink    Sink
	log     *zap.Logger
}

// NewTable creates an empty table. A nil logger falls back to Logger().
func NewTable(log *zap.Logger) *Table {
	if log == nil {
		log = Logger()
	}
	return &Table{
		entries: make(map[string]*Entry),
		log:     log,
	}
}

// SetSink designates the managed-side sink. Passing nil detaches it.
func (t *Table) SetSink(s Sink) {
	t.sink = s
}

// HasSink reports whether registrations are currently accepted.
func (t *Table) HasSink() bool {
	return t.sink != nil
}

// Register publishes fn under name to the sink and records it locally,
// replacing any previous entry. Without a sink the call is a no-op and
// logs an advisory. Errors are returned only for invalid input or a sink
// that rejects the name.
func (t *Table) Register(name string, fn *Func) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseNative, "function name cannot be empty")
	}
	if fn == nil {
		return errors.InvalidInput(errors.PhaseNative, "function cannot be nil")
	}
	if t.sink == nil {
		t.log.Warn("native function registered before a managed domain designated a sink",
			zap.String("native", name))
		return nil
	}
	if err := t.sink.Publish(name, fn.sig); err != nil {
		return errors.Registration(errors.PhaseNative, name, err)
	}
	if _, exists := t.entries[name]; exists {
		t.log.Debug("native function replaced", zap.String("native", name))
	}
	t.entries[name] = &Entry{Name: name, Func: fn}
	return nil
}

// Lookup returns the entry registered under name.
func (t *Table) Lookup(name string) (*Entry, bool) {
	e, ok := t.entries[name]
	return e, ok
}

// Invoke calls the function registered under name. A non-zero sig must
// match the registered descriptor.
func (t *Table) Invoke(name string, sig Signature, args ...any) (any, error) {
	e, ok := t.entries[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseNative, "native function", name)
	}
	if !sig.IsZero() && !sig.Equal(e.Func.sig) {
		return nil, errors.New(errors.PhaseNative, errors.KindTypeMismatch).
			Path(name).
			Detail("called as %s, registered as %s", sig, e.Func.sig).
			Build()
	}
	return e.Func.Call(args...)
}

// Clear drops every entry. The sink is kept.
func (t *Table) Clear() {
	clear(t.entries)
}

// Len returns the number of registered functions.
func (t *Table) Len() int {
	return len(t.entries)
}

// Names returns registered names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
