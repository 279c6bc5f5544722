package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which part of the bridge produced the error
type Phase string

const (
	PhaseLoad   Phase = "load"   // domain load/reload protocol
	PhaseNative Phase = "native" // native function table
	PhaseField  Phase = "field"  // field accessor
	PhaseObject Phase = "object" // object registry and lifecycle
	PhaseType   Phase = "type"   // type registration
	PhaseDomain Phase = "domain" // calls into the managed domain
	PhaseParse  Phase = "parse"  // signature and image parsing
	PhaseConfig Phase = "config" // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch      Kind = "type_mismatch"
	KindInvalidData       Kind = "invalid_data"
	KindUnsupported       Kind = "unsupported"
	KindNotFound          Kind = "not_found"
	KindNotInitialized    Kind = "not_initialized"
	KindInvalidInput      Kind = "invalid_input"
	KindRegistration      Kind = "registration"
	KindInstantiation     Kind = "instantiation"
	KindMissingCapability Kind = "missing_capability"
	KindManaged           Kind = "managed"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value       any
	Cause       error
	Phase       Phase
	Kind        Kind
	GoType      string
	ManagedType string
	Detail      string
	Path        []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.ManagedType != "" {
		b.WriteString(": ")
		switch {
		case e.GoType != "" && e.ManagedType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", managed type ")
			b.WriteString(e.ManagedType)
		case e.GoType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		default:
			b.WriteString("managed type ")
			b.WriteString(e.ManagedType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.ManagedType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the lookup path (handle, field, method)
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// ManagedType sets the managed-side type name
func (b *Builder) ManagedType(t string) *Builder {
	b.err.ManagedType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, managedType string) *Error {
	return &Error{
		Phase:       phase,
		Kind:        KindTypeMismatch,
		Path:        path,
		GoType:      goType,
		ManagedType: managedType,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a registration error
func Registration(phase Phase, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s", name),
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error for a managed type
func Instantiation(typeName string, cause error) *Error {
	return &Error{
		Phase:       PhaseObject,
		Kind:        KindInstantiation,
		ManagedType: typeName,
		Detail:      "construct instance",
		Cause:       cause,
	}
}

// Load creates a domain loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// Managed wraps a failure raised by managed code (script error, trap)
func Managed(path []string, cause error) *Error {
	return &Error{
		Phase: PhaseDomain,
		Kind:  KindManaged,
		Path:  path,
		Cause: cause,
	}
}

// MissingCapability creates an error for a domain lacking the world-object base
func MissingCapability(what string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindMissingCapability,
		Detail: fmt.Sprintf("%s not provided by domain", what),
	}
}

// MissingExport represents a single export absent from a managed image
type MissingExport struct {
	Module string // e.g., "guest"
	Name   string // e.g., "engine_new"
}

// MissingExportsError is returned when a domain image lacks exports the bridge requires
type MissingExportsError struct {
	Exports []MissingExport
}

// NewMissingExportsError creates an error from a list of "module#name" strings
func NewMissingExportsError(exports []string) *MissingExportsError {
	result := &MissingExportsError{
		Exports: make([]MissingExport, 0, len(exports)),
	}
	for _, exp := range exports {
		mod, name := parseExportKey(exp)
		result.Exports = append(result.Exports, MissingExport{
			Module: mod,
			Name:   name,
		})
	}
	return result
}

func parseExportKey(key string) (module, name string) {
	mod, name, found := strings.Cut(key, "#")
	if found {
		return mod, name
	}
	return "", key
}

func (e *MissingExportsError) Error() string {
	if len(e.Exports) == 0 {
		return "[load] missing_capability: no exports specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("missing %d required export(s):\n", len(e.Exports)))

	byMod := make(map[string][]string)
	var modOrder []string
	for _, exp := range e.Exports {
		if _, exists := byMod[exp.Module]; !exists {
			modOrder = append(modOrder, exp.Module)
		}
		byMod[exp.Module] = append(byMod[exp.Module], exp.Name)
	}

	for _, mod := range modOrder {
		b.WriteString("\n  ")
		if mod == "" {
			b.WriteString("(module)")
		} else {
			b.WriteString(mod)
		}
		b.WriteString(":\n")
		for _, name := range byMod[mod] {
			b.WriteString("    - ")
			b.WriteString(name)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type. A missing-capability
// *Error in the load phase also matches.
func (e *MissingExportsError) Is(target error) bool {
	switch t := target.(type) {
	case *MissingExportsError:
		return true
	case *Error:
		return t.Phase == PhaseLoad && t.Kind == KindMissingCapability
	}
	return false
}
