package luadomain

import (
	"github.com/Shopify/go-lua"

	"github.com/wippyai/script-bridge/errors"
)

// static is a global table reached by a dotted path.
type static struct {
	d    *Domain
	name string
	path []string
}

// resolve pushes the table and reports whether every step was a table.
func (s *static) resolve(l *lua.State) bool {
	l.Global(s.path[0])
	for _, p := range s.path[1:] {
		if !l.IsTable(-1) {
			return false
		}
		l.Field(-1, p)
		l.Remove(-2)
	}
	return l.IsTable(-1)
}

// Call runs name.method(args...) without a self argument and returns the
// first result.
func (s *static) Call(method string, args ...any) (any, error) {
	var out any
	err := s.d.protect(func(l *lua.State) error {
		if !s.resolve(l) {
			return errors.NotFound(errors.PhaseDomain, "static type", s.name)
		}
		l.Field(-1, method)
		if !l.IsFunction(-1) {
			return errors.New(errors.PhaseDomain, errors.KindNotFound).
				Path(s.name, method).
				Detail("no static method %q", method).
				Build()
		}
		for _, a := range args {
			s.d.push(l, a)
		}
		if err := l.ProtectedCall(len(args), 1, 0); err != nil {
			return errors.Managed([]string{s.name, method}, err)
		}
		v, err := s.d.pull(l, -1)
		if err != nil {
			return errors.New(errors.PhaseDomain, errors.KindTypeMismatch).
				Path(s.name, method).
				Cause(err).
				Build()
		}
		out = v
		return nil
	})
	return out, err
}

func (s *static) Get(name string) (any, error) {
	var out any
	err := s.d.protect(func(l *lua.State) error {
		if !s.resolve(l) {
			return errors.NotFound(errors.PhaseDomain, "static type", s.name)
		}
		l.Field(-1, name)
		if l.IsNil(-1) {
			return errors.NotFound(errors.PhaseField, "static field", s.name+"."+name)
		}
		v, err := s.d.pull(l, -1)
		out = v
		return err
	})
	return out, err
}

func (s *static) Set(name string, v any) error {
	return s.d.protect(func(l *lua.State) error {
		if !s.resolve(l) {
			return errors.NotFound(errors.PhaseDomain, "static type", s.name)
		}
		s.d.push(l, v)
		l.SetField(-2, name)
		return nil
	})
}
