package luadomain

import (
	"slices"

	"github.com/Shopify/go-lua"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/errors"
)

const componentsKey = "_components"

// object is a Lua instance table held in the domain's reference table.
type object struct {
	d        *Domain
	desc     *domain.TypeDesc
	ref      int
	released bool
	comps    []*component
}

func (o *object) Type() *domain.TypeDesc { return o.desc }

// Call runs obj:method(). A missing or non-function member is not-found.
func (o *object) Call(method string) error {
	if o.released {
		return errors.NotInitialized(errors.PhaseDomain, "released lua object")
	}
	return o.d.protect(func(l *lua.State) error {
		o.d.deref(l, o.ref)
		l.Field(-1, method)
		if !l.IsFunction(-1) {
			return errors.New(errors.PhaseDomain, errors.KindNotFound).
				Path(o.desc.QualifiedName(), method).
				Detail("no method %q", method).
				Build()
		}
		l.PushValue(-2)
		if err := l.ProtectedCall(1, 0, 0); err != nil {
			return errors.Managed([]string{o.desc.QualifiedName(), method}, err)
		}
		return nil
	})
}

// Components reads obj._components. Proxies stay bound to the same
// component table across calls; proxies whose table left the list are
// released.
func (o *object) Components() []domain.Component {
	if o.released {
		return nil
	}
	var live []*component
	_ = o.d.protect(func(l *lua.State) error {
		o.d.deref(l, o.ref)
		l.Field(-1, componentsKey)
		if !l.IsTable(-1) {
			return nil
		}
		n := l.RawLength(-1)
		for i := 1; i <= n; i++ {
			l.RawGetInt(-1, i)
			if !l.IsTable(-1) {
				l.Pop(1)
				continue
			}
			live = append(live, o.proxy(l))
		}
		return nil
	})
	for _, c := range o.comps {
		if !slices.Contains(live, c) {
			c.release()
		}
	}
	o.comps = live

	out := make([]domain.Component, len(live))
	for i, c := range live {
		out[i] = c
	}
	return out
}

// proxy pops the component table on top of the stack and returns the proxy
// bound to it.
func (o *object) proxy(l *lua.State) *component {
	for _, c := range o.comps {
		if c.released {
			continue
		}
		o.d.deref(l, c.ref)
		same := l.RawEqual(-1, -2)
		l.Pop(1)
		if same {
			l.Pop(1)
			return c
		}
	}
	return &component{o: o, ref: o.d.ref(l)}
}

func (o *object) releaseComponents() {
	for _, c := range o.comps {
		c.release()
	}
	o.comps = nil
}

func (o *object) ClearComponents() {
	if o.released {
		return
	}
	o.releaseComponents()
	_ = o.d.protect(func(l *lua.State) error {
		o.d.deref(l, o.ref)
		l.NewTable()
		l.SetField(-2, componentsKey)
		return nil
	})
}

// Release drops the references so the Lua tables can be collected.
func (o *object) Release() {
	if o.released {
		return
	}
	o.releaseComponents()
	o.released = true
	o.d.unref(o.ref)
}

// component is a component table held in the domain's reference table.
type component struct {
	o        *object
	ref      int
	released bool
}

func (c *component) release() {
	if c.released {
		return
	}
	c.released = true
	c.o.d.unref(c.ref)
}

// push leaves the component table on the stack, or reports false.
func (c *component) push(l *lua.State) bool {
	c.o.d.deref(l, c.ref)
	return l.IsTable(-1)
}

func (c *component) call(method string) error {
	if c.o.released {
		return errors.NotInitialized(errors.PhaseDomain, "released lua object")
	}
	if c.released {
		return errors.NotFound(errors.PhaseDomain, "component", c.o.desc.QualifiedName())
	}
	return c.o.d.protect(func(l *lua.State) error {
		if !c.push(l) {
			return errors.NotFound(errors.PhaseDomain, "component", c.o.desc.QualifiedName())
		}
		l.Field(-1, method)
		if !l.IsFunction(-1) {
			return nil
		}
		l.PushValue(-2)
		if err := l.ProtectedCall(1, 0, 0); err != nil {
			return errors.Managed([]string{c.o.desc.QualifiedName(), "component", method}, err)
		}
		return nil
	})
}

func (c *component) Tick() error { return c.call("Tick") }

func (c *component) Destroy() error { return c.call("Destroy") }

func (c *component) Native() (scriptbridge.Counterpart, bool) {
	var ptr scriptbridge.Counterpart
	if c.o.released || c.released {
		return 0, false
	}
	_ = c.o.d.protect(func(l *lua.State) error {
		if !c.push(l) {
			return nil
		}
		l.Field(-1, scriptbridge.FieldNative)
		if n, ok := l.ToNumber(-1); ok && n > 0 {
			ptr = scriptbridge.Counterpart(uint64(n))
		}
		return nil
	})
	return ptr, ptr != 0
}
