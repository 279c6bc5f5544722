package wasmdomain

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/domain"
	"github.com/wippyai/script-bridge/errors"
)

// object is a guest object id plus the host-side native pointer.
type object struct {
	d        *Domain
	def      *typeDef
	id       int32
	native   scriptbridge.Counterpart
	released bool
}

func (o *object) Type() *domain.TypeDesc { return o.def.desc }

// ID returns the guest object id.
func (o *object) ID() int32 { return o.id }

// Call dispatches through engine_invoke. A nonzero status is a managed
// failure.
func (o *object) Call(method string) error {
	if o.released {
		return errors.NotInitialized(errors.PhaseDomain, "released wasm object")
	}
	id, ok := o.def.method(method)
	if !ok {
		return errors.New(errors.PhaseDomain, errors.KindNotFound).
			Path(o.def.desc.QualifiedName(), method).
			Detail("no method %q", method).
			Build()
	}
	path := []string{o.def.desc.QualifiedName(), method}
	res, err := o.d.invoke(ExportInvoke, api.EncodeI32(o.id), api.EncodeI32(id))
	if err != nil {
		return errors.Managed(path, err)
	}
	if status := api.DecodeI32(res[0]); status != 0 {
		return errors.Managed(path, fmt.Errorf("guest returned status %d", status))
	}
	return nil
}

func (o *object) Components() []domain.Component {
	if o.released || !o.d.exported(ExportComponentCount) {
		return nil
	}
	res, err := o.d.invoke(ExportComponentCount, api.EncodeI32(o.id))
	if err != nil {
		Logger().Debug("component count failed")
		return nil
	}
	n := api.DecodeI32(res[0])
	out := make([]domain.Component, 0, max(n, 0))
	for i := int32(0); i < n; i++ {
		out = append(out, &component{o: o, index: i})
	}
	return out
}

func (o *object) ClearComponents() {
	if o.released || !o.d.exported(ExportComponentClear) {
		return
	}
	_, _ = o.d.invoke(ExportComponentClear, api.EncodeI32(o.id))
}

// Release runs engine_release once.
func (o *object) Release() {
	if o.released {
		return
	}
	o.released = true
	if o.d.exported(ExportRelease) {
		_, _ = o.d.invoke(ExportRelease, api.EncodeI32(o.id))
	}
}

func (o *object) slot(i int32) (float32, error) {
	res, err := o.d.invoke(ExportGetF32, api.EncodeI32(o.id), api.EncodeI32(i))
	if err != nil {
		return 0, err
	}
	return api.DecodeF32(res[0]), nil
}

func (o *object) setSlot(i int32, v float32) error {
	_, err := o.d.invoke(ExportSetF32, api.EncodeI32(o.id), api.EncodeI32(i), api.EncodeF32(v))
	return err
}

// component addresses the index-th component of a guest object.
type component struct {
	o     *object
	index int32
}

// call runs a per-component export. Missing exports are no-ops.
func (c *component) call(export string) error {
	if c.o.released {
		return errors.NotInitialized(errors.PhaseDomain, "released wasm object")
	}
	if !c.o.d.exported(export) {
		return nil
	}
	res, err := c.o.d.invoke(export, api.EncodeI32(c.o.id), api.EncodeI32(c.index))
	path := []string{c.o.def.desc.QualifiedName(), "component", export}
	if err != nil {
		return errors.Managed(path, err)
	}
	if len(res) > 0 && api.DecodeI32(res[0]) != 0 {
		return errors.Managed(path, fmt.Errorf("guest returned status %d", api.DecodeI32(res[0])))
	}
	return nil
}

func (c *component) Tick() error { return c.call(ExportComponentTick) }

func (c *component) Destroy() error { return c.call(ExportComponentDestroy) }

func (c *component) Native() (scriptbridge.Counterpart, bool) {
	if c.o.released || !c.o.d.exported(ExportComponentNative) {
		return 0, false
	}
	res, err := c.o.d.invoke(ExportComponentNative, api.EncodeI32(c.o.id), api.EncodeI32(c.index))
	if err != nil || len(res) == 0 {
		return 0, false
	}
	p := scriptbridge.Counterpart(res[0])
	return p, p != 0
}
