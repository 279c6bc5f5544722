package wasmdomain

import (
	"github.com/tetratelabs/wazero/api"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/errors"
	"github.com/wippyai/script-bridge/field"
)

// stats and input are held by the host and forwarded to the guest's
// optional setters on every write.
type stats struct {
	DeltaTime float32
	InEditor  bool
}

type input struct {
	Gamepads int32
}

type staticMethod func(d *Domain) (any, error)

type static struct {
	d       *Domain
	name    string
	fields  *field.Table
	methods map[string]staticMethod
}

func (s *static) Call(method string, _ ...any) (any, error) {
	fn, ok := s.methods[method]
	if !ok {
		return nil, errors.New(errors.PhaseDomain, errors.KindNotFound).
			Path(s.name, method).
			Detail("no static method %q", method).
			Build()
	}
	return fn(s.d)
}

func (s *static) Get(name string) (any, error) {
	if s.fields == nil {
		return nil, errors.NotFound(errors.PhaseField, "static field", s.name+"."+name)
	}
	return s.fields.Get(s.d, name)
}

func (s *static) Set(name string, v any) error {
	if s.fields == nil {
		return errors.NotFound(errors.PhaseField, "static field", s.name+"."+name)
	}
	return s.fields.Set(s.d, name, v)
}

// forward passes a value to an optional guest export.
func (d *Domain) forward(export string, v uint64) error {
	if !d.exported(export) {
		return nil
	}
	_, err := d.invoke(export, v)
	return err
}

func (d *Domain) statsFields() *field.Table {
	return field.NewTable("Stats").
		MustAdd(field.Accessor{
			Name: "DeltaTime",
			Kind: scriptbridge.KindF32,
			Get:  func(any) (any, error) { return d.stats.DeltaTime, nil },
			Set: func(_ any, v any) error {
				d.stats.DeltaTime = v.(float32)
				return d.forward(ExportSetDelta, api.EncodeF32(d.stats.DeltaTime))
			},
		}).
		MustAdd(field.Accessor{
			Name: "InEditor",
			Kind: scriptbridge.KindBool,
			Get:  func(any) (any, error) { return d.stats.InEditor, nil },
			Set: func(_ any, v any) error {
				d.stats.InEditor = v.(bool)
				var flag int32
				if d.stats.InEditor {
					flag = 1
				}
				return d.forward(ExportSetEditor, api.EncodeI32(flag))
			},
		})
}

func (d *Domain) inputFields() *field.Table {
	return field.NewTable("Input").
		MustAdd(field.Accessor{
			Name: "Gamepads",
			Kind: scriptbridge.KindS32,
			Get:  func(any) (any, error) { return d.input.Gamepads, nil },
			Set: func(_ any, v any) error {
				d.input.Gamepads = v.(int32)
				return d.forward(ExportInputRefresh, api.EncodeI32(d.input.Gamepads))
			},
		})
}

// updateGamepadList asks the published GetNumGamepads native for the
// count. Without it the count is zero.
func (d *Domain) updateGamepadList() (any, error) {
	n := int32(0)
	if _, ok := d.natives["GetNumGamepads"]; ok && d.call != nil {
		v, err := d.call("GetNumGamepads")
		if err != nil {
			return nil, err
		}
		if c, ok := scriptbridge.Coerce(scriptbridge.KindS32, v); ok {
			n = c.(int32)
		}
	}
	d.input.Gamepads = n
	return nil, d.forward(ExportInputRefresh, api.EncodeI32(n))
}

// projectMethods maps Project methods to the project_* exports the guest
// provides.
func (d *Domain) projectMethods() map[string]staticMethod {
	m := make(map[string]staticMethod)
	if d.exported(ExportProjectStartup) {
		m["GetStartupScene"] = func(d *Domain) (any, error) { return d.packedString(ExportProjectStartup) }
	}
	if d.exported(ExportProjectName) {
		m["GetProjectName"] = func(d *Domain) (any, error) { return d.packedString(ExportProjectName) }
	}
	if d.exported(ExportProjectOnLaunch) {
		m["OnLaunch"] = func(d *Domain) (any, error) {
			_, err := d.invoke(ExportProjectOnLaunch)
			if err != nil {
				return nil, errors.Managed([]string{"Project", "OnLaunch"}, err)
			}
			return nil, nil
		}
	}
	return m
}

// packedString calls an export returning ptr<<32|len and reads the string.
func (d *Domain) packedString(export string) (any, error) {
	res, err := d.invoke(export)
	if err != nil {
		return nil, errors.Managed([]string{"Project", export}, err)
	}
	packed := res[0]
	s, ok := readString(d.mod, packed>>32, packed&0xffffffff)
	if !ok {
		return nil, errors.InvalidData(errors.PhaseDomain, []string{"Project", export}, "string out of bounds")
	}
	return s, nil
}
