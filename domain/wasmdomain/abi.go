package wasmdomain

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/errors"
)

// Module names a guest may import from.
const (
	HostModule    = "engine"
	SupportModule = "engine_support"
	GuestModule   = "guest"
)

// Guest exports the domain requires.
const (
	ExportMemory   = "memory"
	ExportRegister = "engine_register"
	ExportNew      = "engine_new"
	ExportInvoke   = "engine_invoke"
	ExportGetF32   = "engine_get_f32"
	ExportSetF32   = "engine_set_f32"
)

// Guest exports the domain uses when present. Component exports address a
// component by its index in the object's list; the list must not shift
// before engine_component_clear runs.
const (
	ExportSetNative        = "engine_set_native"
	ExportRelease          = "engine_release"
	ExportUnload           = "engine_unload"
	ExportComponentCount   = "engine_component_count"
	ExportComponentTick    = "engine_component_tick"
	ExportComponentDestroy = "engine_component_destroy"
	ExportComponentNative  = "engine_component_native"
	ExportComponentClear   = "engine_component_clear"
	ExportSetDelta         = "engine_set_delta"
	ExportSetEditor        = "engine_set_editor"
	ExportInputRefresh     = "engine_input_refresh"
	ExportProjectStartup   = "project_startup_scene"
	ExportProjectName      = "project_name"
	ExportProjectOnLaunch  = "project_on_launch"
)

var requiredExports = []string{ExportRegister, ExportNew, ExportInvoke, ExportGetF32, ExportSetF32}

// native_call status codes returned to the guest.
const (
	StatusOK          = 0
	StatusFailed      = 1
	StatusUnpublished = 2
)

const i32 = api.ValueTypeI32

// instantiateHost registers the "engine" host module in rt. Every function
// closes over d, so a runtime serves exactly one domain.
func (d *Domain) instantiateHost(ctx context.Context, rt wazero.Runtime) error {
	b := rt.NewHostModuleBuilder(HostModule)
	fn := func(name string, f api.GoModuleFunc, params, results []api.ValueType) {
		b.NewFunctionBuilder().WithGoModuleFunction(f, params, results).Export(name)
	}
	fn("log", d.hostLog, []api.ValueType{i32, i32, i32}, nil)
	fn("define_type", d.hostDefineType, []api.ValueType{i32, i32, i32, i32, i32, i32, i32}, nil)
	fn("define_field", d.hostDefineField, []api.ValueType{i32, i32, i32, i32, i32, i32}, nil)
	fn("define_method", d.hostDefineMethod, []api.ValueType{i32, i32, i32, i32}, nil)
	fn("native_call", d.hostNativeCall, []api.ValueType{i32, i32, i32, i32, i32}, []api.ValueType{i32})
	fn("lookup", d.hostLookup, []api.ValueType{i32}, []api.ValueType{i32})
	if _, err := b.Instantiate(ctx); err != nil {
		return errors.Load("instantiate host module", err)
	}
	return nil
}

func readString(m api.Module, ptr, n uint64) (string, bool) {
	if n == 0 {
		return "", true
	}
	b, ok := m.Memory().Read(uint32(ptr), uint32(n))
	if !ok {
		return "", false
	}
	return string(b), true
}

func (d *Domain) hostLog(_ context.Context, m api.Module, stack []uint64) {
	sev := int(api.DecodeI32(stack[0]))
	msg, ok := readString(m, stack[1], stack[2])
	if !ok {
		Logger().Warn("log message out of bounds", zap.Uint64("ptr", stack[1]), zap.Uint64("len", stack[2]))
		return
	}
	if d.log == nil {
		Logger().Debug("managed log before bind", zap.Int("severity", sev), zap.String("msg", msg))
		return
	}
	d.log(sev, msg)
}

func (d *Domain) hostDefineType(_ context.Context, m api.Module, stack []uint64) {
	ns, ok1 := readString(m, stack[1], stack[2])
	name, ok2 := readString(m, stack[3], stack[4])
	if !ok1 || !ok2 {
		d.fail(errors.InvalidData(errors.PhaseType, nil, "type name out of bounds"))
		return
	}
	d.defineType(api.DecodeI32(stack[0]), ns, name, api.DecodeI32(stack[5]), api.DecodeI32(stack[6]) != 0)
}

func (d *Domain) hostDefineField(_ context.Context, m api.Module, stack []uint64) {
	name, ok := readString(m, stack[1], stack[2])
	if !ok {
		d.fail(errors.InvalidData(errors.PhaseType, nil, "field name out of bounds"))
		return
	}
	d.defineField(api.DecodeI32(stack[0]), fieldDef{
		name:   name,
		kind:   scriptbridge.Kind(api.DecodeI32(stack[3])),
		slot:   api.DecodeI32(stack[4]),
		editor: api.DecodeI32(stack[5]) != 0,
	})
}

func (d *Domain) hostDefineMethod(_ context.Context, m api.Module, stack []uint64) {
	name, ok := readString(m, stack[1], stack[2])
	if !ok {
		d.fail(errors.InvalidData(errors.PhaseType, nil, "method name out of bounds"))
		return
	}
	d.defineMethod(api.DecodeI32(stack[0]), name, api.DecodeI32(stack[3]))
}

// hostNativeCall reads argc f64 arguments at argsPtr, calls the native and
// stores its result as an f64 at retPtr.
func (d *Domain) hostNativeCall(_ context.Context, m api.Module, stack []uint64) {
	stack[0] = api.EncodeI32(d.nativeCall(m, stack))
}

func (d *Domain) nativeCall(m api.Module, stack []uint64) int32 {
	name, ok := readString(m, stack[0], stack[1])
	if !ok {
		return StatusFailed
	}
	if _, published := d.natives[name]; !published {
		Logger().Debug("native not published", zap.String("name", name))
		return StatusUnpublished
	}
	if d.call == nil {
		return StatusFailed
	}
	argsPtr, argc, retPtr := uint32(stack[2]), uint32(stack[3]), uint32(stack[4])
	args := make([]any, 0, argc)
	for i := uint32(0); i < argc; i++ {
		v, ok := m.Memory().ReadFloat64Le(argsPtr + 8*i)
		if !ok {
			return StatusFailed
		}
		args = append(args, v)
	}
	res, err := d.call(name, args...)
	if err != nil {
		Logger().Debug("native call failed", zap.String("name", name), zap.Error(err))
		return StatusFailed
	}
	f, ok := toF64(res)
	if !ok {
		Logger().Debug("native result has no numeric form", zap.String("name", name))
		return StatusFailed
	}
	if !m.Memory().WriteFloat64Le(retPtr, f) {
		return StatusFailed
	}
	return StatusOK
}

func (d *Domain) hostLookup(_ context.Context, _ api.Module, stack []uint64) {
	h := scriptbridge.Handle(api.DecodeI32(stack[0]))
	stack[0] = api.EncodeI32(-1)
	if d.lookup == nil {
		return
	}
	inst, ok := d.lookup.ByHandle(h)
	if !ok {
		return
	}
	if o, ok := inst.(*object); ok && o.d == d {
		stack[0] = api.EncodeI32(o.id)
	}
}

// toF64 flattens a native result into the single f64 the guest receives.
func toF64(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case scriptbridge.Counterpart:
		return float64(x), true
	}
	f, ok := scriptbridge.Coerce(scriptbridge.KindF64, v)
	if !ok {
		return 0, false
	}
	return f.(float64), true
}
