package wasmdomain_test

import (
	"github.com/tetratelabs/wazero/api"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/internal/wasmbin"
)

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
	f32 = api.ValueTypeF32
)

// Guest layout: strings below 512, native call scratch at 512..536, delta
// at 256, editor flag at 260, gamepads at 264. Object n lives at
// 1024+64n; slot s of it at +4s, component count at +60.
const (
	objBase     = 1024
	healthSlot  = 9
	countOffset = objBase + 60
)

type str struct{ off, n int32 }

type guestStrings struct {
	b    *wasmbin.ModuleBuilder
	next int32
}

func (g *guestStrings) add(s string) str {
	off := g.next
	g.b.Data(uint32(off), []byte(s))
	g.next += int32(len(s)+7) &^ 7
	return str{off, int32(len(s))}
}

// guestOptions toggles the optional parts of the test guest.
type guestOptions struct {
	noBase     bool
	noRegister bool
	project    bool
	components bool
	foreign    bool
}

// buildGuest assembles a guest declaring Engine.WorldObject, Game.Props.Cube,
// Game.Broken and the abstract Game.Pawn.
func buildGuest(opts guestOptions) []byte {
	b := wasmbin.NewModuleBuilder()
	logFn := b.Import("engine", "log", []api.ValueType{i32, i32, i32}, nil)
	defType := b.Import("engine", "define_type", []api.ValueType{i32, i32, i32, i32, i32, i32, i32}, nil)
	defField := b.Import("engine", "define_field", []api.ValueType{i32, i32, i32, i32, i32, i32}, nil)
	defMethod := b.Import("engine", "define_method", []api.ValueType{i32, i32, i32, i32}, nil)
	nativeCall := b.Import("engine", "native_call", []api.ValueType{i32, i32, i32, i32, i32}, []api.ValueType{i32})
	b.Import("engine", "lookup", []api.ValueType{i32}, []api.ValueType{i32})
	if opts.foreign {
		b.Import("env", "abort", nil, nil)
	}
	b.Memory(1, "memory")
	next := b.Global(1)

	s := &guestStrings{b: b, next: 16}
	engineNS := s.add("Engine")
	worldObject := s.add("WorldObject")
	position := s.add("Position")
	rotation := s.add("Rotation")
	scale := s.add("Scale")
	propsNS := s.add("Game.Props")
	cube := s.add("Cube")
	gameNS := s.add("Game")
	broken := s.add("Broken")
	pawn := s.add("Pawn")
	health := s.add("Health")
	update := s.add("Update")
	fail := s.add("Fail")
	callNative := s.add("CallNative")
	updateMsg := s.add("update")
	add := s.add("Add")
	tickMsg := s.add("tick")
	destroyMsg := s.add("component destroyed")
	scene := s.add("Maps/Wasm")
	launched := s.add("launched")

	logLine := func(e *wasmbin.Expr, sev int32, msg str) *wasmbin.Expr {
		return e.I32Const(sev).I32Const(msg.off).I32Const(msg.n).Call(logFn)
	}
	objAddr := func(e *wasmbin.Expr, local uint32) *wasmbin.Expr {
		return e.LocalGet(local).I32Const(64).Op(wasmbin.OpI32Mul)
	}

	// engine_register
	reg := wasmbin.NewExpr()
	defineType := func(id int32, ns, name str, base int32, abstract int32) {
		reg.I32Const(id).I32Const(ns.off).I32Const(ns.n).I32Const(name.off).I32Const(name.n).
			I32Const(base).I32Const(abstract).Call(defType)
	}
	defineField := func(typeID int32, name str, kind scriptbridge.Kind, slot, editor int32) {
		reg.I32Const(typeID).I32Const(name.off).I32Const(name.n).I32Const(int32(kind)).
			I32Const(slot).I32Const(editor).Call(defField)
	}
	defineMethod := func(typeID int32, name str, id int32) {
		reg.I32Const(typeID).I32Const(name.off).I32Const(name.n).I32Const(id).Call(defMethod)
	}
	if !opts.noBase {
		defineType(1, engineNS, worldObject, 0, 1)
	} else {
		defineType(1, gameNS, worldObject, 0, 1)
	}
	defineField(1, position, scriptbridge.KindVector, 0, 0)
	defineField(1, rotation, scriptbridge.KindVector, 3, 0)
	defineField(1, scale, scriptbridge.KindVector, 6, 0)
	defineType(2, propsNS, cube, 1, 0)
	defineField(2, health, scriptbridge.KindF32, healthSlot, 1)
	defineMethod(2, update, 1)
	defineMethod(2, fail, 2)
	defineMethod(2, callNative, 3)
	defineType(3, gameNS, broken, 1, 0)
	defineType(4, gameNS, pawn, 1, 1)
	register := b.Func(nil, nil, nil, reg.End())

	// engine_new(type) -> obj
	newObj := wasmbin.NewExpr().
		LocalGet(0).I32Const(3).Op(wasmbin.OpI32Eq).If().I32Const(-1).Op(wasmbin.OpReturn).Op(wasmbin.OpEnd).
		GlobalGet(next).LocalSet(1).
		GlobalGet(next).I32Const(1).Op(wasmbin.OpI32Add).GlobalSet(next)
	objAddr(newObj, 1).F32Const(100).F32Store(objBase + 4*healthSlot)
	objAddr(newObj, 1).I32Const(1).I32Store(countOffset)
	newObj.LocalGet(1)
	engineNew := b.Func([]api.ValueType{i32}, []api.ValueType{i32}, []api.ValueType{i32}, newObj.End())

	// engine_invoke(obj, method) -> status
	inv := wasmbin.NewExpr()
	inv.LocalGet(1).I32Const(1).Op(wasmbin.OpI32Eq).If()
	objAddr(inv, 0)
	objAddr(inv, 0).F32Load(objBase + 4*healthSlot).F32Const(1).Op(wasmbin.OpF32Sub).F32Store(objBase + 4*healthSlot)
	logLine(inv, 0, updateMsg)
	inv.I32Const(0).Op(wasmbin.OpReturn).Op(wasmbin.OpEnd)
	inv.LocalGet(1).I32Const(2).Op(wasmbin.OpI32Eq).If().I32Const(1).Op(wasmbin.OpReturn).Op(wasmbin.OpEnd)
	inv.LocalGet(1).I32Const(3).Op(wasmbin.OpI32Eq).If()
	inv.I32Const(0).F64Const(2).F64Store(512)
	inv.I32Const(0).F64Const(3).F64Store(520)
	inv.I32Const(add.off).I32Const(add.n).I32Const(512).I32Const(2).I32Const(528).Call(nativeCall).LocalSet(2)
	inv.LocalGet(2).If().LocalGet(2).Op(wasmbin.OpReturn).Op(wasmbin.OpEnd)
	objAddr(inv, 0)
	inv.I32Const(0).F64Load(528).Op(wasmbin.OpF32Demote).F32Store(objBase + 4*healthSlot)
	inv.I32Const(0).Op(wasmbin.OpReturn).Op(wasmbin.OpEnd)
	inv.I32Const(1)
	invoke := b.Func([]api.ValueType{i32, i32}, []api.ValueType{i32}, []api.ValueType{i32}, inv.End())

	slotAddr := func(e *wasmbin.Expr) *wasmbin.Expr {
		objAddr(e, 0)
		return e.LocalGet(1).I32Const(4).Op(wasmbin.OpI32Mul).Op(wasmbin.OpI32Add)
	}
	getF32 := b.Func([]api.ValueType{i32, i32}, []api.ValueType{f32}, nil, slotAddr(wasmbin.NewExpr()).F32Load(objBase).End())
	setF32 := b.Func([]api.ValueType{i32, i32, f32}, nil, nil, slotAddr(wasmbin.NewExpr()).LocalGet(2).F32Store(objBase).End())

	setDelta := b.Func([]api.ValueType{f32}, nil, nil, wasmbin.NewExpr().I32Const(0).LocalGet(0).F32Store(256).End())
	setEditor := b.Func([]api.ValueType{i32}, nil, nil, wasmbin.NewExpr().I32Const(0).LocalGet(0).I32Store(260).End())
	refresh := b.Func([]api.ValueType{i32}, nil, nil, wasmbin.NewExpr().I32Const(0).LocalGet(0).I32Store(264).End())

	if !opts.noRegister {
		b.Export("engine_register", register)
	}
	b.Export("engine_new", engineNew)
	b.Export("engine_invoke", invoke)
	b.Export("engine_get_f32", getF32)
	b.Export("engine_set_f32", setF32)
	b.Export("engine_set_delta", setDelta)
	b.Export("engine_set_editor", setEditor)
	b.Export("engine_input_refresh", refresh)

	if opts.components {
		count := b.Func([]api.ValueType{i32}, []api.ValueType{i32}, nil, objAddr(wasmbin.NewExpr(), 0).I32Load(countOffset).End())
		tick := b.Func([]api.ValueType{i32, i32}, []api.ValueType{i32}, nil, logLine(wasmbin.NewExpr(), 0, tickMsg).I32Const(0).End())
		destroy := b.Func([]api.ValueType{i32, i32}, []api.ValueType{i32}, nil, logLine(wasmbin.NewExpr(), 0, destroyMsg).I32Const(0).End())
		clearAll := b.Func([]api.ValueType{i32}, nil, nil, objAddr(wasmbin.NewExpr(), 0).I32Const(0).I32Store(countOffset).End())
		b.Export("engine_component_count", count)
		b.Export("engine_component_tick", tick)
		b.Export("engine_component_destroy", destroy)
		b.Export("engine_component_clear", clearAll)
	}

	if opts.project {
		packed := int64(scene.off)<<32 | int64(scene.n)
		startup := b.Func(nil, []api.ValueType{i64}, nil, wasmbin.NewExpr().I64Const(packed).End())
		launch := b.Func(nil, nil, nil, logLine(wasmbin.NewExpr(), 0, launched).End())
		b.Export("project_startup_scene", startup)
		b.Export("project_on_launch", launch)
	}
	return b.Build()
}
