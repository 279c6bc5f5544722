// Package wasmbin provides the WebAssembly binary helpers used by the wasm
// domain: LEB128 encoding, import-section parsing and a small module
// builder for hand-assembled guests.
//
// Parsing is limited to what the loader validates before instantiation:
//
//	imports, err := wasmbin.Imports(image)
//
// Building a module:
//
//	b := wasmbin.NewModuleBuilder()
//	log := b.Import("engine", "log", []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32}, nil)
//	b.Memory(1, "memory")
//	fn := b.Func(nil, nil, nil, wasmbin.NewExpr().I32Const(0).I32Const(0).I32Const(0).Call(log).End())
//	b.Export("engine_register", fn)
//	image := b.Build()
package wasmbin
